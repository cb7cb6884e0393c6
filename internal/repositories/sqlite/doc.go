// Package sqlite предоставляет реализацию репозиториев ссылок и пользователей поверх gorm и SQLite.
//
// История переходов хранится в таблице link_clicks, по одной строке на пару (ссылка, день).
// Ошибки gorm преобразуются в ошибки уровня репозитория функцией convertErrorType.
package sqlite
