// Package memstore предоставляет реализацию репозиториев ссылок и пользователей для in-memory хранилища.
//
// Ссылки хранятся по ключу shortId, поэтому уникальность короткого идентификатора обеспечивает само хранилище.
// Пользователи хранятся по email в нижнем регистре.
//
// Все методы репозитория преобразуют внутренние ошибки хранилища в общие ошибки уровня репозитория
// с помощью convertErrorType:
//   - memory.ErrDuplicateKey -> repositories.ErrDuplicateKey
//   - memory.ErrNotFound -> repositories.ErrNotFound
//   - другие ошибки -> repositories.ErrUnknown
package memstore
