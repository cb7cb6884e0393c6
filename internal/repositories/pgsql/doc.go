// Package pgsql предоставляет реализацию репозиториев ссылок и пользователей для PostgreSQL (pgx).
//
// Все методы репозитория преобразуют ошибки PostgreSQL в общие ошибки уровня репозитория
// с помощью convertErrorType:
//   - uniqueViolationCode (23505) -> repositories.ErrDuplicateKey
//   - pgx.ErrNoRows и invalidTextRepresentation (22P02, например кривой uuid) -> repositories.ErrNotFound
//   - другие ошибки -> repositories.ErrUnknown
package pgsql
