package services

import "errors"

var (
	ErrUnknown            = errors.New("[service]: unknown error")
	ErrRecordNotFound     = errors.New("[service]: record not found")
	ErrAliasTaken         = errors.New("[service]: alias already taken")
	ErrUserExists         = errors.New("[service]: user already exists")
	ErrInvalidCredentials = errors.New("[service]: invalid credentials")
	ErrInvalidToken       = errors.New("[service]: invalid token")
	ErrValidation         = errors.New("[service]: validation failed")
)

// ValidationError ошибка входных данных. Message предназначено для клиента.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is позволяет проверять ValidationError через errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation //nolint:errorlint
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
