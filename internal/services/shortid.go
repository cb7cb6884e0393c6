package services

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// shortIDAlphabet url-safe алфавит из 64 символов, поэтому byte&63 дает равномерное распределение.
const shortIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

const (
	aliasMinLength = 3
	aliasMaxLength = 32
)

var aliasRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// reservedAliases совпадают с корневыми маршрутами и не могут быть короткими идентификаторами.
var reservedAliases = []string{"api", "health", "livez", "readyz"} //nolint:gochecknoglobals

// generateShortID генерирует случайный идентификатор заданной длины.
func generateShortID(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = shortIDAlphabet[b&63]
	}
	return string(buf), nil
}

// validateAlias проверяет пользовательский alias.
func validateAlias(alias string) error {
	if len(alias) < aliasMinLength || len(alias) > aliasMaxLength {
		return newValidationError("alias",
			fmt.Sprintf("Alias must be %d-%d characters long", aliasMinLength, aliasMaxLength))
	}
	if !aliasRegex.MatchString(alias) {
		return newValidationError("alias", "Alias may contain only letters, digits, '_' and '-'")
	}
	if slices.Contains(reservedAliases, strings.ToLower(alias)) {
		return newValidationError("alias", "Alias is reserved")
	}
	return nil
}
