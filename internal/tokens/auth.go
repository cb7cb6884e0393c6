package tokens

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// AccessClaims данные JWT токена доступа пользователя.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
}

// GenerateAccessToken создает JWT токен доступа для пользователя.
//
// Параметры:
//   - userID: идентификатор пользователя
//   - expire: срок действия токена
//   - key: ключ для подписи токена
//
// Возвращает:
//   - string: сгенерированный JWT токен
//   - error: ошибка генерации токена
func GenerateAccessToken(userID string, expire time.Duration, key []byte) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expire)),
		},
		UserID: userID,
	}
	token, err := generateJWT(claims, key)
	if err != nil {
		return "", fmt.Errorf("generating access jwt token: %w", err)
	}
	return token, nil
}

// ValidateAccessToken проверяет токен доступа и возвращает идентификатор пользователя.
// Просроченный токен - ErrTokenExpired, любая другая проблема - ErrInvalidToken.
func ValidateAccessToken(tokenString string, key []byte) (string, error) {
	token, err := validateJWT(tokenString, new(AccessClaims), key)
	if err != nil {
		return "", fmt.Errorf("validating access jwt token: %w", err)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || claims.UserID == "" {
		return "", errors.Wrap(ErrInvalidToken, "invalid claims")
	}
	return claims.UserID, nil
}

func generateJWT(claims jwt.Claims, key []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("generating jwt token: %w", err)
	}

	return tokenString, nil
}

// validateJWT проверяет подпись и срок действия токена.
func validateJWT(tokenString string, claims jwt.Claims, key []byte) (*jwt.Token, error) {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}

	return token, nil
}
