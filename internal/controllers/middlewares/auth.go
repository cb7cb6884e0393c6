package middlewares

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fsdevblog/shortlinks/internal/models"
	"github.com/fsdevblog/shortlinks/internal/services"
)

const (
	userContextKey = "user"
	bearerPrefix   = "Bearer "
)

// UserResolver находит пользователя по токену доступа.
type UserResolver interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// BearerAuth пропускает запрос дальше только с валидным заголовком `Authorization: Bearer <token>`.
//
// Ответы при отказе:
//   - 401 {"message":"Unauthorized"}: заголовка нет или он не Bearer
//   - 401 {"message":"Invalid token"}: токен не прошел проверку
//   - 500 {"message":"Server error"}: хранилище пользователей недоступно
func BearerAuth(resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		user, err := resolver.Authenticate(c.Request.Context(), token)
		if err != nil {
			_ = c.Error(fmt.Errorf("authenticate: %w", err))
			if errors.Is(err, services.ErrUnknown) {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// CurrentUser возвращает пользователя, сохраненного BearerAuth.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}
