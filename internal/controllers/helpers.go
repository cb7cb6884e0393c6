package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fsdevblog/shortlinks/internal/controllers/middlewares"
	"github.com/fsdevblog/shortlinks/internal/models"
)

const (
	DefaultRequestTimeout = 3 * time.Second
)

// mustUser возвращает пользователя из контекста. Без пользователя отвечает 401 и возвращает false,
// это возможно только если маршрут забыли закрыть BearerAuth.
func mustUser(ctx *gin.Context) (*models.User, bool) {
	user, ok := middlewares.CurrentUser(ctx)
	if !ok {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return nil, false
	}
	return user, true
}
