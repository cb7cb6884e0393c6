package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fsdevblog/shortlinks/internal/services"
)

// respondError отвечает клиенту json {"message": ...} со статусом, соответствующим ошибке сервиса.
// notFoundMessage используется для services.ErrRecordNotFound.
func respondError(ctx *gin.Context, err error, notFoundMessage string) {
	_ = ctx.Error(err)

	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		ctx.JSON(http.StatusBadRequest, gin.H{"message": vErr.Message})
	case errors.Is(err, services.ErrAliasTaken):
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Alias already taken"})
	case errors.Is(err, services.ErrUserExists):
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "User already exists"})
	case errors.Is(err, services.ErrInvalidCredentials):
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid credentials"})
	case errors.Is(err, services.ErrInvalidToken):
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
	case errors.Is(err, services.ErrRecordNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"message": notFoundMessage})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
	}
}
