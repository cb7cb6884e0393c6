package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fsdevblog/shortlinks/internal/services"
)

// AuthController регистрация и вход.
type AuthController struct {
	users Authenticator
}

func NewAuthController(users Authenticator) *AuthController {
	return &AuthController{users: users}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup обрабатывает POST /api/auth/signup. Отвечает {token, user}.
func (c *AuthController) Signup(ctx *gin.Context) {
	var req signupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		_ = ctx.Error(err)
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), DefaultRequestTimeout)
	defer cancel()

	res, err := c.users.Signup(reqCtx, services.SignupParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(ctx, err, "User not found")
		return
	}
	ctx.JSON(http.StatusOK, res)
}

// Login обрабатывает POST /api/auth/login. Отвечает {token, user}.
func (c *AuthController) Login(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		_ = ctx.Error(err)
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), DefaultRequestTimeout)
	defer cancel()

	res, err := c.users.Login(reqCtx, req.Email, req.Password)
	if err != nil {
		respondError(ctx, err, "User not found")
		return
	}
	ctx.JSON(http.StatusOK, res)
}
