package controllers

import (
	"context"

	"github.com/fsdevblog/shortlinks/internal/models"
	"github.com/fsdevblog/shortlinks/internal/services"
)

//go:generate mockgen -source=interfaces.go -destination=mocksctrl/store.go -package=mocksctrl

type ConnectionChecker interface {
	CheckConnection(ctx context.Context) error
}

// LinkStore операции над короткими ссылками.
type LinkStore interface {
	Create(ctx context.Context, ownerID string, params services.CreateLinkParams) (*models.Link, error)
	// Visit учитывает переход и возвращает адрес для редиректа.
	Visit(ctx context.Context, shortID string) (string, error)
	List(ctx context.Context, ownerID string) ([]models.Link, error)
	Delete(ctx context.Context, id, ownerID string) error
	Analytics(ctx context.Context, id, ownerID string) (*services.LinkAnalytics, error)
	Stats(ctx context.Context, ownerID string) (*services.DashboardStats, error)
	QRCode(ctx context.Context, id, ownerID string, size int) ([]byte, error)
}

// Authenticator регистрация, вход и проверка токенов.
type Authenticator interface {
	Signup(ctx context.Context, params services.SignupParams) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
}
