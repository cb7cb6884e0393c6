package services

import (
	"context"
	"time"

	"github.com/fsdevblog/shortlinks/internal/models"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock.go -package=mocks

// LinkRepository описывает хранилище коротких ссылок.
type LinkRepository interface {
	// Create сохраняет ссылку. Если shortId уже занят - repositories.ErrDuplicateKey.
	Create(ctx context.Context, link *models.Link) (*models.Link, error)
	// ShortIDExists проверяет, занят ли короткий идентификатор.
	ShortIDExists(ctx context.Context, shortID string) (bool, error)
	// RecordClick атомарно учитывает переход за день day и возвращает оригинальный URL.
	RecordClick(ctx context.Context, shortID string, day time.Time) (string, error)
	// ListByOwner возвращает ссылки владельца с историей, новые первыми.
	ListByOwner(ctx context.Context, ownerID string) ([]models.Link, error)
	GetByIDOwner(ctx context.Context, id, ownerID string) (*models.Link, error)
	DeleteByIDOwner(ctx context.Context, id, ownerID string) error
}

// UserRepository описывает хранилище пользователей.
type UserRepository interface {
	// Create сохраняет пользователя. Если email занят - repositories.ErrDuplicateKey.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// UserCache кеш пользователей для проверки токенов.
type UserCache interface {
	Get(ctx context.Context, id string) (*models.User, bool, error)
	Set(ctx context.Context, user *models.User) error
}
