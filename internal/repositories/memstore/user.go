package memstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fsdevblog/shortlinks/internal/db"
	"github.com/fsdevblog/shortlinks/internal/db/memory"
	"github.com/fsdevblog/shortlinks/internal/models"
	"github.com/fsdevblog/shortlinks/internal/repositories"
)

// userRecord хранимое представление пользователя. В models.User хеш пароля скрыт от json.
type userRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (u userRecord) model() *models.User {
	return &models.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

type UserRepo struct {
	s *db.MemoryStorage
}

func NewUserRepo(store *db.MemoryStorage) *UserRepo {
	return &UserRepo{s: store}
}

// Create сохраняет пользователя. Email уникален без учета регистра.
func (r *UserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	rec := userRecord{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
	if err := memory.Set[userRecord](ctx, emailKey(user.Email), &rec, r.s.Users); err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", user.Email, convertErrorType(err))
	}
	return user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	rec, err := memory.Get[userRecord](ctx, emailKey(email), r.s.Users)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, convertErrorType(err))
	}
	return rec.model(), nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	found, err := memory.FilterAll[userRecord](ctx, r.s.Users, func(u userRecord) bool {
		return u.ID == id
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, convertErrorType(err))
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
	}
	return found[0].model(), nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
