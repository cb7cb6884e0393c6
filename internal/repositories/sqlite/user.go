package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fsdevblog/shortlinks/internal/db"
	"github.com/fsdevblog/shortlinks/internal/models"
	"github.com/fsdevblog/shortlinks/internal/repositories"
)

type UserRepo struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewUserRepo(conn *gorm.DB, logger *zap.Logger) *UserRepo {
	return &UserRepo{
		db:     conn,
		logger: logger.With(zap.String("module", "repository/sqlite/user")),
	}
}

// Create сохраняет пользователя. Email приводится к нижнему регистру, уникальность обеспечивает индекс.
func (r *UserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	row := db.UserRow{
		ID:           user.ID,
		Name:         user.Name,
		Email:        strings.ToLower(user.Email),
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		converted := convertErrorType(err)
		if !errorsIsDuplicate(converted) {
			r.logger.Error("failed to create user", zap.Error(err))
		}
		return nil, fmt.Errorf("failed to create user: %w", converted)
	}
	return user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var row db.UserRow
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", convertErrorType(err))
	}
	return userModel(&row), nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	var row db.UserRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, convertErrorType(err))
	}
	return userModel(&row), nil
}

func userModel(row *db.UserRow) *models.User {
	return &models.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
	}
}

func errorsIsDuplicate(err error) bool {
	return errors.Is(err, repositories.ErrDuplicateKey)
}
