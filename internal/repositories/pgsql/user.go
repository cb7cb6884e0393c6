package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/fsdevblog/shortlinks/internal/models"
	"github.com/fsdevblog/shortlinks/internal/repositories"
)

type UserRepo struct {
	conn   *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepo(conn *pgxpool.Pool, logger *zap.Logger) *UserRepo {
	return &UserRepo{
		conn:   conn,
		logger: logger.With(zap.String("module", "repository/pgsql/user")),
	}
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	_, err := r.conn.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Name, strings.ToLower(user.Email), user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", convertErrorType(err))
	}
	return user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `WHERE lower(email) = lower($1)`, email)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *UserRepo) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	var u models.User
	err := r.conn.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users `+where, arg,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		converted := convertErrorType(err)
		if !isNotFound(converted) {
			r.logger.Error("failed to get user", zap.Error(err))
		}
		return nil, fmt.Errorf("failed to get user: %w", converted)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, repositories.ErrNotFound)
}
