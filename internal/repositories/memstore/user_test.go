package memstore

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fsdevblog/shortlinks/internal/db"
	"github.com/fsdevblog/shortlinks/internal/models"
	"github.com/fsdevblog/shortlinks/internal/repositories"
)

func TestUserRepo(t *testing.T) {
	repo := NewUserRepo(db.NewMemStorage())
	ctx := t.Context()

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         gofakeit.Name(),
		Email:        "Jane@Example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	}
	_, err := repo.Create(ctx, user)
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.User{ID: uuid.NewString(), Email: "jane@example.com"})
	require.ErrorIs(t, err, repositories.ErrDuplicateKey)

	byEmail, err := repo.GetByEmail(ctx, "JANE@example.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, byEmail.ID)
	require.Equal(t, "hash", byEmail.PasswordHash)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, user.Email, byID.Email)

	_, err = repo.GetByID(ctx, uuid.NewString())
	require.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, repositories.ErrNotFound)
}
