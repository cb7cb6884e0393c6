package memstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/fsdevblog/shortlinks/internal/db"
	"github.com/fsdevblog/shortlinks/internal/db/memory"
	"github.com/fsdevblog/shortlinks/internal/models"
	"github.com/fsdevblog/shortlinks/internal/repositories"
)

// LinkRepo репозиторий коротких ссылок в памяти.
type LinkRepo struct {
	s *db.MemoryStorage
}

// NewLinkRepo создает новый экземпляр репозитория ссылок.
func NewLinkRepo(store *db.MemoryStorage) *LinkRepo {
	return &LinkRepo{s: store}
}

// Create сохраняет новую ссылку. Если shortId уже занят - repositories.ErrDuplicateKey.
func (r *LinkRepo) Create(ctx context.Context, link *models.Link) (*models.Link, error) {
	if link.ClickHistory == nil {
		link.ClickHistory = []models.ClickDay{}
	}
	if err := memory.Set[models.Link](ctx, link.ShortID, link, r.s.Links); err != nil {
		return nil, fmt.Errorf("failed to create link %s: %w", link.ShortID, convertErrorType(err))
	}
	return link, nil
}

func (r *LinkRepo) ShortIDExists(_ context.Context, shortID string) (bool, error) {
	return r.s.Links.IsExist(shortID), nil
}

// RecordClick атомарно увеличивает счетчик ссылки и счетчик дня day.
//
// Возвращает:
//   - string: оригинальный URL ссылки
//   - error: repositories.ErrNotFound, если ссылки нет
func (r *LinkRepo) RecordClick(ctx context.Context, shortID string, day time.Time) (string, error) {
	now := time.Now().UTC()
	link, err := memory.Update[models.Link](ctx, shortID, r.s.Links, func(l *models.Link) error {
		l.AddClick(day)
		l.UpdatedAt = now
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to record click for %s: %w", shortID, convertErrorType(err))
	}
	return link.LongURL, nil
}

// ListByOwner возвращает ссылки владельца, новые первыми.
func (r *LinkRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Link, error) {
	links, err := memory.FilterAll[models.Link](ctx, r.s.Links, func(l models.Link) bool {
		return l.Owner == ownerID
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list links of %s: %w", ownerID, convertErrorType(err))
	}
	slices.SortStableFunc(links, func(a, b models.Link) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return links, nil
}

func (r *LinkRepo) GetByIDOwner(ctx context.Context, id, ownerID string) (*models.Link, error) {
	link, err := r.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if link.Owner != ownerID {
		return nil, fmt.Errorf("link %s: %w", id, repositories.ErrNotFound)
	}
	return link, nil
}

// DeleteByIDOwner удаляет ссылку, если она принадлежит ownerID. Иначе repositories.ErrNotFound.
func (r *LinkRepo) DeleteByIDOwner(ctx context.Context, id, ownerID string) error {
	link, err := r.findByID(ctx, id)
	if err != nil {
		return err
	}
	_, delErr := memory.DeleteFunc[models.Link](ctx, link.ShortID, r.s.Links, func(l models.Link) bool {
		return l.ID == id && l.Owner == ownerID
	})
	if delErr != nil {
		return fmt.Errorf("failed to delete link %s: %w", id, convertErrorType(delErr))
	}
	return nil
}

func (r *LinkRepo) findByID(ctx context.Context, id string) (*models.Link, error) {
	found, err := memory.FilterAll[models.Link](ctx, r.s.Links, func(l models.Link) bool {
		return l.ID == id
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find link %s: %w", id, convertErrorType(err))
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("link %s: %w", id, repositories.ErrNotFound)
	}
	return &found[0], nil
}
