package sqlite

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fsdevblog/shortlinks/internal/db"
	"github.com/fsdevblog/shortlinks/internal/models"
)

type LinkRepo struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewLinkRepo(conn *gorm.DB, logger *zap.Logger) *LinkRepo {
	return &LinkRepo{
		db:     conn,
		logger: logger.With(zap.String("module", "repository/sqlite/link")),
	}
}

func (r *LinkRepo) Create(ctx context.Context, link *models.Link) (*models.Link, error) {
	row := db.LinkRow{
		ID:        link.ID,
		OwnerID:   link.Owner,
		LongURL:   link.LongURL,
		ShortID:   link.ShortID,
		Alias:     link.Alias,
		CreatedAt: link.CreatedAt,
		UpdatedAt: link.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		converted := convertErrorType(err)
		if !errorsIsDuplicate(converted) {
			r.logger.Error("failed to create link", zap.String("shortID", link.ShortID), zap.Error(err))
		}
		return nil, fmt.Errorf("failed to create link %s: %w", link.ShortID, converted)
	}
	if link.ClickHistory == nil {
		link.ClickHistory = []models.ClickDay{}
	}
	return link, nil
}

func (r *LinkRepo) ShortIDExists(ctx context.Context, shortID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.LinkRow{}).Where("short_id = ?", shortID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check short id %s: %w", shortID, convertErrorType(err))
	}
	return count > 0, nil
}

// RecordClick в одной транзакции увеличивает счетчик ссылки и делает upsert строки дня в link_clicks.
func (r *LinkRepo) RecordClick(ctx context.Context, shortID string, day time.Time) (string, error) {
	var row db.LinkRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&db.LinkRow{}).
			Where("short_id = ?", shortID).
			Updates(map[string]any{
				"clicks":     gorm.Expr("clicks + 1"),
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Select("id", "long_url").Where("short_id = ?", shortID).First(&row).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "link_id"}, {Name: "day"}},
			DoUpdates: clause.Assignments(map[string]any{"count": gorm.Expr("link_clicks.count + 1")}),
		}).Create(&db.ClickRow{LinkID: row.ID, Day: models.Day(day), Count: 1}).Error
	})
	if err != nil {
		return "", fmt.Errorf("failed to record click for %s: %w", shortID, convertErrorType(err))
	}
	return row.LongURL, nil
}

// ListByOwner возвращает ссылки владельца вместе с историей переходов, новые первыми.
func (r *LinkRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Link, error) {
	var rows []db.LinkRow
	err := r.withHistory(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list links of %s: %w", ownerID, convertErrorType(err))
	}
	links := make([]models.Link, len(rows))
	for i := range rows {
		links[i] = toModel(&rows[i])
	}
	return links, nil
}

func (r *LinkRepo) GetByIDOwner(ctx context.Context, id, ownerID string) (*models.Link, error) {
	var row db.LinkRow
	err := r.withHistory(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get link %s: %w", id, convertErrorType(err))
	}
	link := toModel(&row)
	return &link, nil
}

func (r *LinkRepo) DeleteByIDOwner(ctx context.Context, id, ownerID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&db.LinkRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("link_id = ?", id).Delete(&db.ClickRow{}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete link %s: %w", id, convertErrorType(err))
	}
	return nil
}

func (r *LinkRepo) withHistory(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("History", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("day ASC")
	})
}

func toModel(row *db.LinkRow) models.Link {
	history := make([]models.ClickDay, len(row.History))
	for i, h := range row.History {
		history[i] = models.ClickDay{Date: models.Day(h.Day), Count: h.Count}
	}
	return models.Link{
		ID:           row.ID,
		Owner:        row.OwnerID,
		LongURL:      row.LongURL,
		ShortID:      row.ShortID,
		Alias:        row.Alias,
		Clicks:       row.Clicks,
		ClickHistory: history,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}
