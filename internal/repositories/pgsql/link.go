package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/fsdevblog/shortlinks/internal/models"
	"github.com/fsdevblog/shortlinks/internal/repositories"
)

// LinkRepo репозиторий ссылок в PostgreSQL.
type LinkRepo struct {
	conn   *pgxpool.Pool
	logger *zap.Logger
}

func NewLinkRepo(conn *pgxpool.Pool, logger *zap.Logger) *LinkRepo {
	return &LinkRepo{
		conn:   conn,
		logger: logger.With(zap.String("module", "repository/pgsql/link")),
	}
}

func (r *LinkRepo) Create(ctx context.Context, link *models.Link) (*models.Link, error) {
	const sql = `INSERT INTO links (id, owner_id, long_url, short_id, alias, clicks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7)`

	_, err := r.conn.Exec(ctx, sql,
		link.ID, link.Owner, link.LongURL, link.ShortID, link.Alias, link.CreatedAt, link.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create link %s: %w", link.ShortID, convertErrorType(err))
	}
	if link.ClickHistory == nil {
		link.ClickHistory = []models.ClickDay{}
	}
	return link, nil
}

func (r *LinkRepo) ShortIDExists(ctx context.Context, shortID string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM links WHERE short_id = $1)`, shortID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check short id %s: %w", shortID, convertErrorType(err))
	}
	return exists, nil
}

// RecordClick выполняет в одной транзакции UPDATE ... RETURNING (блокирует строку ссылки)
// и upsert дневного счетчика.
func (r *LinkRepo) RecordClick(ctx context.Context, shortID string, day time.Time) (string, error) {
	const updateSQL = `UPDATE links SET clicks = clicks + 1, updated_at = now()
		WHERE short_id = $1 RETURNING id, long_url`
	const upsertSQL = `INSERT INTO link_clicks (link_id, day, count) VALUES ($1, $2, 1)
		ON CONFLICT (link_id, day) DO UPDATE SET count = link_clicks.count + 1`

	var linkID, longURL string
	err := pgx.BeginFunc(ctx, r.conn, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, updateSQL, shortID).Scan(&linkID, &longURL); err != nil {
			return err //nolint:wrapcheck
		}
		_, err := tx.Exec(ctx, upsertSQL, linkID, models.Day(day))
		return err //nolint:wrapcheck
	})
	if err != nil {
		converted := convertErrorType(err)
		if !isNotFound(converted) {
			r.logger.Error("failed to record click", zap.String("shortID", shortID), zap.Error(err))
		}
		return "", fmt.Errorf("failed to record click for %s: %w", shortID, converted)
	}
	return longURL, nil
}

const selectLinkSQL = `SELECT id, owner_id, long_url, short_id, alias, clicks, created_at, updated_at FROM links`

// ListByOwner возвращает ссылки владельца с историей переходов, новые первыми.
func (r *LinkRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Link, error) {
	rows, err := r.conn.Query(ctx, selectLinkSQL+` WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links of %s: %w", ownerID, convertErrorType(err))
	}
	links, err := pgx.CollectRows(rows, scanLink)
	if err != nil {
		return nil, fmt.Errorf("failed to scan links of %s: %w", ownerID, convertErrorType(err))
	}
	if len(links) == 0 {
		return links, nil
	}

	ids := make([]string, len(links))
	for i := range links {
		ids[i] = links[i].ID
	}
	history, err := r.loadHistory(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range links {
		if h, ok := history[links[i].ID]; ok {
			links[i].ClickHistory = h
		}
	}
	return links, nil
}

func (r *LinkRepo) GetByIDOwner(ctx context.Context, id, ownerID string) (*models.Link, error) {
	rows, err := r.conn.Query(ctx, selectLinkSQL+` WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get link %s: %w", id, convertErrorType(err))
	}
	link, err := pgx.CollectExactlyOneRow(rows, scanLink)
	if err != nil {
		return nil, fmt.Errorf("failed to get link %s: %w", id, convertErrorType(err))
	}
	history, err := r.loadHistory(ctx, []string{link.ID})
	if err != nil {
		return nil, err
	}
	if h, ok := history[link.ID]; ok {
		link.ClickHistory = h
	}
	return &link, nil
}

// DeleteByIDOwner удаляет ссылку владельца. История удаляется каскадно.
func (r *LinkRepo) DeleteByIDOwner(ctx context.Context, id, ownerID string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM links WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete link %s: %w", id, convertErrorType(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("link %s: %w", id, repositories.ErrNotFound)
	}
	return nil
}

func (r *LinkRepo) loadHistory(ctx context.Context, ids []string) (map[string][]models.ClickDay, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT link_id, day, count FROM link_clicks WHERE link_id = ANY($1) ORDER BY link_id, day`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load click history: %w", convertErrorType(err))
	}
	defer rows.Close()

	result := make(map[string][]models.ClickDay, len(ids))
	for rows.Next() {
		var linkID string
		var c models.ClickDay
		if scanErr := rows.Scan(&linkID, &c.Date, &c.Count); scanErr != nil {
			return nil, fmt.Errorf("failed to scan click history: %w", convertErrorType(scanErr))
		}
		c.Date = models.Day(c.Date)
		result[linkID] = append(result[linkID], c)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to read click history: %w", convertErrorType(rowsErr))
	}
	return result, nil
}

func scanLink(row pgx.CollectableRow) (models.Link, error) {
	var l models.Link
	err := row.Scan(&l.ID, &l.Owner, &l.LongURL, &l.ShortID, &l.Alias, &l.Clicks, &l.CreatedAt, &l.UpdatedAt)
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	l.ClickHistory = []models.ClickDay{}
	return l, err //nolint:wrapcheck
}
