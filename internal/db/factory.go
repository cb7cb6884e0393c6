package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"
)

type StorageType string

const (
	StorageTypePostgres StorageType = "postgres"
	StorageTypeSQLite   StorageType = "sqlite"
	StorageTypeInMemory StorageType = "inMemory"
)

type FactoryConfig struct {
	StorageType  StorageType
	PostgresDSN  *string
	SqliteDBPath *string
}

// Connection открытое соединение с выбранным хранилищем. Заполнено ровно одно поле,
// соответствующее Type.
type Connection struct {
	Type     StorageType
	Postgres *pgxpool.Pool
	SQLite   *gorm.DB
	Memory   *MemoryStorage
}

// Close освобождает ресурсы соединения.
func (c *Connection) Close() error {
	switch c.Type {
	case StorageTypePostgres:
		c.Postgres.Close()
	case StorageTypeSQLite:
		sqlDB, err := c.SQLite.DB()
		if err != nil {
			return fmt.Errorf("get sqlite handle: %w", err)
		}
		return sqlDB.Close() //nolint:wrapcheck
	case StorageTypeInMemory:
	}
	return nil
}

// Ping проверяет доступность хранилища.
func (c *Connection) Ping(ctx context.Context) error {
	switch c.Type {
	case StorageTypePostgres:
		return c.Postgres.Ping(ctx) //nolint:wrapcheck
	case StorageTypeSQLite:
		sqlDB, err := c.SQLite.DB()
		if err != nil {
			return fmt.Errorf("get sqlite handle: %w", err)
		}
		return sqlDB.PingContext(ctx) //nolint:wrapcheck
	case StorageTypeInMemory:
		return nil
	}
	return fmt.Errorf("unknown storage type: %s", c.Type)
}

// StorageTypeFor выбирает тип хранилища: postgres, если задан DSN, sqlite, если задан путь к файлу БД,
// иначе память.
func StorageTypeFor(dsn, sqlitePath string) StorageType {
	switch {
	case dsn != "":
		return StorageTypePostgres
	case sqlitePath != "":
		return StorageTypeSQLite
	default:
		return StorageTypeInMemory
	}
}

func NewConnectionFactory(ctx context.Context, config FactoryConfig) (*Connection, error) {
	switch config.StorageType {
	case StorageTypePostgres:
		if config.PostgresDSN == nil {
			return nil, errors.New("postgres dsn is empty")
		}
		pool, err := NewPostgresConnection(ctx, *config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres connection: %w", err)
		}
		// пока не будем ничего усложнять, а сделаем миграцию прямо здесь
		if migrateErr := simpleMigrateSchema(ctx, pool); migrateErr != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to migrate schema: %w", migrateErr)
		}
		return &Connection{Type: StorageTypePostgres, Postgres: pool}, nil
	case StorageTypeSQLite:
		if config.SqliteDBPath == nil {
			return nil, errors.New("sqlite path is empty")
		}
		conn, err := NewSQLite(*config.SqliteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite connection: %w", err)
		}
		return &Connection{Type: StorageTypeSQLite, SQLite: conn}, nil
	case StorageTypeInMemory:
		return &Connection{Type: StorageTypeInMemory, Memory: NewMemStorage()}, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", config.StorageType)
	}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    email VARCHAR(320) NOT NULL,
    password_hash VARCHAR(255) NOT NULL,
    created_at timestamp with time zone NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (lower(email));

CREATE TABLE IF NOT EXISTS links (
    id UUID PRIMARY KEY,
    owner_id UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    long_url TEXT NOT NULL,
    short_id VARCHAR(32) NOT NULL,
    alias VARCHAR(32),
    clicks BIGINT NOT NULL DEFAULT 0,
    created_at timestamp with time zone NOT NULL DEFAULT now(),
    updated_at timestamp with time zone NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_links_short_id ON links (short_id);
CREATE INDEX IF NOT EXISTS idx_links_owner_created ON links (owner_id, created_at DESC);

CREATE TABLE IF NOT EXISTS link_clicks (
    link_id UUID NOT NULL REFERENCES links (id) ON DELETE CASCADE,
    day DATE NOT NULL,
    count BIGINT NOT NULL,
    PRIMARY KEY (link_id, day)
);
`

func simpleMigrateSchema(ctx context.Context, conn *pgxpool.Pool) error {
	_, err := conn.Exec(ctx, schemaSQL)
	return err //nolint:wrapcheck
}
