package services

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fsdevblog/shortlinks/internal/cache"
	"github.com/fsdevblog/shortlinks/internal/db"
	"github.com/fsdevblog/shortlinks/internal/repositories/memstore"
	"github.com/fsdevblog/shortlinks/internal/repositories/pgsql"
	"github.com/fsdevblog/shortlinks/internal/repositories/sqlite"
)

type Services struct {
	LinkService *LinkService
	UserService *UserService
	PingService *PingService
}

// FactoryConfig настройки сервисов, не зависящие от типа хранилища.
type FactoryConfig struct {
	BaseURL string
	Users   UserServiceConfig
	// Cache кеш пользователей, nil - без кеша.
	Cache UserCache
}

// Factory собирает сервисы поверх репозиториев выбранного хранилища.
func Factory(conn *db.Connection, conf FactoryConfig, logger *zap.Logger) (*Services, error) {
	var linkRepo LinkRepository
	var userRepo UserRepository

	switch conn.Type {
	case db.StorageTypePostgres:
		linkRepo = pgsql.NewLinkRepo(conn.Postgres, logger)
		userRepo = pgsql.NewUserRepo(conn.Postgres, logger)
	case db.StorageTypeSQLite:
		linkRepo = sqlite.NewLinkRepo(conn.SQLite, logger)
		userRepo = sqlite.NewUserRepo(conn.SQLite, logger)
	case db.StorageTypeInMemory:
		linkRepo = memstore.NewLinkRepo(conn.Memory)
		userRepo = memstore.NewUserRepo(conn.Memory)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", conn.Type)
	}

	userCache := conf.Cache
	if userCache == nil {
		userCache = cache.NoopUserCache{}
	}

	return &Services{
		LinkService: NewLinkService(linkRepo, conf.BaseURL, logger),
		UserService: NewUserService(userRepo, userCache, conf.Users, logger),
		PingService: NewPingService(conn),
	}, nil
}
