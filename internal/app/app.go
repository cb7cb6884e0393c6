package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fsdevblog/shortlinks/internal/cache"
	"github.com/fsdevblog/shortlinks/internal/config"
	"github.com/fsdevblog/shortlinks/internal/controllers"
	"github.com/fsdevblog/shortlinks/internal/db"
	"github.com/fsdevblog/shortlinks/internal/logs"
	"github.com/fsdevblog/shortlinks/internal/services"
	"github.com/fsdevblog/shortlinks/internal/sslcert"
)

const (
	startupTimeout    = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
)

type App struct {
	config    config.Config
	conn      *db.Connection
	redis     *redis.Client
	router    *gin.Engine
	startedAt time.Time
	Logger    *zap.Logger
}

// New собирает приложение: логгер, хранилище, кеш, сервисы и роутер.
func New(conf config.Config) (*App, error) {
	logger, errLog := logs.New(logs.WithEnvironment(conf.Environment, conf.LogLevel))
	if errLog != nil {
		return nil, fmt.Errorf("init logger: %w", errLog)
	}
	if conf.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	a := &App{config: conf, startedAt: time.Now(), Logger: logger}

	if err := a.initStorage(ctx); err != nil {
		return nil, err
	}

	var userCache services.UserCache
	if conf.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, conf.RedisURL)
		if err != nil {
			_ = a.conn.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		a.redis = client
		userCache = cache.NewRedisUserCache(client, cache.DefaultUserTTL)
	}

	svc, errSvc := services.Factory(a.conn, services.FactoryConfig{
		BaseURL: conf.BaseURL,
		Users: services.UserServiceConfig{
			JWTSecret: []byte(conf.JWTSecret),
			TokenTTL:  conf.JWTTTL,
		},
		Cache: userCache,
	}, logger)
	if errSvc != nil {
		a.closeResources()
		return nil, fmt.Errorf("init services: %w", errSvc)
	}

	a.router = controllers.SetupRouter(controllers.RouterParams{
		LinkService: svc.LinkService,
		UserService: svc.UserService,
		PingService: svc.PingService,
		CORSOrigins: conf.CORSOrigins,
		Environment: conf.Environment,
		StartedAt:   a.startedAt,
		Logger:      logger,
	})
	return a, nil
}

// Must вызывает панику если произошла ошибка.
func Must(a *App, err error) *App {
	if err != nil {
		panic(err)
	}
	return a
}

// Handler корневой http.Handler приложения.
func (a *App) Handler() http.Handler {
	return a.router
}

// initStorage открывает хранилище и восстанавливает снимок in-memory хранилища, если он есть.
func (a *App) initStorage(ctx context.Context) error {
	storageType := db.StorageTypeFor(a.config.DatabaseDSN, a.config.SQLitePath)
	conn, err := db.NewConnectionFactory(ctx, db.FactoryConfig{
		StorageType:  storageType,
		PostgresDSN:  &a.config.DatabaseDSN,
		SqliteDBPath: &a.config.SQLitePath,
	})
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	a.conn = conn
	a.Logger.Info("Storage connected", zap.String("type", string(storageType)))

	if storageType == db.StorageTypeInMemory && a.config.FileStoragePath != "" {
		if errLoad := conn.Memory.LoadFromFile(a.config.FileStoragePath); errLoad != nil {
			return fmt.Errorf("restore snapshot from file `%s`: %w", a.config.FileStoragePath, errLoad)
		}
		a.Logger.Info("Snapshot restored", zap.String("file", a.config.FileStoragePath),
			zap.Int("links", conn.Memory.Links.Len()))
	}
	return nil
}

// Run запускает web сервер и ждет SIGINT/SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext запускает web сервер до отмены ctx, затем корректно его останавливает,
// сохраняет снимок in-memory хранилища и закрывает соединения.
func (a *App) RunContext(ctx context.Context) error {
	defer a.closeResources()

	server := &http.Server{
		Addr:              a.config.ServerAddress,
		Handler:           a.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	listen, errListen := a.listenFunc(server)
	if errListen != nil {
		return errListen
	}

	errChan := make(chan error, 1)
	go func() {
		a.Logger.Info("Starting server",
			zap.String("address", server.Addr), zap.Bool("https", a.config.EnableHTTPS))
		if err := listen(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("Shutdown command received")
	case serverErr = <-errChan:
		a.Logger.Error("server error", zap.Error(serverErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("server shutdown", zap.Error(err))
	}

	return serverErr
}

// listenFunc возвращает функцию запуска сервера. Для HTTPS при необходимости генерирует самоподписанную пару.
func (a *App) listenFunc(server *http.Server) (func() error, error) {
	if !a.config.EnableHTTPS {
		return server.ListenAndServe, nil
	}

	pair := sslcert.NewPair(a.config.TLSCertFile, a.config.TLSKeyFile)
	gen, err := sslcert.New()
	if err != nil {
		return nil, fmt.Errorf("init certificate generator: %w", err)
	}
	generated, err := gen.EnsurePair(pair)
	if err != nil {
		return nil, fmt.Errorf("prepare tls certificate: %w", err)
	}
	if generated {
		a.Logger.Warn("Self-signed certificate generated",
			zap.String("cert", pair.CertFile), zap.String("key", pair.KeyFile))
	}
	return func() error {
		return server.ListenAndServeTLS(pair.CertFile, pair.KeyFile)
	}, nil
}

// closeResources сохраняет снимок памяти и закрывает соединения.
func (a *App) closeResources() {
	if a.conn != nil && a.conn.Type == db.StorageTypeInMemory && a.config.FileStoragePath != "" {
		if err := a.conn.Memory.SaveToFile(a.config.FileStoragePath); err != nil {
			a.Logger.Error("Making snapshot error", zap.String("file", a.config.FileStoragePath), zap.Error(err))
		} else {
			a.Logger.Info("Snapshot saved", zap.String("file", a.config.FileStoragePath))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Error("close redis", zap.Error(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.Logger.Error("close storage", zap.Error(err))
		}
	}
	_ = a.Logger.Sync()
}
