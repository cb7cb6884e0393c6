package config

import (
	"flag"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

const (
	defaultServerAddress = ":5050"
	defaultJWTTTL        = 7 * 24 * time.Hour
	defaultCORSOrigin    = "http://localhost:5173"
	defaultEnvironment   = "development"
	// developmentJWTSecret используется только вне production, когда JWT_SECRET не задан.
	developmentJWTSecret = "shortlinks-development-secret"
	productionEnv        = "production"
)

type Config struct {
	// Адрес, на котором запустится сервер
	ServerAddress string `env:"SERVER_ADDRESS"`
	// Базовый адрес результирующего сокращенного URL (scheme://host)
	BaseURL string `env:"BASE_URL"`
	// DSN Postgres. Если задан, используется Postgres
	DatabaseDSN string `env:"DATABASE_DSN"`
	// Путь к файлу SQLite. Используется, если DSN не задан
	SQLitePath string `env:"SQLITE_PATH"`
	// Файл снимка in-memory хранилища
	FileStoragePath string `env:"FILE_STORAGE_PATH"`
	// Ключ подписи JWT
	JWTSecret string `env:"JWT_SECRET"`
	// Время жизни токена
	JWTTTL time.Duration `env:"JWT_TTL"`
	// Адрес Redis для кеша пользователей, пустой - без кеша
	RedisURL    string   `env:"REDIS_URL"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`
	EnableHTTPS bool     `env:"ENABLE_HTTPS"`
	TLSCertFile string   `env:"TLS_CERT_FILE"`
	TLSKeyFile  string   `env:"TLS_KEY_FILE"`
	LogLevel    string   `env:"LOG_LEVEL"`
	Environment string   `env:"ENVIRONMENT"`
}

// IsProduction true для окружения production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, productionEnv)
}

// MarshalLogObject выводит конфиг в лог без секретов.
func (c Config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("serverAddress", c.ServerAddress)
	enc.AddString("baseURL", c.BaseURL)
	enc.AddBool("postgres", c.DatabaseDSN != "")
	enc.AddString("sqlitePath", c.SQLitePath)
	enc.AddString("fileStoragePath", c.FileStoragePath)
	enc.AddDuration("jwtTTL", c.JWTTTL)
	enc.AddBool("redis", c.RedisURL != "")
	enc.AddString("corsOrigins", strings.Join(c.CORSOrigins, ","))
	enc.AddBool("enableHTTPS", c.EnableHTTPS)
	enc.AddString("logLevel", c.LogLevel)
	enc.AddString("environment", c.Environment)
	return nil
}

// MustLoadConfig загружает конфиг из окружения и аргументов процесса, в случае ошибки паникует.
func MustLoadConfig() *Config {
	conf, err := LoadConfig(os.Args[1:])
	if err != nil {
		panic(err)
	}
	return conf
}

// LoadConfig собирает конфиг. Приоритет: переменные окружения, затем флаги, затем значения по умолчанию.
// Файл .env в рабочей директории, если есть, подгружается в окружение без перезаписи уже заданных переменных.
func LoadConfig(args []string) (*Config, error) {
	var flagsConfig, envConfig Config

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env file")
	}

	if err := env.Parse(&envConfig); err != nil {
		return nil, errors.Wrapf(err, "parse ENV config error")
	}

	if err := loadFlags(&flagsConfig, args); err != nil {
		return nil, err
	}

	conf := mergeConfig(&envConfig, &flagsConfig)
	if err := conf.normalize(); err != nil {
		return nil, err
	}
	return conf, nil
}

// loadFlags парсит флаги командной строки.
func loadFlags(flagsConfig *Config, args []string) error {
	fs := flag.NewFlagSet("shortener", flag.ContinueOnError)

	fs.StringVar(&flagsConfig.ServerAddress, "a", "", "Адрес сервера")
	fs.StringVar(&flagsConfig.BaseURL, "b", "",
		"Базовый адрес результирующего сокращенного URL (по умолчанию Scheme://Host запущенного сервера)")
	fs.StringVar(&flagsConfig.DatabaseDSN, "d", "", "DSN подключения к Postgres")
	fs.StringVar(&flagsConfig.SQLitePath, "s", "", "Путь к файлу SQLite")
	fs.StringVar(&flagsConfig.FileStoragePath, "f", "", "Файл снимка in-memory хранилища")
	fs.StringVar(&flagsConfig.JWTSecret, "j", "", "Ключ подписи JWT")
	fs.StringVar(&flagsConfig.RedisURL, "r", "", "Адрес Redis для кеша пользователей")
	fs.BoolVar(&flagsConfig.EnableHTTPS, "t", false, "Запустить HTTPS сервер")

	if err := fs.Parse(args); err != nil {
		return errors.Wrap(err, "parse flags")
	}
	return nil
}

// mergeConfig сливает структуры для env и флагов.
func mergeConfig(envConfig, flagsConfig *Config) *Config {
	return &Config{
		ServerAddress:   defaultIfBlank(envConfig.ServerAddress, flagsConfig.ServerAddress),
		BaseURL:         defaultIfBlank(envConfig.BaseURL, flagsConfig.BaseURL),
		DatabaseDSN:     defaultIfBlank(envConfig.DatabaseDSN, flagsConfig.DatabaseDSN),
		SQLitePath:      defaultIfBlank(envConfig.SQLitePath, flagsConfig.SQLitePath),
		FileStoragePath: defaultIfBlank(envConfig.FileStoragePath, flagsConfig.FileStoragePath),
		JWTSecret:       defaultIfBlank(envConfig.JWTSecret, flagsConfig.JWTSecret),
		JWTTTL:          defaultIfBlank(envConfig.JWTTTL, flagsConfig.JWTTTL),
		RedisURL:        defaultIfBlank(envConfig.RedisURL, flagsConfig.RedisURL),
		CORSOrigins:     defaultIfBlank(envConfig.CORSOrigins, flagsConfig.CORSOrigins),
		// флаг может только включить HTTPS
		EnableHTTPS: envConfig.EnableHTTPS || flagsConfig.EnableHTTPS,
		TLSCertFile: envConfig.TLSCertFile,
		TLSKeyFile:  envConfig.TLSKeyFile,
		LogLevel:    envConfig.LogLevel,
		Environment: envConfig.Environment,
	}
}

// normalize проставляет значения по умолчанию и проверяет конфиг.
func (c *Config) normalize() error {
	c.ServerAddress = defaultIfBlank(c.ServerAddress, defaultServerAddress)
	c.JWTTTL = defaultIfBlank(c.JWTTTL, defaultJWTTTL)
	c.CORSOrigins = defaultIfBlank(trimAll(c.CORSOrigins), []string{defaultCORSOrigin})
	c.Environment = defaultIfBlank(c.Environment, defaultEnvironment)

	if c.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET is required in production")
		}
		c.JWTSecret = developmentJWTSecret
	}
	if c.JWTTTL < 0 {
		return errors.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}

	if c.BaseURL == "" {
		c.BaseURL = c.defaultBaseURL()
	}
	baseURL, err := normalizeBaseURL(c.BaseURL)
	if err != nil {
		return err
	}
	c.BaseURL = baseURL
	return nil
}

// defaultBaseURL адрес запущенного сервера.
func (c *Config) defaultBaseURL() string {
	scheme := "http"
	if c.EnableHTTPS {
		scheme = "https"
	}
	host := c.ServerAddress
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return scheme + "://" + host
}

// normalizeBaseURL отсекает Path и Query, если они заданы в базовом урле.
func normalizeBaseURL(rawURL string) (string, error) {
	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse base url")
	}
	if parsedURL.Host == "" {
		return "", errors.Errorf("base url `%s` has no host", rawURL)
	}
	return (&url.URL{Scheme: parsedURL.Scheme, Host: parsedURL.Host}).String(), nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func defaultIfBlank[T any](value T, defaultValue T) T {
	switch v := any(value).(type) {
	case string:
		if v == "" {
			return defaultValue
		}
	case time.Duration:
		if v == 0 {
			return defaultValue
		}
	case []string:
		if len(v) == 0 {
			return defaultValue
		}
	}
	return value
}
