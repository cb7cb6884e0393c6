package services

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fsdevblog/shortlinks/internal/models"
	"github.com/fsdevblog/shortlinks/internal/repositories"
	"github.com/fsdevblog/shortlinks/internal/tokens"
)

const minPasswordLength = 6

// SignupParams данные регистрации.
type SignupParams struct {
	Name     string
	Email    string
	Password string
}

// AuthResult ответ на успешную регистрацию или вход.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// UserServiceConfig настройки выпуска токенов.
type UserServiceConfig struct {
	JWTSecret []byte
	TokenTTL  time.Duration
	// BcryptCost по умолчанию bcrypt.DefaultCost.
	BcryptCost int
}

// UserService регистрация, вход и проверка токенов доступа.
type UserService struct {
	repo   UserRepository
	cache  UserCache
	conf   UserServiceConfig
	logger *zap.Logger
}

func NewUserService(repo UserRepository, cache UserCache, conf UserServiceConfig, logger *zap.Logger) *UserService {
	if conf.BcryptCost == 0 {
		conf.BcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		repo:   repo,
		cache:  cache,
		conf:   conf,
		logger: logger.With(zap.String("module", "services/user")),
	}
}

// Signup регистрирует пользователя и выдает токен.
//
// Возвращает:
//   - *AuthResult: токен и созданный пользователь
//   - error: ValidationError, ErrUserExists или ErrUnknown
func (s *UserService) Signup(ctx context.Context, params SignupParams) (*AuthResult, error) {
	name := strings.TrimSpace(params.Name)
	email := normalizeEmail(params.Email)
	if name == "" || email == "" || params.Password == "" {
		return nil, newValidationError("", "All fields are required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, newValidationError("email", "Invalid email")
	}
	if len(params.Password) < minPasswordLength {
		return nil, newValidationError("password", "Password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.conf.BcryptCost)
	if err != nil {
		return nil, errors.Wrap(ErrUnknown, err.Error())
	}

	user, err := s.repo.Create(ctx, &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrUserExists
		}
		s.logger.Error("failed to create user", zap.Error(err))
		return nil, errors.Wrap(ErrUnknown, err.Error())
	}
	return s.issue(user)
}

// Login проверяет email и пароль и выдает токен. Неизвестный email и неверный пароль
// неразличимы для клиента.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, newValidationError("", "Email and password are required")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to get user", zap.Error(err))
		return nil, errors.Wrap(ErrUnknown, err.Error())
	}
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); cmpErr != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

// Authenticate проверяет токен доступа и возвращает его владельца.
// Пользователь сначала ищется в кеше, ошибки кеша не фатальны.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := tokens.ValidateAccessToken(token, s.conf.JWTSecret)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}

	cached, ok, cacheErr := s.cache.Get(ctx, userID)
	if cacheErr != nil {
		s.logger.Warn("user cache get failed", zap.String("userID", userID), zap.Error(cacheErr))
	}
	if ok {
		return cached, nil
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, errors.Wrapf(ErrInvalidToken, "user %s not found", userID)
		}
		s.logger.Error("failed to get user", zap.String("userID", userID), zap.Error(err))
		return nil, errors.Wrap(ErrUnknown, err.Error())
	}
	if setErr := s.cache.Set(ctx, user); setErr != nil {
		s.logger.Warn("user cache set failed", zap.String("userID", userID), zap.Error(setErr))
	}
	return user, nil
}

func (s *UserService) issue(user *models.User) (*AuthResult, error) {
	token, err := tokens.GenerateAccessToken(user.ID, s.conf.TokenTTL, s.conf.JWTSecret)
	if err != nil {
		return nil, errors.Wrap(ErrUnknown, err.Error())
	}
	return &AuthResult{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
