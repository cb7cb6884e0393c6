package services

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/fsdevblog/shortlinks/internal/models"
	"github.com/fsdevblog/shortlinks/internal/repositories"
)

// maxGenerateAttempts сколько раз пробуем сгенерировать свободный shortId до отказа.
const maxGenerateAttempts = 5

// DefaultQRSize размер стороны QR кода в пикселях.
const DefaultQRSize = 256

// CreateLinkParams параметры создания ссылки.
type CreateLinkParams struct {
	LongURL string
	Alias   *string
}

// LinkAnalytics аналитика по одной ссылке.
type LinkAnalytics struct {
	ShortID      string            `json:"shortId"`
	Alias        *string           `json:"alias"`
	LongURL      string            `json:"longUrl"`
	Clicks       int64             `json:"clicks"`
	ClickHistory []models.ClickDay `json:"clickHistory"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// LinkService сокращение ссылок, учет переходов и аналитика.
type LinkService struct {
	repo    LinkRepository
	baseURL string
	now     func() time.Time
	logger  *zap.Logger
}

// LinkServiceOptions дополнительные настройки сервиса.
type LinkServiceOptions struct {
	Clock func() time.Time
}

// WithClock подменяет источник текущего времени.
func WithClock(clock func() time.Time) func(*LinkServiceOptions) {
	return func(o *LinkServiceOptions) {
		o.Clock = clock
	}
}

// NewLinkService создает сервис ссылок.
//
// Параметры:
//   - repo: хранилище ссылок
//   - baseURL: публичный адрес сервиса, к нему добавляется shortId
//   - logger: логгер
//   - opts: дополнительные настройки
func NewLinkService(
	repo LinkRepository,
	baseURL string,
	logger *zap.Logger,
	opts ...func(*LinkServiceOptions),
) *LinkService {
	options := LinkServiceOptions{Clock: time.Now}
	for _, opt := range opts {
		opt(&options)
	}
	return &LinkService{
		repo:    repo,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     options.Clock,
		logger:  logger.With(zap.String("module", "services/link")),
	}
}

// Create создает короткую ссылку владельца ownerID.
//
// Если задан alias, он становится shortId. Уникальность гарантирует хранилище: дубликат при вставке
// alias превращается в ErrAliasTaken, а дубликат сгенерированного id - в повторную генерацию.
//
// Возвращает:
//   - *models.Link: созданная ссылка
//   - error: ValidationError, ErrAliasTaken или ErrUnknown
func (s *LinkService) Create(ctx context.Context, ownerID string, params CreateLinkParams) (*models.Link, error) {
	longURL := strings.TrimSpace(params.LongURL)
	if longURL == "" {
		return nil, newValidationError("longUrl", "longUrl is required")
	}
	if err := validateURL(longURL); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	link := models.Link{
		Owner:        ownerID,
		LongURL:      longURL,
		ClickHistory: []models.ClickDay{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if params.Alias != nil && strings.TrimSpace(*params.Alias) != "" {
		alias := strings.TrimSpace(*params.Alias)
		return s.createWithAlias(ctx, link, alias)
	}
	return s.createGenerated(ctx, link)
}

func (s *LinkService) createWithAlias(ctx context.Context, link models.Link, alias string) (*models.Link, error) {
	if err := validateAlias(alias); err != nil {
		return nil, err
	}
	exists, err := s.repo.ShortIDExists(ctx, alias)
	if err != nil {
		s.logger.Error("failed to check alias", zap.String("alias", alias), zap.Error(err))
		return nil, errors.Wrap(ErrUnknown, err.Error())
	}
	if exists {
		return nil, ErrAliasTaken
	}

	link.ID = uuid.NewString()
	link.ShortID = alias
	link.Alias = &alias
	created, err := s.repo.Create(ctx, &link)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrAliasTaken
		}
		s.logger.Error("failed to create link", zap.String("alias", alias), zap.Error(err))
		return nil, errors.Wrap(ErrUnknown, err.Error())
	}
	return created, nil
}

func (s *LinkService) createGenerated(ctx context.Context, link models.Link) (*models.Link, error) {
	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		shortID, err := generateShortID(models.ShortIdentifierLength)
		if err != nil {
			return nil, errors.Wrap(ErrUnknown, err.Error())
		}
		link.ID = uuid.NewString()
		link.ShortID = shortID

		created, createErr := s.repo.Create(ctx, &link)
		if createErr == nil {
			return created, nil
		}
		if !errors.Is(createErr, repositories.ErrDuplicateKey) {
			s.logger.Error("failed to create link", zap.Error(createErr))
			return nil, errors.Wrap(ErrUnknown, createErr.Error())
		}
		s.logger.Warn("short id collision", zap.String("shortID", shortID), zap.Int("attempt", attempt))
	}
	return nil, errors.Wrapf(ErrUnknown, "no free short id after %d attempts", maxGenerateAttempts)
}

// Visit учитывает переход по shortId и возвращает адрес для редиректа.
// День перехода определяется по UTC.
func (s *LinkService) Visit(ctx context.Context, shortID string) (string, error) {
	longURL, err := s.repo.RecordClick(ctx, shortID, models.Day(s.now()))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", errors.Wrapf(ErrRecordNotFound, "short id %s", shortID)
		}
		s.logger.Error("failed to record click", zap.String("shortID", shortID), zap.Error(err))
		return "", errors.Wrap(ErrUnknown, err.Error())
	}
	return longURL, nil
}

// List возвращает ссылки владельца, новые первыми.
func (s *LinkService) List(ctx context.Context, ownerID string) ([]models.Link, error) {
	links, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list links", zap.String("owner", ownerID), zap.Error(err))
		return nil, errors.Wrap(ErrUnknown, err.Error())
	}
	return links, nil
}

func (s *LinkService) Delete(ctx context.Context, id, ownerID string) error {
	if err := s.repo.DeleteByIDOwner(ctx, id, ownerID); err != nil {
		return s.ownedErr(err, id)
	}
	return nil
}

// Analytics возвращает статистику по ссылке владельца.
func (s *LinkService) Analytics(ctx context.Context, id, ownerID string) (*LinkAnalytics, error) {
	link, err := s.repo.GetByIDOwner(ctx, id, ownerID)
	if err != nil {
		return nil, s.ownedErr(err, id)
	}
	return &LinkAnalytics{
		ShortID:      link.ShortID,
		Alias:        link.Alias,
		LongURL:      link.LongURL,
		Clicks:       link.Clicks,
		ClickHistory: link.ClickHistory,
		CreatedAt:    link.CreatedAt,
	}, nil
}

// Stats считает сводную статистику по всем ссылкам владельца.
func (s *LinkService) Stats(ctx context.Context, ownerID string) (*DashboardStats, error) {
	links, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	stats := AggregateStats(links, s.now())
	return &stats, nil
}

// QRCode возвращает PNG с QR кодом публичной короткой ссылки.
func (s *LinkService) QRCode(ctx context.Context, id, ownerID string, size int) ([]byte, error) {
	link, err := s.repo.GetByIDOwner(ctx, id, ownerID)
	if err != nil {
		return nil, s.ownedErr(err, id)
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := qrcode.Encode(s.ShortURL(link.ShortID), qrcode.Medium, size)
	if err != nil {
		return nil, errors.Wrap(ErrUnknown, err.Error())
	}
	return png, nil
}

// ShortURL публичный адрес короткой ссылки.
func (s *LinkService) ShortURL(shortID string) string {
	return s.baseURL + "/" + shortID
}

func (s *LinkService) ownedErr(err error, id string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return errors.Wrapf(ErrRecordNotFound, "link %s", id)
	}
	s.logger.Error("repository error", zap.String("id", id), zap.Error(err))
	return errors.Wrap(ErrUnknown, err.Error())
}

// validateURL допускает только абсолютные http(s) адреса с хостом.
func validateURL(rawURL string) error {
	u, err := url.ParseRequestURI(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return newValidationError("longUrl", "Invalid URL")
	}
	return nil
}
