package stock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
	repositoryErrors "github.com/nastyazhadan/trade-settlement/shared/errors/repository"
	serviceErrors "github.com/nastyazhadan/trade-settlement/shared/errors/service"
	zapLogger "github.com/nastyazhadan/trade-settlement/shared/interceptors/logger/zap"
)

const maxTickerLength = 10

type Service struct {
	repository Repository
	cache      Cache
	cacheTTL   time.Duration
}

type Repository interface {
	SaveSnapshot(ctx context.Context, snapshot models.PriceSnapshot) error
	ListSnapshots(ctx context.Context) ([]models.PriceSnapshot, error)
	LatestSnapshot(ctx context.Context, ticker string) (models.PriceSnapshot, error)
}

type Cache interface {
	GetAll(ctx context.Context) ([]models.PriceSnapshot, error)
	SetAll(ctx context.Context, snapshots []models.PriceSnapshot, ttl time.Duration) error
	GetLatest(ctx context.Context, ticker string) (models.PriceSnapshot, error)
	SetLatest(ctx context.Context, snapshot models.PriceSnapshot, ttl time.Duration) error
	Invalidate(ctx context.Context, ticker string) error
}

func NewService(repository Repository, cache Cache, cacheTTL time.Duration) *Service {
	return &Service{
		repository: repository,
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

// AddSnapshot appends a price point and drops the cached list and the cached latest price for its ticker.
func (s *Service) AddSnapshot(ctx context.Context, snapshot models.PriceSnapshot) (models.PriceSnapshot, error) {
	const op = "Service.AddSnapshot"

	snapshot.Ticker = NormalizeTicker(snapshot.Ticker)
	if snapshot.CapturedAt.IsZero() {
		snapshot.CapturedAt = time.Now().UTC()
	}

	if err := validateSnapshot(snapshot); err != nil {
		return models.PriceSnapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repository.SaveSnapshot(ctx, snapshot); err != nil {
		if errors.Is(err, repositoryErrors.ErrSnapshotAlreadyExists) {
			return models.PriceSnapshot{}, fmt.Errorf("%s: %w", op, serviceErrors.ErrSnapshotExists)
		}

		return models.PriceSnapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Invalidate(ctx, snapshot.Ticker); err != nil {
		zapLogger.Warn(ctx, "stock cache invalidation failed", zap.String("ticker", snapshot.Ticker), zap.Error(err))
	}

	return snapshot, nil
}

func (s *Service) ListSnapshots(ctx context.Context) ([]models.PriceSnapshot, error) {
	const op = "Service.ListSnapshots"

	cached, err := s.cache.GetAll(ctx)
	if err == nil {
		return cached, nil
	}

	if !errors.Is(err, repositoryErrors.ErrSnapshotCacheNotFound) {
		zapLogger.Warn(ctx, "stock cache read failed", zap.Error(err))
	}

	snapshots, err := s.repository.ListSnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.SetAll(ctx, snapshots, s.cacheTTL); err != nil {
		zapLogger.Warn(ctx, "stock cache write failed", zap.Error(err))
	}

	return snapshots, nil
}

// LatestSnapshot returns the most recent snapshot for ticker, the price intake stamps on new orders.
func (s *Service) LatestSnapshot(ctx context.Context, ticker string) (models.PriceSnapshot, error) {
	const op = "Service.LatestSnapshot"

	ticker = NormalizeTicker(ticker)
	if ticker == "" {
		return models.PriceSnapshot{}, fmt.Errorf("%s: %w", op, serviceErrors.ErrTickerNotFound)
	}

	cached, err := s.cache.GetLatest(ctx, ticker)
	if err == nil {
		return cached, nil
	}

	if !errors.Is(err, repositoryErrors.ErrSnapshotCacheNotFound) {
		zapLogger.Warn(ctx, "stock cache read failed", zap.String("ticker", ticker), zap.Error(err))
	}

	snapshot, err := s.repository.LatestSnapshot(ctx, ticker)
	if err != nil {
		if errors.Is(err, repositoryErrors.ErrTickerNotFound) {
			return models.PriceSnapshot{}, fmt.Errorf("%s: %w", op, serviceErrors.ErrTickerNotFound)
		}

		return models.PriceSnapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.SetLatest(ctx, snapshot, s.cacheTTL); err != nil {
		zapLogger.Warn(ctx, "stock cache write failed", zap.String("ticker", ticker), zap.Error(err))
	}

	return snapshot, nil
}

func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

func validateSnapshot(snapshot models.PriceSnapshot) error {
	if snapshot.Ticker == "" || len(snapshot.Ticker) > maxTickerLength {
		return fmt.Errorf("%w: ticker must be 1-%d characters", serviceErrors.ErrInvalidRequest, maxTickerLength)
	}

	for _, price := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"open", snapshot.Open},
		{"close", snapshot.Close},
		{"high", snapshot.High},
		{"low", snapshot.Low},
	} {
		if price.value.IsNegative() || price.value.GreaterThan(models.MaxAmount) {
			return fmt.Errorf("%w: %s price must be between 0 and %s",
				serviceErrors.ErrInvalidRequest, price.name, models.MaxAmount.StringFixed(2))
		}
	}

	if snapshot.High.LessThan(snapshot.Low) {
		return fmt.Errorf("%w: high is below low", serviceErrors.ErrInvalidRequest)
	}

	if snapshot.Volume < 0 {
		return fmt.Errorf("%w: volume must not be negative", serviceErrors.ErrInvalidRequest)
	}

	return nil
}
