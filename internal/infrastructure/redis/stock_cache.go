package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
	"github.com/nastyazhadan/trade-settlement/internal/infrastructure/redis/dto"
	repositoryErrors "github.com/nastyazhadan/trade-settlement/shared/errors/repository"
	sharedRedis "github.com/nastyazhadan/trade-settlement/shared/infra/redis"
)

const (
	stockAllKey       = "stock:cache:all"
	stockLatestPrefix = "stock:cache:"
)

type StockCacheRepository struct {
	cache sharedRedis.Client
}

func NewStockCacheRepository(cache sharedRedis.Client) *StockCacheRepository {
	return &StockCacheRepository{
		cache: cache,
	}
}

func (s *StockCacheRepository) GetAll(ctx context.Context) ([]models.PriceSnapshot, error) {
	const op = "StockCacheRepository.GetAll"

	data, err := s.cache.Get(ctx, stockAllKey)
	if err != nil {
		if errors.Is(err, sharedRedis.ErrNil) {
			return nil, repositoryErrors.ErrSnapshotCacheNotFound
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var redisViews []dto.SnapshotRedisView
	if err = json.Unmarshal(data, &redisViews); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	snapshots := make([]models.PriceSnapshot, 0, len(redisViews))
	for _, redisView := range redisViews {
		snapshot, err := redisView.ToDomain()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, nil
}

func (s *StockCacheRepository) SetAll(ctx context.Context, snapshots []models.PriceSnapshot, ttl time.Duration) error {
	const op = "StockCacheRepository.SetAll"

	redisViews := make([]dto.SnapshotRedisView, 0, len(snapshots))
	for _, snapshot := range snapshots {
		redisViews = append(redisViews, dto.SnapshotFromDomain(snapshot))
	}

	data, err := json.Marshal(redisViews)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = s.cache.SetWithTTL(ctx, stockAllKey, data, ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *StockCacheRepository) GetLatest(ctx context.Context, ticker string) (models.PriceSnapshot, error) {
	const op = "StockCacheRepository.GetLatest"

	data, err := s.cache.Get(ctx, stockLatestPrefix+ticker)
	if err != nil {
		if errors.Is(err, sharedRedis.ErrNil) {
			return models.PriceSnapshot{}, repositoryErrors.ErrSnapshotCacheNotFound
		}

		return models.PriceSnapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	var redisView dto.SnapshotRedisView
	if err = json.Unmarshal(data, &redisView); err != nil {
		return models.PriceSnapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	snapshot, err := redisView.ToDomain()
	if err != nil {
		return models.PriceSnapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	return snapshot, nil
}

func (s *StockCacheRepository) SetLatest(ctx context.Context, snapshot models.PriceSnapshot, ttl time.Duration) error {
	const op = "StockCacheRepository.SetLatest"

	data, err := json.Marshal(dto.SnapshotFromDomain(snapshot))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = s.cache.SetWithTTL(ctx, stockLatestPrefix+snapshot.Ticker, data, ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *StockCacheRepository) Invalidate(ctx context.Context, ticker string) error {
	const op = "StockCacheRepository.Invalidate"

	if err := s.cache.Del(ctx, stockAllKey, stockLatestPrefix+ticker); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
