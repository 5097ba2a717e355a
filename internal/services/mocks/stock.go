package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
)

type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) SaveSnapshot(ctx context.Context, snapshot models.PriceSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockStockRepository) ListSnapshots(ctx context.Context) ([]models.PriceSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PriceSnapshot), args.Error(1)
}

func (m *MockStockRepository) LatestSnapshot(ctx context.Context, ticker string) (models.PriceSnapshot, error) {
	args := m.Called(ctx, ticker)
	return args.Get(0).(models.PriceSnapshot), args.Error(1)
}

type MockStockCache struct {
	mock.Mock
}

func (m *MockStockCache) GetAll(ctx context.Context) ([]models.PriceSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PriceSnapshot), args.Error(1)
}

func (m *MockStockCache) SetAll(ctx context.Context, snapshots []models.PriceSnapshot, ttl time.Duration) error {
	args := m.Called(ctx, snapshots, ttl)
	return args.Error(0)
}

func (m *MockStockCache) GetLatest(ctx context.Context, ticker string) (models.PriceSnapshot, error) {
	args := m.Called(ctx, ticker)
	return args.Get(0).(models.PriceSnapshot), args.Error(1)
}

func (m *MockStockCache) SetLatest(ctx context.Context, snapshot models.PriceSnapshot, ttl time.Duration) error {
	args := m.Called(ctx, snapshot, ttl)
	return args.Error(0)
}

func (m *MockStockCache) Invalidate(ctx context.Context, ticker string) error {
	args := m.Called(ctx, ticker)
	return args.Error(0)
}

type MockPriceLookup struct {
	mock.Mock
}

func (m *MockPriceLookup) LatestSnapshot(ctx context.Context, ticker string) (models.PriceSnapshot, error) {
	args := m.Called(ctx, ticker)
	return args.Get(0).(models.PriceSnapshot), args.Error(1)
}
