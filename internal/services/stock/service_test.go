package stock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
	"github.com/nastyazhadan/trade-settlement/internal/services/mocks"
	repositoryErrors "github.com/nastyazhadan/trade-settlement/shared/errors/repository"
	serviceErrors "github.com/nastyazhadan/trade-settlement/shared/errors/service"
)

const cacheTTL = time.Hour

func snapshot(ticker, closePrice string) models.PriceSnapshot {
	price := decimal.RequireFromString(closePrice)
	return models.PriceSnapshot{
		Ticker:     ticker,
		Open:       price,
		Close:      price,
		High:       price,
		Low:        price,
		Volume:     1000,
		CapturedAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestAddSnapshot(t *testing.T) {
	tests := []struct {
		name        string
		input       models.PriceSnapshot
		setupMocks  func(*mocks.MockStockRepository, *mocks.MockStockCache)
		expectedErr error
	}{
		{
			name:  "успешное добавление котировки",
			input: snapshot(" aapl ", "155.00"),
			setupMocks: func(repo *mocks.MockStockRepository, cache *mocks.MockStockCache) {
				repo.On("SaveSnapshot", mock.Anything, mock.MatchedBy(func(s models.PriceSnapshot) bool {
					return s.Ticker == "AAPL"
				})).Return(nil)
				cache.On("Invalidate", mock.Anything, "AAPL").Return(nil)
			},
		},
		{
			name:  "ошибка инвалидации кэша не прерывает запись",
			input: snapshot("AAPL", "155.00"),
			setupMocks: func(repo *mocks.MockStockRepository, cache *mocks.MockStockCache) {
				repo.On("SaveSnapshot", mock.Anything, mock.Anything).Return(nil)
				cache.On("Invalidate", mock.Anything, "AAPL").Return(errors.New("connection refused"))
			},
		},
		{
			name:  "ошибка - котировка уже существует",
			input: snapshot("AAPL", "155.00"),
			setupMocks: func(repo *mocks.MockStockRepository, cache *mocks.MockStockCache) {
				repo.On("SaveSnapshot", mock.Anything, mock.Anything).Return(repositoryErrors.ErrSnapshotAlreadyExists)
			},
			expectedErr: serviceErrors.ErrSnapshotExists,
		},
		{
			name: "ошибка - high меньше low",
			input: func() models.PriceSnapshot {
				s := snapshot("AAPL", "155.00")
				s.High = decimal.RequireFromString("150.00")
				return s
			}(),
			setupMocks:  func(*mocks.MockStockRepository, *mocks.MockStockCache) {},
			expectedErr: serviceErrors.ErrInvalidRequest,
		},
		{
			name:        "ошибка - слишком длинный тикер",
			input:       snapshot("TOOLONGTICKER", "1.00"),
			setupMocks:  func(*mocks.MockStockRepository, *mocks.MockStockCache) {},
			expectedErr: serviceErrors.ErrInvalidRequest,
		},
		{
			name: "ошибка - отрицательный объём",
			input: func() models.PriceSnapshot {
				s := snapshot("AAPL", "155.00")
				s.Volume = -1
				return s
			}(),
			setupMocks:  func(*mocks.MockStockRepository, *mocks.MockStockCache) {},
			expectedErr: serviceErrors.ErrInvalidRequest,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			repo := &mocks.MockStockRepository{}
			cache := &mocks.MockStockCache{}
			test.setupMocks(repo, cache)

			saved, err := NewService(repo, cache, cacheTTL).AddSnapshot(context.Background(), test.input)
			if test.expectedErr != nil {
				require.ErrorIs(t, err, test.expectedErr)
				cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "AAPL", saved.Ticker)
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestLatestSnapshot(t *testing.T) {
	latest := snapshot("AAPL", "155.00")

	tests := []struct {
		name        string
		ticker      string
		setupMocks  func(*mocks.MockStockRepository, *mocks.MockStockCache)
		expectedErr error
	}{
		{
			name:   "попадание в кэш",
			ticker: "aapl",
			setupMocks: func(repo *mocks.MockStockRepository, cache *mocks.MockStockCache) {
				cache.On("GetLatest", mock.Anything, "AAPL").Return(latest, nil)
			},
		},
		{
			name:   "промах кэша",
			ticker: "AAPL",
			setupMocks: func(repo *mocks.MockStockRepository, cache *mocks.MockStockCache) {
				cache.On("GetLatest", mock.Anything, "AAPL").Return(models.PriceSnapshot{}, repositoryErrors.ErrSnapshotCacheNotFound)
				repo.On("LatestSnapshot", mock.Anything, "AAPL").Return(latest, nil)
				cache.On("SetLatest", mock.Anything, latest, cacheTTL).Return(nil)
			},
		},
		{
			name:   "ошибка - тикер не найден",
			ticker: "MSFT",
			setupMocks: func(repo *mocks.MockStockRepository, cache *mocks.MockStockCache) {
				cache.On("GetLatest", mock.Anything, "MSFT").Return(models.PriceSnapshot{}, repositoryErrors.ErrSnapshotCacheNotFound)
				repo.On("LatestSnapshot", mock.Anything, "MSFT").Return(models.PriceSnapshot{}, repositoryErrors.ErrTickerNotFound)
			},
			expectedErr: serviceErrors.ErrTickerNotFound,
		},
		{
			name:        "ошибка - пустой тикер",
			ticker:      "  ",
			setupMocks:  func(*mocks.MockStockRepository, *mocks.MockStockCache) {},
			expectedErr: serviceErrors.ErrTickerNotFound,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			repo := &mocks.MockStockRepository{}
			cache := &mocks.MockStockCache{}
			test.setupMocks(repo, cache)

			got, err := NewService(repo, cache, cacheTTL).LatestSnapshot(context.Background(), test.ticker)
			if test.expectedErr != nil {
				require.ErrorIs(t, err, test.expectedErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, latest, got)
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestListSnapshots(t *testing.T) {
	all := []models.PriceSnapshot{snapshot("AAPL", "155.00"), snapshot("MSFT", "410.00")}

	repo := &mocks.MockStockRepository{}
	cache := &mocks.MockStockCache{}
	cache.On("GetAll", mock.Anything).Return(nil, repositoryErrors.ErrSnapshotCacheNotFound).Once()
	repo.On("ListSnapshots", mock.Anything).Return(all, nil).Once()
	cache.On("SetAll", mock.Anything, all, cacheTTL).Return(nil).Once()
	cache.On("GetAll", mock.Anything).Return(all, nil).Once()

	service := NewService(repo, cache, cacheTTL)

	first, err := service.ListSnapshots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, all, first)

	second, err := service.ListSnapshots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, all, second)

	repo.AssertNumberOfCalls(t, "ListSnapshots", 1)
	cache.AssertExpectations(t)
}
