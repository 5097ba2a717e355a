package api

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
)

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) OpenAccount(ctx context.Context, username string, balance decimal.Decimal) (models.Account, error) {
	args := m.Called(ctx, username, balance)
	return args.Get(0).(models.Account), args.Error(1)
}

func (m *MockAccountService) GetAccount(ctx context.Context, username string) (models.Account, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(models.Account), args.Error(1)
}

type MockStockService struct {
	mock.Mock
}

func (m *MockStockService) AddSnapshot(ctx context.Context, snapshot models.PriceSnapshot) (models.PriceSnapshot, error) {
	args := m.Called(ctx, snapshot)
	return args.Get(0).(models.PriceSnapshot), args.Error(1)
}

func (m *MockStockService) ListSnapshots(ctx context.Context) ([]models.PriceSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PriceSnapshot), args.Error(1)
}

func (m *MockStockService) LatestSnapshot(ctx context.Context, ticker string) (models.PriceSnapshot, error) {
	args := m.Called(ctx, ticker)
	return args.Get(0).(models.PriceSnapshot), args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(
	ctx context.Context,
	username string,
	ticker string,
	side models.OrderSide,
	quantity int64,
) (models.Order, error) {
	args := m.Called(ctx, username, ticker, side, quantity)
	return args.Get(0).(models.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (models.Order, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(models.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, username string) ([]models.Order, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderService) ListOrdersBetween(ctx context.Context, username string, from, to time.Time) ([]models.Order, error) {
	args := m.Called(ctx, username, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

type stubHealth map[string]error

func (s stubHealth) Run(context.Context) map[string]error {
	return s
}
