package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
)

type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Enqueue(ctx context.Context, orderID uuid.UUID) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *MockQueue) Dequeue(ctx context.Context) (models.Delivery, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Delivery), args.Error(1)
}

func (m *MockQueue) Ack(ctx context.Context, delivery models.Delivery) error {
	args := m.Called(ctx, delivery)
	return args.Error(0)
}

func (m *MockQueue) Extend(ctx context.Context, delivery models.Delivery, lease time.Duration) error {
	args := m.Called(ctx, delivery, lease)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishSettlement(ctx context.Context, event models.SettlementEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
