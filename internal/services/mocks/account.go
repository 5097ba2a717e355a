package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
)

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) CreateAccount(ctx context.Context, account models.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) GetAccount(ctx context.Context, username string) (models.Account, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(models.Account), args.Error(1)
}

type MockAccountCache struct {
	mock.Mock
}

func (m *MockAccountCache) Get(ctx context.Context, username string) (models.Account, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(models.Account), args.Error(1)
}

func (m *MockAccountCache) Set(ctx context.Context, account models.Account, ttl time.Duration) error {
	args := m.Called(ctx, account, ttl)
	return args.Error(0)
}

type MockAccountGetter struct {
	mock.Mock
}

func (m *MockAccountGetter) GetAccount(ctx context.Context, username string) (models.Account, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(models.Account), args.Error(1)
}

type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) InvalidateAccount(ctx context.Context, username string) {
	m.Called(ctx, username)
}
