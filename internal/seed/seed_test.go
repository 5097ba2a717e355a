package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
	serviceErrors "github.com/nastyazhadan/trade-settlement/shared/errors/service"
)

const seedYAML = `
accounts:
  - username: alice
    balance: "10000.00"
  - username: bob
    balance: "250.50"
snapshots:
  - ticker: AAPL
    open: "150.00"
    close: "155.00"
    high: "156.10"
    low: "149.90"
    volume: 120000
    captured_at: 2026-01-05T15:30:00Z
`

type mockAccounts struct {
	mock.Mock
}

func (m *mockAccounts) OpenAccount(ctx context.Context, username string, balance decimal.Decimal) (models.Account, error) {
	args := m.Called(ctx, username, balance.String())
	return args.Get(0).(models.Account), args.Error(1)
}

type mockStocks struct {
	mock.Mock
}

func (m *mockStocks) AddSnapshot(ctx context.Context, snapshot models.PriceSnapshot) (models.PriceSnapshot, error) {
	args := m.Called(ctx, snapshot.Ticker)
	return args.Get(0).(models.PriceSnapshot), args.Error(1)
}

func writeSeed(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	file, err := Load(writeSeed(t, seedYAML))
	require.NoError(t, err)

	require.Len(t, file.Accounts, 2)
	assert.Equal(t, "250.50", file.Accounts[1].Balance)
	require.Len(t, file.Snapshots, 1)
	assert.Equal(t, 2026, file.Snapshots[0].CapturedAt.Year())

	_, err = Load(writeSeed(t, "accounts: ["))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	file, err := Load(writeSeed(t, seedYAML))
	require.NoError(t, err)

	tests := []struct {
		name       string
		setupMocks func(accounts *mockAccounts, stocks *mockStocks)
		want       Report
		wantErr    bool
	}{
		{
			name: "все записи созданы",
			setupMocks: func(accounts *mockAccounts, stocks *mockStocks) {
				accounts.On("OpenAccount", mock.Anything, "alice", "10000").Return(models.Account{}, nil)
				accounts.On("OpenAccount", mock.Anything, "bob", "250.5").Return(models.Account{}, nil)
				stocks.On("AddSnapshot", mock.Anything, "AAPL").Return(models.PriceSnapshot{}, nil)
			},
			want: Report{AccountsCreated: 2, SnapshotsAdded: 1},
		},
		{
			name: "повторный запуск пропускает существующие",
			setupMocks: func(accounts *mockAccounts, stocks *mockStocks) {
				accounts.On("OpenAccount", mock.Anything, mock.Anything, mock.Anything).
					Return(models.Account{}, serviceErrors.ErrAccountAlreadyExists)
				stocks.On("AddSnapshot", mock.Anything, "AAPL").
					Return(models.PriceSnapshot{}, serviceErrors.ErrSnapshotExists)
			},
			want: Report{AccountsSkipped: 2, SnapshotsSkipped: 1},
		},
		{
			name: "ошибка базы прерывает загрузку",
			setupMocks: func(accounts *mockAccounts, stocks *mockStocks) {
				accounts.On("OpenAccount", mock.Anything, "alice", "10000").
					Return(models.Account{}, errors.New("database error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := new(mockAccounts)
			stocks := new(mockStocks)
			tt.setupMocks(accounts, stocks)

			report, err := Apply(context.Background(), file, accounts, stocks)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, report)
			}

			accounts.AssertExpectations(t)
			stocks.AssertExpectations(t)
		})
	}
}
