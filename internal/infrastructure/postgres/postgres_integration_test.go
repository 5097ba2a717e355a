//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
	"github.com/nastyazhadan/trade-settlement/internal/repository"
	"github.com/nastyazhadan/trade-settlement/internal/testsuite"
	repositoryErrors "github.com/nastyazhadan/trade-settlement/shared/errors/repository"
)

func seedOrder(test *testing.T, ctx context.Context, orders *OrderStore, username string, status models.OrderStatus) models.Order {
	test.Helper()

	order := models.Order{
		ID:         uuid.New(),
		Username:   username,
		Ticker:     "AAPL",
		Side:       models.OrderSideBuy,
		Quantity:   40,
		UnitPrice:  decimal.RequireFromString("150"),
		TotalPrice: decimal.RequireFromString("6000"),
		Status:     status,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(test, orders.SaveOrder(ctx, order))

	return order
}

func TestStoresRoundTrip(test *testing.T) {
	ctx, pool := testsuite.Postgres(test)

	accounts := NewAccountStore(pool)
	orders := NewOrderStore(pool)
	prices := NewPriceStore(pool)

	require.NoError(test, accounts.CreateAccount(ctx, models.Account{
		Username:  "alice",
		Balance:   decimal.RequireFromString("10000.50"),
		CreatedAt: time.Now().UTC(),
	}))

	err := accounts.CreateAccount(ctx, models.Account{Username: "alice", CreatedAt: time.Now().UTC()})
	assert.ErrorIs(test, err, repositoryErrors.ErrAccountAlreadyExists)

	account, err := accounts.GetAccount(ctx, "alice")
	require.NoError(test, err)
	assert.True(test, account.Balance.Equal(decimal.RequireFromString("10000.50")))

	_, err = accounts.GetAccount(ctx, "bob")
	assert.ErrorIs(test, err, repositoryErrors.ErrAccountNotFound)

	order := seedOrder(test, ctx, orders, "alice", models.OrderStatusPending)

	stored, err := orders.GetOrder(ctx, order.ID)
	require.NoError(test, err)
	assert.Equal(test, order.ID, stored.ID)
	assert.True(test, stored.TotalPrice.Equal(order.TotalPrice))
	assert.Nil(test, stored.SettledAt)

	err = orders.SaveOrder(ctx, models.Order{ID: uuid.New(), Username: "bob", Ticker: "AAPL",
		Side: models.OrderSideBuy, Quantity: 1, Status: models.OrderStatusPending, CreatedAt: time.Now().UTC()})
	assert.ErrorIs(test, err, repositoryErrors.ErrAccountNotFound)

	stale, err := orders.ListStalePending(ctx, time.Now().Add(time.Minute), 10)
	require.NoError(test, err)
	assert.Equal(test, []uuid.UUID{order.ID}, stale)

	between, err := orders.ListOrdersBetween(ctx, "alice", order.CreatedAt.Add(-time.Second), order.CreatedAt.Add(time.Second))
	require.NoError(test, err)
	assert.Len(test, between, 1)

	snapshot := models.PriceSnapshot{
		Ticker:     "AAPL",
		Open:       decimal.RequireFromString("149"),
		Close:      decimal.RequireFromString("150"),
		High:       decimal.RequireFromString("151"),
		Low:        decimal.RequireFromString("148"),
		Volume:     1000,
		CapturedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(test, prices.SaveSnapshot(ctx, snapshot))
	assert.ErrorIs(test, prices.SaveSnapshot(ctx, snapshot), repositoryErrors.ErrSnapshotAlreadyExists)

	latest, err := prices.LatestSnapshot(ctx, "AAPL")
	require.NoError(test, err)
	assert.True(test, latest.Close.Equal(snapshot.Close))

	_, err = prices.LatestSnapshot(ctx, "MSFT")
	assert.ErrorIs(test, err, repositoryErrors.ErrTickerNotFound)
}

func TestLedgerSerializesDebits(test *testing.T) {
	ctx, pool := testsuite.Postgres(test)

	accounts := NewAccountStore(pool)
	orders := NewOrderStore(pool)
	ledger := NewLedger(pool)

	require.NoError(test, accounts.CreateAccount(ctx, models.Account{
		Username:  "alice",
		Balance:   decimal.RequireFromString("16000"),
		CreatedAt: time.Now().UTC(),
	}))

	first := seedOrder(test, ctx, orders, "alice", models.OrderStatusPending)
	second := seedOrder(test, ctx, orders, "alice", models.OrderStatusPending)

	debit := func(id uuid.UUID) repository.TxFunc {
		return func(ctx context.Context, tx repository.LedgerTx) (models.WriteSet, error) {
			order, err := tx.OrderForUpdate(ctx, id)
			if err != nil {
				return models.WriteSet{}, err
			}
			account, err := tx.AccountForUpdate(ctx, order.Username)
			if err != nil {
				return models.WriteSet{}, err
			}

			return models.WriteSet{
				Account: &models.AccountWrite{Username: account.Username, Balance: account.Balance.Sub(order.TotalPrice)},
				Order: &models.OrderWrite{
					ID: order.ID, From: order.Status, To: models.OrderStatusCompleted, SettledAt: time.Now().UTC(),
				},
			}, nil
		}
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []uuid.UUID{first.ID, second.ID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = ledger.Atomically(ctx, debit(id))
		}()
	}
	wg.Wait()

	require.NoError(test, errs[0])
	require.NoError(test, errs[1])

	account, err := accounts.GetAccount(ctx, "alice")
	require.NoError(test, err)
	assert.True(test, account.Balance.Equal(decimal.RequireFromString("4000")), account.Balance.String())
}

func TestLedgerRejectsStaleTransition(test *testing.T) {
	ctx, pool := testsuite.Postgres(test)

	accounts := NewAccountStore(pool)
	orders := NewOrderStore(pool)
	ledger := NewLedger(pool)

	require.NoError(test, accounts.CreateAccount(ctx, models.Account{
		Username: "alice", Balance: decimal.RequireFromString("100"), CreatedAt: time.Now().UTC(),
	}))
	order := seedOrder(test, ctx, orders, "alice", models.OrderStatusCompleted)

	err := ledger.Atomically(ctx, func(ctx context.Context, tx repository.LedgerTx) (models.WriteSet, error) {
		return models.WriteSet{
			Account: &models.AccountWrite{Username: "alice", Balance: decimal.Zero},
			Order: &models.OrderWrite{
				ID: order.ID, From: models.OrderStatusPending, To: models.OrderStatusFailed, SettledAt: time.Now().UTC(),
			},
		}, nil
	})
	assert.ErrorIs(test, err, repositoryErrors.ErrConflict)

	account, err := accounts.GetAccount(ctx, "alice")
	require.NoError(test, err)
	assert.True(test, account.Balance.Equal(decimal.RequireFromString("100")))
}
