package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
)

// LedgerTx reads rows inside an atomic unit. Each read locks the row until the unit ends.
type LedgerTx interface {
	OrderForUpdate(ctx context.Context, id uuid.UUID) (models.Order, error)
	AccountForUpdate(ctx context.Context, username string) (models.Account, error)
}

// TxFunc inspects locked state and returns the writes to apply.
// A non-nil error aborts the unit without applying anything.
type TxFunc func(ctx context.Context, tx LedgerTx) (models.WriteSet, error)

type Ledger interface {
	Atomically(ctx context.Context, fn TxFunc) error
}

type AccountRepository interface {
	CreateAccount(ctx context.Context, account models.Account) error
	GetAccount(ctx context.Context, username string) (models.Account, error)
}

type OrderRepository interface {
	SaveOrder(ctx context.Context, order models.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (models.Order, error)
	ListOrders(ctx context.Context, username string) ([]models.Order, error)
	ListOrdersBetween(ctx context.Context, username string, from, to time.Time) ([]models.Order, error)
	ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]uuid.UUID, error)
}

type PriceRepository interface {
	SaveSnapshot(ctx context.Context, snapshot models.PriceSnapshot) error
	ListSnapshots(ctx context.Context) ([]models.PriceSnapshot, error)
	LatestSnapshot(ctx context.Context, ticker string) (models.PriceSnapshot, error)
}

// SettlementQueue hands order ids from intake to settlement workers.
// A delivery that is not acknowledged before its lease expires is handed out again.
type SettlementQueue interface {
	Enqueue(ctx context.Context, orderID uuid.UUID) error
	Dequeue(ctx context.Context) (models.Delivery, error)
	Ack(ctx context.Context, delivery models.Delivery) error
	Extend(ctx context.Context, delivery models.Delivery, lease time.Duration) error
}
