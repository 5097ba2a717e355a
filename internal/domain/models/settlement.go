package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WriteSet is applied by the ledger all-or-nothing. Nil members are skipped.
type WriteSet struct {
	Account *AccountWrite
	Order   *OrderWrite
}

func (w WriteSet) Empty() bool {
	return w.Account == nil && w.Order == nil
}

type AccountWrite struct {
	Username string
	Balance  decimal.Decimal
}

// OrderWrite moves an order from From to To. The ledger rejects it when the
// stored status is no longer From.
type OrderWrite struct {
	ID        uuid.UUID
	From      OrderStatus
	To        OrderStatus
	SettledAt time.Time
}

// Delivery is one leased hand-off of an order id from the settlement queue.
type Delivery struct {
	OrderID uuid.UUID
	Attempt int64
}

type SettlementEvent struct {
	OrderID    uuid.UUID       `json:"order_id"`
	Username   string          `json:"username"`
	Ticker     string          `json:"ticker"`
	Side       string          `json:"side"`
	Quantity   int64           `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Status     string          `json:"status"`
	Outcome    string          `json:"outcome"`
	Balance    decimal.Decimal `json:"balance"`
	SettledAt  time.Time       `json:"settled_at"`
}
