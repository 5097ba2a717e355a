package settlement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
)

type Outcome uint8

const (
	OutcomeUnspecified Outcome = iota
	// OutcomeSettled: balance mutated and order completed.
	OutcomeSettled
	// OutcomeInsufficientFunds: BUY total exceeded the balance, order failed.
	OutcomeInsufficientFunds
	// OutcomeAlreadyFinal: order was terminal before this attempt, nothing written.
	OutcomeAlreadyFinal
	// OutcomeRejected: order can never settle (bad side, quantity or price, or an amount
	// the ledger cannot hold), order failed.
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSettled:
		return "settled"
	case OutcomeInsufficientFunds:
		return "insufficient_funds"
	case OutcomeAlreadyFinal:
		return "already_final"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unspecified"
	}
}

type Result struct {
	OrderID uuid.UUID
	Outcome Outcome
	Status  models.OrderStatus
	// Balance after the attempt; zero for OutcomeAlreadyFinal.
	Balance decimal.Decimal
}
