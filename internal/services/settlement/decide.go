package settlement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
)

// decide computes the outcome of settling a pending order against its locked account.
func decide(order models.Order, account models.Account, now time.Time) (Result, models.WriteSet) {
	result := Result{OrderID: order.ID, Balance: account.Balance}

	if !wellFormed(order) {
		result.Outcome = OutcomeRejected
		result.Status = models.OrderStatusFailed
		return result, failOrder(order, now)
	}

	balance := account.Balance
	switch order.Side {
	case models.OrderSideBuy:
		if balance.LessThan(order.TotalPrice) {
			result.Outcome = OutcomeInsufficientFunds
			result.Status = models.OrderStatusFailed
			return result, failOrder(order, now)
		}
		balance = balance.Sub(order.TotalPrice)
	case models.OrderSideSell:
		// no holdings are tracked, a SELL always credits
		balance = balance.Add(order.TotalPrice)
		if balance.GreaterThan(models.MaxAmount) {
			result.Outcome = OutcomeRejected
			result.Status = models.OrderStatusFailed
			return result, failOrder(order, now)
		}
	}

	result.Outcome = OutcomeSettled
	result.Status = models.OrderStatusCompleted
	result.Balance = balance

	return result, models.WriteSet{
		Account: &models.AccountWrite{Username: account.Username, Balance: balance},
		Order: &models.OrderWrite{
			ID:        order.ID,
			From:      models.OrderStatusPending,
			To:        models.OrderStatusCompleted,
			SettledAt: now,
		},
	}
}

func failOrder(order models.Order, now time.Time) models.WriteSet {
	return models.WriteSet{
		Order: &models.OrderWrite{
			ID:        order.ID,
			From:      models.OrderStatusPending,
			To:        models.OrderStatusFailed,
			SettledAt: now,
		},
	}
}

func wellFormed(order models.Order) bool {
	if order.Side != models.OrderSideBuy && order.Side != models.OrderSideSell {
		return false
	}

	if order.Quantity <= 0 || order.UnitPrice.IsNegative() || order.TotalPrice.GreaterThan(models.MaxAmount) {
		return false
	}

	return order.UnitPrice.Mul(decimal.NewFromInt(order.Quantity)).Equal(order.TotalPrice)
}
