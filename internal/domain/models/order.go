package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID         uuid.UUID
	Username   string
	Ticker     string
	Side       OrderSide
	Quantity   int64
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
	Status     OrderStatus
	CreatedAt  time.Time
	SettledAt  *time.Time
}

type OrderSide uint8

const (
	OrderSideUnspecified OrderSide = iota
	OrderSideBuy
	OrderSideSell
)

func ParseOrderSide(value string) OrderSide {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "BUY":
		return OrderSideBuy
	case "SELL":
		return OrderSideSell
	default:
		return OrderSideUnspecified
	}
}

func (s OrderSide) String() string {
	switch s {
	case OrderSideBuy:
		return "BUY"
	case OrderSideSell:
		return "SELL"
	default:
		return "UNSPECIFIED"
	}
}

type OrderStatus uint8

const (
	OrderStatusUnspecified OrderStatus = iota
	OrderStatusPending
	OrderStatusCompleted
	OrderStatusFailed
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusPending:
		return "pending"
	case OrderStatusCompleted:
		return "completed"
	case OrderStatusFailed:
		return "failed"
	default:
		return "unspecified"
	}
}

// IsTerminal reports whether no further transition is allowed out of s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusFailed
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to OrderStatus) bool {
	return from == OrderStatusPending && to.IsTerminal()
}
