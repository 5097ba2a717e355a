package dto

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
)

type Order struct {
	ID         uuid.UUID  `db:"id"`
	Username   string     `db:"username"`
	Ticker     string     `db:"ticker"`
	Side       int16      `db:"side"`
	Quantity   int64      `db:"quantity"`
	UnitPrice  string     `db:"unit_price"`
	TotalPrice string     `db:"total_price"`
	Status     int16      `db:"status"`
	CreatedAt  time.Time  `db:"created_at"`
	SettledAt  *time.Time `db:"settled_at"`
}

func (o Order) ToDomain() (models.Order, error) {
	unitPrice, err := decimal.NewFromString(o.UnitPrice)
	if err != nil {
		return models.Order{}, fmt.Errorf("order %s unit price: %w", o.ID, err)
	}

	totalPrice, err := decimal.NewFromString(o.TotalPrice)
	if err != nil {
		return models.Order{}, fmt.Errorf("order %s total price: %w", o.ID, err)
	}

	return models.Order{
		ID:         o.ID,
		Username:   o.Username,
		Ticker:     o.Ticker,
		Side:       models.OrderSide(o.Side),
		Quantity:   o.Quantity,
		UnitPrice:  unitPrice,
		TotalPrice: totalPrice,
		Status:     models.OrderStatus(o.Status),
		CreatedAt:  o.CreatedAt,
		SettledAt:  o.SettledAt,
	}, nil
}

func OrderFromDomain(order models.Order) Order {
	return Order{
		ID:         order.ID,
		Username:   order.Username,
		Ticker:     order.Ticker,
		Side:       int16(order.Side),
		Quantity:   order.Quantity,
		UnitPrice:  order.UnitPrice.StringFixed(2),
		TotalPrice: order.TotalPrice.StringFixed(2),
		Status:     int16(order.Status),
		CreatedAt:  order.CreatedAt,
		SettledAt:  order.SettledAt,
	}
}
