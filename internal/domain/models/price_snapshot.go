package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSnapshot is one immutable OHLCV point for a ticker.
type PriceSnapshot struct {
	Ticker     string
	Open       decimal.Decimal
	Close      decimal.Decimal
	High       decimal.Decimal
	Low        decimal.Decimal
	Volume     int64
	CapturedAt time.Time
}
