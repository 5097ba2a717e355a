package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest balance or order total the ledger can store (NUMERIC(14,2)).
var MaxAmount = decimal.New(99999999999999, -2)

type Account struct {
	Username  string
	Balance   decimal.Decimal
	CreatedAt time.Time
}
