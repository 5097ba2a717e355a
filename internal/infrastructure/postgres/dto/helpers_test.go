package dto

import (
	"github.com/shopspring/decimal"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
)

func accountWithBalance(balance string) models.Account {
	return models.Account{Username: "alice", Balance: decimal.RequireFromString(balance)}
}
