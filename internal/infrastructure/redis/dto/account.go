package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
)

type AccountRedisView struct {
	Username  string    `json:"username"`
	Balance   string    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

func (v AccountRedisView) ToDomain() (models.Account, error) {
	balance, err := decimal.NewFromString(v.Balance)
	if err != nil {
		return models.Account{}, fmt.Errorf("parse balance: %w", err)
	}

	return models.Account{
		Username:  v.Username,
		Balance:   balance,
		CreatedAt: v.CreatedAt,
	}, nil
}

func AccountFromDomain(account models.Account) AccountRedisView {
	return AccountRedisView{
		Username:  account.Username,
		Balance:   account.Balance.String(),
		CreatedAt: account.CreatedAt,
	}
}
