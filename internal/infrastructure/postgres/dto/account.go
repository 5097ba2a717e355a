package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
)

type Account struct {
	Username  string    `db:"username"`
	Balance   string    `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
}

func (a Account) ToDomain() (models.Account, error) {
	balance, err := decimal.NewFromString(a.Balance)
	if err != nil {
		return models.Account{}, fmt.Errorf("account %q balance: %w", a.Username, err)
	}

	return models.Account{
		Username:  a.Username,
		Balance:   balance,
		CreatedAt: a.CreatedAt,
	}, nil
}

func AccountFromDomain(account models.Account) Account {
	return Account{
		Username:  account.Username,
		Balance:   account.Balance.StringFixed(2),
		CreatedAt: account.CreatedAt,
	}
}
