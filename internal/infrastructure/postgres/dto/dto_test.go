package dto

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderToDomain(t *testing.T) {
	row := Order{
		ID:         uuid.New(),
		Username:   "alice",
		Ticker:     "AAPL",
		Side:       1,
		Quantity:   3,
		UnitPrice:  "155.00",
		TotalPrice: "465.00",
		Status:     1,
		CreatedAt:  time.Now().UTC(),
	}

	order, err := row.ToDomain()
	require.NoError(t, err)
	assert.True(t, order.TotalPrice.Equal(decimal.RequireFromString("465")))
	assert.Equal(t, "BUY", order.Side.String())
	assert.Equal(t, "pending", order.Status.String())

	row.UnitPrice = "not-a-number"
	_, err = row.ToDomain()
	assert.Error(t, err)
}

func TestAccountFromDomainKeepsTwoDecimals(t *testing.T) {
	row := AccountFromDomain(accountWithBalance("9845"))
	assert.Equal(t, "9845.00", row.Balance)
}
