package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
)

type createAccountRequest struct {
	Username string          `json:"username"`
	Balance  decimal.Decimal `json:"balance"`
}

type accountResponse struct {
	Username  string    `json:"username"`
	Balance   string    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

func accountFromDomain(account models.Account) accountResponse {
	return accountResponse{
		Username:  account.Username,
		Balance:   account.Balance.StringFixed(2),
		CreatedAt: account.CreatedAt,
	}
}

type snapshotRequest struct {
	Ticker     string          `json:"ticker"`
	Open       decimal.Decimal `json:"open_price"`
	Close      decimal.Decimal `json:"close_price"`
	High       decimal.Decimal `json:"high"`
	Low        decimal.Decimal `json:"low"`
	Volume     int64           `json:"volume"`
	CapturedAt *time.Time      `json:"timestamp,omitempty"`
}

func (r snapshotRequest) toDomain() models.PriceSnapshot {
	snapshot := models.PriceSnapshot{
		Ticker: r.Ticker,
		Open:   r.Open,
		Close:  r.Close,
		High:   r.High,
		Low:    r.Low,
		Volume: r.Volume,
	}
	if r.CapturedAt != nil {
		snapshot.CapturedAt = r.CapturedAt.UTC()
	}

	return snapshot
}

type snapshotResponse struct {
	Ticker     string    `json:"ticker"`
	Open       string    `json:"open_price"`
	Close      string    `json:"close_price"`
	High       string    `json:"high"`
	Low        string    `json:"low"`
	Volume     int64     `json:"volume"`
	CapturedAt time.Time `json:"timestamp"`
}

func snapshotFromDomain(snapshot models.PriceSnapshot) snapshotResponse {
	return snapshotResponse{
		Ticker:     snapshot.Ticker,
		Open:       snapshot.Open.StringFixed(2),
		Close:      snapshot.Close.StringFixed(2),
		High:       snapshot.High.StringFixed(2),
		Low:        snapshot.Low.StringFixed(2),
		Volume:     snapshot.Volume,
		CapturedAt: snapshot.CapturedAt,
	}
}

type createTransactionRequest struct {
	Username string `json:"username"`
	Ticker   string `json:"ticker"`
	Type     string `json:"transaction_type"`
	Volume   int64  `json:"transaction_volume"`
}

type transactionResponse struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Ticker    string     `json:"ticker"`
	Type      string     `json:"transaction_type"`
	Volume    int64      `json:"transaction_volume"`
	UnitPrice string     `json:"unit_price"`
	Price     string     `json:"transaction_price"`
	Status    string     `json:"status"`
	Timestamp time.Time  `json:"timestamp"`
	SettledAt *time.Time `json:"settled_at,omitempty"`
}

func transactionFromDomain(order models.Order) transactionResponse {
	return transactionResponse{
		ID:        order.ID.String(),
		Username:  order.Username,
		Ticker:    order.Ticker,
		Type:      order.Side.String(),
		Volume:    order.Quantity,
		UnitPrice: order.UnitPrice.StringFixed(2),
		Price:     order.TotalPrice.StringFixed(2),
		Status:    order.Status.String(),
		Timestamp: order.CreatedAt,
		SettledAt: order.SettledAt,
	}
}

func transactionsFromDomain(orders []models.Order) []transactionResponse {
	response := make([]transactionResponse, 0, len(orders))
	for _, order := range orders {
		response = append(response, transactionFromDomain(order))
	}

	return response
}

type errorResponse struct {
	Error string `json:"error"`
}
