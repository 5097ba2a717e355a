package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
)

type PriceSnapshot struct {
	Ticker     string    `db:"ticker"`
	Open       string    `db:"open_price"`
	Close      string    `db:"close_price"`
	High       string    `db:"high"`
	Low        string    `db:"low"`
	Volume     int64     `db:"volume"`
	CapturedAt time.Time `db:"captured_at"`
}

func (p PriceSnapshot) ToDomain() (models.PriceSnapshot, error) {
	prices := make([]decimal.Decimal, 0, 4)
	for _, raw := range []string{p.Open, p.Close, p.High, p.Low} {
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return models.PriceSnapshot{}, fmt.Errorf("snapshot %s@%s: %w", p.Ticker, p.CapturedAt, err)
		}
		prices = append(prices, value)
	}

	return models.PriceSnapshot{
		Ticker:     p.Ticker,
		Open:       prices[0],
		Close:      prices[1],
		High:       prices[2],
		Low:        prices[3],
		Volume:     p.Volume,
		CapturedAt: p.CapturedAt,
	}, nil
}

func PriceSnapshotFromDomain(snapshot models.PriceSnapshot) PriceSnapshot {
	return PriceSnapshot{
		Ticker:     snapshot.Ticker,
		Open:       snapshot.Open.StringFixed(2),
		Close:      snapshot.Close.StringFixed(2),
		High:       snapshot.High.StringFixed(2),
		Low:        snapshot.Low.StringFixed(2),
		Volume:     snapshot.Volume,
		CapturedAt: snapshot.CapturedAt,
	}
}
