package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
)

type SnapshotRedisView struct {
	Ticker     string    `json:"ticker"`
	Open       string    `json:"open"`
	Close      string    `json:"close"`
	High       string    `json:"high"`
	Low        string    `json:"low"`
	Volume     int64     `json:"volume"`
	CapturedAt time.Time `json:"captured_at"`
}

func (v SnapshotRedisView) ToDomain() (models.PriceSnapshot, error) {
	var prices [4]decimal.Decimal
	for i, raw := range [4]string{v.Open, v.Close, v.High, v.Low} {
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return models.PriceSnapshot{}, fmt.Errorf("parse %s price: %w", v.Ticker, err)
		}
		prices[i] = value
	}

	return models.PriceSnapshot{
		Ticker:     v.Ticker,
		Open:       prices[0],
		Close:      prices[1],
		High:       prices[2],
		Low:        prices[3],
		Volume:     v.Volume,
		CapturedAt: v.CapturedAt,
	}, nil
}

func SnapshotFromDomain(snapshot models.PriceSnapshot) SnapshotRedisView {
	return SnapshotRedisView{
		Ticker:     snapshot.Ticker,
		Open:       snapshot.Open.String(),
		Close:      snapshot.Close.String(),
		High:       snapshot.High.String(),
		Low:        snapshot.Low.String(),
		Volume:     snapshot.Volume,
		CapturedAt: snapshot.CapturedAt,
	}
}
