package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
	serviceErrors "github.com/nastyazhadan/trade-settlement/shared/errors/service"
	zapLogger "github.com/nastyazhadan/trade-settlement/shared/interceptors/logger/zap"
)

type File struct {
	Accounts  []Account  `yaml:"accounts"`
	Snapshots []Snapshot `yaml:"snapshots"`
}

type Account struct {
	Username string `yaml:"username"`
	Balance  string `yaml:"balance"`
}

type Snapshot struct {
	Ticker     string    `yaml:"ticker"`
	Open       string    `yaml:"open"`
	Close      string    `yaml:"close"`
	High       string    `yaml:"high"`
	Low        string    `yaml:"low"`
	Volume     int64     `yaml:"volume"`
	CapturedAt time.Time `yaml:"captured_at"`
}

func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read seed file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return File{}, fmt.Errorf("parse seed file: %w", err)
	}

	return file, nil
}

type AccountOpener interface {
	OpenAccount(ctx context.Context, username string, balance decimal.Decimal) (models.Account, error)
}

type SnapshotAdder interface {
	AddSnapshot(ctx context.Context, snapshot models.PriceSnapshot) (models.PriceSnapshot, error)
}

type Report struct {
	AccountsCreated  int
	AccountsSkipped  int
	SnapshotsAdded   int
	SnapshotsSkipped int
}

// Apply opens the accounts and appends the snapshots. Rows that already exist are skipped,
// so the same file can be applied repeatedly.
func Apply(ctx context.Context, file File, accounts AccountOpener, stocks SnapshotAdder) (Report, error) {
	var report Report

	for _, account := range file.Accounts {
		balance, err := decimal.NewFromString(account.Balance)
		if err != nil {
			return report, fmt.Errorf("account %q balance %q: %w", account.Username, account.Balance, err)
		}

		if _, err := accounts.OpenAccount(ctx, account.Username, balance); err != nil {
			if errors.Is(err, serviceErrors.ErrAccountAlreadyExists) {
				report.AccountsSkipped++
				continue
			}
			return report, fmt.Errorf("account %q: %w", account.Username, err)
		}

		report.AccountsCreated++
		zapLogger.Debug(ctx, "account seeded", zap.String("username", account.Username))
	}

	for _, raw := range file.Snapshots {
		snapshot, err := raw.toDomain()
		if err != nil {
			return report, err
		}

		if _, err := stocks.AddSnapshot(ctx, snapshot); err != nil {
			if errors.Is(err, serviceErrors.ErrSnapshotExists) {
				report.SnapshotsSkipped++
				continue
			}
			return report, fmt.Errorf("snapshot %s: %w", raw.Ticker, err)
		}

		report.SnapshotsAdded++
	}

	return report, nil
}

func (s Snapshot) toDomain() (models.PriceSnapshot, error) {
	var prices [4]decimal.Decimal
	for i, value := range [4]string{s.Open, s.Close, s.High, s.Low} {
		price, err := decimal.NewFromString(value)
		if err != nil {
			return models.PriceSnapshot{}, fmt.Errorf("snapshot %s price %q: %w", s.Ticker, value, err)
		}
		prices[i] = price
	}

	return models.PriceSnapshot{
		Ticker:     s.Ticker,
		Open:       prices[0],
		Close:      prices[1],
		High:       prices[2],
		Low:        prices[3],
		Volume:     s.Volume,
		CapturedAt: s.CapturedAt,
	}, nil
}
