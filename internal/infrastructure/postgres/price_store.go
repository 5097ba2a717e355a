package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
	"github.com/nastyazhadan/trade-settlement/internal/infrastructure/postgres/dto"
	repositoryErrors "github.com/nastyazhadan/trade-settlement/shared/errors/repository"
)

const snapshotColumns = `ticker, open_price::text AS open_price, close_price::text AS close_price,
	high::text AS high, low::text AS low, volume, captured_at`

type PriceStore struct {
	pool *pgxpool.Pool
}

func NewPriceStore(pool *pgxpool.Pool) *PriceStore {
	return &PriceStore{
		pool: pool,
	}
}

func (p *PriceStore) SaveSnapshot(ctx context.Context, snapshot models.PriceSnapshot) error {
	const op = "infrastructure.PriceStore.SaveSnapshot"

	snapshotDTO := dto.PriceSnapshotFromDomain(snapshot)

	_, err := p.pool.Exec(ctx,
		`INSERT INTO price_snapshots (ticker, open_price, close_price, high, low, volume, captured_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		snapshotDTO.Ticker,
		snapshotDTO.Open,
		snapshotDTO.Close,
		snapshotDTO.High,
		snapshotDTO.Low,
		snapshotDTO.Volume,
		snapshotDTO.CapturedAt,
	)

	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%s: %w", op, repositoryErrors.ErrSnapshotAlreadyExists)
		}

		return fmt.Errorf("%s: exec: %w", op, err)
	}

	return nil
}

func (p *PriceStore) ListSnapshots(ctx context.Context) ([]models.PriceSnapshot, error) {
	const op = "infrastructure.PriceStore.ListSnapshots"

	rows, err := p.pool.Query(ctx,
		`SELECT `+snapshotColumns+` FROM price_snapshots ORDER BY ticker, captured_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}

	snapshotDTOs, err := pgx.CollectRows(rows, pgx.RowToStructByName[dto.PriceSnapshot])
	if err != nil {
		return nil, fmt.Errorf("%s: collect: %w", op, err)
	}

	snapshots := make([]models.PriceSnapshot, 0, len(snapshotDTOs))
	for _, snapshotDTO := range snapshotDTOs {
		snapshot, err := snapshotDTO.ToDomain()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, nil
}

func (p *PriceStore) LatestSnapshot(ctx context.Context, ticker string) (models.PriceSnapshot, error) {
	const op = "infrastructure.PriceStore.LatestSnapshot"

	rows, err := p.pool.Query(ctx,
		`SELECT `+snapshotColumns+` FROM price_snapshots
		 WHERE ticker = $1
		 ORDER BY captured_at DESC
		 LIMIT 1`,
		ticker,
	)
	if err != nil {
		return models.PriceSnapshot{}, fmt.Errorf("%s: query: %w", op, err)
	}

	snapshotDTO, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[dto.PriceSnapshot])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PriceSnapshot{}, fmt.Errorf("%s: %w", op, repositoryErrors.ErrTickerNotFound)
		}

		return models.PriceSnapshot{}, fmt.Errorf("%s: collect: %w", op, err)
	}

	snapshot, err := snapshotDTO.ToDomain()
	if err != nil {
		return models.PriceSnapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	return snapshot, nil
}
