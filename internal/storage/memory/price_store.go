package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
	repositoryErrors "github.com/nastyazhadan/trade-settlement/shared/errors/repository"
)

type PriceStore struct {
	snapshots map[string][]models.PriceSnapshot
	mu        sync.RWMutex
}

func NewPriceStore() *PriceStore {
	return &PriceStore{
		snapshots: make(map[string][]models.PriceSnapshot),
	}
}

func (p *PriceStore) SaveSnapshot(ctx context.Context, snapshot models.PriceSnapshot) error {
	const op = "storage.PriceStore.SaveSnapshot"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	history := p.snapshots[snapshot.Ticker]
	for _, existing := range history {
		if existing.CapturedAt.Equal(snapshot.CapturedAt) {
			return fmt.Errorf("%s: %w", op, repositoryErrors.ErrSnapshotAlreadyExists)
		}
	}

	history = append(history, snapshot)
	slices.SortFunc(history, func(a, b models.PriceSnapshot) int {
		return a.CapturedAt.Compare(b.CapturedAt)
	})
	p.snapshots[snapshot.Ticker] = history

	return nil
}

func (p *PriceStore) ListSnapshots(ctx context.Context) ([]models.PriceSnapshot, error) {
	const op = "storage.PriceStore.ListSnapshots"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]models.PriceSnapshot, 0)
	for _, history := range p.snapshots {
		result = append(result, history...)
	}

	slices.SortFunc(result, func(a, b models.PriceSnapshot) int {
		if byTicker := strings.Compare(a.Ticker, b.Ticker); byTicker != 0 {
			return byTicker
		}
		return a.CapturedAt.Compare(b.CapturedAt)
	})

	return result, nil
}

func (p *PriceStore) LatestSnapshot(ctx context.Context, ticker string) (models.PriceSnapshot, error) {
	const op = "storage.PriceStore.LatestSnapshot"

	if err := ctx.Err(); err != nil {
		return models.PriceSnapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	history := p.snapshots[ticker]
	if len(history) == 0 {
		return models.PriceSnapshot{}, fmt.Errorf("%s: %w", op, repositoryErrors.ErrTickerNotFound)
	}

	return history[len(history)-1], nil
}
