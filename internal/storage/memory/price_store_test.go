package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
	repositoryErrors "github.com/nastyazhadan/trade-settlement/shared/errors/repository"
)

func TestPriceStoreLatestSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewPriceStore()

	_, err := store.LatestSnapshot(ctx, "AAPL")
	require.ErrorIs(t, err, repositoryErrors.ErrTickerNotFound)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, closePrice := range []string{"150.00", "155.00", "152.00"} {
		require.NoError(t, store.SaveSnapshot(ctx, models.PriceSnapshot{
			Ticker:     "AAPL",
			Close:      decimal.RequireFromString(closePrice),
			CapturedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	latest, err := store.LatestSnapshot(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "152", latest.Close.String())

	err = store.SaveSnapshot(ctx, models.PriceSnapshot{Ticker: "AAPL", CapturedAt: base})
	assert.ErrorIs(t, err, repositoryErrors.ErrSnapshotAlreadyExists)

	all, err := store.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
