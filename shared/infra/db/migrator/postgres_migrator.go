package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	zapLogger "github.com/nastyazhadan/trade-settlement/shared/interceptors/logger/zap"
)

type Migrator struct {
	db           *sql.DB
	migrationsFS fs.FS
}

func NewMigrator(db *sql.DB, migrationsFS fs.FS) *Migrator {
	return &Migrator{
		db:           db,
		migrationsFS: migrationsFS,
	}
}

// Up applies every pending migration found at the root of migrationsFS.
func (m *Migrator) Up(ctx context.Context) error {
	const op = "Migrator.Up"

	provider, err := goose.NewProvider(goose.DialectPostgres, m.db, m.migrationsFS)
	if err != nil {
		return fmt.Errorf("%s: goose.NewProvider: %w", op, err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, result := range results {
		zapLogger.Info(ctx, "migration applied",
			zap.Int64("version", result.Source.Version),
			zap.String("path", result.Source.Path),
			zap.Duration("took", result.Duration),
		)
	}

	return nil
}
