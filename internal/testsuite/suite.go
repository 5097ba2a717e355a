//go:build integration

package testsuite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	pgContainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/nastyazhadan/trade-settlement/migrations"
	migrate "github.com/nastyazhadan/trade-settlement/shared/infra/db/migrator"
)

const (
	dbUser     = "test_user"
	dbPassword = "test_password"
	dbName     = "settlement_test_db"

	LongTimeout    = 2 * time.Minute
	StartupTimeout = 30 * time.Second
)

// Postgres starts a migrated database and returns a pool bound to the test lifetime.
func Postgres(test *testing.T) (context.Context, *pgxpool.Pool) {
	test.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), LongTimeout)
	test.Cleanup(cancel)

	container, err := pgContainer.Run(ctx,
		"postgres:17.0-alpine3.20",
		pgContainer.WithDatabase(dbName),
		pgContainer.WithUsername(dbUser),
		pgContainer.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(StartupTimeout),
		),
	)
	if err != nil {
		test.Fatalf("failed to start postgres container: %v", err)
	}
	test.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			test.Logf("failed to terminate postgres container: %v", err)
		}
	})

	connection, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		test.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connection)
	if err != nil {
		test.Fatalf("failed to create pgxpool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		test.Fatalf("failed to ping postgres: %v", err)
	}
	test.Cleanup(pool.Close)

	sqlDB := stdlib.OpenDBFromPool(pool)
	test.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := migrate.NewMigrator(sqlDB, migrations.Migrations).Up(ctx); err != nil {
		test.Fatalf("failed to run migrations: %v", err)
	}

	return ctx, pool
}

// Redis starts an empty Redis instance.
func Redis(test *testing.T) (context.Context, *goredis.Client) {
	test.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), LongTimeout)
	test.Cleanup(cancel)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7.4-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(StartupTimeout),
		},
		Started: true,
	})
	if err != nil {
		test.Fatalf("failed to start redis container: %v", err)
	}
	test.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			test.Logf("failed to terminate redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		test.Fatalf("failed to get redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		test.Fatalf("failed to get redis port: %v", err)
	}

	rdb := goredis.NewClient(&goredis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	if err := rdb.Ping(ctx).Err(); err != nil {
		test.Fatalf("failed to ping redis: %v", err)
	}
	test.Cleanup(func() {
		_ = rdb.Close()
	})

	return ctx, rdb
}

func Truncate(ctx context.Context, test *testing.T, pool *pgxpool.Pool) {
	test.Helper()

	if _, err := pool.Exec(ctx, "TRUNCATE orders, accounts, price_snapshots"); err != nil {
		test.Fatalf("failed to truncate tables: %v", err)
	}
}
