package main

import (
	"context"
	"flag"
	"os"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nastyazhadan/trade-settlement/internal/infrastructure/postgres"
	repoRedis "github.com/nastyazhadan/trade-settlement/internal/infrastructure/redis"
	"github.com/nastyazhadan/trade-settlement/internal/seed"
	svcAccount "github.com/nastyazhadan/trade-settlement/internal/services/account"
	svcStock "github.com/nastyazhadan/trade-settlement/internal/services/stock"
	"github.com/nastyazhadan/trade-settlement/migrations"
	"github.com/nastyazhadan/trade-settlement/shared/config"
	"github.com/nastyazhadan/trade-settlement/shared/infra/closer"
	"github.com/nastyazhadan/trade-settlement/shared/infra/db"
	sharedRedis "github.com/nastyazhadan/trade-settlement/shared/infra/redis"
	zapLogger "github.com/nastyazhadan/trade-settlement/shared/interceptors/logger/zap"
)

const seedTimeout = time.Minute

func main() {
	envPath := flag.String("env", ".env", "path to the .env file")
	seedPath := flag.String("file", "cmd/seed/seed.example.yaml", "path to the seed YAML file")
	flag.Parse()

	os.Exit(run(*envPath, *seedPath))
}

func run(envPath, seedPath string) int {
	cfg, err := config.Load(envPath)
	if err != nil {
		zapLogger.Error(context.Background(), "failed to load config", zap.Error(err))
		return 1
	}

	if err := zapLogger.Init(cfg.LogLevel, cfg.LogFormat == "json"); err != nil {
		zapLogger.Error(context.Background(), "failed to init logger", zap.Error(err))
		return 1
	}

	resources := closer.New(syscall.SIGINT, syscall.SIGTERM)
	defer func() {
		if err := resources.CloseAll(context.Background()); err != nil {
			zapLogger.Error(context.Background(), "failed to release resources", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()
	resources.Add(func(context.Context) error {
		cancel()
		return nil
	})

	file, err := seed.Load(seedPath)
	if err != nil {
		zapLogger.Error(ctx, "failed to read seed file", zap.String("path", seedPath), zap.Error(err))
		return 1
	}

	pool, err := db.SetupDB(ctx, cfg.DBURI, migrations.Migrations)
	if err != nil {
		zapLogger.Error(ctx, "failed to connect to postgres", zap.Error(err))
		return 1
	}
	resources.AddNamed("postgres", func(context.Context) error {
		pool.Close()
		return nil
	})

	rdb, err := sharedRedis.Dial(ctx, cfg.Redis)
	if err != nil {
		zapLogger.Error(ctx, "failed to connect to redis", zap.Error(err))
		return 1
	}
	resources.AddNamed("redis", func(context.Context) error {
		return rdb.Close()
	})

	redisClient := sharedRedis.NewClient(rdb, zapLogger.Logger(), cfg.Redis.ConnectionTimeout)
	accounts := svcAccount.NewService(
		postgres.NewAccountStore(pool),
		repoRedis.NewAccountCacheRepository(redisClient),
		cfg.Cache.AccountTTL,
	)
	stocks := svcStock.NewService(
		postgres.NewPriceStore(pool),
		repoRedis.NewStockCacheRepository(redisClient),
		cfg.Cache.StockTTL,
	)

	report, err := seed.Apply(ctx, file, accounts, stocks)
	if err != nil {
		zapLogger.Error(ctx, "seed failed", zap.Error(err))
		return 1
	}

	zapLogger.Info(ctx, "seed applied",
		zap.Int("accounts_created", report.AccountsCreated),
		zap.Int("accounts_skipped", report.AccountsSkipped),
		zap.Int("snapshots_added", report.SnapshotsAdded),
		zap.Int("snapshots_skipped", report.SnapshotsSkipped),
	)

	return 0
}
