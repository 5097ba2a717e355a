package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nastyazhadan/trade-settlement/internal/application/settlement"
	"github.com/nastyazhadan/trade-settlement/shared/config"
	zapLogger "github.com/nastyazhadan/trade-settlement/shared/interceptors/logger/zap"
)

func main() {
	envPath := flag.String("env", ".env", "path to the .env file")
	flag.Parse()

	cfg, err := config.Load(*envPath)
	if err != nil {
		zapLogger.Fatal(context.Background(), "failed to load config",
			zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := settlement.Run(ctx, *cfg); err != nil {
		zapLogger.Fatal(context.Background(), "settlement service failed",
			zap.Error(err))
	}

	zapLogger.Info(context.Background(), "Settlement service stopped")
}
