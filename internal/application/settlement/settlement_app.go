package settlement

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/IBM/sarama"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/nastyazhadan/trade-settlement/internal/api"
	"github.com/nastyazhadan/trade-settlement/internal/infrastructure/kafka"
	"github.com/nastyazhadan/trade-settlement/internal/jobs/recovery"
	svcSettlement "github.com/nastyazhadan/trade-settlement/internal/services/settlement"
	"github.com/nastyazhadan/trade-settlement/migrations"
	"github.com/nastyazhadan/trade-settlement/shared/config"
	"github.com/nastyazhadan/trade-settlement/shared/infra/db"
	"github.com/nastyazhadan/trade-settlement/shared/infra/health"
	sharedRedis "github.com/nastyazhadan/trade-settlement/shared/infra/redis"
	"github.com/nastyazhadan/trade-settlement/shared/infra/tracing"
	logInterceptor "github.com/nastyazhadan/trade-settlement/shared/interceptors/logger"
	zapLogger "github.com/nastyazhadan/trade-settlement/shared/interceptors/logger/zap"
	recoveryInterceptor "github.com/nastyazhadan/trade-settlement/shared/interceptors/recovery"
	"github.com/nastyazhadan/trade-settlement/shared/interceptors/xrequestid"
)

const (
	readHeaderTimeout = 5 * time.Second
	sweepTimeout      = 30 * time.Second
)

// Run starts the service and blocks until ctx is canceled or fx receives a signal.
func Run(ctx context.Context, cfg config.Config) error {
	app := fx.New(options(ctx, cfg))

	startCtx, cancelStart := context.WithTimeout(ctx, app.StartTimeout())
	defer cancelStart()

	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("app.Start: %w", err)
	}

	select {
	case <-ctx.Done():
	case shutdown := <-app.Wait():
		zapLogger.Info(context.Background(), "shutdown signal received", zap.Any("signal", shutdown.Signal))
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancelStop()

	if err := app.Stop(stopCtx); err != nil {
		return fmt.Errorf("app.Stop: %w", err)
	}

	return nil
}

func options(ctx context.Context, cfg config.Config) fx.Option {
	return fx.Options(
		fx.Provide(
			func() context.Context {
				return ctx
			},
			func() config.Config {
				return cfg
			}),
		fx.Provide(
			provideRegistry,
			provideTracerProvider,
			providePostgres,
			provideRedis,
			providePublisher,
			provideContainer,
			provideHTTPServer,
			provideGRPCServer,
			provideScheduler,
		),
		fx.Invoke(
			registerLogger,
			startHTTPServer,
			startGRPCServer,
			startWorkers,
			startScheduler,
		),
	)
}

func registerLogger(lifeCycle fx.Lifecycle, cfg config.Config) error {
	if err := zapLogger.Init(cfg.LogLevel, cfg.LogFormat == "json"); err != nil {
		return err
	}

	lifeCycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = zapLogger.Sync()

			return nil
		},
	})

	return nil
}

func provideRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return registry
}

func provideTracerProvider(
	ctx context.Context,
	lifeCycle fx.Lifecycle,
	cfg config.Config,
) (*sdktrace.TracerProvider, error) {
	provider, err := tracing.NewProvider(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("tracing.NewProvider: %w", err)
	}

	lifeCycle.Append(fx.Hook{
		OnStop: provider.Shutdown,
	})

	return provider, nil
}

func providePostgres(
	ctx context.Context,
	lifeCycle fx.Lifecycle,
	cfg config.Config,
) (*pgxpool.Pool, error) {
	pool, err := db.SetupDB(ctx, cfg.DBURI, migrations.Migrations)
	if err != nil {
		return nil, fmt.Errorf("db.SetupDB: %w", err)
	}

	lifeCycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func provideRedis(
	ctx context.Context,
	lifeCycle fx.Lifecycle,
	cfg config.Config,
) (goredis.UniversalClient, error) {
	rdb, err := sharedRedis.Dial(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("redis.Dial: %w", err)
	}

	lifeCycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return rdb.Close()
		},
	})

	return rdb, nil
}

func providePublisher(
	ctx context.Context,
	lifeCycle fx.Lifecycle,
	cfg config.Config,
) (svcSettlement.EventPublisher, error) {
	if !cfg.Kafka.Enabled() {
		zapLogger.Info(ctx, "kafka brokers not configured, settlement events disabled")
		return nil, nil
	}

	producer, err := kafka.NewSyncProducer(cfg.Kafka)
	if err != nil {
		return nil, err
	}

	publisher := kafka.NewSettlementPublisher(producer, cfg.Kafka.SettlementTopic, cfg.CircuitBreaker)

	lifeCycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := publisher.Close(); err != nil && !errors.Is(err, sarama.ErrClosedClient) {
				return err
			}
			return nil
		},
	})

	return publisher, nil
}

func provideContainer(
	pool *pgxpool.Pool,
	rdb goredis.UniversalClient,
	publisher svcSettlement.EventPublisher,
	registry *prometheus.Registry,
	_ *sdktrace.TracerProvider,
	cfg config.Config,
) *DiContainer {
	return NewDIContainer(pool, rdb, publisher, registry, cfg)
}

func provideHTTPServer(
	lifeCycle fx.Lifecycle,
	container *DiContainer,
	registry *prometheus.Registry,
	cfg config.Config,
) *http.Server {
	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           api.NewRouter(container.Handler(), registry),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	lifeCycle.Append(fx.Hook{
		OnStop: server.Shutdown,
	})

	return server
}

func startHTTPServer(lifeCycle fx.Lifecycle, server *http.Server) {
	lifeCycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			listener, err := net.Listen("tcp", server.Addr)
			if err != nil {
				return fmt.Errorf("net.Listen: %w", err)
			}

			zapLogger.Info(ctx, fmt.Sprintf("Starting HTTP server on %s", listener.Addr()))
			go func() {
				if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
					zapLogger.Error(context.Background(), "HTTP server error", zap.Error(err))
				}
			}()

			return nil
		},
	})
}

func provideGRPCServer(
	lifeCycle fx.Lifecycle,
	container *DiContainer,
) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			xrequestid.Server,
			logInterceptor.LoggerInterceptor(),
			recoveryInterceptor.Unary,
		),
	)

	reflection.Register(grpcServer)
	health.RegisterService(grpcServer, container.HealthChecker())

	lifeCycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			grpcServer.GracefulStop()
			return nil
		},
	})

	return grpcServer
}

func startGRPCServer(
	lifeCycle fx.Lifecycle,
	server *grpc.Server,
	cfg config.Config,
) {
	lifeCycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			listener, err := net.Listen("tcp", cfg.HealthAddress)
			if err != nil {
				return fmt.Errorf("net.Listen: %w", err)
			}

			zapLogger.Info(ctx, fmt.Sprintf("Starting gRPC health server on %s", listener.Addr()))
			go func() {
				if err := server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
					zapLogger.Error(context.Background(), "gRPC health server error", zap.Error(err))
				}
			}()

			return nil
		},
	})
}

func startWorkers(lifeCycle fx.Lifecycle, container *DiContainer) {
	var (
		cancel context.CancelFunc
		done   = make(chan error, 1)
	)

	lifeCycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var workerCtx context.Context
			workerCtx, cancel = context.WithCancel(context.WithoutCancel(ctx))

			go func() {
				done <- container.WorkerPool().Run(workerCtx)
			}()

			zapLogger.Info(ctx, "settlement workers started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				return fmt.Errorf("settlement workers did not stop: %w", ctx.Err())
			}
		},
	})
}

func provideScheduler(container *DiContainer, cfg config.Config) (*recovery.Scheduler, error) {
	return recovery.NewScheduler(container.Sweeper(), cfg.Recovery.Schedule, sweepTimeout)
}

func startScheduler(lifeCycle fx.Lifecycle, scheduler *recovery.Scheduler) {
	lifeCycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			scheduler.Start()
			return nil
		},
		OnStop: scheduler.Stop,
	})
}
