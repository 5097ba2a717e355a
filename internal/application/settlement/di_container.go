package settlement

import (
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/nastyazhadan/trade-settlement/internal/api"
	"github.com/nastyazhadan/trade-settlement/internal/infrastructure/postgres"
	repoRedis "github.com/nastyazhadan/trade-settlement/internal/infrastructure/redis"
	"github.com/nastyazhadan/trade-settlement/internal/jobs/recovery"
	"github.com/nastyazhadan/trade-settlement/internal/metrics"
	svcAccount "github.com/nastyazhadan/trade-settlement/internal/services/account"
	svcOrder "github.com/nastyazhadan/trade-settlement/internal/services/order"
	svcSettlement "github.com/nastyazhadan/trade-settlement/internal/services/settlement"
	svcStock "github.com/nastyazhadan/trade-settlement/internal/services/stock"
	"github.com/nastyazhadan/trade-settlement/internal/worker"
	"github.com/nastyazhadan/trade-settlement/shared/config"
	"github.com/nastyazhadan/trade-settlement/shared/infra/health"
	sharedRedis "github.com/nastyazhadan/trade-settlement/shared/infra/redis"
	zapLogger "github.com/nastyazhadan/trade-settlement/shared/interceptors/logger/zap"
)

const createRateLimiterPrefix = "rate:order:create:"

type DiContainer struct {
	dbPool    *pgxpool.Pool
	redis     goredis.UniversalClient
	publisher svcSettlement.EventPublisher
	registry  *prometheus.Registry
	cfg       config.Config

	accountStore     *postgres.AccountStore
	accountStoreOnce sync.Once

	orderStore     *postgres.OrderStore
	orderStoreOnce sync.Once

	priceStore     *postgres.PriceStore
	priceStoreOnce sync.Once

	ledger     *postgres.Ledger
	ledgerOnce sync.Once

	redisClient     sharedRedis.Client
	redisClientOnce sync.Once

	accountCache     *repoRedis.AccountCacheRepository
	accountCacheOnce sync.Once

	stockCache     *repoRedis.StockCacheRepository
	stockCacheOnce sync.Once

	queue     *repoRedis.SettlementQueue
	queueOnce sync.Once

	createRateLimiter     svcOrder.RateLimiter
	createRateLimiterOnce sync.Once

	metrics     *metrics.Metrics
	metricsOnce sync.Once

	accountService     *svcAccount.Service
	accountServiceOnce sync.Once

	stockService     *svcStock.Service
	stockServiceOnce sync.Once

	orderService     *svcOrder.Service
	orderServiceOnce sync.Once

	engine     *svcSettlement.Engine
	engineOnce sync.Once

	workerPool     *worker.Pool
	workerPoolOnce sync.Once

	sweeper     *recovery.Sweeper
	sweeperOnce sync.Once

	healthChecker     *health.Checker
	healthCheckerOnce sync.Once
}

// NewDIContainer wires components lazily. publisher may be nil when Kafka is disabled.
func NewDIContainer(
	dbPool *pgxpool.Pool,
	redis goredis.UniversalClient,
	publisher svcSettlement.EventPublisher,
	registry *prometheus.Registry,
	cfg config.Config,
) *DiContainer {
	if dbPool == nil {
		panic("dbPool is nil")
	}

	if redis == nil {
		panic("redis is nil")
	}

	return &DiContainer{
		dbPool:    dbPool,
		redis:     redis,
		publisher: publisher,
		registry:  registry,
		cfg:       cfg,
	}
}

func (d *DiContainer) AccountStore() *postgres.AccountStore {
	d.accountStoreOnce.Do(func() {
		d.accountStore = postgres.NewAccountStore(d.dbPool)
	})

	return d.accountStore
}

func (d *DiContainer) OrderStore() *postgres.OrderStore {
	d.orderStoreOnce.Do(func() {
		d.orderStore = postgres.NewOrderStore(d.dbPool)
	})

	return d.orderStore
}

func (d *DiContainer) PriceStore() *postgres.PriceStore {
	d.priceStoreOnce.Do(func() {
		d.priceStore = postgres.NewPriceStore(d.dbPool)
	})

	return d.priceStore
}

func (d *DiContainer) Ledger() *postgres.Ledger {
	d.ledgerOnce.Do(func() {
		d.ledger = postgres.NewLedger(d.dbPool)
	})

	return d.ledger
}

func (d *DiContainer) RedisClient() sharedRedis.Client {
	d.redisClientOnce.Do(func() {
		d.redisClient = sharedRedis.NewClient(
			d.redis,
			zapLogger.Logger(),
			d.cfg.Redis.ConnectionTimeout,
		)
	})

	return d.redisClient
}

func (d *DiContainer) AccountCache() *repoRedis.AccountCacheRepository {
	d.accountCacheOnce.Do(func() {
		d.accountCache = repoRedis.NewAccountCacheRepository(d.RedisClient())
	})

	return d.accountCache
}

func (d *DiContainer) StockCache() *repoRedis.StockCacheRepository {
	d.stockCacheOnce.Do(func() {
		d.stockCache = repoRedis.NewStockCacheRepository(d.RedisClient())
	})

	return d.stockCache
}

func (d *DiContainer) Queue() *repoRedis.SettlementQueue {
	d.queueOnce.Do(func() {
		d.queue = repoRedis.NewSettlementQueue(d.redis, d.cfg.Queue.KeyPrefix, d.cfg.Queue.LeaseTimeout)
	})

	return d.queue
}

func (d *DiContainer) CreateRateLimiter() svcOrder.RateLimiter {
	d.createRateLimiterOnce.Do(func() {
		d.createRateLimiter = repoRedis.NewOrderRateLimiter(
			d.RedisClient(),
			d.cfg.RateLimiter.CreateOrder,
			d.cfg.RateLimiter.Window,
			createRateLimiterPrefix,
		)
	})

	return d.createRateLimiter
}

func (d *DiContainer) Metrics() *metrics.Metrics {
	d.metricsOnce.Do(func() {
		d.metrics = metrics.New(d.registry)
	})

	return d.metrics
}

func (d *DiContainer) AccountService() *svcAccount.Service {
	d.accountServiceOnce.Do(func() {
		d.accountService = svcAccount.NewService(d.AccountStore(), d.AccountCache(), d.cfg.Cache.AccountTTL)
	})

	return d.accountService
}

func (d *DiContainer) StockService() *svcStock.Service {
	d.stockServiceOnce.Do(func() {
		d.stockService = svcStock.NewService(d.PriceStore(), d.StockCache(), d.cfg.Cache.StockTTL)
	})

	return d.stockService
}

func (d *DiContainer) OrderService() *svcOrder.Service {
	d.orderServiceOnce.Do(func() {
		store := d.OrderStore()
		d.orderService = svcOrder.NewService(
			store,
			store,
			d.AccountService(),
			d.StockService(),
			d.Queue(),
			d.CreateRateLimiter(),
			d.cfg.CreateTimeout,
			d.Metrics(),
		)
	})

	return d.orderService
}

func (d *DiContainer) Engine() *svcSettlement.Engine {
	d.engineOnce.Do(func() {
		d.engine = svcSettlement.NewEngine(d.Ledger(), d.AccountCache(), d.publisher)
	})

	return d.engine
}

func (d *DiContainer) WorkerPool() *worker.Pool {
	d.workerPoolOnce.Do(func() {
		d.workerPool = worker.NewPool(d.Queue(), d.Engine(), d.Metrics(), d.cfg.Worker, d.cfg.Queue)
	})

	return d.workerPool
}

func (d *DiContainer) Sweeper() *recovery.Sweeper {
	d.sweeperOnce.Do(func() {
		d.sweeper = recovery.NewSweeper(d.OrderStore(), d.Queue(), d.Metrics(), d.cfg.Recovery)
	})

	return d.sweeper
}

func (d *DiContainer) HealthChecker() *health.Checker {
	d.healthCheckerOnce.Do(func() {
		d.healthChecker = health.NewChecker(d.cfg.CheckTimeout)
		d.healthChecker.Register("postgres", d.dbPool.Ping)
		d.healthChecker.Register("redis", d.RedisClient().Ping)
	})

	return d.healthChecker
}

func (d *DiContainer) Handler() *api.Handler {
	return api.NewHandler(d.AccountService(), d.StockService(), d.OrderService(), d.HealthChecker())
}
