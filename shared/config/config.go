package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingValue = errors.New("required config value is missing")

type Config struct {
	HTTPAddress   string        `mapstructure:"http_address"`
	HealthAddress string        `mapstructure:"health_address"`
	DBURI         string        `mapstructure:"db_uri"`
	LogLevel      string        `mapstructure:"log_level"`
	LogFormat     string        `mapstructure:"log_format"`
	CreateTimeout time.Duration `mapstructure:"create_timeout"`
	CheckTimeout  time.Duration `mapstructure:"check_timeout"`

	Redis          RedisConfig          `mapstructure:"redis"`
	Cache          CacheConfig          `mapstructure:"cache"`
	Queue          QueueConfig          `mapstructure:"queue"`
	Worker         WorkerConfig         `mapstructure:"worker"`
	Recovery       RecoveryConfig       `mapstructure:"recovery"`
	RateLimiter    RateLimiterConfig    `mapstructure:"rate_limiter"`
	Kafka          KafkaConfig          `mapstructure:"kafka"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"cb"`
	Tracing        TracingConfig        `mapstructure:"otel"`
}

type RedisConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	Password          string        `mapstructure:"password"`
	DB                int           `mapstructure:"db"`
	PoolSize          int           `mapstructure:"pool_size"`
	ConnectionTimeout time.Duration `mapstructure:"connection_timeout"`
}

func (r RedisConfig) Address() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

type CacheConfig struct {
	AccountTTL time.Duration `mapstructure:"account_ttl"`
	StockTTL   time.Duration `mapstructure:"stock_ttl"`
}

type QueueConfig struct {
	KeyPrefix     string        `mapstructure:"key_prefix"`
	LeaseTimeout  time.Duration `mapstructure:"lease_timeout"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	MaxDeliveries int64         `mapstructure:"max_deliveries"`
}

type WorkerConfig struct {
	Count         int           `mapstructure:"count"`
	SettleTimeout time.Duration `mapstructure:"settle_timeout"`
}

type RecoveryConfig struct {
	Schedule   string        `mapstructure:"schedule"`
	PendingAge time.Duration `mapstructure:"pending_age"`
	BatchSize  int           `mapstructure:"batch_size"`
}

type RateLimiterConfig struct {
	CreateOrder int64         `mapstructure:"create_order"`
	Window      time.Duration `mapstructure:"window"`
}

type KafkaConfig struct {
	Brokers         []string `mapstructure:"brokers"`
	SettlementTopic string   `mapstructure:"settlement_topic"`
	ClientID        string   `mapstructure:"client_id"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type CircuitBreakerConfig struct {
	MaxRequests uint32        `mapstructure:"max_requests"`
	Interval    time.Duration `mapstructure:"interval"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxFailures uint32        `mapstructure:"max_failures"`
}

type TracingConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

// Load reads an optional .env file and then the process environment.
// Nested keys map to env names with dots replaced by underscores: queue.lease_timeout -> QUEUE_LEASE_TIMEOUT.
func Load(envPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("godotenv.Load: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("viper.Unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DBURI == "" {
		return fmt.Errorf("%w: DB_URI", ErrMissingValue)
	}

	if c.Worker.Count <= 0 {
		return fmt.Errorf("WORKER_COUNT must be > 0, got %d", c.Worker.Count)
	}

	if c.Queue.LeaseTimeout <= 0 {
		return fmt.Errorf("QUEUE_LEASE_TIMEOUT must be > 0, got %s", c.Queue.LeaseTimeout)
	}

	if c.Kafka.Enabled() && c.Kafka.SettlementTopic == "" {
		return fmt.Errorf("%w: KAFKA_SETTLEMENT_TOPIC", ErrMissingValue)
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_address", ":8080")
	v.SetDefault("health_address", ":50051")
	v.SetDefault("db_uri", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("create_timeout", 5*time.Second)
	v.SetDefault("check_timeout", 2*time.Second)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.connection_timeout", 2*time.Second)

	v.SetDefault("cache.account_ttl", time.Hour)
	v.SetDefault("cache.stock_ttl", time.Hour)

	v.SetDefault("queue.key_prefix", "settlement")
	v.SetDefault("queue.lease_timeout", 30*time.Second)
	v.SetDefault("queue.poll_interval", 200*time.Millisecond)
	v.SetDefault("queue.max_deliveries", 10)

	v.SetDefault("worker.count", 4)
	v.SetDefault("worker.settle_timeout", 10*time.Second)

	v.SetDefault("recovery.schedule", "@every 1m")
	v.SetDefault("recovery.pending_age", 2*time.Minute)
	v.SetDefault("recovery.batch_size", 100)

	v.SetDefault("rate_limiter.create_order", 100)
	v.SetDefault("rate_limiter.window", time.Minute)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.settlement_topic", "settlement.events")
	v.SetDefault("kafka.client_id", "trade-settlement")

	v.SetDefault("cb.max_requests", 3)
	v.SetDefault("cb.interval", 10*time.Second)
	v.SetDefault("cb.timeout", 5*time.Second)
	v.SetDefault("cb.max_failures", 5)

	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.service_name", "trade-settlement")
}
