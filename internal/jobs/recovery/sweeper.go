package recovery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/nastyazhadan/trade-settlement/internal/metrics"
	"github.com/nastyazhadan/trade-settlement/shared/config"
	zapLogger "github.com/nastyazhadan/trade-settlement/shared/interceptors/logger/zap"
)

type StaleLister interface {
	ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]uuid.UUID, error)
}

type Enqueuer interface {
	Enqueue(ctx context.Context, orderID uuid.UUID) error
}

// Sweeper re-enqueues orders that stayed pending longer than the configured age.
// It repairs lost enqueues and deliveries dropped after too many attempts.
type Sweeper struct {
	lister     StaleLister
	queue      Enqueuer
	metrics    *metrics.Metrics
	pendingAge time.Duration
	batchSize  int
	now        func() time.Time
}

func NewSweeper(lister StaleLister, queue Enqueuer, m *metrics.Metrics, cfg config.RecoveryConfig) *Sweeper {
	return &Sweeper{
		lister:     lister,
		queue:      queue,
		metrics:    m,
		pendingAge: cfg.PendingAge,
		batchSize:  cfg.BatchSize,
		now:        time.Now,
	}
}

// Sweep runs one pass and returns how many orders were queued again.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	const op = "Sweeper.Sweep"

	ids, err := s.lister.ListStalePending(ctx, s.now().UTC().Add(-s.pendingAge), s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	requeued := 0
	for _, id := range ids {
		if err := s.queue.Enqueue(ctx, id); err != nil {
			s.metrics.OrdersRecovered(requeued)
			return requeued, fmt.Errorf("%s: enqueue %s: %w", op, id, err)
		}
		requeued++
	}

	s.metrics.OrdersRecovered(requeued)

	return requeued, nil
}

// Scheduler runs Sweep on a cron schedule. Overlapping runs are skipped.
type Scheduler struct {
	cron    *cron.Cron
	sweeper *Sweeper
	timeout time.Duration
}

func NewScheduler(sweeper *Sweeper, schedule string, timeout time.Duration) (*Scheduler, error) {
	logger := cronLogger{}
	scheduler := &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		sweeper: sweeper,
		timeout: timeout,
	}

	if _, err := scheduler.cron.AddFunc(schedule, scheduler.run); err != nil {
		return nil, fmt.Errorf("register recovery sweep %q: %w", schedule, err)
	}

	return scheduler, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	zapLogger.Info(context.Background(), "recovery scheduler started")
}

// Stop waits for a running sweep to finish or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		zapLogger.Info(ctx, "recovery scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run() {
	ctx := zapLogger.ContextWithTraceID(context.Background(), "recovery-"+time.Now().UTC().Format(time.RFC3339))
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	requeued, err := s.sweeper.Sweep(ctx)
	if err != nil {
		zapLogger.Error(ctx, "recovery sweep failed", zap.Int("requeued", requeued), zap.Error(err))
		return
	}

	if requeued > 0 {
		zapLogger.Info(ctx, "stale pending orders requeued", zap.Int("requeued", requeued))
	}
}

type cronLogger struct{}

func (cronLogger) Info(message string, keysAndValues ...any) {
	zapLogger.With(zap.Any("cron", keysAndValues)).Debug(context.Background(), message)
}

func (cronLogger) Error(err error, message string, keysAndValues ...any) {
	zapLogger.With(zap.Any("cron", keysAndValues)).Error(context.Background(), message, zap.Error(err))
}
