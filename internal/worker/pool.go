package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
	"github.com/nastyazhadan/trade-settlement/internal/metrics"
	"github.com/nastyazhadan/trade-settlement/internal/repository"
	"github.com/nastyazhadan/trade-settlement/internal/services/settlement"
	"github.com/nastyazhadan/trade-settlement/shared/config"
	repositoryErrors "github.com/nastyazhadan/trade-settlement/shared/errors/repository"
	zapLogger "github.com/nastyazhadan/trade-settlement/shared/interceptors/logger/zap"
)

const ackTimeout = 5 * time.Second

type Settler interface {
	Settle(ctx context.Context, orderID uuid.UUID) (settlement.Result, error)
}

// Pool drains the settlement queue with a fixed number of workers.
type Pool struct {
	queue         repository.SettlementQueue
	settler       Settler
	metrics       *metrics.Metrics
	workers       int
	settleTimeout time.Duration
	leaseTimeout  time.Duration
	pollInterval  time.Duration
	maxDeliveries int64
}

func NewPool(
	queue repository.SettlementQueue,
	settler Settler,
	m *metrics.Metrics,
	workerCfg config.WorkerConfig,
	queueCfg config.QueueConfig,
) *Pool {
	return &Pool{
		queue:         queue,
		settler:       settler,
		metrics:       m,
		workers:       workerCfg.Count,
		settleTimeout: workerCfg.SettleTimeout,
		leaseTimeout:  queueCfg.LeaseTimeout,
		pollInterval:  queueCfg.PollInterval,
		maxDeliveries: queueCfg.MaxDeliveries,
	}
}

// Run blocks until ctx is canceled. A delivery already being settled is
// finished before Run returns.
func (p *Pool) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	for id := range p.workers {
		group.Go(func() error {
			return p.loop(ctx, id)
		})
	}

	return group.Wait()
}

func (p *Pool) loop(ctx context.Context, id int) error {
	zapLogger.Debug(ctx, "settlement worker started", zap.Int("worker", id))
	defer zapLogger.Debug(ctx, "settlement worker stopped", zap.Int("worker", id))

	for {
		if ctx.Err() != nil {
			return nil
		}

		delivery, err := p.queue.Dequeue(ctx)
		if err != nil {
			if !errors.Is(err, repositoryErrors.ErrQueueEmpty) && ctx.Err() == nil {
				zapLogger.Error(ctx, "dequeue failed", zap.Int("worker", id), zap.Error(err))
			}

			if !p.wait(ctx) {
				return nil
			}
			continue
		}

		p.Process(ctx, delivery)
	}
}

func (p *Pool) wait(ctx context.Context) bool {
	timer := time.NewTimer(p.pollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Process settles one delivery and acknowledges it unless another attempt could help.
func (p *Pool) Process(ctx context.Context, delivery models.Delivery) {
	ctx = zapLogger.ContextWithTraceID(ctx, fmt.Sprintf("%s/%d", delivery.OrderID, delivery.Attempt))

	if p.maxDeliveries > 0 && delivery.Attempt > p.maxDeliveries {
		zapLogger.Error(ctx, "settlement dead-lettered",
			zap.String("order_id", delivery.OrderID.String()),
			zap.Int64("attempt", delivery.Attempt),
		)
		p.metrics.DeadLettered()
		p.ack(ctx, delivery)
		return
	}

	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.settleTimeout)
	defer cancel()

	stopKeepAlive := p.keepAlive(settleCtx, delivery)
	startedAt := time.Now()
	result, err := p.settle(settleCtx, delivery.OrderID)
	stopKeepAlive()
	elapsed := time.Since(startedAt).Seconds()

	if err != nil {
		retryable := settlement.Retryable(err)
		p.metrics.SettlementFailed(retryable, elapsed)

		if retryable {
			zapLogger.Warn(ctx, "settlement attempt failed, will be redelivered",
				zap.String("order_id", delivery.OrderID.String()),
				zap.Int64("attempt", delivery.Attempt),
				zap.Error(err),
			)
			return
		}

		zapLogger.Error(ctx, "settlement dropped",
			zap.String("order_id", delivery.OrderID.String()),
			zap.Error(err),
		)
		p.ack(ctx, delivery)
		return
	}

	p.metrics.SettlementFinished(result.Outcome.String(), elapsed)
	zapLogger.Info(ctx, "order settled",
		zap.String("order_id", delivery.OrderID.String()),
		zap.String("outcome", result.Outcome.String()),
		zap.String("status", result.Status.String()),
	)

	p.ack(ctx, delivery)
}

func (p *Pool) settle(ctx context.Context, orderID uuid.UUID) (result settlement.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during settlement: %v", r)
		}
	}()

	return p.settler.Settle(ctx, orderID)
}

// keepAlive extends the lease at half its length until the returned func is called.
func (p *Pool) keepAlive(ctx context.Context, delivery models.Delivery) func() {
	if p.leaseTimeout <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(p.leaseTimeout / 2)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := p.queue.Extend(ctx, delivery, p.leaseTimeout); err != nil {
					zapLogger.Warn(ctx, "lease extension failed",
						zap.String("order_id", delivery.OrderID.String()),
						zap.Error(err),
					)
					return
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// ack is detached from ctx cancellation and bounded by ackTimeout.
func (p *Pool) ack(ctx context.Context, delivery models.Delivery) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ackTimeout)
	defer cancel()

	if err := p.queue.Ack(ctx, delivery); err != nil {
		zapLogger.Warn(ctx, "ack failed",
			zap.String("order_id", delivery.OrderID.String()),
			zap.Int64("attempt", delivery.Attempt),
			zap.Error(err),
		)
	}
}
