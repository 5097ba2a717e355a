package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
	"github.com/nastyazhadan/trade-settlement/internal/repository"
	repositoryErrors "github.com/nastyazhadan/trade-settlement/shared/errors/repository"
	serviceErrors "github.com/nastyazhadan/trade-settlement/shared/errors/service"
	zapLogger "github.com/nastyazhadan/trade-settlement/shared/interceptors/logger/zap"
)

type Invalidator interface {
	InvalidateAccount(ctx context.Context, username string)
}

type EventPublisher interface {
	PublishSettlement(ctx context.Context, event models.SettlementEvent) error
}

type Engine struct {
	ledger      repository.Ledger
	invalidator Invalidator
	publisher   EventPublisher
	tracer      trace.Tracer
	now         func() time.Time
}

// NewEngine builds the settlement engine. publisher may be nil.
func NewEngine(ledger repository.Ledger, invalidator Invalidator, publisher EventPublisher) *Engine {
	return &Engine{
		ledger:      ledger,
		invalidator: invalidator,
		publisher:   publisher,
		tracer:      otel.Tracer("settlement"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Settle applies a pending order to its account in one atomic unit.
// Terminal orders are a no-op. On error nothing was written and the order stays pending;
// use Retryable to decide whether another attempt can help.
func (e *Engine) Settle(ctx context.Context, orderID uuid.UUID) (Result, error) {
	const op = "Engine.Settle"

	ctx, span := e.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("order.id", orderID.String()),
	))
	defer span.End()

	var (
		result Result
		order  models.Order
	)

	err := e.ledger.Atomically(ctx, func(ctx context.Context, tx repository.LedgerTx) (models.WriteSet, error) {
		loaded, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return models.WriteSet{}, err
		}
		order = loaded

		if loaded.Status != models.OrderStatusPending {
			result = Result{OrderID: orderID, Outcome: OutcomeAlreadyFinal, Status: loaded.Status}
			return models.WriteSet{}, nil
		}

		account, err := tx.AccountForUpdate(ctx, loaded.Username)
		if err != nil {
			return models.WriteSet{}, err
		}

		var writes models.WriteSet
		result, writes = decide(loaded, account, e.now())

		return writes, nil
	})
	if errors.Is(err, repositoryErrors.ErrAmountOutOfRange) {
		zapLogger.Warn(ctx, "settlement amount out of range, rejecting order",
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
		result, order, err = e.reject(ctx, orderID)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "settlement aborted")

		return Result{}, fmt.Errorf("%s: %w", op, translateError(err))
	}

	span.SetAttributes(attribute.String("settlement.outcome", result.Outcome.String()))

	if result.Outcome == OutcomeAlreadyFinal {
		zapLogger.Debug(ctx, "order already settled",
			zap.String("order_id", orderID.String()),
			zap.String("status", result.Status.String()),
		)

		// an earlier attempt may have committed and died before invalidating
		if result.Status == models.OrderStatusCompleted {
			e.invalidator.InvalidateAccount(ctx, order.Username)
		}
		return result, nil
	}

	if result.Outcome == OutcomeSettled {
		e.invalidator.InvalidateAccount(ctx, order.Username)
	}

	e.publish(ctx, order, result)

	return result, nil
}

// reject fails a pending order without touching its account.
func (e *Engine) reject(ctx context.Context, orderID uuid.UUID) (Result, models.Order, error) {
	var (
		result Result
		order  models.Order
	)

	err := e.ledger.Atomically(ctx, func(ctx context.Context, tx repository.LedgerTx) (models.WriteSet, error) {
		loaded, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return models.WriteSet{}, err
		}
		order = loaded

		if loaded.Status != models.OrderStatusPending {
			result = Result{OrderID: orderID, Outcome: OutcomeAlreadyFinal, Status: loaded.Status}
			return models.WriteSet{}, nil
		}

		result = Result{OrderID: orderID, Outcome: OutcomeRejected, Status: models.OrderStatusFailed}
		return failOrder(loaded, e.now()), nil
	})

	return result, order, err
}

func (e *Engine) publish(ctx context.Context, order models.Order, result Result) {
	if e.publisher == nil {
		return
	}

	event := models.SettlementEvent{
		OrderID:    order.ID,
		Username:   order.Username,
		Ticker:     order.Ticker,
		Side:       order.Side.String(),
		Quantity:   order.Quantity,
		TotalPrice: order.TotalPrice,
		Status:     result.Status.String(),
		Outcome:    result.Outcome.String(),
		Balance:    result.Balance,
		SettledAt:  e.now(),
	}

	if err := e.publisher.PublishSettlement(ctx, event); err != nil {
		zapLogger.Warn(ctx, "failed to publish settlement event",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}
}

func translateError(err error) error {
	switch {
	case errors.Is(err, repositoryErrors.ErrOrderNotFound):
		return serviceErrors.ErrOrderNotFound
	case errors.Is(err, repositoryErrors.ErrAccountNotFound):
		return serviceErrors.ErrAccountNotFound
	default:
		return fmt.Errorf("%w: %w", serviceErrors.ErrSettlementAborted, err)
	}
}

// Retryable reports whether a failed Settle may succeed on redelivery.
// Missing rows never reappear, everything else is treated as transient.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, serviceErrors.ErrOrderNotFound),
		errors.Is(err, serviceErrors.ErrAccountNotFound):
		return false
	default:
		return true
	}
}
