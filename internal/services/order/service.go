package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
	"github.com/nastyazhadan/trade-settlement/internal/metrics"
	repositoryErrors "github.com/nastyazhadan/trade-settlement/shared/errors/repository"
	serviceErrors "github.com/nastyazhadan/trade-settlement/shared/errors/service"
	zapLogger "github.com/nastyazhadan/trade-settlement/shared/interceptors/logger/zap"
)

type Service struct {
	saver    Saver
	getter   Getter
	accounts AccountGetter
	prices   PriceLookup
	queue    Enqueuer

	createRateLimiter RateLimiter
	createTimeout     time.Duration
	metrics           *metrics.Metrics
	tracer            trace.Tracer
}

type Saver interface {
	SaveOrder(ctx context.Context, order models.Order) error
}

type Getter interface {
	GetOrder(ctx context.Context, id uuid.UUID) (models.Order, error)
	ListOrders(ctx context.Context, username string) ([]models.Order, error)
	ListOrdersBetween(ctx context.Context, username string, from, to time.Time) ([]models.Order, error)
}

type AccountGetter interface {
	GetAccount(ctx context.Context, username string) (models.Account, error)
}

type PriceLookup interface {
	LatestSnapshot(ctx context.Context, ticker string) (models.PriceSnapshot, error)
}

type Enqueuer interface {
	Enqueue(ctx context.Context, orderID uuid.UUID) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

func NewService(
	s Saver,
	g Getter,
	a AccountGetter,
	p PriceLookup,
	q Enqueuer,
	create RateLimiter,
	t time.Duration,
	m *metrics.Metrics,
) *Service {
	return &Service{
		saver:             s,
		getter:            g,
		accounts:          a,
		prices:            p,
		queue:             q,
		createRateLimiter: create,
		createTimeout:     t,
		metrics:           m,
		tracer:            otel.Tracer("order"),
	}
}

// CreateOrder stamps the latest price on a new pending order, stores it and queues it for settlement.
// The balance is not touched here. A failed enqueue is logged and left to the recovery sweep.
func (s *Service) CreateOrder(
	ctx context.Context,
	username string,
	ticker string,
	side models.OrderSide,
	quantity int64,
) (models.Order, error) {
	const op = "Service.CreateOrder"

	ctx, cancel := context.WithTimeout(ctx, s.createTimeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("order.ticker", ticker),
		attribute.String("order.side", side.String()),
	))
	defer span.End()

	if err := validateCreate(username, ticker, side, quantity); err != nil {
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.checkCreateRateLimit(ctx, username); err != nil {
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.accounts.GetAccount(ctx, username); err != nil {
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	snapshot, err := s.prices.LatestSnapshot(ctx, ticker)
	if err != nil {
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	if total := orderTotal(snapshot.Close, quantity); total.GreaterThan(models.MaxAmount) {
		return models.Order{}, fmt.Errorf("%s: %w: order total %s exceeds %s",
			op, serviceErrors.ErrInvalidRequest, total.StringFixed(2), models.MaxAmount.StringFixed(2))
	}

	order, err := s.saveOrder(ctx, username, snapshot, side, quantity)
	if err != nil {
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.OrderAccepted(side.String())
	span.SetAttributes(attribute.String("order.id", order.ID.String()))

	if err := s.queue.Enqueue(ctx, order.ID); err != nil {
		s.metrics.EnqueueFailed()
		zapLogger.Error(ctx, "failed to enqueue order for settlement",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}

	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID uuid.UUID) (models.Order, error) {
	const op = "Service.GetOrder"

	order, err := s.getter.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositoryErrors.ErrOrderNotFound) {
			return models.Order{}, fmt.Errorf("%s: %w", op, serviceErrors.ErrOrderNotFound)
		}

		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	return order, nil
}

func (s *Service) ListOrders(ctx context.Context, username string) ([]models.Order, error) {
	const op = "Service.ListOrders"

	if _, err := s.accounts.GetAccount(ctx, username); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	orders, err := s.getter.ListOrders(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return orders, nil
}

// ListOrdersBetween returns the account's orders created within [from, to].
func (s *Service) ListOrdersBetween(ctx context.Context, username string, from, to time.Time) ([]models.Order, error) {
	const op = "Service.ListOrdersBetween"

	if from.IsZero() || to.IsZero() || from.After(to) {
		return nil, fmt.Errorf("%s: %w: start must not be after end", op, serviceErrors.ErrInvalidRequest)
	}

	if _, err := s.accounts.GetAccount(ctx, username); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	orders, err := s.getter.ListOrdersBetween(ctx, username, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return orders, nil
}

func (s *Service) checkCreateRateLimit(ctx context.Context, username string) error {
	allowed, err := s.createRateLimiter.Allow(ctx, username)
	if err != nil {
		return err
	}
	if !allowed {
		return serviceErrors.ErrRateLimitExceeded
	}

	return nil
}

func (s *Service) saveOrder(
	ctx context.Context,
	username string,
	snapshot models.PriceSnapshot,
	side models.OrderSide,
	quantity int64,
) (models.Order, error) {
	newOrder := models.Order{
		ID:         uuid.New(),
		Username:   username,
		Ticker:     snapshot.Ticker,
		Side:       side,
		Quantity:   quantity,
		UnitPrice:  snapshot.Close,
		TotalPrice: orderTotal(snapshot.Close, quantity),
		Status:     models.OrderStatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.saver.SaveOrder(ctx, newOrder); err != nil {
		switch {
		case errors.Is(err, repositoryErrors.ErrOrderAlreadyExists):
			return models.Order{}, serviceErrors.ErrOrderAlreadyExists
		case errors.Is(err, repositoryErrors.ErrAccountNotFound):
			return models.Order{}, serviceErrors.ErrAccountNotFound
		}

		return models.Order{}, err
	}

	return newOrder, nil
}

func orderTotal(unitPrice decimal.Decimal, quantity int64) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(quantity))
}

func validateCreate(username, ticker string, side models.OrderSide, quantity int64) error {
	switch {
	case username == "":
		return fmt.Errorf("%w: username is required", serviceErrors.ErrInvalidRequest)
	case ticker == "":
		return fmt.Errorf("%w: ticker is required", serviceErrors.ErrInvalidRequest)
	case side != models.OrderSideBuy && side != models.OrderSideSell:
		return fmt.Errorf("%w: transaction type must be BUY or SELL", serviceErrors.ErrInvalidRequest)
	case quantity <= 0:
		return fmt.Errorf("%w: quantity must be a positive integer", serviceErrors.ErrInvalidRequest)
	}

	return nil
}
