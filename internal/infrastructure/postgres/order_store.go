package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
	"github.com/nastyazhadan/trade-settlement/internal/infrastructure/postgres/dto"
	repositoryErrors "github.com/nastyazhadan/trade-settlement/shared/errors/repository"
)

const orderColumns = `id, username, ticker, side, quantity,
	unit_price::text AS unit_price, total_price::text AS total_price,
	status, created_at, settled_at`

type OrderStore struct {
	pool *pgxpool.Pool
}

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{
		pool: pool,
	}
}

func (o *OrderStore) SaveOrder(ctx context.Context, order models.Order) error {
	const op = "infrastructure.OrderStore.SaveOrder"

	orderDTO := dto.OrderFromDomain(order)

	_, err := o.pool.Exec(ctx,
		`INSERT INTO orders (id, username, ticker, side, quantity, unit_price, total_price, status, created_at, settled_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		orderDTO.ID,
		orderDTO.Username,
		orderDTO.Ticker,
		orderDTO.Side,
		orderDTO.Quantity,
		orderDTO.UnitPrice,
		orderDTO.TotalPrice,
		orderDTO.Status,
		orderDTO.CreatedAt,
		orderDTO.SettledAt,
	)

	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%s: %w", op, repositoryErrors.ErrOrderAlreadyExists)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%s: %w", op, repositoryErrors.ErrAccountNotFound)
		}

		return fmt.Errorf("%s: exec: %w", op, err)
	}

	return nil
}

func (o *OrderStore) GetOrder(ctx context.Context, id uuid.UUID) (models.Order, error) {
	const op = "infrastructure.OrderStore.GetOrder"

	order, err := collectOrder(ctx, o.pool, `SELECT `+orderColumns+` FROM orders WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	return order, nil
}

func (o *OrderStore) ListOrders(ctx context.Context, username string) ([]models.Order, error) {
	const op = "infrastructure.OrderStore.ListOrders"

	orders, err := o.listOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE username = $1 ORDER BY created_at`,
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return orders, nil
}

func (o *OrderStore) ListOrdersBetween(
	ctx context.Context,
	username string,
	from, to time.Time,
) ([]models.Order, error) {
	const op = "infrastructure.OrderStore.ListOrdersBetween"

	orders, err := o.listOrders(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE username = $1 AND created_at BETWEEN $2 AND $3
		 ORDER BY created_at`,
		username, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return orders, nil
}

func (o *OrderStore) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]uuid.UUID, error) {
	const op = "infrastructure.OrderStore.ListStalePending"

	rows, err := o.pool.Query(ctx,
		`SELECT id FROM orders
		 WHERE status = $1 AND created_at < $2
		 ORDER BY created_at
		 LIMIT $3`,
		int16(models.OrderStatusPending), createdBefore, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("%s: collect: %w", op, err)
	}

	return ids, nil
}

func (o *OrderStore) listOrders(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := o.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	orderDTOs, err := pgx.CollectRows(rows, pgx.RowToStructByName[dto.Order])
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}

	orders := make([]models.Order, 0, len(orderDTOs))
	for _, orderDTO := range orderDTOs {
		order, err := orderDTO.ToDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, nil
}

func collectOrder(ctx context.Context, q querier, query string, id uuid.UUID) (models.Order, error) {
	rows, err := q.Query(ctx, query, id)
	if err != nil {
		return models.Order{}, fmt.Errorf("query: %w", err)
	}

	orderDTO, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[dto.Order])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Order{}, repositoryErrors.ErrOrderNotFound
		}

		return models.Order{}, fmt.Errorf("collect: %w", err)
	}

	return orderDTO.ToDomain()
}
