package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
	"github.com/nastyazhadan/trade-settlement/internal/repository"
	repositoryErrors "github.com/nastyazhadan/trade-settlement/shared/errors/repository"
)

// Ledger runs settlement units inside a single READ COMMITTED transaction.
// Row locks taken by the reads serialize competing units on the same order or account.
type Ledger struct {
	pool *pgxpool.Pool
}

func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{
		pool: pool,
	}
}

func (l *Ledger) Atomically(ctx context.Context, fn repository.TxFunc) error {
	const op = "infrastructure.Ledger.Atomically"

	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	writes, err := fn(ctx, &ledgerTx{tx: tx})
	if err != nil {
		return classifyTxError(err)
	}

	if writes.Empty() {
		return nil
	}

	if err := applyWrites(ctx, tx, writes); err != nil {
		return fmt.Errorf("%s: %w", op, classifyTxError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: commit: %w", op, classifyTxError(err))
	}
	committed = true

	return nil
}

func applyWrites(ctx context.Context, tx pgx.Tx, writes models.WriteSet) error {
	if write := writes.Order; write != nil {
		if !models.CanTransition(write.From, write.To) {
			return repositoryErrors.ErrConflict
		}

		tag, err := tx.Exec(ctx,
			`UPDATE orders SET status = $3, settled_at = $4 WHERE id = $1 AND status = $2`,
			write.ID, int16(write.From), int16(write.To), write.SettledAt,
		)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return repositoryErrors.ErrConflict
		}
	}

	if write := writes.Account; write != nil {
		if write.Balance.IsNegative() {
			return repositoryErrors.ErrConflict
		}

		tag, err := tx.Exec(ctx,
			`UPDATE accounts SET balance = $2 WHERE username = $1`,
			write.Username, write.Balance.StringFixed(2),
		)
		if err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return repositoryErrors.ErrAccountNotFound
		}
	}

	return nil
}

type ledgerTx struct {
	tx pgx.Tx
}

func (t *ledgerTx) OrderForUpdate(ctx context.Context, id uuid.UUID) (models.Order, error) {
	const op = "infrastructure.ledgerTx.OrderForUpdate"

	order, err := collectOrder(ctx, t.tx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	return order, nil
}

func (t *ledgerTx) AccountForUpdate(ctx context.Context, username string) (models.Account, error) {
	const op = "infrastructure.ledgerTx.AccountForUpdate"

	account, err := collectAccount(ctx, t.tx, selectAccount+` FOR UPDATE`, username)
	if err != nil {
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	return account, nil
}
