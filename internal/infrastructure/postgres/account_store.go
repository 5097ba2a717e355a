package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
	"github.com/nastyazhadan/trade-settlement/internal/infrastructure/postgres/dto"
	repositoryErrors "github.com/nastyazhadan/trade-settlement/shared/errors/repository"
)

const selectAccount = `SELECT username, balance::text AS balance, created_at FROM accounts WHERE username = $1`

type AccountStore struct {
	pool *pgxpool.Pool
}

func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	return &AccountStore{
		pool: pool,
	}
}

func (a *AccountStore) CreateAccount(ctx context.Context, account models.Account) error {
	const op = "infrastructure.AccountStore.CreateAccount"

	accountDTO := dto.AccountFromDomain(account)

	_, err := a.pool.Exec(ctx,
		`INSERT INTO accounts (username, balance, created_at) VALUES ($1, $2, $3)`,
		accountDTO.Username,
		accountDTO.Balance,
		accountDTO.CreatedAt,
	)

	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%s: %w", op, repositoryErrors.ErrAccountAlreadyExists)
		}

		return fmt.Errorf("%s: exec: %w", op, err)
	}

	return nil
}

func (a *AccountStore) GetAccount(ctx context.Context, username string) (models.Account, error) {
	const op = "infrastructure.AccountStore.GetAccount"

	account, err := collectAccount(ctx, a.pool, selectAccount, username)
	if err != nil {
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	return account, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func collectAccount(ctx context.Context, q querier, query, username string) (models.Account, error) {
	rows, err := q.Query(ctx, query, username)
	if err != nil {
		return models.Account{}, fmt.Errorf("query: %w", err)
	}

	accountDTO, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[dto.Account])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, repositoryErrors.ErrAccountNotFound
		}

		return models.Account{}, fmt.Errorf("collect: %w", err)
	}

	return accountDTO.ToDomain()
}
