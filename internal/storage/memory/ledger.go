package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
	"github.com/nastyazhadan/trade-settlement/internal/repository"
	repositoryErrors "github.com/nastyazhadan/trade-settlement/shared/errors/repository"
)

// Store keeps accounts and orders in memory and applies settlement write sets atomically.
// Rows read through a LedgerTx stay locked until the unit ends, like SELECT ... FOR UPDATE.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
	orders   map[uuid.UUID]models.Order
	locks    *keyedLocks

	commitErr error
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[string]models.Account),
		orders:   make(map[uuid.UUID]models.Order, 1024),
		locks:    newKeyedLocks(),
	}
}

// FailCommits makes every following commit fail with err; nil restores normal behavior.
func (s *Store) FailCommits(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commitErr = err
}

func (s *Store) CreateAccount(ctx context.Context, account models.Account) error {
	const op = "storage.Store.CreateAccount"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.accounts[account.Username]; found {
		return fmt.Errorf("%s: %w", op, repositoryErrors.ErrAccountAlreadyExists)
	}

	s.accounts[account.Username] = account
	return nil
}

func (s *Store) GetAccount(ctx context.Context, username string) (models.Account, error) {
	const op = "storage.Store.GetAccount"

	if err := ctx.Err(); err != nil {
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	account, found := s.accounts[username]
	s.mu.RUnlock()

	if !found {
		return models.Account{}, fmt.Errorf("%s: %w", op, repositoryErrors.ErrAccountNotFound)
	}

	return account, nil
}

func (s *Store) SaveOrder(ctx context.Context, order models.Order) error {
	const op = "storage.Store.SaveOrder"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.accounts[order.Username]; !found {
		return fmt.Errorf("%s: %w", op, repositoryErrors.ErrAccountNotFound)
	}

	if _, found := s.orders[order.ID]; found {
		return fmt.Errorf("%s: %w", op, repositoryErrors.ErrOrderAlreadyExists)
	}

	s.orders[order.ID] = order
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (models.Order, error) {
	const op = "storage.Store.GetOrder"

	if err := ctx.Err(); err != nil {
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	order, found := s.orders[id]
	s.mu.RUnlock()

	if !found {
		return models.Order{}, fmt.Errorf("%s: %w", op, repositoryErrors.ErrOrderNotFound)
	}

	return order, nil
}

func (s *Store) ListOrders(ctx context.Context, username string) ([]models.Order, error) {
	return s.filterOrders(ctx, func(order models.Order) bool {
		return order.Username == username
	})
}

func (s *Store) ListOrdersBetween(ctx context.Context, username string, from, to time.Time) ([]models.Order, error) {
	return s.filterOrders(ctx, func(order models.Order) bool {
		return order.Username == username && !order.CreatedAt.Before(from) && !order.CreatedAt.After(to)
	})
}

func (s *Store) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]uuid.UUID, error) {
	orders, err := s.filterOrders(ctx, func(order models.Order) bool {
		return order.Status == models.OrderStatusPending && order.CreatedAt.Before(createdBefore)
	})
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}

	ids := make([]uuid.UUID, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
	}

	return ids, nil
}

func (s *Store) filterOrders(ctx context.Context, keep func(models.Order) bool) ([]models.Order, error) {
	const op = "storage.Store.ListOrders"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	result := make([]models.Order, 0)
	for _, order := range s.orders {
		if keep(order) {
			result = append(result, order)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(result, func(a, b models.Order) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return result, nil
}

func (s *Store) Atomically(ctx context.Context, fn repository.TxFunc) error {
	const op = "storage.Store.Atomically"

	tx := &ledgerTx{store: s}
	defer tx.releaseAll()

	writes, err := fn(ctx, tx)
	if err != nil {
		return err
	}

	if writes.Empty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.commitErr != nil {
		return fmt.Errorf("%s: %w", op, s.commitErr)
	}

	if err := s.validateWrites(writes); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if write := writes.Order; write != nil {
		order := s.orders[write.ID]
		order.Status = write.To
		settledAt := write.SettledAt
		order.SettledAt = &settledAt
		s.orders[write.ID] = order
	}

	if write := writes.Account; write != nil {
		account := s.accounts[write.Username]
		account.Balance = write.Balance
		s.accounts[write.Username] = account
	}

	return nil
}

// validateWrites checks the whole set before anything is mutated.
func (s *Store) validateWrites(writes models.WriteSet) error {
	if write := writes.Order; write != nil {
		order, found := s.orders[write.ID]
		if !found {
			return repositoryErrors.ErrOrderNotFound
		}
		if order.Status != write.From || !models.CanTransition(write.From, write.To) {
			return repositoryErrors.ErrConflict
		}
	}

	if write := writes.Account; write != nil {
		if _, found := s.accounts[write.Username]; !found {
			return repositoryErrors.ErrAccountNotFound
		}
		if write.Balance.IsNegative() {
			return repositoryErrors.ErrConflict
		}
		if write.Balance.GreaterThan(models.MaxAmount) {
			return repositoryErrors.ErrAmountOutOfRange
		}
	}

	return nil
}

type ledgerTx struct {
	store   *Store
	unlocks []func()
	held    map[string]struct{}
}

func (tx *ledgerTx) lock(ctx context.Context, key string) error {
	if _, found := tx.held[key]; found {
		return nil
	}

	unlock, err := tx.store.locks.lock(ctx, key)
	if err != nil {
		return err
	}

	if tx.held == nil {
		tx.held = make(map[string]struct{})
	}
	tx.held[key] = struct{}{}
	tx.unlocks = append(tx.unlocks, unlock)

	return nil
}

func (tx *ledgerTx) releaseAll() {
	for i := len(tx.unlocks) - 1; i >= 0; i-- {
		tx.unlocks[i]()
	}
}

func (tx *ledgerTx) OrderForUpdate(ctx context.Context, id uuid.UUID) (models.Order, error) {
	if err := tx.lock(ctx, "order:"+id.String()); err != nil {
		return models.Order{}, err
	}

	return tx.store.GetOrder(ctx, id)
}

func (tx *ledgerTx) AccountForUpdate(ctx context.Context, username string) (models.Account, error) {
	if err := tx.lock(ctx, "account:"+username); err != nil {
		return models.Account{}, err
	}

	return tx.store.GetAccount(ctx, username)
}
