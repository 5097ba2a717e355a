package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
	repositoryErrors "github.com/nastyazhadan/trade-settlement/shared/errors/repository"
)

type lease struct {
	attempt  int64
	deadline time.Time
}

// Queue is an in-process settlement queue with lease-based redelivery.
// An id that is already waiting or leased is not enqueued again.
type Queue struct {
	mu           sync.Mutex
	ready        []uuid.UUID
	leased       map[uuid.UUID]lease
	attempts     map[uuid.UUID]int64
	members      map[uuid.UUID]struct{}
	leaseTimeout time.Duration
	now          func() time.Time
}

func NewQueue(leaseTimeout time.Duration) *Queue {
	return &Queue{
		leased:       make(map[uuid.UUID]lease),
		attempts:     make(map[uuid.UUID]int64),
		members:      make(map[uuid.UUID]struct{}),
		leaseTimeout: leaseTimeout,
		now:          time.Now,
	}
}

func (q *Queue) Enqueue(ctx context.Context, orderID uuid.UUID) error {
	const op = "storage.Queue.Enqueue"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, queued := q.members[orderID]; queued {
		return nil
	}

	q.members[orderID] = struct{}{}
	q.ready = append(q.ready, orderID)
	return nil
}

func (q *Queue) Dequeue(ctx context.Context) (models.Delivery, error) {
	const op = "storage.Queue.Dequeue"

	if err := ctx.Err(); err != nil {
		return models.Delivery{}, fmt.Errorf("%s: %w", op, err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	for id, held := range q.leased {
		if !held.deadline.After(now) {
			delete(q.leased, id)
			q.ready = append(q.ready, id)
		}
	}

	if len(q.ready) == 0 {
		return models.Delivery{}, repositoryErrors.ErrQueueEmpty
	}

	orderID := q.ready[0]
	q.ready = q.ready[1:]

	q.attempts[orderID]++
	attempt := q.attempts[orderID]
	q.leased[orderID] = lease{attempt: attempt, deadline: now.Add(q.leaseTimeout)}

	return models.Delivery{OrderID: orderID, Attempt: attempt}, nil
}

func (q *Queue) Ack(ctx context.Context, delivery models.Delivery) error {
	const op = "storage.Queue.Ack"

	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.checkLease(delivery); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	delete(q.leased, delivery.OrderID)
	delete(q.attempts, delivery.OrderID)
	delete(q.members, delivery.OrderID)
	return nil
}

func (q *Queue) Extend(ctx context.Context, delivery models.Delivery, leaseFor time.Duration) error {
	const op = "storage.Queue.Extend"

	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.checkLease(delivery); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	q.leased[delivery.OrderID] = lease{attempt: delivery.Attempt, deadline: q.now().Add(leaseFor)}
	return nil
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.ready) + len(q.leased)
}

func (q *Queue) checkLease(delivery models.Delivery) error {
	held, found := q.leased[delivery.OrderID]
	if !found || held.attempt != delivery.Attempt || !held.deadline.After(q.now()) {
		return repositoryErrors.ErrLeaseNotHeld
	}

	return nil
}
