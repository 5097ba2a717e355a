package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repositoryErrors "github.com/nastyazhadan/trade-settlement/shared/errors/repository"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func newTestQueue(lease time.Duration) (*Queue, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	queue := NewQueue(lease)
	queue.now = clock.Now

	return queue, clock
}

func TestQueueDeliversOnceWhileLeased(t *testing.T) {
	ctx := context.Background()
	queue, _ := newTestQueue(30 * time.Second)

	orderID := uuid.New()
	require.NoError(t, queue.Enqueue(ctx, orderID))

	delivery, err := queue.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, orderID, delivery.OrderID)
	assert.Equal(t, int64(1), delivery.Attempt)

	_, err = queue.Dequeue(ctx)
	assert.ErrorIs(t, err, repositoryErrors.ErrQueueEmpty)

	require.NoError(t, queue.Ack(ctx, delivery))
	assert.Equal(t, 0, queue.Len())
}

func TestQueueRedeliversAfterLeaseExpiry(t *testing.T) {
	ctx := context.Background()
	queue, clock := newTestQueue(30 * time.Second)

	orderID := uuid.New()
	require.NoError(t, queue.Enqueue(ctx, orderID))

	first, err := queue.Dequeue(ctx)
	require.NoError(t, err)

	clock.now = clock.now.Add(31 * time.Second)

	second, err := queue.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, orderID, second.OrderID)
	assert.Equal(t, int64(2), second.Attempt)

	assert.ErrorIs(t, queue.Ack(ctx, first), repositoryErrors.ErrLeaseNotHeld)
	assert.NoError(t, queue.Ack(ctx, second))
}

func TestQueueExtendKeepsLease(t *testing.T) {
	ctx := context.Background()
	queue, clock := newTestQueue(30 * time.Second)

	require.NoError(t, queue.Enqueue(ctx, uuid.New()))

	delivery, err := queue.Dequeue(ctx)
	require.NoError(t, err)

	clock.now = clock.now.Add(20 * time.Second)
	require.NoError(t, queue.Extend(ctx, delivery, 30*time.Second))

	clock.now = clock.now.Add(20 * time.Second)
	_, err = queue.Dequeue(ctx)
	assert.ErrorIs(t, err, repositoryErrors.ErrQueueEmpty)

	assert.NoError(t, queue.Ack(ctx, delivery))
}

func TestQueueDropsDuplicateEnqueue(t *testing.T) {
	ctx := context.Background()
	queue, _ := newTestQueue(30 * time.Second)

	orderID := uuid.New()
	require.NoError(t, queue.Enqueue(ctx, orderID))
	require.NoError(t, queue.Enqueue(ctx, orderID))
	assert.Equal(t, 1, queue.Len())

	delivery, err := queue.Dequeue(ctx)
	require.NoError(t, err)

	// re-enqueue of a leased id must not hand it to a second worker
	require.NoError(t, queue.Enqueue(ctx, orderID))
	_, err = queue.Dequeue(ctx)
	assert.ErrorIs(t, err, repositoryErrors.ErrQueueEmpty)

	require.NoError(t, queue.Ack(ctx, delivery))
	assert.Equal(t, 0, queue.Len())

	require.NoError(t, queue.Enqueue(ctx, orderID))
	again, err := queue.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), again.Attempt)
}
