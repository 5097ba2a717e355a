package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
	repositoryErrors "github.com/nastyazhadan/trade-settlement/shared/errors/repository"
)

// KEYS: ready list, leased zset, attempts hash, member set.
// ARGV[1] is the order id.
var enqueueScript = goredis.NewScript(`
if redis.call('SADD', KEYS[4], ARGV[1]) == 1 then
	redis.call('RPUSH', KEYS[1], ARGV[1])
end
return 1
`)

// ARGV[1] is now in ms, ARGV[2] is the lease in ms.
var dequeueScript = goredis.NewScript(`
local expired = redis.call('ZRANGEBYSCORE', KEYS[2], '-inf', ARGV[1])
for _, id in ipairs(expired) do
	redis.call('ZREM', KEYS[2], id)
	redis.call('RPUSH', KEYS[1], id)
end
local id = redis.call('LPOP', KEYS[1])
if not id then
	return false
end
local attempt = redis.call('HINCRBY', KEYS[3], id, 1)
redis.call('ZADD', KEYS[2], tonumber(ARGV[1]) + tonumber(ARGV[2]), id)
return {id, attempt}
`)

// ARGV: order id, attempt, now in ms.
var ackScript = goredis.NewScript(`
local attempt = redis.call('HGET', KEYS[3], ARGV[1])
local deadline = redis.call('ZSCORE', KEYS[2], ARGV[1])
if not attempt or attempt ~= ARGV[2] or not deadline or tonumber(deadline) <= tonumber(ARGV[3]) then
	return 0
end
redis.call('ZREM', KEYS[2], ARGV[1])
redis.call('HDEL', KEYS[3], ARGV[1])
redis.call('SREM', KEYS[4], ARGV[1])
return 1
`)

// ARGV: order id, attempt, now in ms, lease in ms.
var extendScript = goredis.NewScript(`
local attempt = redis.call('HGET', KEYS[3], ARGV[1])
local deadline = redis.call('ZSCORE', KEYS[2], ARGV[1])
if not attempt or attempt ~= ARGV[2] or not deadline or tonumber(deadline) <= tonumber(ARGV[3]) then
	return 0
end
redis.call('ZADD', KEYS[2], 'XX', tonumber(ARGV[3]) + tonumber(ARGV[4]), ARGV[1])
return 1
`)

// SettlementQueue is an at-least-once queue shared by every process pointed at the same Redis.
// A duplicate Enqueue of an id that is waiting or leased is dropped.
type SettlementQueue struct {
	rdb          goredis.Scripter
	keys         []string
	leaseTimeout time.Duration
	now          func() time.Time
}

func NewSettlementQueue(rdb goredis.Scripter, prefix string, leaseTimeout time.Duration) *SettlementQueue {
	return &SettlementQueue{
		rdb: rdb,
		keys: []string{
			prefix + ":ready",
			prefix + ":leased",
			prefix + ":attempts",
			prefix + ":members",
		},
		leaseTimeout: leaseTimeout,
		now:          time.Now,
	}
}

func (q *SettlementQueue) Enqueue(ctx context.Context, orderID uuid.UUID) error {
	const op = "SettlementQueue.Enqueue"

	if err := enqueueScript.Run(ctx, q.rdb, q.keys, orderID.String()).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (q *SettlementQueue) Dequeue(ctx context.Context) (models.Delivery, error) {
	const op = "SettlementQueue.Dequeue"

	reply, err := dequeueScript.Run(ctx, q.rdb, q.keys,
		q.now().UnixMilli(),
		q.leaseTimeout.Milliseconds(),
	).Slice()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return models.Delivery{}, repositoryErrors.ErrQueueEmpty
		}

		return models.Delivery{}, fmt.Errorf("%s: %w", op, err)
	}

	if len(reply) != 2 {
		return models.Delivery{}, fmt.Errorf("%s: unexpected reply %v", op, reply)
	}

	rawID, _ := reply[0].(string)
	orderID, err := uuid.Parse(rawID)
	if err != nil {
		return models.Delivery{}, fmt.Errorf("%s: parse order id %q: %w", op, rawID, err)
	}

	attempt, ok := reply[1].(int64)
	if !ok {
		return models.Delivery{}, fmt.Errorf("%s: unexpected attempt %v", op, reply[1])
	}

	return models.Delivery{OrderID: orderID, Attempt: attempt}, nil
}

func (q *SettlementQueue) Ack(ctx context.Context, delivery models.Delivery) error {
	const op = "SettlementQueue.Ack"

	held, err := ackScript.Run(ctx, q.rdb, q.keys,
		delivery.OrderID.String(),
		delivery.Attempt,
		q.now().UnixMilli(),
	).Int64()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if held == 0 {
		return fmt.Errorf("%s: %w", op, repositoryErrors.ErrLeaseNotHeld)
	}

	return nil
}

func (q *SettlementQueue) Extend(ctx context.Context, delivery models.Delivery, lease time.Duration) error {
	const op = "SettlementQueue.Extend"

	held, err := extendScript.Run(ctx, q.rdb, q.keys,
		delivery.OrderID.String(),
		delivery.Attempt,
		q.now().UnixMilli(),
		lease.Milliseconds(),
	).Int64()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if held == 0 {
		return fmt.Errorf("%s: %w", op, repositoryErrors.ErrLeaseNotHeld)
	}

	return nil
}
