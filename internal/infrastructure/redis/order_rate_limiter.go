package redis

import (
	"context"
	"fmt"
	"time"

	sharedRedis "github.com/nastyazhadan/trade-settlement/shared/infra/redis"
)

// OrderRateLimiter is a fixed-window counter per key.
type OrderRateLimiter struct {
	client sharedRedis.Client
	limit  int64
	window time.Duration
	prefix string
}

func NewOrderRateLimiter(
	client sharedRedis.Client,
	limit int64,
	window time.Duration,
	prefix string,
) *OrderRateLimiter {
	return &OrderRateLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: prefix,
	}
}

func (r *OrderRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	const op = "OrderRateLimiter.Allow"

	redisKey := r.prefix + key

	count, err := r.client.Incr(ctx, redisKey)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, redisKey, r.window); err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
	}

	return count <= r.limit, nil
}
