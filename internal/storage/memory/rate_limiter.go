package memory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is a per-key token bucket allowing limit events per window.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	every    rate.Limit
	burst    int
}

func NewRateLimiter(limit int64, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}

	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		every:    rate.Every(window / time.Duration(limit)),
		burst:    int(limit),
	}
}

func (r *RateLimiter) Allow(_ context.Context, key string) (bool, error) {
	r.mu.Lock()
	limiter, found := r.limiters[key]
	if !found {
		limiter = rate.NewLimiter(r.every, r.burst)
		r.limiters[key] = limiter
	}
	r.mu.Unlock()

	return limiter.Allow(), nil
}
