package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterPerKey(t *testing.T) {
	ctx := context.Background()
	limiter := NewRateLimiter(2, time.Hour)

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "alice")
		assert.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, _ := limiter.Allow(ctx, "alice")
	assert.False(t, allowed)

	allowed, _ = limiter.Allow(ctx, "bob")
	assert.True(t, allowed)
}
