package closer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zapLogger "github.com/nastyazhadan/trade-settlement/shared/interceptors/logger/zap"
)

func TestCloseAllOrder(t *testing.T) {
	c := NewWithLogger(zapLogger.Logger())

	var order []string
	c.AddNamed("postgres", func(context.Context) error {
		order = append(order, "postgres")
		return nil
	})
	c.AddNamed("redis", func(context.Context) error {
		order = append(order, "redis")
		return nil
	})

	require.NoError(t, c.CloseAll(context.Background()))
	assert.Equal(t, []string{"redis", "postgres"}, order)

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("done channel was not closed")
	}
}

func TestCloseAllJoinsErrors(t *testing.T) {
	c := NewWithLogger(zapLogger.Logger())

	errFirst := errors.New("first")
	errSecond := errors.New("second")

	c.AddNamed("a", func(context.Context) error { return errFirst })
	c.AddNamed("b", func(context.Context) error { return errSecond })
	c.Add(func(context.Context) error { panic("boom") })

	err := c.CloseAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errFirst)
	assert.ErrorIs(t, err, errSecond)
	assert.Contains(t, err.Error(), "panic in close function")

	assert.Equal(t, err, c.CloseAll(context.Background()))
}

func TestCloseAllCanceledContext(t *testing.T) {
	c := NewWithLogger(zapLogger.Logger())

	called := false
	c.Add(func(context.Context) error {
		called = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.CloseAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
