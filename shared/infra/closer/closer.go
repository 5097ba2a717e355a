package closer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"go.uber.org/zap"

	zapLogger "github.com/nastyazhadan/trade-settlement/shared/interceptors/logger/zap"
)

const shutdownTimeout = 5 * time.Second

type Logger interface {
	Info(ctx context.Context, msg string, fields ...zap.Field)
	Error(ctx context.Context, msg string, fields ...zap.Field)
}

// Closer releases registered resources in reverse registration order.
type Closer struct {
	mutex  sync.Mutex
	once   sync.Once
	done   chan struct{}
	funcs  []func(context.Context) error
	logger Logger
	err    error
}

func New(signals ...os.Signal) *Closer {
	return NewWithLogger(zapLogger.Logger(), signals...)
}

func NewWithLogger(logger Logger, signals ...os.Signal) *Closer {
	closer := &Closer{
		done:   make(chan struct{}),
		logger: logger,
	}

	if len(signals) > 0 {
		go closer.handleSignals(signals...)
	}

	return closer
}

// Done is closed once CloseAll has finished.
func (c *Closer) Done() <-chan struct{} {
	return c.done
}

func (c *Closer) handleSignals(signals ...os.Signal) {
	channel := make(chan os.Signal, 1)
	signal.Notify(channel, signals...)
	defer signal.Stop(channel)

	select {
	case sig := <-channel:
		c.logger.Info(context.Background(), "received shutdown signal", zap.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := c.CloseAll(shutdownCtx); err != nil {
			c.logger.Error(context.Background(), "shutdown error", zap.Error(err))
		}

	case <-c.done:
	}
}

func (c *Closer) AddNamed(name string, function func(context.Context) error) {
	c.Add(func(ctx context.Context) error {
		start := time.Now()

		err := function(ctx)
		if err != nil {
			c.logger.Error(ctx, "failed to close resource",
				zap.String("resource", name),
				zap.Duration("took", time.Since(start)),
				zap.Error(err),
			)
			return fmt.Errorf("%s: %w", name, err)
		}

		c.logger.Info(ctx, "resource closed",
			zap.String("resource", name),
			zap.Duration("took", time.Since(start)),
		)
		return nil
	})
}

func (c *Closer) Add(functions ...func(context.Context) error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.funcs = append(c.funcs, functions...)
}

// CloseAll runs every registered function once, newest first, and joins their errors.
// Later calls return the result of the first one.
func (c *Closer) CloseAll(ctx context.Context) error {
	c.once.Do(func() {
		defer close(c.done)

		c.mutex.Lock()
		funcs := c.funcs
		c.funcs = nil
		c.mutex.Unlock()

		var errs []error
		for i := len(funcs) - 1; i >= 0; i-- {
			if ctx.Err() != nil {
				errs = append(errs, ctx.Err())
				break
			}

			if err := c.safeRun(ctx, funcs[i]); err != nil {
				errs = append(errs, err)
			}
		}

		c.err = errors.Join(errs...)
	})

	return c.err
}

func (c *Closer) safeRun(ctx context.Context, function func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in close function: %v", r)
			c.logger.Error(ctx, "panic recovered during shutdown", zap.Any("panic", r))
		}
	}()

	return function(ctx)
}
