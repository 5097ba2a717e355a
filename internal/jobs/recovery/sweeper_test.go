package recovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nastyazhadan/trade-settlement/internal/metrics"
	"github.com/nastyazhadan/trade-settlement/internal/services/mocks"
	"github.com/nastyazhadan/trade-settlement/shared/config"
)

var recoveryConfig = config.RecoveryConfig{
	Schedule:   "@every 1m",
	PendingAge: 2 * time.Minute,
	BatchSize:  50,
}

func TestSweep(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	first, second := uuid.New(), uuid.New()

	tests := []struct {
		name       string
		setupMocks func(lister *mocks.MockStaleLister, queue *mocks.MockQueue)
		want       int
		errMsg     string
	}{
		{
			name: "успешная повторная постановка",
			setupMocks: func(lister *mocks.MockStaleLister, queue *mocks.MockQueue) {
				lister.On("ListStalePending", mock.Anything, now.Add(-2*time.Minute), 50).
					Return([]uuid.UUID{first, second}, nil)
				queue.On("Enqueue", mock.Anything, first).Return(nil)
				queue.On("Enqueue", mock.Anything, second).Return(nil)
			},
			want: 2,
		},
		{
			name: "нет зависших заказов",
			setupMocks: func(lister *mocks.MockStaleLister, queue *mocks.MockQueue) {
				lister.On("ListStalePending", mock.Anything, mock.Anything, 50).
					Return([]uuid.UUID{}, nil)
			},
			want: 0,
		},
		{
			name: "ошибка хранилища",
			setupMocks: func(lister *mocks.MockStaleLister, queue *mocks.MockQueue) {
				lister.On("ListStalePending", mock.Anything, mock.Anything, 50).
					Return(nil, errors.New("database error"))
			},
			errMsg: "Sweeper.Sweep: database error",
		},
		{
			name: "ошибка очереди останавливает проход",
			setupMocks: func(lister *mocks.MockStaleLister, queue *mocks.MockQueue) {
				lister.On("ListStalePending", mock.Anything, mock.Anything, 50).
					Return([]uuid.UUID{first, second}, nil)
				queue.On("Enqueue", mock.Anything, first).Return(nil)
				queue.On("Enqueue", mock.Anything, second).Return(errors.New("redis down"))
			},
			want:   1,
			errMsg: "redis down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := new(mocks.MockStaleLister)
			queue := new(mocks.MockQueue)
			tt.setupMocks(lister, queue)

			sweeper := NewSweeper(lister, queue, metrics.New(prometheus.NewRegistry()), recoveryConfig)
			sweeper.now = func() time.Time { return now }

			requeued, err := sweeper.Sweep(context.Background())

			assert.Equal(t, tt.want, requeued)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.ErrorContains(t, err, tt.errMsg)
			} else {
				require.NoError(t, err)
			}

			lister.AssertExpectations(t)
			queue.AssertExpectations(t)
		})
	}
}

func TestNewSchedulerRejectsBadSchedule(t *testing.T) {
	sweeper := NewSweeper(new(mocks.MockStaleLister), new(mocks.MockQueue), nil, recoveryConfig)

	_, err := NewScheduler(sweeper, "not a schedule", time.Second)
	assert.Error(t, err)
}

func TestSchedulerRunsSweep(t *testing.T) {
	lister := new(mocks.MockStaleLister)
	queue := new(mocks.MockQueue)
	orderID := uuid.New()

	lister.On("ListStalePending", mock.Anything, mock.Anything, 50).Return([]uuid.UUID{orderID}, nil)
	called := make(chan struct{}, 1)
	queue.On("Enqueue", mock.Anything, orderID).
		Run(func(mock.Arguments) {
			select {
			case called <- struct{}{}:
			default:
			}
		}).
		Return(nil)

	sweeper := NewSweeper(lister, queue, nil, recoveryConfig)
	scheduler, err := NewScheduler(sweeper, "@every 1s", time.Second)
	require.NoError(t, err)

	scheduler.Start()

	select {
	case <-called:
	case <-time.After(3 * time.Second):
		t.Fatal("recovery sweep did not run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, scheduler.Stop(ctx))
}
