package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
	"github.com/nastyazhadan/trade-settlement/shared/config"
)

var breakerConfig = config.CircuitBreakerConfig{
	MaxRequests: 1,
	Interval:    time.Minute,
	Timeout:     time.Minute,
	MaxFailures: 2,
}

func settledEvent() models.SettlementEvent {
	return models.SettlementEvent{
		OrderID:    uuid.New(),
		Username:   "alice",
		Ticker:     "AAPL",
		Side:       "BUY",
		Quantity:   40,
		TotalPrice: decimal.RequireFromString("6000"),
		Status:     "completed",
		Outcome:    "settled",
		Balance:    decimal.RequireFromString("4000"),
		SettledAt:  time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestPublishSettlement(t *testing.T) {
	producer := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	event := settledEvent()

	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(message *sarama.ProducerMessage) error {
		key, err := message.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "alice" {
			return errors.New("unexpected key " + string(key))
		}

		value, err := message.Value.Encode()
		if err != nil {
			return err
		}

		var decoded models.SettlementEvent
		if err := json.Unmarshal(value, &decoded); err != nil {
			return err
		}
		if decoded.OrderID != event.OrderID || decoded.Outcome != "settled" {
			return errors.New("unexpected payload")
		}

		return nil
	})

	publisher := NewSettlementPublisher(producer, "settlement.events", breakerConfig)
	require.NoError(t, publisher.PublishSettlement(context.Background(), event))
	require.NoError(t, publisher.Close())
}

func TestPublishSettlementOpensBreaker(t *testing.T) {
	producer := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := NewSettlementPublisher(producer, "settlement.events", breakerConfig)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := publisher.PublishSettlement(ctx, settledEvent())
		assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	}

	err := publisher.PublishSettlement(ctx, settledEvent())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.ErrorContains(t, err, "circuit breaker")

	require.NoError(t, publisher.Close())
}
