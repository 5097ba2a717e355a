package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
	"github.com/nastyazhadan/trade-settlement/shared/config"
	zapLogger "github.com/nastyazhadan/trade-settlement/shared/interceptors/logger/zap"
)

// NewSyncProducer connects a producer that waits for all in-sync replicas.
func NewSyncProducer(cfg config.KafkaConfig) (sarama.SyncProducer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.ClientID = cfg.ClientID
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("sarama.NewSyncProducer: %w", err)
	}

	return producer, nil
}

// SettlementPublisher writes one message per settlement outcome, keyed by
// username so that a consumer sees one account's events in order.
type SettlementPublisher struct {
	producer       sarama.SyncProducer
	topic          string
	circuitBreaker *gobreaker.CircuitBreaker[struct{}]
}

func NewSettlementPublisher(
	producer sarama.SyncProducer,
	topic string,
	cfg config.CircuitBreakerConfig,
) *SettlementPublisher {
	circuitBreaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "kafka:" + topic,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
	})

	return &SettlementPublisher{
		producer:       producer,
		topic:          topic,
		circuitBreaker: circuitBreaker,
	}
}

func (p *SettlementPublisher) PublishSettlement(ctx context.Context, event models.SettlementEvent) error {
	const op = "SettlementPublisher.PublishSettlement"

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = p.circuitBreaker.Execute(func() (struct{}, error) {
		partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
			Topic: p.topic,
			Key:   sarama.StringEncoder(event.Username),
			Value: sarama.ByteEncoder(payload),
		})
		if err != nil {
			zapLogger.Error(ctx, "settlement event send failed",
				zap.String("order_id", event.OrderID.String()),
				zap.Error(err),
			)

			return struct{}{}, err
		}

		zapLogger.Debug(ctx, "settlement event sent",
			zap.String("order_id", event.OrderID.String()),
			zap.Int32("partition", partition),
			zap.Int64("offset", offset),
		)

		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("%s: circuit breaker: %w", op, err)
	}

	return nil
}

func (p *SettlementPublisher) Close() error {
	return p.producer.Close()
}
