package repository

import (
	"context"

	"github.com/alloc33/market/internal/domain/models"
	domrepo "github.com/alloc33/market/internal/domain/repository"
	pkgkafka "github.com/alloc33/market/pkg/kafka"
)

// KafkaEventPublisher emits execution outcomes to a Kafka topic, keyed by
// strategy id so one strategy's outcomes stay ordered within a partition.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaEventPublisher creates the publisher.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) domrepo.EventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, ev *models.ExecutionEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.StrategyID), ev)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopEventPublisher is used when Kafka is disabled; execution outcomes are
// still visible in logs and metrics.
type NopEventPublisher struct{}

func (NopEventPublisher) Publish(ctx context.Context, ev *models.ExecutionEvent) error { return nil }

func (NopEventPublisher) Close() error { return nil }
