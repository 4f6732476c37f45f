package repository

import (
	"context"
	"fmt"

	"github.com/amitpatole/tickerpulse-ai-sub003/internal/domain/models"
	pkgkafka "github.com/amitpatole/tickerpulse-ai-sub003/pkg/kafka"
)

// KafkaEventPublisher publishes terminal-run events to a Kafka topic.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaEventPublisher creates a Kafka-backed event publisher.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

// PublishRunCompleted emits one event per terminal run, keyed by run id so
// consumers can partition by run.
func (p *KafkaEventPublisher) PublishRunCompleted(ctx context.Context, ev *models.RunCompletedEvent) error {
	if ev == nil {
		return fmt.Errorf("nil event")
	}
	if err := p.producer.Publish(ctx, p.topic, []byte(ev.RunID), ev); err != nil {
		return fmt.Errorf("publish run completed: %w", err)
	}
	return nil
}

// Close closes the underlying producer.
func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}
