package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mlangford/wheeljournal/internal/models"
)

// Producer publishes journal events to Kafka
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishImportCompleted publishes an import batch summary event
func (p *Producer) PublishImportCompleted(ctx context.Context, event models.ImportEvent) error {
	event.EventType = models.EventTypeImportCompleted
	event.Timestamp = time.Now()
	return p.publish(ctx, event.UserID, event)
}

// PublishReconcileCompleted publishes a reconciliation summary event
func (p *Producer) PublishReconcileCompleted(ctx context.Context, event models.ReconcileEvent) error {
	event.EventType = models.EventTypeReconcileComplete
	event.Timestamp = time.Now()
	return p.publish(ctx, event.UserID, event)
}

func (p *Producer) publish(ctx context.Context, key string, event interface{}) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
