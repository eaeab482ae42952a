package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer publishes domain events (product_created, product_deleted,
// order_created, product_viewed). A nil Producer is valid and drops
// everything, so event publishing stays best effort when no broker is
// configured.
type Producer struct {
	writer *kafka.Writer
	log    *slog.Logger
}

func NewProducer(address, topic string, log *slog.Logger) *Producer {
	if address == "" {
		return nil
	}
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(address),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			WriteTimeout: 5 * time.Second,
			// The broker may not have seen this topic yet on first boot.
			AllowAutoTopicCreation: true,
		},
		log: log,
	}
}

func (p *Producer) Publish(ctx context.Context, key string, event map[string]any) error {
	if p == nil {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: data}); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// PublishAsync fires the event without making the caller wait on the broker.
func (p *Producer) PublishAsync(key string, event map[string]any) {
	if p == nil {
		return
	}
	go func() {
		if err := p.Publish(context.Background(), key, event); err != nil {
			p.log.Warn("event publish failed", "key", key, "error", err)
		}
	}()
}

func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
