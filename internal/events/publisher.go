package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish appends an event to a stream. The key travels alongside the
// payload so consumers can partition and deduplicate on it.
func (p *Publisher) Publish(ctx context.Context, stream, eventType, key string, data any) error {
	envelope := Envelope{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	eventJSON, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"key":   key,
			"event": eventJSON,
		},
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// PublishTransactionCompleted emits a TransactionEvent to the transaction
// stream, keyed by its transactionId.
func (p *Publisher) PublishTransactionCompleted(ctx context.Context, event *TransactionEvent) error {
	return p.Publish(ctx, TransactionEventsStream, TransactionCompleted, event.TransactionID, event)
}
