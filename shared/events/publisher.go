package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Publisher delivers domain events to a named stream or topic.
type Publisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// Encode wraps data in an Event envelope and marshals it.
func Encode(eventType string, data any) ([]byte, error) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return eventJSON, nil
}

// StreamPublisher appends events to Redis Streams.
type StreamPublisher struct {
	client *redis.Client
	maxLen int64
}

// NewStreamPublisher returns a publisher that trims each stream to roughly
// maxLen entries. A maxLen of 0 disables trimming.
func NewStreamPublisher(client *redis.Client, maxLen int64) *StreamPublisher {
	return &StreamPublisher{client: client, maxLen: maxLen}
}

func (p *StreamPublisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	eventJSON, err := Encode(eventType, data)
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"event": eventJSON,
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// NopPublisher drops every event. Used when EVENT_BUS=none.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, any) error { return nil }
