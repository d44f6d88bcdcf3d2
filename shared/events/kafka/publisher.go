// Package kafka publishes ledger events to Kafka topics named after the
// event streams.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/accountz/ledger-service/shared/events"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer messageWriter
}

func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
		},
	}
}

// Publish writes one message to the topic named stream. The event type is
// the message key so events of one kind keep their relative order.
func (p *Publisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	value, err := events.Encode(eventType, data)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Topic: stream,
		Key:   []byte(eventType),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(eventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish event to kafka: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
