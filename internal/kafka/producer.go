package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/models"
)

// Publisher writes JSON values to a topic.
type Publisher interface {
	PublishJSON(ctx context.Context, topic, key string, v interface{}) error
}

type Producer struct {
	Writer *kafka.Writer
	log    *logger.Logger
}

// NewProducer builds a writer whose topic is chosen per message.
func NewProducer(brokers []string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Producer{Writer: writer, log: log}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, value []byte) error {
	err := p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	p.log.LogKafka("PUBLISH", topic, key)
	return nil
}

func (p *Producer) PublishJSON(ctx context.Context, topic, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %T: %w", v, err)
	}
	return p.Publish(ctx, topic, key, b)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// Nop drops every message. Used when Kafka is disabled.
type Nop struct{}

func (Nop) PublishJSON(context.Context, string, string, interface{}) error { return nil }

// OrderEvents publishes order lifecycle events keyed by order id.
type OrderEvents struct {
	Publisher Publisher
	Topic     string
}

func (e OrderEvents) PublishOrderEvent(ctx context.Context, ev models.OrderEvent) error {
	return e.Publisher.PublishJSON(ctx, e.Topic, ev.OrderID, ev)
}

// BeoEvents publishes BEO changes keyed by order id so one order's
// events stay on one partition.
type BeoEvents struct {
	Publisher Publisher
	Topic     string
}

func (e BeoEvents) PublishBeoEvent(ctx context.Context, ev models.BeoEvent) error {
	return e.Publisher.PublishJSON(ctx, e.Topic, ev.OrderID, ev)
}
