package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/models"
)

const (
	minReadBackoff = 500 * time.Millisecond
	maxReadBackoff = 30 * time.Second
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Config() kafka.ReaderConfig
	Close() error
}

type Consumer struct {
	reader     messageReader
	log        *logger.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
}

// NewConsumer creates a new Kafka consumer for the given topic and group
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
		StartOffset: kafka.LastOffset,
	})
	return &Consumer{reader: reader, log: log, minBackoff: minReadBackoff, maxBackoff: maxReadBackoff}
}

// ConsumeOrderEvents hands every decodable order event to handler until ctx ends.
// Read errors back off exponentially up to maxBackoff; a good read resets it.
func (c *Consumer) ConsumeOrderEvents(ctx context.Context, handler func(models.OrderEvent)) error {
	c.log.Info("KAFKA", fmt.Sprintf("Consumer started on %s", c.reader.Config().Topic))
	backoff := c.minBackoff
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return nil
			}
			c.log.Error("KAFKA", fmt.Sprintf("Error reading message, retrying in %s: %v", backoff, err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff = nextBackoff(backoff, c.maxBackoff)
			continue
		}
		backoff = c.minBackoff

		var ev models.OrderEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			c.log.Warn("KAFKA", fmt.Sprintf("Failed to unmarshal message at offset %d: %v", msg.Offset, err))
			continue
		}
		c.log.LogKafka("CONSUME", msg.Topic, ev.Type+" "+ev.OrderID)
		handler(ev)
	}
}

func nextBackoff(cur, limit time.Duration) time.Duration {
	return min(cur*2, limit)
}

// Close gracefully shuts down the Kafka reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
