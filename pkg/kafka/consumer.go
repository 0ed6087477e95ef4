package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"

	"courtside/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// Consumer reads one topic with a consumer group and hands each message to a
// handler. A handler error leaves the offset uncommitted; the message is
// redelivered after a rebalance or restart.
type Consumer struct {
	reader *kafka.Reader
	log    *logger.Logger
}

func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" || groupID == "" {
		return nil, fmt.Errorf("topic and group ID are required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})

	return &Consumer{
		reader: reader,
		log:    log,
	}, nil
}

// Run blocks until ctx is cancelled or the reader is closed.
func (c *Consumer) Run(ctx context.Context, handler MessageHandler) error {
	for {
		kmsg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		msg := Message{
			Key:       string(kmsg.Key),
			Value:     kmsg.Value,
			Topic:     kmsg.Topic,
			Partition: kmsg.Partition,
			Offset:    kmsg.Offset,
			Timestamp: kmsg.Time,
			Headers:   make(map[string]string, len(kmsg.Headers)),
		}
		for _, h := range kmsg.Headers {
			msg.Headers[h.Key] = string(h.Value)
		}

		if err := handler(ctx, msg); err != nil {
			c.log.Error("Message handler failed",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"event_type", msg.EventType(),
				"error", err,
			)
			continue
		}

		if err := c.reader.CommitMessages(ctx, kmsg); err != nil {
			c.log.Error("Failed to commit offset",
				"topic", msg.Topic,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
