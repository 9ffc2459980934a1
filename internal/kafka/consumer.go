package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ad-ranking-system/internal/events"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// messageReader is the part of *kafka.Reader the consumer needs.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer replays the engagement event log into a projection such as the
// per-user ledger. Offsets are committed after the projection accepts the
// event, so a crash replays rather than loses.
type Consumer struct {
	reader messageReader
	sink   events.Publisher
	logger *logrus.Logger
}

func NewKafkaReader(brokerURL, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{brokerURL},
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: 0,
		StartOffset:    kafka.FirstOffset,
	})
}

func NewConsumer(reader messageReader, sink events.Publisher, logger *logrus.Logger) *Consumer {
	return &Consumer{
		reader: reader,
		sink:   sink,
		logger: logger,
	}
}

// Run consumes until ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		if err := c.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.WithError(err).Error("Event log consumer step failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}
	}
}

// Step handles one message. Undecodable messages are logged and committed
// so they do not block the partition.
func (c *Consumer) Step(ctx context.Context) error {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch message: %w", err)
	}

	ev, err := DecodeEvent(msg)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"partition": msg.Partition,
			"offset":    msg.Offset,
		}).Warn("Skipping malformed event")
		return c.commit(ctx, msg)
	}

	if err := c.sink.Publish(ctx, ev); err != nil {
		return fmt.Errorf("failed to apply event: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"key":       string(msg.Key),
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	}).Debug("Applied event from Kafka")

	return c.commit(ctx, msg)
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) error {
	if err := c.reader.CommitMessages(ctx, msg); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to commit offset %d: %w", msg.Offset, err)
	}
	return nil
}

func (c *Consumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
