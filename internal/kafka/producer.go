package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"ad-ranking-system/internal/models"

	"github.com/segmentio/kafka-go"
)

func NewKafkaWriter(brokerURL, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokerURL),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
}

// messageWriter is the part of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes engagement events as JSON. Messages are keyed by user
// so one user's events stay ordered within a partition.
type Producer struct {
	writer messageWriter
}

func NewProducer(writer messageWriter) *Producer {
	return &Producer{writer: writer}
}

func (p *Producer) Publish(ctx context.Context, events ...models.EngagementEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		msg, err := EncodeEvent(ev)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to write %d events to kafka: %w", len(msgs), err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

func EncodeEvent(ev models.EngagementEvent) (kafka.Message, error) {
	value, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode event: %w", err)
	}
	key := ev.UserID
	if key == "" {
		key = "ad:" + strconv.FormatUint(uint64(ev.AdID), 10)
	}
	return kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}, nil
}

func DecodeEvent(msg kafka.Message) (models.EngagementEvent, error) {
	var ev models.EngagementEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return ev, fmt.Errorf("failed to decode event at offset %d: %w", msg.Offset, err)
	}
	if ev.AdID == 0 || ev.Type == "" {
		return ev, fmt.Errorf("incomplete event at offset %d", msg.Offset)
	}
	return ev, nil
}
