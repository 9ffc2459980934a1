package services

import (
	"context"
	"time"

	"ad-ranking-system/internal/events"
	"ad-ranking-system/internal/metrics"
	"ad-ranking-system/internal/models"

	"github.com/sirupsen/logrus"
)

const (
	queueBatchSize    = 100
	queueBatchTimeout = 5 * time.Second
	queueMaxRetries   = 3
)

// EventQueue buffers engagement events and hands them to the downstream
// publisher in batches from a single goroutine. It is itself a Publisher.
type EventQueue struct {
	events     chan models.EngagementEvent
	downstream events.Publisher
	logger     *logrus.Logger
	backoff    time.Duration
}

func NewEventQueue(downstream events.Publisher, logger *logrus.Logger, bufferSize int) *EventQueue {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &EventQueue{
		events:     make(chan models.EngagementEvent, bufferSize),
		downstream: downstream,
		logger:     logger,
		backoff:    time.Second,
	}
}

// Publish enqueues without blocking. Events that do not fit are dropped
// with a warning; the store already holds the counters.
func (q *EventQueue) Publish(_ context.Context, evs ...models.EngagementEvent) error {
	for _, ev := range evs {
		if !q.Enqueue(ev) {
			break
		}
	}
	return nil
}

func (q *EventQueue) Enqueue(event models.EngagementEvent) bool {
	select {
	case q.events <- event:
		metrics.QueueSize.Set(float64(len(q.events)))
		return true
	default:
		q.logger.WithField("type", event.Type).Warn("Event queue is full, dropping event")
		return false
	}
}

func (q *EventQueue) Len() int {
	return len(q.events)
}

// StartProcessor drains the queue until ctx is done, flushing every
// queueBatchSize events or queueBatchTimeout, whichever comes first. On
// shutdown it flushes whatever is buffered.
func (q *EventQueue) StartProcessor(ctx context.Context) {
	batch := make([]models.EngagementEvent, 0, queueBatchSize)
	timer := time.NewTimer(queueBatchTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
		drain:
			for {
				select {
				case event := <-q.events:
					batch = append(batch, event)
				default:
					break drain
				}
			}
			if len(batch) > 0 {
				q.processBatch(context.Background(), batch)
			}
			return
		case event := <-q.events:
			batch = append(batch, event)
			if len(batch) >= queueBatchSize {
				q.processBatch(ctx, batch)
				batch = batch[:0]
				timer.Reset(queueBatchTimeout)
			}
		case <-timer.C:
			if len(batch) > 0 {
				q.processBatch(ctx, batch)
				batch = batch[:0]
			}
			timer.Reset(queueBatchTimeout)
		}
		metrics.QueueSize.Set(float64(len(q.events)))
	}
}

func (q *EventQueue) processBatch(ctx context.Context, batch []models.EngagementEvent) {
	if len(batch) == 0 {
		return
	}

	for i := 0; i < queueMaxRetries; i++ {
		err := q.downstream.Publish(ctx, batch...)
		if err == nil {
			metrics.EventsPublished.Add(float64(len(batch)))
			return
		}
		q.logger.WithError(err).Warnf("Failed to publish batch (attempt %d/%d)", i+1, queueMaxRetries)
		if i == queueMaxRetries-1 {
			q.logger.WithError(err).WithField("events", len(batch)).Error("Dropping events after all retries")
			return
		}
		time.Sleep(time.Duration(i+1) * q.backoff)
	}
}
