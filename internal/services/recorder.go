package services

import (
	"context"

	"ad-ranking-system/internal/events"
	"ad-ranking-system/internal/metrics"
	"ad-ranking-system/internal/models"
	"ad-ranking-system/internal/repository"

	"github.com/sirupsen/logrus"
)

// recorder writes engagement to the counters and then to the event log.
// The counters are authoritative; a failed publish is logged, not returned.
type recorder struct {
	metrics *repository.MetricsRepository
	events  events.Publisher
	logger  *logrus.Logger
}

func (r *recorder) impressions(ctx context.Context, userID string, adIDs []uint) error {
	if len(adIDs) == 0 {
		return nil
	}
	if err := r.metrics.RecordImpressions(ctx, userID, adIDs); err != nil {
		return err
	}
	evs := make([]models.EngagementEvent, 0, len(adIDs))
	for _, id := range adIDs {
		evs = append(evs, models.NewEvent(models.EventImpression, id, userID))
	}
	r.publish(ctx, evs...)
	return nil
}

func (r *recorder) click(ctx context.Context, userID string, adID uint) error {
	if err := r.metrics.RecordClick(ctx, userID, adID); err != nil {
		return err
	}
	r.publish(ctx, models.NewEvent(models.EventClick, adID, userID))
	return nil
}

func (r *recorder) dislike(ctx context.Context, userID string, adID uint) error {
	if err := r.metrics.RecordDislike(ctx, userID, adID); err != nil {
		return err
	}
	r.publish(ctx, models.NewEvent(models.EventDislike, adID, userID))
	return nil
}

// dislikeCount is dislike without the CTR penalty.
func (r *recorder) dislikeCount(ctx context.Context, userID string, adID uint) error {
	if err := r.metrics.RecordDislikeCount(ctx, userID, adID); err != nil {
		return err
	}
	r.publish(ctx, models.NewEvent(models.EventDislike, adID, userID))
	return nil
}

func (r *recorder) publish(ctx context.Context, evs ...models.EngagementEvent) {
	for _, ev := range evs {
		metrics.EngagementEvents.WithLabelValues(string(ev.Type)).Inc()
	}
	if r.events == nil {
		return
	}
	if err := r.events.Publish(ctx, evs...); err != nil {
		r.logger.WithError(err).WithField("events", len(evs)).Warn("Failed to publish engagement events")
	}
}
