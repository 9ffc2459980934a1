package services

import (
	"context"
	"time"

	"ad-ranking-system/internal/events"
	"ad-ranking-system/internal/metrics"
	"ad-ranking-system/internal/models"
	"ad-ranking-system/internal/ranking"
	"ad-ranking-system/internal/repository"

	"github.com/sirupsen/logrus"
)

// RecommendService picks ads for a page from the engagement counters rather
// than from preferences.
type RecommendService struct {
	ads      *repository.AdRepository
	counters *repository.MetricsRepository
	recorder recorder
	logger   *logrus.Logger
	limit    int
}

func NewRecommendService(ads *repository.AdRepository, counters *repository.MetricsRepository, publisher events.Publisher, logger *logrus.Logger, limit int) *RecommendService {
	if limit <= 0 {
		limit = ranking.DefaultRecommendLimit
	}
	return &RecommendService{
		ads:      ads,
		counters: counters,
		recorder: recorder{metrics: counters, events: publisher, logger: logger},
		logger:   logger,
		limit:    limit,
	}
}

// Recommend returns up to limit ads for the page, the service default when
// limit is not positive, and counts an impression for each.
func (s *RecommendService) Recommend(ctx context.Context, userID string, page ranking.PageContext, limit int) ([]models.Recommendation, error) {
	if userID == "" {
		return nil, models.ErrUnauthorized
	}
	if limit <= 0 {
		limit = s.limit
	}

	start := time.Now()
	catalog, err := s.ads.List(ctx)
	if err != nil {
		return nil, err
	}
	global, err := s.counters.Global(ctx)
	if err != nil {
		return nil, err
	}
	mine, err := s.counters.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	recs := ranking.Recommend(catalog, global, mine, page, limit)
	metrics.RankingDuration.WithLabelValues("recommend").Observe(time.Since(start).Seconds())

	ids := make([]uint, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.AdID)
	}
	if err := s.recorder.impressions(ctx, userID, ids); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to record impressions")
	}
	return recs, nil
}

func (s *RecommendService) RecordClick(ctx context.Context, userID string, adID uint) error {
	return s.recorder.click(ctx, userID, adID)
}

// RecordDislike counts a dislike. Unlike EngagementService.Dislike it leaves
// the user's preferences and the ad's stored CTR untouched.
func (s *RecommendService) RecordDislike(ctx context.Context, userID string, adID uint) error {
	if userID == "" {
		return models.ErrUnauthorized
	}
	return s.recorder.dislikeCount(ctx, userID, adID)
}
