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

// RankRequest identifies who is asking for a ranking. An empty UserID is an
// anonymous requester and gets the CTR-only order.
type RankRequest struct {
	UserID      string
	SessionSeed int64
}

func (r RankRequest) Authenticated() bool {
	return r.UserID != ""
}

type RankingService struct {
	ads      *repository.AdRepository
	prefs    *repository.PreferencesRepository
	recorder recorder
	logger   *logrus.Logger
	limit    int
}

func NewRankingService(ads *repository.AdRepository, prefs *repository.PreferencesRepository, counters *repository.MetricsRepository, publisher events.Publisher, logger *logrus.Logger, limit int) *RankingService {
	if limit <= 0 {
		limit = ranking.DefaultRankLimit
	}
	return &RankingService{
		ads:      ads,
		prefs:    prefs,
		recorder: recorder{metrics: counters, events: publisher, logger: logger},
		logger:   logger,
		limit:    limit,
	}
}

// RankedAds returns the top ads for the requester and counts an impression
// for each of them.
func (s *RankingService) RankedAds(ctx context.Context, req RankRequest) ([]models.RankedAd, error) {
	start := time.Now()
	defer func() {
		metrics.RankingDuration.WithLabelValues("primary").Observe(time.Since(start).Seconds())
	}()

	catalog, err := s.ads.List(ctx)
	if err != nil {
		return nil, err
	}

	signals, err := s.signals(ctx, req)
	if err != nil {
		return nil, err
	}

	ranked := ranking.Rank(catalog, signals, s.limit)
	metrics.AdsRanked.Add(float64(len(ranked)))

	if err := s.recorder.impressions(ctx, req.UserID, ranking.IDs(ranked)); err != nil {
		// the ranking is still valid without the bookkeeping
		s.logger.WithError(err).WithField("user_id", req.UserID).Warn("Failed to record impressions")
	}
	return ranked, nil
}

func (s *RankingService) signals(ctx context.Context, req RankRequest) (ranking.Signals, error) {
	if !req.Authenticated() {
		return ranking.Signals{}, nil
	}
	prefs, err := s.prefs.Load(ctx, req.UserID)
	if err != nil {
		return ranking.Signals{}, err
	}
	liked, err := s.ads.CategoriesOf(ctx, prefs.Likes)
	if err != nil {
		return ranking.Signals{}, err
	}
	disliked, err := s.ads.CategoriesOf(ctx, prefs.Dislikes)
	if err != nil {
		return ranking.Signals{}, err
	}
	return ranking.NewSignals(req.SessionSeed, prefs, liked, disliked), nil
}
