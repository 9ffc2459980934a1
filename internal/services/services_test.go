package services

import (
	"context"
	"sync"
	"testing"

	"ad-ranking-system/internal/logger"
	"ad-ranking-system/internal/models"
	"ad-ranking-system/internal/repository"
	"ad-ranking-system/internal/repository/testutil"

	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.EngagementEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evs ...models.EngagementEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evs...)
	return nil
}

func (p *recordingPublisher) ofType(t models.EventType) []models.EngagementEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.EngagementEvent
	for _, ev := range p.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type fixture struct {
	db       *gorm.DB
	ads      *repository.AdRepository
	prefs    *repository.PreferencesRepository
	counters *repository.MetricsRepository
	events   *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := logger.Discard()
	return &fixture{
		db:       db,
		ads:      repository.NewAdRepository(db),
		prefs:    repository.NewPreferencesRepository(db, log),
		counters: repository.NewMetricsRepository(db, log),
		events:   &recordingPublisher{},
	}
}

func (f *fixture) ranking(limit int) *RankingService {
	return NewRankingService(f.ads, f.prefs, f.counters, f.events, logger.Discard(), limit)
}

func (f *fixture) engagement(exportPath string) *EngagementService {
	return NewEngagementService(f.ads, f.prefs, f.counters, f.events, logger.Discard(), exportPath)
}

func (f *fixture) recommend(limit int) *RecommendService {
	return NewRecommendService(f.ads, f.counters, f.events, logger.Discard(), limit)
}

func (f *fixture) ad(t *testing.T, id uint) models.Ad {
	t.Helper()
	ad, err := f.ads.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get ad %d: %v", id, err)
	}
	return *ad
}
