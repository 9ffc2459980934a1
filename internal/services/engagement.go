package services

import (
	"context"
	"math"

	"ad-ranking-system/internal/catalog"
	"ad-ranking-system/internal/events"
	"ad-ranking-system/internal/models"
	"ad-ranking-system/internal/repository"

	"github.com/sirupsen/logrus"
)

// EngagementService handles what a user does to an ad: like, dislike,
// click, and the owner actions on ads they published.
type EngagementService struct {
	ads        *repository.AdRepository
	prefs      *repository.PreferencesRepository
	recorder   recorder
	logger     *logrus.Logger
	exportPath string
}

// NewEngagementService wires the service. Published ads are appended to the
// inventory at exportPath; an empty path disables the export.
func NewEngagementService(ads *repository.AdRepository, prefs *repository.PreferencesRepository, counters *repository.MetricsRepository, publisher events.Publisher, logger *logrus.Logger, exportPath string) *EngagementService {
	return &EngagementService{
		ads:        ads,
		prefs:      prefs,
		recorder:   recorder{metrics: counters, events: publisher, logger: logger},
		logger:     logger,
		exportPath: exportPath,
	}
}

func (s *EngagementService) Like(ctx context.Context, userID string, adID uint) (models.Preferences, error) {
	if userID == "" {
		return models.Preferences{}, models.ErrUnauthorized
	}
	if err := s.mustExist(ctx, adID); err != nil {
		return models.Preferences{}, err
	}
	prefs, err := s.prefs.Like(ctx, userID, adID)
	if err != nil {
		return models.Preferences{}, err
	}
	s.recorder.publish(ctx, models.NewEvent(models.EventLike, adID, userID))
	return prefs, nil
}

// Dislike records the preference and applies the dislike counters and the
// CTR penalty. The counters move on every call; the preference is
// idempotent.
func (s *EngagementService) Dislike(ctx context.Context, userID string, adID uint) (models.Preferences, error) {
	if userID == "" {
		return models.Preferences{}, models.ErrUnauthorized
	}
	if err := s.mustExist(ctx, adID); err != nil {
		return models.Preferences{}, err
	}
	prefs, err := s.prefs.Dislike(ctx, userID, adID)
	if err != nil {
		return models.Preferences{}, err
	}
	if err := s.recorder.dislike(ctx, userID, adID); err != nil {
		return models.Preferences{}, err
	}
	return prefs, nil
}

// Click counts a click. Anonymous clicks only move the aggregate counters.
func (s *EngagementService) Click(ctx context.Context, userID string, adID uint) error {
	return s.recorder.click(ctx, userID, adID)
}

func (s *EngagementService) Publish(ctx context.Context, userID string, req models.PublishRequest) (*models.Ad, error) {
	if userID == "" {
		return nil, models.ErrUnauthorized
	}
	ad, err := s.ads.Create(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	if s.exportPath != "" {
		if err := catalog.Append(s.exportPath, *ad); err != nil {
			s.logger.WithError(err).WithField("ad_id", ad.ID).Warn("Failed to export published ad")
		}
	}
	s.logger.WithFields(logrus.Fields{"ad_id": ad.ID, "owner": userID}).Info("Ad published")
	return ad, nil
}

// MyAds lists the user's ads newest first, with CTR as a percent.
func (s *EngagementService) MyAds(ctx context.Context, userID string) ([]models.OwnedAd, error) {
	if userID == "" {
		return nil, models.ErrUnauthorized
	}
	ads, err := s.ads.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.OwnedAd, 0, len(ads))
	for _, ad := range ads {
		out = append(out, models.OwnedAd{
			ID:          ad.ID,
			Title:       ad.Title,
			Category:    ad.Category,
			ImageURL:    ad.ImageURL,
			Clicks:      ad.Clicks,
			Impressions: ad.Impressions,
			CTR:         math.Round(ad.CTR*100*100) / 100,
			IsActive:    ad.IsActive,
			StartDate:   ad.StartDate,
			EndDate:     ad.EndDate,
			CreatedAt:   ad.CreatedAt,
		})
	}
	return out, nil
}

func (s *EngagementService) Toggle(ctx context.Context, userID string, adID uint) (bool, error) {
	if userID == "" {
		return false, models.ErrUnauthorized
	}
	return s.ads.ToggleActive(ctx, adID, userID)
}

func (s *EngagementService) Delete(ctx context.Context, userID string, adID uint) error {
	if userID == "" {
		return models.ErrUnauthorized
	}
	if err := s.ads.DeleteOwned(ctx, adID, userID); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"ad_id": adID, "owner": userID}).Info("Ad deleted")
	return nil
}

func (s *EngagementService) mustExist(ctx context.Context, adID uint) error {
	ok, err := s.ads.Exists(ctx, adID)
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrNotFound
	}
	return nil
}
