package repository

import (
	"context"
	"fmt"
	"time"

	"ad-ranking-system/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DislikePenalty is subtracted from an ad's stored CTR on every dislike.
const DislikePenalty = 0.4

// MetricsRepository owns the engagement counters: the aggregate columns on
// ads and the per-user rows in user_ad_metrics. Every increment is a single
// "col = col + 1" statement so concurrent writers never lose updates.
type MetricsRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewMetricsRepository(db *gorm.DB, logger *logrus.Logger) *MetricsRepository {
	return &MetricsRepository{
		db:     db,
		logger: logger,
	}
}

// RecordImpressions bumps the impression counters of every listed ad, and
// the per-user counters when userID is set.
func (r *MetricsRepository) RecordImpressions(ctx context.Context, userID string, adIDs []uint) error {
	if len(adIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	err := withRetry(ctx, func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			err := tx.Model(&models.Ad{}).
				Where("id IN ?", adIDs).
				Updates(map[string]interface{}{
					"impressions":  gorm.Expr("impressions + 1"),
					"last_updated": now,
				}).Error
			if err != nil {
				return fmt.Errorf("failed to bump impressions: %w", err)
			}
			if userID == "" {
				return nil
			}
			for _, id := range adIDs {
				if err := bumpUserCounter(tx, userID, id, "impressions", now); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"ad_ids":  adIDs,
	}).Debug("Recorded impressions")
	return nil
}

// RecordClick adds one click and recomputes ctr = clicks / max(impressions, 1)
// in the same statement.
func (r *MetricsRepository) RecordClick(ctx context.Context, userID string, adID uint) error {
	now := time.Now().UTC()
	return r.record(ctx, userID, adID, "clicks", now, map[string]interface{}{
		"clicks":       gorm.Expr("clicks + 1"),
		"ctr":          gorm.Expr("(clicks + 1) * 1.0 / CASE WHEN impressions = 0 THEN 1 ELSE impressions END"),
		"last_updated": now,
	})
}

// RecordDislike adds one dislike and lowers the stored ctr by DislikePenalty,
// never below zero.
func (r *MetricsRepository) RecordDislike(ctx context.Context, userID string, adID uint) error {
	now := time.Now().UTC()
	return r.record(ctx, userID, adID, "dislikes", now, map[string]interface{}{
		"dislikes":     gorm.Expr("dislikes + 1"),
		"ctr":          gorm.Expr("CASE WHEN ctr - ? < 0 THEN 0 ELSE ctr - ? END", DislikePenalty, DislikePenalty),
		"last_updated": now,
	})
}

// RecordDislikeCount adds one dislike and leaves the stored ctr alone.
func (r *MetricsRepository) RecordDislikeCount(ctx context.Context, userID string, adID uint) error {
	now := time.Now().UTC()
	return r.record(ctx, userID, adID, "dislikes", now, map[string]interface{}{
		"dislikes":     gorm.Expr("dislikes + 1"),
		"last_updated": now,
	})
}

func (r *MetricsRepository) record(ctx context.Context, userID string, adID uint, column string, now time.Time, updates map[string]interface{}) error {
	err := withRetry(ctx, func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.Ad{}).Where("id = ?", adID).Updates(updates)
			if res.Error != nil {
				return fmt.Errorf("failed to record %s for ad %d: %w", column, adID, res.Error)
			}
			if res.RowsAffected == 0 {
				return models.ErrNotFound
			}
			if userID == "" {
				return nil
			}
			return bumpUserCounter(tx, userID, adID, column, now)
		})
	})
	if err != nil {
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"ad_id":   adID,
		"counter": column,
	}).Debug("Recorded engagement")
	return nil
}

// bumpUserCounter inserts the (user, ad) row with the counter at 1, or adds
// one to it when the row exists.
func bumpUserCounter(tx *gorm.DB, userID string, adID uint, column string, now time.Time) error {
	row := models.UserAdMetrics{UserID: userID, AdID: adID, LastUpdated: now}
	switch column {
	case "impressions":
		row.Impressions = 1
	case "clicks":
		row.Clicks = 1
	case "dislikes":
		row.Dislikes = 1
	default:
		return fmt.Errorf("unknown counter %q", column)
	}

	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "ad_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			column:         gorm.Expr(fmt.Sprintf("%s.%s + 1", models.UserAdMetrics{}.TableName(), column)),
			"last_updated": now,
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to bump %s for user %s ad %d: %w", column, userID, adID, err)
	}
	return nil
}

// Global returns the aggregate counters of every ad keyed by ad id.
func (r *MetricsRepository) Global(ctx context.Context) (map[uint]models.AdMetrics, error) {
	rows, err := r.globalRows(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]models.AdMetrics, len(rows))
	for _, m := range rows {
		out[m.AdID] = m
	}
	return out, nil
}

func (r *MetricsRepository) globalRows(ctx context.Context) ([]models.AdMetrics, error) {
	var rows []models.AdMetrics
	err := r.db.WithContext(ctx).Model(&models.Ad{}).
		Select("id AS ad_id, impressions, clicks, dislikes, ctr, last_updated").
		Order("id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load ad metrics: %w", err)
	}
	return rows, nil
}

// ForUser returns one user's counters keyed by ad id.
func (r *MetricsRepository) ForUser(ctx context.Context, userID string) (map[uint]models.UserAdMetrics, error) {
	out := map[uint]models.UserAdMetrics{}
	if userID == "" {
		return out, nil
	}
	var rows []models.UserAdMetrics
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load metrics for %s: %w", userID, err)
	}
	for _, m := range rows {
		out[m.AdID] = m
	}
	return out, nil
}

// Snapshot returns every aggregate and per-user row, for the admin view.
func (r *MetricsRepository) Snapshot(ctx context.Context) (*models.MetricsSnapshot, error) {
	ads, err := r.globalRows(ctx)
	if err != nil {
		return nil, err
	}
	var users []models.UserAdMetrics
	if err := r.db.WithContext(ctx).Order("user_id ASC, ad_id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load user metrics: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"ads":       len(ads),
		"user_rows": len(users),
	}).Info("Retrieved metrics snapshot")

	return &models.MetricsSnapshot{Ads: ads, Users: users}, nil
}
