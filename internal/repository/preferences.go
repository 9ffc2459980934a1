package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ad-ranking-system/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PreferencesRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewPreferencesRepository(db *gorm.DB, logger *logrus.Logger) *PreferencesRepository {
	return &PreferencesRepository{db: db, logger: logger}
}

// Init creates an empty preference document for a new user. Existing
// documents are left alone.
func (r *PreferencesRepository) Init(ctx context.Context, userID string) error {
	return ensurePreferences(r.db.WithContext(ctx), userID)
}

// Load returns the user's preferences. A missing document is empty; a
// corrupt one is logged and treated as empty.
func (r *PreferencesRepository) Load(ctx context.Context, userID string) (models.Preferences, error) {
	var row models.UserPreferences
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&row).Error
	if err != nil {
		return models.EmptyPreferences(), fmt.Errorf("failed to load preferences for %s: %w", userID, err)
	}
	return r.parse(userID, row.Document), nil
}

func (r *PreferencesRepository) Like(ctx context.Context, userID string, adID uint) (models.Preferences, error) {
	return r.update(ctx, userID, func(p *models.Preferences) bool { return p.Like(adID) })
}

func (r *PreferencesRepository) Dislike(ctx context.Context, userID string, adID uint) (models.Preferences, error) {
	return r.update(ctx, userID, func(p *models.Preferences) bool { return p.Dislike(adID) })
}

// update runs a read-modify-write of the document inside one transaction.
// On postgres the row is locked for the duration; sqlite serializes writers.
func (r *PreferencesRepository) update(ctx context.Context, userID string, mutate func(*models.Preferences) bool) (models.Preferences, error) {
	if userID == "" {
		return models.EmptyPreferences(), models.ErrUnauthorized
	}

	var out models.Preferences
	err := withRetry(ctx, func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := ensurePreferences(tx, userID); err != nil {
				return err
			}

			q := tx.Where("user_id = ?", userID)
			if tx.Dialector.Name() == "postgres" {
				q = q.Clauses(clause.Locking{Strength: "UPDATE"})
			}
			var row models.UserPreferences
			if err := q.First(&row).Error; err != nil {
				return fmt.Errorf("failed to read preferences for %s: %w", userID, err)
			}

			prefs := r.parse(userID, row.Document)
			if !mutate(&prefs) && row.Document != "" {
				out = prefs
				return nil
			}
			doc, err := prefs.Encode()
			if err != nil {
				return fmt.Errorf("failed to encode preferences: %w", err)
			}
			err = tx.Model(&models.UserPreferences{}).
				Where("id = ?", row.ID).
				Updates(map[string]interface{}{"document": doc, "updated_at": time.Now().UTC()}).Error
			if err != nil {
				return fmt.Errorf("failed to save preferences for %s: %w", userID, err)
			}
			out = prefs
			return nil
		})
	})
	if err != nil {
		return models.EmptyPreferences(), err
	}
	return out, nil
}

func (r *PreferencesRepository) parse(userID, doc string) models.Preferences {
	prefs, err := models.ParsePreferences(doc)
	if errors.Is(err, models.ErrMalformedPreferences) {
		r.logger.WithError(err).WithField("user_id", userID).Warn("Resetting malformed preferences")
	}
	return prefs
}

func ensurePreferences(tx *gorm.DB, userID string) error {
	row := models.UserPreferences{
		UserID:    userID,
		Document:  `{"likes":[],"dislikes":[]}`,
		UpdatedAt: time.Now().UTC(),
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to init preferences for %s: %w", userID, err)
	}
	return nil
}
