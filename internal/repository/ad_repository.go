package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ad-ranking-system/internal/models"

	"gorm.io/gorm"
)

type AdRepository struct {
	db *gorm.DB
}

func NewAdRepository(db *gorm.DB) *AdRepository {
	return &AdRepository{db: db}
}

// List returns the full catalog in id order.
func (r *AdRepository) List(ctx context.Context) ([]models.Ad, error) {
	var ads []models.Ad
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&ads).Error; err != nil {
		return nil, fmt.Errorf("failed to list ads: %w", err)
	}
	return ads, nil
}

func (r *AdRepository) ListActive(ctx context.Context) ([]models.Ad, error) {
	var ads []models.Ad
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&ads).Error; err != nil {
		return nil, fmt.Errorf("failed to list active ads: %w", err)
	}
	return ads, nil
}

func (r *AdRepository) Get(ctx context.Context, id uint) (*models.Ad, error) {
	var ad models.Ad
	err := r.db.WithContext(ctx).First(&ad, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ad %d: %w", id, err)
	}
	return &ad, nil
}

func (r *AdRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Ad{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check ad %d: %w", id, err)
	}
	return count > 0, nil
}

func (r *AdRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Ad{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count ads: %w", err)
	}
	return count, nil
}

// CategoriesOf returns the distinct non-empty categories of the given ads.
// Ids with no matching ad are skipped.
func (r *AdRepository) CategoriesOf(ctx context.Context, ids []uint) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var categories []string
	err := r.db.WithContext(ctx).Model(&models.Ad{}).
		Where("id IN ? AND category <> ''", ids).
		Distinct("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return categories, nil
}

// Create stores a user-published ad. Counters start at zero and the ad runs
// for max(1, durationDays) days from now.
func (r *AdRepository) Create(ctx context.Context, owner string, req models.PublishRequest) (*models.Ad, error) {
	title := strings.TrimSpace(req.Title)
	image := strings.TrimSpace(req.ImageURL)
	if owner == "" || title == "" || image == "" {
		return nil, fmt.Errorf("%w: title and image are required", models.ErrInvalidAd)
	}

	days := req.DurationDays
	if days == 0 {
		days = 7
	}
	if days < 1 {
		days = 1
	}
	start := time.Now().UTC()
	end := start.AddDate(0, 0, days)

	ad := models.Ad{
		Title:     title,
		Category:  strings.TrimSpace(req.Category),
		Keywords:  strings.TrimSpace(req.Keywords),
		ImageURL:  image,
		Details:   strings.TrimSpace(req.Details),
		Link:      strings.TrimSpace(req.Link),
		Owner:     &owner,
		IsActive:  true,
		StartDate: &start,
		EndDate:   &end,
	}
	if err := r.db.WithContext(ctx).Create(&ad).Error; err != nil {
		return nil, fmt.Errorf("failed to create ad: %w", err)
	}
	return &ad, nil
}

// ListByOwner returns the owner's ads, newest first.
func (r *AdRepository) ListByOwner(ctx context.Context, owner string) ([]models.Ad, error) {
	var ads []models.Ad
	if err := r.db.WithContext(ctx).Where("owner = ?", owner).Order("id DESC").Find(&ads).Error; err != nil {
		return nil, fmt.Errorf("failed to list ads for %s: %w", owner, err)
	}
	return ads, nil
}

// ToggleActive flips is_active on an owned ad and returns the new state.
func (r *AdRepository) ToggleActive(ctx context.Context, id uint, owner string) (bool, error) {
	var active bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ad, err := ownedAd(tx, id, owner)
		if err != nil {
			return err
		}
		active = !ad.IsActive
		return tx.Model(&models.Ad{}).Where("id = ?", id).Update("is_active", active).Error
	})
	if err != nil {
		return false, err
	}
	return active, nil
}

func (r *AdRepository) DeleteOwned(ctx context.Context, id uint, owner string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedAd(tx, id, owner); err != nil {
			return err
		}
		if err := tx.Where("ad_id = ?", id).Delete(&models.UserAdMetrics{}).Error; err != nil {
			return fmt.Errorf("failed to delete metrics for ad %d: %w", id, err)
		}
		return tx.Delete(&models.Ad{}, id).Error
	})
}

// BackfillLinks fills empty links from byTitle, keyed by lower-cased trimmed
// title. It returns the number of ads updated.
func (r *AdRepository) BackfillLinks(ctx context.Context, byTitle map[string]string) (int, error) {
	if len(byTitle) == 0 {
		return 0, nil
	}
	var ads []models.Ad
	if err := r.db.WithContext(ctx).Where("link = '' OR link IS NULL").Find(&ads).Error; err != nil {
		return 0, fmt.Errorf("failed to load ads without link: %w", err)
	}

	updated := 0
	for _, ad := range ads {
		key := ad.TitleKey()
		if key == "" {
			continue
		}
		link := strings.TrimSpace(byTitle[key])
		if link == "" {
			continue
		}
		if err := r.db.WithContext(ctx).Model(&models.Ad{}).Where("id = ?", ad.ID).Update("link", link).Error; err != nil {
			return updated, fmt.Errorf("failed to backfill link for ad %d: %w", ad.ID, err)
		}
		updated++
	}
	return updated, nil
}

// Insert stores catalog rows as-is, keeping explicit ids. Rows without an
// id get one from the store. Explicit ids go in first and, on postgres, the
// serial sequence is moved past them before the id-less rows are inserted,
// otherwise those would be handed ids that are already taken.
func (r *AdRepository) Insert(ctx context.Context, ads []models.Ad) error {
	if len(ads) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range ads {
			if ads[i].ID == 0 {
				continue
			}
			if err := tx.Create(&ads[i]).Error; err != nil {
				return fmt.Errorf("failed to insert catalog row %d: %w", i+1, err)
			}
		}
		if err := resetAdSequence(tx); err != nil {
			return err
		}
		for i := range ads {
			if ads[i].ID != 0 {
				continue
			}
			if err := tx.Create(&ads[i]).Error; err != nil {
				return fmt.Errorf("failed to insert catalog row %d: %w", i+1, err)
			}
		}
		return nil
	})
}

// resetAdSequence moves the postgres serial past the highest id. sqlite
// assigns max(id)+1 on its own.
func resetAdSequence(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	err := tx.Exec("SELECT setval(pg_get_serial_sequence('ads', 'id'), (SELECT COALESCE(MAX(id), 1) FROM ads))").Error
	if err != nil {
		return fmt.Errorf("failed to reset ads sequence: %w", err)
	}
	return nil
}

func ownedAd(tx *gorm.DB, id uint, owner string) (*models.Ad, error) {
	var ad models.Ad
	err := tx.First(&ad, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ad %d: %w", id, err)
	}
	if !ad.OwnedBy(owner) {
		return nil, models.ErrNotFound
	}
	return &ad, nil
}
