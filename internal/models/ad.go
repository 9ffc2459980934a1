package models

import (
	"strings"
	"time"
)

// Ad is a catalog entry. Clicks, Impressions and Dislikes are the aggregate
// counters; per-user counters live in UserAdMetrics. CTR is a fraction in
// [0,1] and is recomputed from Clicks/Impressions on every click.
type Ad struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title" gorm:"not null;default:''"`
	Category    string     `json:"category" gorm:"not null;default:'';index"`
	Keywords    string     `json:"keywords" gorm:"not null;default:''"`
	TargetPage  string     `json:"target_page" gorm:"not null;default:''"`
	ImageURL    string     `json:"image_url" gorm:"not null;default:''"`
	Details     string     `json:"details" gorm:"not null;default:''"`
	Link        string     `json:"link" gorm:"not null;default:''"`
	Clicks      int64      `json:"clicks" gorm:"not null;default:0"`
	Impressions int64      `json:"impressions" gorm:"not null;default:0"`
	Dislikes    int64      `json:"dislikes" gorm:"not null;default:0"`
	CTR         float64    `json:"ctr" gorm:"column:ctr;not null;default:0"`
	Owner       *string    `json:"owner,omitempty" gorm:"index"`
	IsActive    bool       `json:"is_active" gorm:"not null;default:true"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TitleKey is the dedupe key: the lower-cased trimmed title, or empty when
// the ad has no title.
func (a Ad) TitleKey() string {
	return strings.ToLower(strings.TrimSpace(a.Title))
}

func (a Ad) OwnedBy(user string) bool {
	return a.Owner != nil && user != "" && *a.Owner == user
}

// RankedAd is one entry of a ranking response.
type RankedAd struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	Category    string  `json:"category"`
	Keywords    string  `json:"keywords"`
	TargetPage  string  `json:"target_page"`
	ImageURL    string  `json:"image_url"`
	CTR         float64 `json:"ctr"`
	Clicks      int64   `json:"clicks"`
	Impressions int64   `json:"impressions"`
	Details     string  `json:"details"`
	Link        string  `json:"link"`
	Score       float64 `json:"score"`
}

func NewRankedAd(ad Ad, score float64) RankedAd {
	details := ad.Details
	if details == "" {
		details = "No details available."
	}
	return RankedAd{
		ID:          ad.ID,
		Title:       ad.Title,
		Category:    ad.Category,
		Keywords:    ad.Keywords,
		TargetPage:  ad.TargetPage,
		ImageURL:    ad.ImageURL,
		CTR:         ad.CTR,
		Clicks:      ad.Clicks,
		Impressions: ad.Impressions,
		Details:     details,
		Link:        ad.Link,
		Score:       score,
	}
}

// PublishRequest is the body of a user-published ad.
type PublishRequest struct {
	Title        string `json:"title" binding:"required"`
	Category     string `json:"category"`
	Keywords     string `json:"keywords"`
	ImageURL     string `json:"image_url" binding:"required"`
	Link         string `json:"link"`
	Details      string `json:"details"`
	DurationDays int    `json:"duration_days"`
}

// OwnedAd is the publisher's view of one of their ads. CTR is a percent.
type OwnedAd struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	ImageURL    string     `json:"image_url"`
	Clicks      int64      `json:"clicks"`
	Impressions int64      `json:"impressions"`
	CTR         float64    `json:"ctr"`
	IsActive    bool       `json:"is_active"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
