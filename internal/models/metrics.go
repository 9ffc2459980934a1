package models

import "time"

// AdMetrics is the aggregate view of one ad's counters, read from the ads
// table.
type AdMetrics struct {
	AdID        uint       `json:"ad_id"`
	Impressions int64      `json:"impressions"`
	Clicks      int64      `json:"clicks"`
	Dislikes    int64      `json:"dislikes"`
	CTR         float64    `json:"ctr"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

// CTRPercent is clicks over impressions as a percent, 0 without impressions.
func (m AdMetrics) CTRPercent() float64 {
	if m.Impressions <= 0 {
		return 0
	}
	return float64(m.Clicks) / float64(m.Impressions) * 100
}

type UserAdMetrics struct {
	ID          uint      `json:"-" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"not null;uniqueIndex:idx_user_ad"`
	AdID        uint      `json:"ad_id" gorm:"not null;uniqueIndex:idx_user_ad;index"`
	Impressions int64     `json:"impressions" gorm:"not null;default:0"`
	Clicks      int64     `json:"clicks" gorm:"not null;default:0"`
	Dislikes    int64     `json:"dislikes" gorm:"not null;default:0"`
	LastUpdated time.Time `json:"last_updated"`
}

func (UserAdMetrics) TableName() string {
	return "user_ad_metrics"
}

type MetricsSnapshot struct {
	Ads   []AdMetrics     `json:"ads"`
	Users []UserAdMetrics `json:"users_metrics"`
}

// Recommendation is one entry of a page-context recommendation. CTR is a
// percent rounded to two decimals.
type Recommendation struct {
	AdID           uint    `json:"ad_id"`
	Title          string  `json:"title"`
	ImageURL       string  `json:"image_url"`
	TargetPage     string  `json:"target_page"`
	Category       string  `json:"category"`
	Details        string  `json:"details"`
	Score          float64 `json:"score"`
	CTR            float64 `json:"ctr"`
	GlobalDislikes int64   `json:"global_dislikes"`
	UserDislikes   int64   `json:"user_dislikes"`
}
