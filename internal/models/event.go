package models

import "time"

type EventType string

const (
	EventImpression EventType = "impression"
	EventClick      EventType = "click"
	EventDislike    EventType = "dislike"
	EventLike       EventType = "like"
)

// EngagementEvent is one user interaction with an ad as written to the
// event log. UserID is empty for anonymous clicks.
type EngagementEvent struct {
	Type       EventType `json:"type"`
	AdID       uint      `json:"ad_id"`
	UserID     string    `json:"user_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEvent(t EventType, adID uint, userID string) EngagementEvent {
	return EngagementEvent{Type: t, AdID: adID, UserID: userID, OccurredAt: time.Now().UTC()}
}
