// Package events defines the engagement event log seam.
package events

import (
	"context"

	"ad-ranking-system/internal/models"
)

// Publisher appends engagement events to the event log.
type Publisher interface {
	Publish(ctx context.Context, events ...models.EngagementEvent) error
}
