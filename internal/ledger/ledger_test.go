package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ad-ranking-system/internal/logger"
	"ad-ranking-system/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_AppliesEvents(t *testing.T) {
	dir := t.TempDir()
	l := New(dir, logger.Discard())
	ctx := context.Background()
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, l.Publish(ctx,
		models.EngagementEvent{Type: models.EventImpression, AdID: 2, UserID: "alice", OccurredAt: at},
		models.EngagementEvent{Type: models.EventImpression, AdID: 1, UserID: "alice", OccurredAt: at},
		models.EngagementEvent{Type: models.EventClick, AdID: 2, UserID: "alice", OccurredAt: at.Add(time.Minute)},
		models.EngagementEvent{Type: models.EventDislike, AdID: 1, UserID: "bob", OccurredAt: at},
		models.EngagementEvent{Type: models.EventLike, AdID: 1, UserID: "alice", OccurredAt: at},
		models.EngagementEvent{Type: models.EventClick, AdID: 3, OccurredAt: at},
	))
	require.NoError(t, l.Publish(ctx,
		models.EngagementEvent{Type: models.EventImpression, AdID: 2, UserID: "alice", OccurredAt: at},
	))

	rows, err := l.Rows("alice")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{AdID: 1, Impressions: 1, LastUpdated: at}, rows[0])
	assert.Equal(t, Row{AdID: 2, Impressions: 2, Clicks: 1, LastUpdated: at.Add(time.Minute)}, rows[1])

	rows, err = l.Rows("bob")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].Dislikes)

	users, err := l.Users()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, users)

	raw, err := os.ReadFile(filepath.Join(dir, "alice", "ads.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "ad_id,impressions,clicks,dislikes,last_updated\n")
}

func TestLedger_RejectsPathTraversal(t *testing.T) {
	l := New(t.TempDir(), logger.Discard())

	require.NoError(t, l.Publish(context.Background(), models.EngagementEvent{Type: models.EventClick, AdID: 1, UserID: "../evil"}))
	users, err := l.Users()
	require.NoError(t, err)
	assert.Empty(t, users)

	_, err = l.Rows("..")
	assert.ErrorIs(t, err, ErrInvalidUser)
}

func TestLedger_MixedBatchSkipsBadUserWithoutReplay(t *testing.T) {
	l := New(t.TempDir(), logger.Discard())
	ctx := context.Background()
	batch := []models.EngagementEvent{
		models.NewEvent(models.EventImpression, 1, "alice"),
		models.NewEvent(models.EventImpression, 1, "a/b"),
	}

	require.NoError(t, l.Publish(ctx, batch...))

	rows, err := l.Rows("alice")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].Impressions)
}

func TestLedger_WriteFailureForOneUserDoesNotFailBatch(t *testing.T) {
	dir := t.TempDir()
	// a file where bob's ledger directory should be makes his write fail
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bob"), []byte("x"), 0o644))
	l := New(dir, logger.Discard())
	ctx := context.Background()

	require.NoError(t, l.Publish(ctx,
		models.NewEvent(models.EventClick, 1, "alice"),
		models.NewEvent(models.EventClick, 1, "bob"),
	))
	rows, err := l.Rows("alice")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].Clicks)

	err = l.Publish(ctx, models.NewEvent(models.EventClick, 1, "bob"))
	assert.Error(t, err)
}

func TestLedger_ToleratesBadRows(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "carol"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "carol", "ads.csv"),
		[]byte("ad_id,impressions,clicks,dislikes,last_updated\nx,1,1,1,\n4,2,oops,1,\n"), 0o644))

	l := New(dir, logger.Discard())
	rows, err := l.Rows("carol")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Row{AdID: 4, Impressions: 2, Dislikes: 1}, rows[0])
}

func TestLedger_NoUsersYet(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "missing"), logger.Discard())
	users, err := l.Users()
	require.NoError(t, err)
	assert.Empty(t, users)
}
