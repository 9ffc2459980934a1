package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"ad-ranking-system/internal/models"
	"ad-ranking-system/internal/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngagement_RequiresSession(t *testing.T) {
	f := newFixture(t)
	svc := f.engagement("")
	ctx := context.Background()
	testutil.SeedAd(t, f.db, models.Ad{ID: 1, Title: "A"})

	_, err := svc.Like(ctx, "", 1)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = svc.Dislike(ctx, "", 1)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = svc.Publish(ctx, "", models.PublishRequest{Title: "T", ImageURL: "/i.png"})
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = svc.MyAds(ctx, "")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = svc.Toggle(ctx, "", 1)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.ErrorIs(t, svc.Delete(ctx, "", 1), models.ErrUnauthorized)
}

func TestEngagement_UnknownAd(t *testing.T) {
	f := newFixture(t)
	svc := f.engagement("")
	ctx := context.Background()

	_, err := svc.Like(ctx, "alice", 404)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = svc.Dislike(ctx, "alice", 404)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, svc.Click(ctx, "", 404), models.ErrNotFound)
}

func TestEngagement_LikeThenDislikeMovesAd(t *testing.T) {
	f := newFixture(t)
	svc := f.engagement("")
	ctx := context.Background()
	testutil.SeedAd(t, f.db, models.Ad{ID: 1, Title: "A", CTR: 0.5})

	prefs, err := svc.Like(ctx, "alice", 1)
	require.NoError(t, err)
	assert.True(t, prefs.HasLike(1))

	prefs, err = svc.Like(ctx, "alice", 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, prefs.Likes)

	prefs, err = svc.Dislike(ctx, "alice", 1)
	require.NoError(t, err)
	assert.False(t, prefs.HasLike(1))
	assert.True(t, prefs.HasDislike(1))

	assert.Len(t, f.events.ofType(models.EventLike), 2)
	assert.Len(t, f.events.ofType(models.EventDislike), 1)
}

func TestEngagement_DislikeAppliesPenaltyAndCounters(t *testing.T) {
	f := newFixture(t)
	svc := f.engagement("")
	ctx := context.Background()
	testutil.SeedAd(t, f.db, models.Ad{ID: 1, Title: "A", CTR: 0.3})

	_, err := svc.Dislike(ctx, "alice", 1)
	require.NoError(t, err)

	ad := f.ad(t, 1)
	assert.Equal(t, 0.0, ad.CTR)
	assert.Equal(t, int64(1), ad.Dislikes)

	mine, err := f.counters.ForUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), mine[1].Dislikes)
}

func TestEngagement_AnonymousClick(t *testing.T) {
	f := newFixture(t)
	svc := f.engagement("")
	ctx := context.Background()
	testutil.SeedAd(t, f.db, models.Ad{ID: 1, Title: "A", Impressions: 4})

	require.NoError(t, svc.Click(ctx, "", 1))

	ad := f.ad(t, 1)
	assert.Equal(t, int64(1), ad.Clicks)
	assert.InDelta(t, 0.25, ad.CTR, 1e-9)

	snap, err := f.counters.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Users)

	clicks := f.events.ofType(models.EventClick)
	require.Len(t, clicks, 1)
	assert.Empty(t, clicks[0].UserID)
}

func TestEngagement_OwnerLifecycle(t *testing.T) {
	f := newFixture(t)
	export := filepath.Join(t.TempDir(), "ad_inventory.csv")
	svc := f.engagement(export)
	ctx := context.Background()

	ad, err := svc.Publish(ctx, "alice", models.PublishRequest{
		Title:    "Garage Sale",
		Category: "home",
		ImageURL: "/uploads/alice/sale.png",
	})
	require.NoError(t, err)
	require.NotNil(t, ad.Owner)
	assert.Equal(t, "alice", *ad.Owner)
	assert.Zero(t, ad.Clicks)
	assert.True(t, ad.IsActive)

	data, err := os.ReadFile(export)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Garage Sale")

	require.NoError(t, f.db.Model(&models.Ad{}).Where("id = ?", ad.ID).Update("ctr", 0.1234).Error)
	mine, err := svc.MyAds(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.InDelta(t, 12.34, mine[0].CTR, 1e-9)

	_, err = svc.Toggle(ctx, "mallory", ad.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	active, err := svc.Toggle(ctx, "alice", ad.ID)
	require.NoError(t, err)
	assert.False(t, active)
	active, err = svc.Toggle(ctx, "alice", ad.ID)
	require.NoError(t, err)
	assert.True(t, active)

	assert.ErrorIs(t, svc.Delete(ctx, "mallory", ad.ID), models.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, "alice", ad.ID))
	_, err = f.ads.Get(ctx, ad.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestEngagement_PublishValidates(t *testing.T) {
	f := newFixture(t)
	_, err := f.engagement("").Publish(context.Background(), "alice", models.PublishRequest{Title: "  "})
	assert.ErrorIs(t, err, models.ErrInvalidAd)
}
