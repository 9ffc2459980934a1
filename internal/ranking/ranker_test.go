package ranking

import (
	"fmt"
	"sort"
	"testing"

	"ad-ranking-system/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupe_KeepsHigherCTR(t *testing.T) {
	ads := []models.Ad{
		{ID: 1, Title: "X", CTR: 0.10, Clicks: 1, Impressions: 10},
		{ID: 2, Title: "x", CTR: 0.20, Clicks: 2, Impressions: 10},
	}

	out := Dedupe(ads)
	require.Len(t, out, 1)
	assert.Equal(t, uint(2), out[0].ID)

	ranked := Rank(ads, Signals{}, 10)
	require.Len(t, ranked, 1)
	assert.Equal(t, uint(2), ranked[0].ID)
}

func TestDedupe_NormalizesWhitespaceAndCase(t *testing.T) {
	out := Dedupe([]models.Ad{
		{ID: 1, Title: "  Summer Sale ", CTR: 0.3},
		{ID: 2, Title: "summer sale", CTR: 0.1},
		{ID: 3, Title: "SUMMER SALE", CTR: 0.3},
	})
	require.Len(t, out, 1)
	assert.Equal(t, uint(1), out[0].ID, "equal CTR keeps the first")
}

func TestDedupe_UntitledNeverCollide(t *testing.T) {
	out := Dedupe([]models.Ad{
		{ID: 1, Title: ""},
		{ID: 2, Title: "   "},
		{ID: 3, Title: "id-1"},
		{ID: 4, Title: "id-2"},
	})
	assert.Len(t, out, 4)
}

func TestDedupe_SurvivorTakesFirstSlot(t *testing.T) {
	out := Dedupe([]models.Ad{
		{ID: 1, Title: "a", CTR: 0.1},
		{ID: 2, Title: "b", CTR: 0.1},
		{ID: 3, Title: "A", CTR: 0.9},
	})
	require.Len(t, out, 2)
	assert.Equal(t, uint(3), out[0].ID)
	assert.Equal(t, uint(2), out[1].ID)
}

func TestRank_TruncatesAndSortsDescending(t *testing.T) {
	var ads []models.Ad
	for i := 1; i <= 25; i++ {
		ads = append(ads, models.Ad{
			ID:       uint(i),
			Title:    fmt.Sprintf("ad %d", i),
			Category: []string{"sports", "food", "travel"}[i%3],
			CTR:      float64((i*37)%100) / 100,
		})
	}
	prefs := models.EmptyPreferences()
	prefs.Like(3)
	prefs.Dislike(7)

	for _, s := range []Signals{{}, NewSignals(5, prefs, []string{"sports"}, []string{"food"})} {
		ranked := Rank(ads, s, 10)
		require.Len(t, ranked, 10)
		assert.True(t, sort.SliceIsSorted(ranked, func(i, j int) bool {
			return ranked[i].Score > ranked[j].Score
		}))
	}
}

func TestRank_TiesKeepCatalogOrder(t *testing.T) {
	ads := []models.Ad{
		{ID: 9, Title: "c", CTR: 0.5},
		{ID: 4, Title: "a", CTR: 0.5},
		{ID: 6, Title: "b", CTR: 0.5},
	}
	ranked := Rank(ads, Signals{}, 10)
	assert.Equal(t, []uint{9, 4, 6}, IDs(ranked))
}

func TestRank_AnonymousScoreIsCTRTimes100(t *testing.T) {
	ranked := Rank([]models.Ad{{ID: 1, Title: "a", CTR: 0.25}}, Signals{}, 10)
	require.Len(t, ranked, 1)
	assert.Equal(t, 25.0, ranked[0].Score)
	assert.Equal(t, "No details available.", ranked[0].Details)
}

func TestRank_SessionSeedChangesOrderButIsStable(t *testing.T) {
	var ads []models.Ad
	for i := 1; i <= 10; i++ {
		ads = append(ads, models.Ad{ID: uint(i), Title: fmt.Sprintf("t%d", i), CTR: 0.1})
	}
	a := IDs(Rank(ads, NewSignals(1, models.EmptyPreferences(), nil, nil), 10))
	b := IDs(Rank(ads, NewSignals(1, models.EmptyPreferences(), nil, nil), 10))
	assert.Equal(t, a, b)

	changed := false
	for seed := int64(2); seed < 10 && !changed; seed++ {
		c := IDs(Rank(ads, NewSignals(seed, models.EmptyPreferences(), nil, nil), 10))
		changed = fmt.Sprint(c) != fmt.Sprint(a)
	}
	assert.True(t, changed)
}

func TestRank_DefaultLimit(t *testing.T) {
	var ads []models.Ad
	for i := 1; i <= 12; i++ {
		ads = append(ads, models.Ad{ID: uint(i), Title: fmt.Sprint(i)})
	}
	assert.Len(t, Rank(ads, Signals{}, 0), DefaultRankLimit)
	assert.Len(t, Rank(nil, Signals{}, 10), 0)
}
