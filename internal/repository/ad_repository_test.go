package repository

import (
	"context"
	"testing"

	"ad-ranking-system/internal/models"
	"ad-ranking-system/internal/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdRepository_ListAndGet(t *testing.T) {
	db := testutil.DB(t)
	repo := NewAdRepository(db)
	ctx := context.Background()

	testutil.SeedAds(t, db,
		models.Ad{ID: 2, Title: "B", Category: "sports"},
		models.Ad{ID: 1, Title: "A", Category: "food"},
	)

	ads, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, ads, 2)
	assert.Equal(t, uint(1), ads[0].ID)
	assert.Equal(t, uint(2), ads[1].ID)

	ad, err := repo.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "sports", ad.Category)

	_, err = repo.Get(ctx, 99)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAdRepository_CategoriesOfSkipsMissing(t *testing.T) {
	db := testutil.DB(t)
	repo := NewAdRepository(db)

	testutil.SeedAds(t, db,
		models.Ad{ID: 1, Title: "A", Category: "sports"},
		models.Ad{ID: 2, Title: "B", Category: "sports"},
		models.Ad{ID: 3, Title: "C", Category: ""},
		models.Ad{ID: 4, Title: "D", Category: "travel"},
	)

	cats, err := repo.CategoriesOf(context.Background(), []uint{1, 2, 3, 4, 42})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sports", "travel"}, cats)
}

func TestAdRepository_PublishToggleDelete(t *testing.T) {
	db := testutil.DB(t)
	repo := NewAdRepository(db)
	ctx := context.Background()

	ad, err := repo.Create(ctx, "alice", models.PublishRequest{
		Title:        "  Bikes  ",
		ImageURL:     "/static/users/alice/ad_1.png",
		DurationDays: -3,
	})
	require.NoError(t, err)
	assert.Equal(t, "Bikes", ad.Title)
	assert.True(t, ad.IsActive)
	assert.Zero(t, ad.CTR)
	require.NotNil(t, ad.StartDate)
	require.NotNil(t, ad.EndDate)
	assert.Equal(t, 1, int(ad.EndDate.Sub(*ad.StartDate).Hours()/24))

	_, err = repo.Create(ctx, "alice", models.PublishRequest{Title: "", ImageURL: "x"})
	assert.ErrorIs(t, err, models.ErrInvalidAd)

	active, err := repo.ToggleActive(ctx, ad.ID, "bob")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.False(t, active)

	active, err = repo.ToggleActive(ctx, ad.ID, "alice")
	require.NoError(t, err)
	assert.False(t, active)

	active, err = repo.ToggleActive(ctx, ad.ID, "alice")
	require.NoError(t, err)
	assert.True(t, active)

	mine, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	assert.ErrorIs(t, repo.DeleteOwned(ctx, ad.ID, "bob"), models.ErrNotFound)
	require.NoError(t, repo.DeleteOwned(ctx, ad.ID, "alice"))
	assert.ErrorIs(t, repo.DeleteOwned(ctx, ad.ID, "alice"), models.ErrNotFound)
}

func TestAdRepository_BackfillLinks(t *testing.T) {
	db := testutil.DB(t)
	repo := NewAdRepository(db)
	ctx := context.Background()

	testutil.SeedAds(t, db,
		models.Ad{ID: 1, Title: " Running Shoes "},
		models.Ad{ID: 2, Title: "Coffee", Link: "https://keep.example"},
		models.Ad{ID: 3, Title: ""},
	)

	n, err := repo.BackfillLinks(ctx, map[string]string{
		"running shoes": "https://shoes.example",
		"coffee":        "https://coffee.example",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ad, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "https://shoes.example", ad.Link)

	ad, err = repo.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "https://keep.example", ad.Link)
}

func TestAdRepository_InsertMixedIDs(t *testing.T) {
	db := testutil.DB(t)
	repo := NewAdRepository(db)
	ctx := context.Background()

	ads := []models.Ad{
		{Title: "no id first"},
		{ID: 5, Title: "five"},
		{Title: "no id second"},
		{ID: 2, Title: "two"},
	}
	require.NoError(t, repo.Insert(ctx, ads))

	assert.Equal(t, uint(5), ads[1].ID)
	assert.Equal(t, uint(2), ads[3].ID)
	assert.Greater(t, ads[0].ID, uint(5))
	assert.Greater(t, ads[2].ID, uint(5))
	assert.NotEqual(t, ads[0].ID, ads[2].ID)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}
