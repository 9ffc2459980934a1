package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferences_LikeThenDislike(t *testing.T) {
	p := EmptyPreferences()
	assert.True(t, p.Like(7))
	assert.False(t, p.Like(7), "second like is a no-op")
	assert.True(t, p.Dislike(7))

	assert.False(t, p.HasLike(7))
	assert.True(t, p.HasDislike(7))
}

func TestPreferences_AlwaysDisjoint(t *testing.T) {
	p := EmptyPreferences()
	ops := []struct {
		like bool
		id   uint
	}{
		{true, 1}, {true, 2}, {false, 1}, {false, 3}, {true, 3}, {true, 1}, {false, 2}, {false, 2},
	}
	for _, op := range ops {
		if op.like {
			p.Like(op.id)
		} else {
			p.Dislike(op.id)
		}
		for _, id := range p.Likes {
			assert.False(t, p.HasDislike(id), "id %d in both sets", id)
		}
	}
	assert.ElementsMatch(t, []uint{3, 1}, p.Likes)
	assert.ElementsMatch(t, []uint{2}, p.Dislikes)
}

func TestParsePreferences(t *testing.T) {
	p, err := ParsePreferences("")
	require.NoError(t, err)
	assert.Empty(t, p.Likes)

	p, err = ParsePreferences(`{"likes":[1,2,2],"dislikes":[2,5]}`)
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, p.Likes)
	assert.Equal(t, []uint{2, 5}, p.Dislikes)

	p, err = ParsePreferences(`{"likes": [1,`)
	assert.True(t, errors.Is(err, ErrMalformedPreferences))
	assert.Empty(t, p.Likes)
	assert.Empty(t, p.Dislikes)
}

func TestPreferences_EncodeRoundTrip(t *testing.T) {
	p := EmptyPreferences()
	p.Like(4)
	p.Dislike(9)

	doc, err := p.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"likes":[4],"dislikes":[9]}`, doc)
}
