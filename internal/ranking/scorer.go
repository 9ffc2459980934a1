// Package ranking scores and orders ads. Everything here is pure: callers
// load the catalog and user signals and pass them in.
package ranking

import (
	"hash/fnv"
	"math"
	"math/rand"
	"strconv"

	"ad-ranking-system/internal/models"
)

const (
	LikeBoost         = 15.0
	DislikePenalty    = 15.0
	CategoryLikeBoost = 7.0
	CategoryDislike   = 7.0
	JitterAmplitude   = 3.0
	DefaultRankLimit  = 10
	ctrScale          = 100.0
)

// Signals is everything about the requester that affects a score.
type Signals struct {
	Authenticated      bool
	SessionSeed        int64
	Prefs              models.Preferences
	LikedCategories    map[string]bool
	DislikedCategories map[string]bool
}

// NewSignals builds the signals of an authenticated requester from their
// preferences and the categories of the ads they liked and disliked.
func NewSignals(seed int64, prefs models.Preferences, liked, disliked []string) Signals {
	return Signals{
		Authenticated:      true,
		SessionSeed:        seed,
		Prefs:              prefs,
		LikedCategories:    toSet(liked),
		DislikedCategories: toSet(disliked),
	}
}

// NormalizeCTR clamps a stored CTR to a fraction in [0,1]. NaN counts as 0.
func NormalizeCTR(ctr float64) float64 {
	if math.IsNaN(ctr) || ctr < 0 {
		return 0
	}
	if ctr > 1 {
		return 1
	}
	return ctr
}

// Score rates one ad for a requester. Anonymous requesters get the CTR term
// only. The result is not clamped.
func Score(ad models.Ad, s Signals) float64 {
	score := NormalizeCTR(ad.CTR) * ctrScale
	if !s.Authenticated {
		return score
	}

	if s.Prefs.HasLike(ad.ID) {
		score += LikeBoost
	}
	if s.Prefs.HasDislike(ad.ID) {
		score -= DislikePenalty
	}
	if ad.Category != "" && s.LikedCategories[ad.Category] {
		score += CategoryLikeBoost
	}
	if ad.Category != "" && s.DislikedCategories[ad.Category] {
		score -= CategoryDislike
	}
	return score + Jitter(s.SessionSeed, ad.ID)
}

// Jitter is a value in [-3, 3] fixed for a (session seed, ad) pair, so the
// order is stable within a session and reshuffled by a new login.
func Jitter(seed int64, adID uint) float64 {
	h := fnv.New64a()
	h.Write([]byte(strconv.FormatInt(seed, 10)))
	h.Write([]byte{':'})
	h.Write([]byte(strconv.FormatUint(uint64(adID), 10)))

	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	return -JitterAmplitude + 2*JitterAmplitude*rng.Float64()
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v != "" {
			set[v] = true
		}
	}
	return set
}
