package ranking

import (
	"sort"
	"strconv"

	"ad-ranking-system/internal/models"
)

// Dedupe keeps one ad per normalized title, the one with the higher CTR; on
// equal CTR the earlier ad wins. Untitled ads are keyed by id and never
// collide with titled ones. The survivors keep the catalog position of the
// first ad seen under their key.
func Dedupe(ads []models.Ad) []models.Ad {
	titled := make(map[string]int, len(ads))
	untitled := make(map[string]int)
	out := make([]models.Ad, 0, len(ads))

	for _, ad := range ads {
		key := ad.TitleKey()
		index := titled
		if key == "" {
			key = "id-" + strconv.FormatUint(uint64(ad.ID), 10)
			index = untitled
		}

		slot, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, ad)
			continue
		}
		if NormalizeCTR(ad.CTR) > NormalizeCTR(out[slot].CTR) {
			out[slot] = ad
		}
	}
	return out
}

// Rank dedupes, scores and orders ads, best first, and returns at most
// limit of them. Equal scores keep catalog order.
func Rank(ads []models.Ad, s Signals, limit int) []models.RankedAd {
	if limit <= 0 {
		limit = DefaultRankLimit
	}

	unique := Dedupe(ads)
	ranked := make([]models.RankedAd, 0, len(unique))
	for _, ad := range unique {
		ranked = append(ranked, models.NewRankedAd(ad, Score(ad, s)))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// IDs returns the ids of ranked ads in order.
func IDs(ranked []models.RankedAd) []uint {
	ids := make([]uint, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.ID)
	}
	return ids
}
