package ranking

import (
	"math"
	"sort"
	"strings"

	"ad-ranking-system/internal/models"
)

const (
	PageMatchBoost        = 2.0
	CategoryMatchBoost    = 1.0
	InterestMatchBoost    = 0.5
	GlobalDislikeWeight   = 0.5
	UserDislikeWeight     = 2.0
	UserDislikeCutoff     = 2
	DefaultRecommendLimit = 5
)

// PageContext describes where the requester is and what they said they are
// interested in.
type PageContext struct {
	CurrentPage string
	Interests   string
}

func (p PageContext) path() string {
	path, _, _ := strings.Cut(p.CurrentPage, "?")
	return strings.TrimSpace(path)
}

// section is the first non-empty path segment, e.g. "sports" for
// "/sports/football?x=1". The leading slash is skipped so a page path never
// reduces to an empty section that every category would contain.
func (p PageContext) section() string {
	for _, seg := range strings.Split(p.path(), "/") {
		if seg = strings.TrimSpace(seg); seg != "" {
			return seg
		}
	}
	return ""
}

func (p PageContext) interests() []string {
	var out []string
	for _, tok := range strings.Split(p.Interests, ",") {
		if tok = strings.ToLower(strings.TrimSpace(tok)); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// ContextScore rates how well an ad fits the page and interests, before
// engagement is taken into account. Matching is case-insensitive.
func ContextScore(ad models.Ad, p PageContext) float64 {
	score := 0.0
	target := strings.ToLower(ad.TargetPage)
	category := strings.ToLower(ad.Category)

	if path := strings.ToLower(p.path()); path != "" && target != "" && strings.Contains(target, path) {
		score += PageMatchBoost
	}
	if section := strings.ToLower(p.section()); section != "" && category != "" && strings.Contains(category, section) {
		score += CategoryMatchBoost
	}
	keywords := strings.ToLower(ad.Keywords)
	for _, tok := range p.interests() {
		if strings.Contains(keywords, tok) {
			score += InterestMatchBoost
		}
	}
	return score
}

// Recommend scores ads against a page context and the engagement counters,
// drops ads the user disliked UserDislikeCutoff or more times, and returns
// the best limit of them.
func Recommend(ads []models.Ad, global map[uint]models.AdMetrics, user map[uint]models.UserAdMetrics, p PageContext, limit int) []models.Recommendation {
	if limit <= 0 {
		limit = DefaultRecommendLimit
	}

	out := make([]models.Recommendation, 0, len(ads))
	for _, ad := range ads {
		um := user[ad.ID]
		if um.Dislikes >= UserDislikeCutoff {
			continue
		}
		gm, ok := global[ad.ID]
		if !ok {
			gm = models.AdMetrics{AdID: ad.ID, Impressions: ad.Impressions, Clicks: ad.Clicks, Dislikes: ad.Dislikes}
		}

		ctr := gm.CTRPercent()
		penalty := float64(gm.Dislikes)*GlobalDislikeWeight + float64(um.Dislikes)*UserDislikeWeight
		out = append(out, models.Recommendation{
			AdID:           ad.ID,
			Title:          ad.Title,
			ImageURL:       ad.ImageURL,
			TargetPage:     ad.TargetPage,
			Category:       ad.Category,
			Details:        ad.Details,
			Score:          ContextScore(ad, p) + ctr/10 - penalty,
			CTR:            math.Round(ctr*100) / 100,
			GlobalDislikes: gm.Dislikes,
			UserDislikes:   um.Dislikes,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
