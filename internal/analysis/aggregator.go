package analysis

import (
	"sort"

	"github.com/alexk/chessinsight/internal/models"
)

// maxCommonMistakes caps the pattern list in aggregate stats.
const maxCommonMistakes = 20

// Aggregate folds a set of game reports into batch-level statistics. The
// result depends only on the multiset of reports, never on their order, so
// workers may finish in any interleaving.
func Aggregate(reports []models.GameReport) models.AggregateStats {
	stats := models.AggregateStats{
		ByColor:      make(map[models.Color]models.CategoryCounts),
		ByPhase:      make(map[models.Phase]models.CategoryCounts),
		ByColorPhase: make(map[models.Color]map[models.Phase]models.CategoryCounts),
	}
	patterns := make(map[string]*models.MistakePattern)

	for _, r := range reports {
		if r.Status == models.StatusDone || r.Status == models.StatusPartial {
			stats.Games++
		}
		stats.Unanalyzable += len(r.Unanalyzable)

		for _, c := range r.Classifications {
			stats.PliesClassified++
			bump(stats.ByColor, c.Color, c.Category)
			bump(stats.ByPhase, c.Phase, c.Category)
			if stats.ByColorPhase[c.Color] == nil {
				stats.ByColorPhase[c.Color] = make(map[models.Phase]models.CategoryCounts)
			}
			bump(stats.ByColorPhase[c.Color], c.Phase, c.Category)

			if c.Category == models.CategoryOK {
				continue
			}
			p, ok := patterns[c.Signature]
			if !ok {
				p = &models.MistakePattern{Signature: c.Signature, SAN: c.SAN, Worst: c.Category}
				patterns[c.Signature] = p
			}
			p.Count++
			if c.Category.Severity() > p.Worst.Severity() {
				p.Worst = c.Category
			}
			if r.PlayedAt.After(p.LastSeen) {
				p.LastSeen = r.PlayedAt
			}
		}
	}

	stats.CommonMistakes = rankPatterns(patterns)
	return stats
}

func bump[K comparable](m map[K]models.CategoryCounts, key K, cat models.Category) {
	if m[key] == nil {
		m[key] = make(models.CategoryCounts)
	}
	m[key][cat]++
}

// rankPatterns orders patterns by frequency, then recency, then signature.
// The final key makes the ordering total, which keeps the result stable
// across report orderings.
func rankPatterns(patterns map[string]*models.MistakePattern) []models.MistakePattern {
	ranked := make([]models.MistakePattern, 0, len(patterns))
	for _, p := range patterns {
		ranked = append(ranked, *p)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		if !ranked[i].LastSeen.Equal(ranked[j].LastSeen) {
			return ranked[i].LastSeen.After(ranked[j].LastSeen)
		}
		return ranked[i].Signature < ranked[j].Signature
	})
	if len(ranked) > maxCommonMistakes {
		ranked = ranked[:maxCommonMistakes]
	}
	return ranked
}
