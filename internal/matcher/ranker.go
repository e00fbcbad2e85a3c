package matcher

import (
	"sort"

	"github.com/shopspring/decimal"
)

// RankResults drops results scoring below minScore, orders the rest by score
// descending and keeps at most max of them. The sort is stable, so equal
// scores keep their retrieval order. max <= 0 keeps everything.
func RankResults(results []MatchResult, minScore decimal.Decimal, max int) []MatchResult {
	ranked := make([]MatchResult, 0, len(results))
	for _, r := range results {
		if r.Score.LessThan(minScore) {
			continue
		}
		ranked = append(ranked, r)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score.GreaterThan(ranked[j].Score)
	})

	if max > 0 && len(ranked) > max {
		ranked = ranked[:max]
	}
	return ranked
}
