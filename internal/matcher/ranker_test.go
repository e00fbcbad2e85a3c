package matcher

import (
	"testing"

	"github.com/shopspring/decimal"

	"trade-journal-linker/internal/models"
)

func result(id, score string) MatchResult {
	return MatchResult{
		Trade: &models.Trade{ID: id},
		Score: decimal.RequireFromString(score),
	}
}

func ids(results []MatchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Trade.ID
	}
	return out
}

func TestRankResults(t *testing.T) {
	threshold := decimal.RequireFromString("0.30")

	tests := []struct {
		name     string
		input    []MatchResult
		max      int
		expected []string
	}{
		{
			name:     "orders by score descending",
			input:    []MatchResult{result("a", "0.5"), result("b", "0.9"), result("c", "0.7")},
			max:      5,
			expected: []string{"b", "c", "a"},
		},
		{
			name:     "drops results below threshold, keeps the threshold itself",
			input:    []MatchResult{result("a", "0.29"), result("b", "0.3"), result("c", "0.1")},
			max:      5,
			expected: []string{"b"},
		},
		{
			name:     "ties keep retrieval order",
			input:    []MatchResult{result("newer", "0.7"), result("older", "0.7"), result("best", "0.8")},
			max:      5,
			expected: []string{"best", "newer", "older"},
		},
		{
			name:     "truncates after sorting",
			input:    []MatchResult{result("a", "0.4"), result("b", "0.6"), result("c", "0.5")},
			max:      2,
			expected: []string{"b", "c"},
		},
		{
			name:     "non-positive max keeps everything",
			input:    []MatchResult{result("a", "0.4"), result("b", "0.6")},
			max:      0,
			expected: []string{"b", "a"},
		},
		{
			name:     "empty input",
			input:    nil,
			max:      5,
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(RankResults(tt.input, threshold, tt.max))
			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %v, got %v", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("Expected %v, got %v", tt.expected, got)
					break
				}
			}
		})
	}
}

func TestRankResults_DoesNotModifyInput(t *testing.T) {
	input := []MatchResult{result("a", "0.4"), result("b", "0.9")}
	RankResults(input, decimal.Zero, 1)

	if input[0].Trade.ID != "a" || input[1].Trade.ID != "b" {
		t.Errorf("Expected input order to be preserved, got %v", ids(input))
	}
}
