package matcher

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"trade-journal-linker/internal/models"
)

// LinkSuggestion is a scored candidate surfaced to the caller. It is built
// fresh per call and never mutated afterwards.
type LinkSuggestion struct {
	TradeID     string          `json:"tradeId"`
	ThesisID    string          `json:"thesisId"`
	ThesisName  string          `json:"thesisName"`
	Ticker      string          `json:"ticker"`
	OpenedAt    time.Time       `json:"openedAt"`
	Strategy    models.Strategy `json:"strategy,omitempty"`
	Status      string          `json:"status"`
	Description string          `json:"description,omitempty"`
	Breakdown   MatchBreakdown  `json:"breakdown"`
	Score       decimal.Decimal `json:"score"`
	Reasons     []string        `json:"reasons"`
}

// NewLinkSuggestion flattens a scored result into its outward shape
func NewLinkSuggestion(r MatchResult) LinkSuggestion {
	s := LinkSuggestion{
		TradeID:     r.Trade.ID,
		ThesisID:    r.Trade.ThesisID,
		Ticker:      r.Trade.Ticker(),
		OpenedAt:    r.Trade.OpenedAt,
		Strategy:    r.Trade.Strategy,
		Status:      string(r.Trade.Status),
		Description: r.Trade.Description,
		Breakdown:   r.Breakdown,
		Score:       r.Score,
		Reasons:     make([]string, len(r.Reasons)),
	}
	copy(s.Reasons, r.Reasons)
	if r.Trade.Thesis != nil {
		s.ThesisName = r.Trade.Thesis.Name
	}
	return s
}

// MarshalJSON implements custom JSON marshaling for LinkSuggestion
func (s LinkSuggestion) MarshalJSON() ([]byte, error) {
	type Alias LinkSuggestion
	return json.Marshal(&struct {
		Score    float64 `json:"score"`
		OpenedAt string  `json:"openedAt"`
		Alias
	}{
		Score:    s.Score.InexactFloat64(),
		OpenedAt: s.OpenedAt.Format(time.RFC3339),
		Alias:    Alias(s),
	})
}
