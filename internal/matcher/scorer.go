package matcher

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"trade-journal-linker/internal/models"
	"trade-journal-linker/internal/tickers"
)

// Reason strings attached to a MatchResult, one per signal that fired.
const (
	ReasonTickerMatch      = "Exact ticker match"
	ReasonSameDay          = "Same day"
	ReasonOneDayApart      = "1 day apart"
	ReasonStrategyMention  = "Strategy mentioned"
	ReasonTradeStillOpen   = "Trade still open"
	ReasonTradeClosed      = "Trade closed"
	reasonWithinWindowTmpl = "Within %d days"
)

// MatchInput is the entry side of a match: what the entry mentions and when
// it was written. Content is optional.
type MatchInput struct {
	Tickers []string  `json:"tickers"`
	Date    time.Time `json:"date"`
	Content string    `json:"content,omitempty"`
}

// MatchBreakdown holds the contribution of each signal. Score is always the
// exact sum of the four fields.
type MatchBreakdown struct {
	Ticker   decimal.Decimal
	Date     decimal.Decimal
	Strategy decimal.Decimal
	Status   decimal.Decimal
}

// Total returns the sum of all contributions
func (b MatchBreakdown) Total() decimal.Decimal {
	return b.Ticker.Add(b.Date).Add(b.Strategy).Add(b.Status)
}

// MarshalJSON emits the contributions as JSON numbers
func (b MatchBreakdown) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Ticker   float64 `json:"ticker"`
		Date     float64 `json:"date"`
		Strategy float64 `json:"strategy"`
		Status   float64 `json:"status"`
	}{
		Ticker:   b.Ticker.InexactFloat64(),
		Date:     b.Date.InexactFloat64(),
		Strategy: b.Strategy.InexactFloat64(),
		Status:   b.Status.InexactFloat64(),
	})
}

// MatchResult is one scored (entry, trade) pair
type MatchResult struct {
	Trade     *models.Trade
	Score     decimal.Decimal
	Breakdown MatchBreakdown
	Reasons   []string
}

type scoringWeights struct {
	ticker       decimal.Decimal
	dateSameDay  decimal.Decimal
	dateOneDay   decimal.Decimal
	dateInWindow decimal.Decimal
	strategy     decimal.Decimal
	statusOpen   decimal.Decimal
	statusClosed decimal.Decimal
}

// Scorer computes match scores. It holds no mutable state and is safe for
// concurrent use.
type Scorer struct {
	config  *LinkingConfig
	weights scoringWeights
}

// NewScorer creates a scorer for the given configuration
func NewScorer(config *LinkingConfig) *Scorer {
	if config == nil {
		config = DefaultLinkingConfig()
	}
	w := config.Weights
	return &Scorer{
		config: config.Clone(),
		weights: scoringWeights{
			ticker:       decimal.NewFromFloat(w.Ticker),
			dateSameDay:  decimal.NewFromFloat(w.DateSameDay),
			dateOneDay:   decimal.NewFromFloat(w.DateOneDay),
			dateInWindow: decimal.NewFromFloat(w.DateInWindow),
			strategy:     decimal.NewFromFloat(w.Strategy),
			statusOpen:   decimal.NewFromFloat(w.StatusOpen),
			statusClosed: decimal.NewFromFloat(w.StatusClosed),
		},
	}
}

// Score calculates the match score between an entry input and a trade.
// The trade must have its thesis loaded.
func (s *Scorer) Score(input MatchInput, trade *models.Trade) MatchResult {
	var breakdown MatchBreakdown
	reasons := make([]string, 0, 4)

	breakdown.Ticker = s.tickerScore(input, trade)
	if breakdown.Ticker.IsPositive() {
		reasons = append(reasons, ReasonTickerMatch)
	}

	var dateReason string
	breakdown.Date, dateReason = s.dateScore(input.Date, trade.OpenedAt)
	if breakdown.Date.IsPositive() {
		reasons = append(reasons, dateReason)
	}

	breakdown.Strategy = s.strategyScore(input.Content, trade.Strategy)
	if breakdown.Strategy.IsPositive() {
		reasons = append(reasons, ReasonStrategyMention)
	}

	var statusReason string
	breakdown.Status, statusReason = s.statusScore(trade.Status)
	if breakdown.Status.IsPositive() {
		reasons = append(reasons, statusReason)
	}

	return MatchResult{
		Trade:     trade,
		Score:     breakdown.Total(),
		Breakdown: breakdown,
		Reasons:   reasons,
	}
}

func (s *Scorer) tickerScore(input MatchInput, trade *models.Trade) decimal.Decimal {
	ticker := trade.Ticker()
	if ticker != "" && tickers.Contains(input.Tickers, ticker) {
		return s.weights.ticker
	}
	return decimal.Zero
}

func (s *Scorer) dateScore(entryDate, openedAt time.Time) (decimal.Decimal, string) {
	days := s.config.DayDistance(entryDate, openedAt)
	switch {
	case days == 0:
		return s.weights.dateSameDay, ReasonSameDay
	case days == 1:
		return s.weights.dateOneDay, ReasonOneDayApart
	case days <= s.config.DateWindowDays:
		return s.weights.dateInWindow, fmt.Sprintf(reasonWithinWindowTmpl, s.config.DateWindowDays)
	default:
		return decimal.Zero, ""
	}
}

func (s *Scorer) strategyScore(content string, strategy models.Strategy) decimal.Decimal {
	if strategy.MentionedIn(content) {
		return s.weights.strategy
	}
	return decimal.Zero
}

func (s *Scorer) statusScore(status models.TradeStatus) (decimal.Decimal, string) {
	switch status {
	case models.TradeStatusOpen:
		return s.weights.statusOpen, ReasonTradeStillOpen
	case models.TradeStatusClosed:
		return s.weights.statusClosed, ReasonTradeClosed
	default:
		return decimal.Zero, ""
	}
}
