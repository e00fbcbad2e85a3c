// Package matcher decides which trade a journal entry most plausibly refers to.
//
// Linking runs in three stages:
//  1. Candidate retrieval: trades of the same owner whose thesis ticker is
//     mentioned by the entry and which were opened within a fixed calendar-day
//     window around the entry date, newest first and bounded in number.
//  2. Scoring: four independent weighted signals (ticker, date proximity,
//     strategy mention, trade status) summed into a score in [0, 1], with one
//     human-readable reason per signal that fired.
//  3. Ranking: a minimum-confidence filter, a stable sort by score and
//     truncation to the requested number of suggestions.
//
// Example usage:
//
//	config := matcher.DefaultLinkingConfig()
//	engine, err := matcher.NewEngine(store, config, log)
//	if err != nil {
//		return err
//	}
//	suggestions, err := engine.Suggest(ctx, ownerID, matcher.MatchInput{
//		Tickers: []string{"AAPL"},
//		Date:    entry.CreatedAt,
//		Content: entry.Content,
//	}, 5)
package matcher

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LinkingConfig holds the parameters of candidate retrieval, scoring and the
// two confidence gates. Use DefaultLinkingConfig for the standard behavior.
type LinkingConfig struct {
	// DateWindowDays is the calendar-day radius around the entry date in which
	// trades are considered candidates (inclusive on both ends).
	DateWindowDays int `json:"date_window_days" mapstructure:"date_window_days"`

	// MaxCandidates bounds the number of trades scored per entry.
	MaxCandidates int `json:"max_candidates" mapstructure:"max_candidates"`

	// SuggestionThreshold is the minimum score for a match to be surfaced for
	// manual confirmation.
	SuggestionThreshold float64 `json:"suggestion_threshold" mapstructure:"suggestion_threshold"`

	// AutoLinkThreshold is the minimum score for the bulk linker to apply a
	// link without confirmation. Must not be below SuggestionThreshold.
	AutoLinkThreshold float64 `json:"auto_link_threshold" mapstructure:"auto_link_threshold"`

	// DefaultSuggestions is used when the caller does not ask for a count.
	DefaultSuggestions int `json:"default_suggestions" mapstructure:"default_suggestions"`

	// MaxSuggestions caps whatever count the caller asks for.
	MaxSuggestions int `json:"max_suggestions" mapstructure:"max_suggestions"`

	// MaxBatchSize bounds the number of entry ids accepted by one bulk-link call.
	MaxBatchSize int `json:"max_batch_size" mapstructure:"max_batch_size"`

	// Timezone is the IANA location in which calendar days are counted.
	Timezone string `json:"timezone" mapstructure:"timezone"`

	Weights MatchingWeights `json:"weights" mapstructure:"weights"`
}

// MatchingWeights are the contribution of each signal. Ticker, DateSameDay,
// Strategy and StatusOpen are the caps of their signals and must sum to 1.0.
type MatchingWeights struct {
	Ticker       float64 `json:"ticker" mapstructure:"ticker"`
	DateSameDay  float64 `json:"date_same_day" mapstructure:"date_same_day"`
	DateOneDay   float64 `json:"date_one_day" mapstructure:"date_one_day"`
	DateInWindow float64 `json:"date_in_window" mapstructure:"date_in_window"`
	Strategy     float64 `json:"strategy" mapstructure:"strategy"`
	StatusOpen   float64 `json:"status_open" mapstructure:"status_open"`
	StatusClosed float64 `json:"status_closed" mapstructure:"status_closed"`
}

// DefaultWeights returns the standard signal weights
func DefaultWeights() MatchingWeights {
	return MatchingWeights{
		Ticker:       0.40,
		DateSameDay:  0.30,
		DateOneDay:   0.20,
		DateInWindow: 0.10,
		Strategy:     0.20,
		StatusOpen:   0.10,
		StatusClosed: 0.05,
	}
}

// DefaultLinkingConfig returns a configuration with the standard thresholds
func DefaultLinkingConfig() *LinkingConfig {
	return &LinkingConfig{
		DateWindowDays:      3,
		MaxCandidates:       20,
		SuggestionThreshold: 0.30,
		AutoLinkThreshold:   0.70,
		DefaultSuggestions:  5,
		MaxSuggestions:      10,
		MaxBatchSize:        100,
		Timezone:            "UTC",
		Weights:             DefaultWeights(),
	}
}

// ConservativeLinkingConfig keeps retrieval and weights but only auto-links
// near-certain matches
func ConservativeLinkingConfig() *LinkingConfig {
	cfg := DefaultLinkingConfig()
	cfg.SuggestionThreshold = 0.50
	cfg.AutoLinkThreshold = 0.90
	return cfg
}

// Preset looks up a named configuration ("default" or "conservative")
func Preset(name string) (*LinkingConfig, error) {
	switch name {
	case "", "default":
		return DefaultLinkingConfig(), nil
	case "conservative":
		return ConservativeLinkingConfig(), nil
	default:
		return nil, fmt.Errorf("unknown linking preset '%s'", name)
	}
}

// Validate checks if the linking configuration is valid
func (lc *LinkingConfig) Validate() error {
	if lc.DateWindowDays < 0 {
		return fmt.Errorf("date window days cannot be negative: %d", lc.DateWindowDays)
	}

	if lc.MaxCandidates <= 0 {
		return fmt.Errorf("max candidates must be positive: %d", lc.MaxCandidates)
	}

	if lc.SuggestionThreshold < 0.0 || lc.SuggestionThreshold > 1.0 {
		return fmt.Errorf("suggestion threshold must be between 0.0 and 1.0: %f", lc.SuggestionThreshold)
	}

	if lc.AutoLinkThreshold < 0.0 || lc.AutoLinkThreshold > 1.0 {
		return fmt.Errorf("auto-link threshold must be between 0.0 and 1.0: %f", lc.AutoLinkThreshold)
	}

	if lc.AutoLinkThreshold < lc.SuggestionThreshold {
		return fmt.Errorf("auto-link threshold %.2f cannot be below suggestion threshold %.2f",
			lc.AutoLinkThreshold, lc.SuggestionThreshold)
	}

	if lc.MaxSuggestions <= 0 {
		return fmt.Errorf("max suggestions must be positive: %d", lc.MaxSuggestions)
	}

	if lc.DefaultSuggestions <= 0 || lc.DefaultSuggestions > lc.MaxSuggestions {
		return fmt.Errorf("default suggestions must be between 1 and %d: %d", lc.MaxSuggestions, lc.DefaultSuggestions)
	}

	if lc.MaxBatchSize <= 0 {
		return fmt.Errorf("max batch size must be positive: %d", lc.MaxBatchSize)
	}

	if _, err := time.LoadLocation(lc.Timezone); err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", lc.Timezone, err)
	}

	if err := lc.Weights.Validate(); err != nil {
		return fmt.Errorf("invalid weights: %w", err)
	}

	return nil
}

// Validate checks if the matching weights are valid
func (mw *MatchingWeights) Validate() error {
	named := []struct {
		name  string
		value float64
	}{
		{"ticker", mw.Ticker},
		{"date same day", mw.DateSameDay},
		{"date one day", mw.DateOneDay},
		{"date in window", mw.DateInWindow},
		{"strategy", mw.Strategy},
		{"status open", mw.StatusOpen},
		{"status closed", mw.StatusClosed},
	}
	for _, w := range named {
		if w.value < 0.0 || w.value > 1.0 {
			return fmt.Errorf("%s weight must be between 0.0 and 1.0: %f", w.name, w.value)
		}
	}

	if mw.DateOneDay > mw.DateSameDay || mw.DateInWindow > mw.DateOneDay {
		return fmt.Errorf("date weights must not increase with distance: %.2f, %.2f, %.2f",
			mw.DateSameDay, mw.DateOneDay, mw.DateInWindow)
	}

	if mw.StatusClosed > mw.StatusOpen {
		return fmt.Errorf("closed status weight %.2f cannot exceed open status weight %.2f",
			mw.StatusClosed, mw.StatusOpen)
	}

	total := decimal.NewFromFloat(mw.Ticker).
		Add(decimal.NewFromFloat(mw.DateSameDay)).
		Add(decimal.NewFromFloat(mw.Strategy)).
		Add(decimal.NewFromFloat(mw.StatusOpen))
	if !total.Equal(decimal.NewFromInt(1)) {
		return fmt.Errorf("signal caps must sum to exactly 1.0, got %s", total.String())
	}

	return nil
}

// Clone creates a copy of the linking configuration
func (lc *LinkingConfig) Clone() *LinkingConfig {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

// Location returns the configured timezone, falling back to UTC
func (lc *LinkingConfig) Location() *time.Location {
	if loc, err := time.LoadLocation(lc.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

// CalendarDay truncates t to midnight of its calendar day in the configured timezone
func (lc *LinkingConfig) CalendarDay(t time.Time) time.Time {
	loc := lc.Location()
	year, month, day := t.In(loc).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

const secondsPerDay = 24 * 60 * 60

// DayDistance returns the absolute number of calendar days between a and b
func (lc *LinkingConfig) DayDistance(a, b time.Time) int {
	loc := lc.Location()
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	// Compare as UTC midnights so DST transitions don't shorten a day. Unix
	// seconds avoid the ~292 year limit of time.Duration.
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
	days := int(da - db)
	if days < 0 {
		days = -days
	}
	return days
}

// Window returns the half-open instant range [from, to) covering every
// calendar day within DateWindowDays of ref
func (lc *LinkingConfig) Window(ref time.Time) (from, to time.Time) {
	day := lc.CalendarDay(ref)
	from = day.AddDate(0, 0, -lc.DateWindowDays)
	to = day.AddDate(0, 0, lc.DateWindowDays+1)
	return from, to
}

// ClampSuggestions resolves a caller-requested suggestion count
func (lc *LinkingConfig) ClampSuggestions(requested int) int {
	if requested <= 0 {
		return lc.DefaultSuggestions
	}
	if requested > lc.MaxSuggestions {
		return lc.MaxSuggestions
	}
	return requested
}

// String returns a human-readable description of the configuration
func (lc *LinkingConfig) String() string {
	return fmt.Sprintf("LinkingConfig{Window: ±%d days, MaxCandidates: %d, Suggest: %.2f, AutoLink: %.2f, Timezone: %s}",
		lc.DateWindowDays, lc.MaxCandidates, lc.SuggestionThreshold, lc.AutoLinkThreshold, lc.Timezone)
}
