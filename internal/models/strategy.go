package models

import (
	"fmt"
	"strings"
)

// Strategy is the closed classification of a trade's structure
type Strategy string

const (
	StrategyNone           Strategy = ""
	StrategyLongCall       Strategy = "LONG_CALL"
	StrategyLongPut        Strategy = "LONG_PUT"
	StrategyShortCall      Strategy = "SHORT_CALL"
	StrategyShortPut       Strategy = "SHORT_PUT"
	StrategyCallSpread     Strategy = "CALL_SPREAD"
	StrategyPutSpread      Strategy = "PUT_SPREAD"
	StrategyIronCondor     Strategy = "IRON_CONDOR"
	StrategyIronButterfly  Strategy = "IRON_BUTTERFLY"
	StrategyStraddle       Strategy = "STRADDLE"
	StrategyStrangle       Strategy = "STRANGLE"
	StrategyCoveredCall    Strategy = "COVERED_CALL"
	StrategyCashSecuredPut Strategy = "CASH_SECURED_PUT"
	StrategyCalendar       Strategy = "CALENDAR"
	StrategyDiagonal       Strategy = "DIAGONAL"
	StrategyStock          Strategy = "STOCK"
	StrategyCustom         Strategy = "CUSTOM"
)

// AllStrategies lists every named classification in declaration order
var AllStrategies = []Strategy{
	StrategyLongCall,
	StrategyLongPut,
	StrategyShortCall,
	StrategyShortPut,
	StrategyCallSpread,
	StrategyPutSpread,
	StrategyIronCondor,
	StrategyIronButterfly,
	StrategyStraddle,
	StrategyStrangle,
	StrategyCoveredCall,
	StrategyCashSecuredPut,
	StrategyCalendar,
	StrategyDiagonal,
	StrategyStock,
	StrategyCustom,
}

// strategyKeywords holds lower-case phrases whose presence in an entry's
// content counts as a mention of the strategy. STOCK and CUSTOM have none.
var strategyKeywords = map[Strategy][]string{
	StrategyLongCall:       {"long call", "bought call", "bought a call", "buying calls"},
	StrategyLongPut:        {"long put", "bought put", "bought a put", "buying puts"},
	StrategyShortCall:      {"short call", "sold call", "sold a call", "naked call"},
	StrategyShortPut:       {"short put", "sold put", "sold a put", "naked put"},
	StrategyCallSpread:     {"call spread", "bull call", "bear call", "call debit spread", "call credit spread"},
	StrategyPutSpread:      {"put spread", "bull put", "bear put", "put debit spread", "put credit spread"},
	StrategyIronCondor:     {"iron condor", "condor"},
	StrategyIronButterfly:  {"iron butterfly", "iron fly", "butterfly"},
	StrategyStraddle:       {"straddle"},
	StrategyStrangle:       {"strangle"},
	StrategyCoveredCall:    {"covered call", "buy-write", "buy write"},
	StrategyCashSecuredPut: {"cash secured put", "cash-secured put", "csp"},
	StrategyCalendar:       {"calendar", "time spread"},
	StrategyDiagonal:       {"diagonal"},
}

// String returns the string representation of Strategy
func (s Strategy) String() string {
	return string(s)
}

// IsValid reports whether s is one of the known classifications or none
func (s Strategy) IsValid() bool {
	if s == StrategyNone {
		return true
	}
	for _, known := range AllStrategies {
		if s == known {
			return true
		}
	}
	return false
}

// Keywords returns the mention phrases for s. The result must not be modified.
func (s Strategy) Keywords() []string {
	return strategyKeywords[s]
}

// MentionedIn reports whether any keyword of s occurs in content, ignoring case.
func (s Strategy) MentionedIn(content string) bool {
	keywords := strategyKeywords[s]
	if len(keywords) == 0 || strings.TrimSpace(content) == "" {
		return false
	}
	lower := strings.ToLower(content)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ParseStrategy accepts names like "iron condor", "Iron-Condor" or "IRON_CONDOR"
func ParseStrategy(s string) (Strategy, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return StrategyNone, nil
	}
	normalized := strings.ToUpper(strings.NewReplacer(" ", "_", "-", "_").Replace(s))
	candidate := Strategy(normalized)
	if !candidate.IsValid() {
		return StrategyNone, fmt.Errorf("invalid strategy '%s'", s)
	}
	return candidate, nil
}

// TradeStatus is the lifecycle state of a trade
type TradeStatus string

const (
	TradeStatusOpen     TradeStatus = "OPEN"
	TradeStatusClosed   TradeStatus = "CLOSED"
	TradeStatusExpired  TradeStatus = "EXPIRED"
	TradeStatusAssigned TradeStatus = "ASSIGNED"
)

// IsValid checks if the trade status is one of the known values
func (t TradeStatus) IsValid() bool {
	switch t {
	case TradeStatusOpen, TradeStatusClosed, TradeStatusExpired, TradeStatusAssigned:
		return true
	}
	return false
}

// ParseTradeStatus parses and validates a trade status from string
func ParseTradeStatus(s string) (TradeStatus, error) {
	status := TradeStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid trade status '%s': must be OPEN, CLOSED, EXPIRED or ASSIGNED", s)
	}
	return status, nil
}

// Direction is the stance a thesis takes on its ticker
type Direction string

const (
	DirectionBullish  Direction = "BULLISH"
	DirectionBearish  Direction = "BEARISH"
	DirectionNeutral  Direction = "NEUTRAL"
	DirectionVolatile Direction = "VOLATILE"
)

// IsValid checks if the direction is one of the known values
func (d Direction) IsValid() bool {
	switch d {
	case DirectionBullish, DirectionBearish, DirectionNeutral, DirectionVolatile:
		return true
	}
	return false
}
