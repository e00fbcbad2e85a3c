// Package tickers normalizes ticker symbols and provides prefix search over
// a curated list of commonly traded symbols.
package tickers

import "strings"

// DefaultSearchLimit bounds Search results when the caller passes no limit.
const DefaultSearchLimit = 10

// Common is the autocomplete list, in display order.
var Common = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "META", "NVDA", "JPM", "V", "JNJ",
	"WMT", "PG", "UNH", "DIS", "MA", "HD", "BAC", "NFLX", "ADBE", "XOM",
	"SPY", "QQQ", "DIA", "IWM", "VTI", "VOO", "GLD", "SLV", "TLT", "VXX",
	"AMD", "INTC", "PYPL", "CRM", "ORCL", "CSCO", "PEP", "KO", "NKE", "MCD",
	"BA", "GS", "MS", "C", "WFC", "T", "VZ", "CVX", "LLY", "ABBV", "TSLL", "OKLO",
	"EOSE", "UEC", "EEM",
}

// Normalize trims whitespace and a leading cashtag "$" and upper-cases s.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeAll normalizes every symbol, dropping empties and duplicates while
// keeping first-seen order.
func NormalizeAll(symbols []string) []string {
	if len(symbols) == 0 {
		return nil
	}
	out := make([]string, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		n := Normalize(s)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Contains reports whether symbol equals one of symbols, ignoring case.
func Contains(symbols []string, symbol string) bool {
	target := Normalize(symbol)
	if target == "" {
		return false
	}
	for _, s := range symbols {
		if Normalize(s) == target {
			return true
		}
	}
	return false
}

// Search returns symbols from Common that start with query. An empty query
// yields an empty result; limit <= 0 means DefaultSearchLimit.
func Search(query string, limit int) []string {
	q := Normalize(query)
	if q == "" {
		return []string{}
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	matches := make([]string, 0, limit)
	for _, t := range Common {
		if strings.HasPrefix(t, q) {
			matches = append(matches, t)
			if len(matches) == limit {
				break
			}
		}
	}
	return matches
}
