package memory

import (
	"sort"
	"time"

	"trade-journal-linker/internal/models"
	"trade-journal-linker/internal/tickers"
)

// TradeIndex keeps trades grouped by owner and thesis ticker, each group
// sorted newest-opened first, so candidate lookups never scan unrelated trades.
type TradeIndex struct {
	// TickerIndex maps owner + ticker to trades sorted by OpenedAt descending
	TickerIndex map[indexKey][]*models.Trade

	// DateIndex maps calendar dates (YYYY-MM-DD, UTC) to trades opened that day
	DateIndex map[string][]*models.Trade

	// AllTrades holds all indexed trades in insertion order
	AllTrades []*models.Trade
}

type indexKey struct {
	owner  string
	ticker string
}

// NewTradeIndex creates a new index from a slice of trades with theses loaded
func NewTradeIndex(trades []*models.Trade) *TradeIndex {
	index := &TradeIndex{
		TickerIndex: make(map[indexKey][]*models.Trade),
		DateIndex:   make(map[string][]*models.Trade),
	}
	for _, t := range trades {
		index.Add(t)
	}
	return index
}

// Add indexes one trade
func (ti *TradeIndex) Add(t *models.Trade) {
	ti.AllTrades = append(ti.AllTrades, t)

	dateKey := t.OpenedAt.UTC().Format("2006-01-02")
	ti.DateIndex[dateKey] = append(ti.DateIndex[dateKey], t)

	key := indexKey{owner: t.UserID, ticker: t.Ticker()}
	group := append(ti.TickerIndex[key], t)
	sort.SliceStable(group, func(i, j int) bool {
		return group[i].OpenedAt.After(group[j].OpenedAt)
	})
	ti.TickerIndex[key] = group
}

// GetByDate returns trades opened on the given UTC calendar date
func (ti *TradeIndex) GetByDate(date time.Time) []*models.Trade {
	return ti.DateIndex[date.UTC().Format("2006-01-02")]
}

// GetCandidates returns the owner's trades on any of the tickers opened in
// [from, to), newest first, at most limit of them (limit <= 0 means no limit)
func (ti *TradeIndex) GetCandidates(owner string, symbols []string, from, to time.Time, limit int) []*models.Trade {
	var candidates []*models.Trade
	for _, symbol := range tickers.NormalizeAll(symbols) {
		for _, t := range ti.TickerIndex[indexKey{owner: owner, ticker: symbol}] {
			if t.OpenedAt.Before(from) || !t.OpenedAt.Before(to) {
				continue
			}
			candidates = append(candidates, t)
		}
	}

	// Groups are each sorted; merge them into one newest-first list.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].OpenedAt.After(candidates[j].OpenedAt)
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// GetIndexStats returns statistics about the trade index
func (ti *TradeIndex) GetIndexStats() IndexStats {
	owners := make(map[string]struct{})
	symbols := make(map[string]struct{})
	for key := range ti.TickerIndex {
		owners[key.owner] = struct{}{}
		symbols[key.ticker] = struct{}{}
	}
	return IndexStats{
		TotalTrades:   len(ti.AllTrades),
		UniqueOwners:  len(owners),
		UniqueTickers: len(symbols),
		UniqueDates:   len(ti.DateIndex),
	}
}

// IndexStats provides statistics about index contents
type IndexStats struct {
	TotalTrades   int `json:"total_trades"`
	UniqueOwners  int `json:"unique_owners"`
	UniqueTickers int `json:"unique_tickers"`
	UniqueDates   int `json:"unique_dates"`
}
