package matcher

import (
	"context"
	"time"

	"trade-journal-linker/internal/models"
	"trade-journal-linker/internal/store"
)

type fakeFinder struct {
	trades  []*models.Trade
	err     error
	calls   int
	queries []store.CandidateQuery
}

func (f *fakeFinder) FindCandidateTrades(ctx context.Context, q store.CandidateQuery) ([]*models.Trade, error) {
	f.calls++
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.trades, nil
}

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTrade(id, owner, ticker string, strategy models.Strategy, status models.TradeStatus, openedAt time.Time) *models.Trade {
	return &models.Trade{
		ID:       id,
		UserID:   owner,
		ThesisID: "th-" + id,
		Thesis: &models.Thesis{
			ID:     "th-" + id,
			UserID: owner,
			Ticker: ticker,
			Name:   ticker + " thesis",
		},
		Strategy: strategy,
		Status:   status,
		OpenedAt: openedAt,
	}
}
