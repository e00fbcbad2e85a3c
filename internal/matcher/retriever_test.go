package matcher

import (
	"context"
	"errors"
	"testing"
	_ "time/tzdata"

	"trade-journal-linker/internal/models"
	"trade-journal-linker/pkg/logger"
)

func TestRetriever_EmptyTickersSkipsStore(t *testing.T) {
	finder := &fakeFinder{}
	r := NewRetriever(finder, DefaultLinkingConfig(), logger.Nop())

	for _, input := range [][]string{nil, {}, {"", "  ", "$"}} {
		got, err := r.Candidates(context.Background(), "u", MatchInput{Tickers: input, Date: mustTime("2025-03-14T12:00:00Z")})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Expected no candidates for %v, got %d", input, len(got))
		}
	}
	if finder.calls != 0 {
		t.Errorf("Expected no store calls, got %d", finder.calls)
	}
}

func TestRetriever_QueryShape(t *testing.T) {
	finder := &fakeFinder{}
	config := DefaultLinkingConfig()
	r := NewRetriever(finder, config, logger.Nop())

	_, err := r.Candidates(context.Background(), "u", MatchInput{
		Tickers: []string{"$aapl", "AAPL", "msft"},
		Date:    mustTime("2025-03-14T20:00:00Z"),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if finder.calls != 1 {
		t.Fatalf("Expected 1 store call, got %d", finder.calls)
	}

	q := finder.queries[0]
	if q.OwnerID != "u" {
		t.Errorf("Expected owner u, got %s", q.OwnerID)
	}
	if len(q.Tickers) != 2 || q.Tickers[0] != "AAPL" || q.Tickers[1] != "MSFT" {
		t.Errorf("Expected [AAPL MSFT], got %v", q.Tickers)
	}
	if !q.OpenedFrom.Equal(mustTime("2025-03-11T00:00:00Z")) {
		t.Errorf("Expected window start 2025-03-11, got %s", q.OpenedFrom)
	}
	if !q.OpenedTo.Equal(mustTime("2025-03-18T00:00:00Z")) {
		t.Errorf("Expected window end 2025-03-18, got %s", q.OpenedTo)
	}
	if q.Limit != config.MaxCandidates {
		t.Errorf("Expected limit %d, got %d", config.MaxCandidates, q.Limit)
	}
}

func TestRetriever_FiltersStoreResults(t *testing.T) {
	noThesis := newTrade("no-thesis", "u", "AAPL", models.StrategyStock, models.TradeStatusOpen, mustTime("2025-03-14T10:00:00Z"))
	noThesis.Thesis = nil

	finder := &fakeFinder{trades: []*models.Trade{
		newTrade("in-window-late", "u", "AAPL", models.StrategyStock, models.TradeStatusOpen, mustTime("2025-03-17T23:59:59Z")),
		newTrade("in-window", "u", "AAPL", models.StrategyStock, models.TradeStatusOpen, mustTime("2025-03-14T10:00:00Z")),
		noThesis,
		nil,
		newTrade("foreign", "someone-else", "AAPL", models.StrategyStock, models.TradeStatusOpen, mustTime("2025-03-14T10:00:00Z")),
		newTrade("other-ticker", "u", "TSLA", models.StrategyStock, models.TradeStatusOpen, mustTime("2025-03-14T10:00:00Z")),
		newTrade("three-days", "u", "AAPL", models.StrategyStock, models.TradeStatusOpen, mustTime("2025-03-11T00:00:00Z")),
		newTrade("four-days", "u", "AAPL", models.StrategyStock, models.TradeStatusOpen, mustTime("2025-03-10T23:59:59Z")),
		newTrade("four-days-after", "u", "AAPL", models.StrategyStock, models.TradeStatusOpen, mustTime("2025-03-18T00:00:00Z")),
	}}
	r := NewRetriever(finder, DefaultLinkingConfig(), logger.Nop())

	got, err := r.Candidates(context.Background(), "u", MatchInput{
		Tickers: []string{"AAPL"},
		Date:    mustTime("2025-03-14T20:00:00Z"),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := []string{"in-window-late", "in-window", "three-days"}
	if len(got) != len(expected) {
		t.Fatalf("Expected %d candidates, got %d", len(expected), len(got))
	}
	for i, id := range expected {
		if got[i].ID != id {
			t.Errorf("Expected candidate %d to be %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestRetriever_RespectsMaxCandidates(t *testing.T) {
	var trades []*models.Trade
	for i := 0; i < 30; i++ {
		trades = append(trades, newTrade("t", "u", "AAPL", models.StrategyStock, models.TradeStatusOpen, mustTime("2025-03-14T10:00:00Z")))
	}
	r := NewRetriever(&fakeFinder{trades: trades}, DefaultLinkingConfig(), logger.Nop())

	got, err := r.Candidates(context.Background(), "u", MatchInput{Tickers: []string{"AAPL"}, Date: mustTime("2025-03-14T12:00:00Z")})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(got) != 20 {
		t.Errorf("Expected 20 candidates, got %d", len(got))
	}
}

func TestRetriever_TimezoneShiftsWindow(t *testing.T) {
	config := DefaultLinkingConfig()
	config.Timezone = "America/New_York"
	finder := &fakeFinder{}
	r := NewRetriever(finder, config, logger.Nop())

	// 02:00 UTC on the 15th is still the 14th in New York.
	_, err := r.Candidates(context.Background(), "u", MatchInput{Tickers: []string{"AAPL"}, Date: mustTime("2025-03-15T02:00:00Z")})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	q := finder.queries[0]
	if !q.OpenedFrom.Equal(mustTime("2025-03-11T04:00:00Z")) {
		t.Errorf("Expected window start at New York midnight of the 11th, got %s", q.OpenedFrom.UTC())
	}
}

func TestRetriever_PropagatesStoreError(t *testing.T) {
	boom := errors.New("connection reset")
	r := NewRetriever(&fakeFinder{err: boom}, DefaultLinkingConfig(), logger.Nop())

	_, err := r.Candidates(context.Background(), "u", MatchInput{Tickers: []string{"AAPL"}, Date: mustTime("2025-03-14T12:00:00Z")})
	if !errors.Is(err, boom) {
		t.Errorf("Expected store error, got %v", err)
	}
}
