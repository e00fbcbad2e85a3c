package linker

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"trade-journal-linker/internal/matcher"
	"trade-journal-linker/internal/models"
	"trade-journal-linker/internal/store"
	"trade-journal-linker/internal/store/memory"
	apperrors "trade-journal-linker/pkg/errors"
	"trade-journal-linker/pkg/logger"
)

var entryDay = time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC)

// faultyStore wraps a real store and injects failures per entry id.
type faultyStore struct {
	store.Store
	getEntryErr map[string]error
	panicOn     map[string]bool
	loseRace    map[string]bool
	linkErr     error
}

func (f *faultyStore) GetEntry(ctx context.Context, ownerID, entryID string) (*models.JournalEntry, error) {
	if f.panicOn[entryID] {
		panic("corrupt row")
	}
	if err := f.getEntryErr[entryID]; err != nil {
		return nil, err
	}
	return f.Store.GetEntry(ctx, ownerID, entryID)
}

func (f *faultyStore) LinkEntry(ctx context.Context, ownerID, entryID, tradeID string) (bool, error) {
	if f.linkErr != nil {
		return false, f.linkErr
	}
	if f.loseRace[entryID] {
		return false, nil
	}
	return f.Store.LinkEntry(ctx, ownerID, entryID, tradeID)
}

func seedStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.New()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("Failed to seed store: %v", err)
		}
	}

	must(s.AddThesis(&models.Thesis{ID: "th-aapl", UserID: "u1", Ticker: "AAPL", Name: "AAPL range"}))
	must(s.AddThesis(&models.Thesis{ID: "th-nvda", UserID: "u1", Ticker: "NVDA", Name: "NVDA earnings"}))
	must(s.AddThesis(&models.Thesis{ID: "th-other", UserID: "u2", Ticker: "AAPL", Name: "someone else"}))

	// 0.40 ticker + 0.20 one day + 0.20 strategy + 0.05 closed = 0.85
	must(s.AddTrade(&models.Trade{
		ID: "tr-ic", UserID: "u1", ThesisID: "th-aapl", Strategy: models.StrategyIronCondor,
		Status: models.TradeStatusClosed, OpenedAt: entryDay.AddDate(0, 0, -1),
	}))
	// 0.40 ticker + 0.10 window + 0.05 closed = 0.55
	must(s.AddTrade(&models.Trade{
		ID: "tr-nvda", UserID: "u1", ThesisID: "th-nvda", Strategy: models.StrategyStock,
		Status: models.TradeStatusClosed, OpenedAt: entryDay.AddDate(0, 0, -3),
	}))
	must(s.AddTrade(&models.Trade{
		ID: "tr-other", UserID: "u2", ThesisID: "th-other", Strategy: models.StrategyIronCondor,
		Status: models.TradeStatusOpen, OpenedAt: entryDay,
	}))

	must(s.AddEntry(models.NewJournalEntry("e-match", "u1", "Took the AAPL iron condor off", entryDay, "AAPL")))
	must(s.AddEntry(models.NewJournalEntry("e-none", "u1", "Markets were quiet", entryDay)))
	linked := models.NewJournalEntry("e-linked", "u1", "AAPL condor opened", entryDay, "AAPL")
	tradeID := "tr-ic"
	linked.TradeID = &tradeID
	must(s.AddEntry(linked))
	must(s.AddEntry(models.NewJournalEntry("e-weak", "u1", "NVDA shares sold", entryDay, "NVDA")))
	must(s.AddEntry(models.NewJournalEntry("e-foreign", "u2", "my AAPL condor", entryDay, "AAPL")))
	return s
}

func newLinker(t *testing.T, st store.Store) *Linker {
	t.Helper()
	engine, err := matcher.NewEngine(st, nil, logger.Nop())
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	l, err := New(st, engine, logger.Nop())
	if err != nil {
		t.Fatalf("Failed to create linker: %v", err)
	}
	return l
}

func TestBulkLink_BatchScenario(t *testing.T) {
	s := seedStore(t)
	l := newLinker(t, s)

	result := l.BulkLink(context.Background(), "u1", []string{"e-linked", "e-none", "e-match"}, "")

	if result.Linked != 1 {
		t.Errorf("Expected 1 linked, got %d", result.Linked)
	}
	if result.Skipped != 2 {
		t.Errorf("Expected 2 skipped, got %d", result.Skipped)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Expected no errors, got %v", result.Errors)
	}

	expected := []EntryOutcome{
		Skipped("e-linked", SkipAlreadyLinked),
		Skipped("e-none", SkipNoTickers),
	}
	for i, e := range expected {
		if result.Outcomes[i].Kind != e.Kind || result.Outcomes[i].Reason != e.Reason {
			t.Errorf("Expected outcome %d to be %s/%s, got %s/%s", i, e.Kind, e.Reason, result.Outcomes[i].Kind, result.Outcomes[i].Reason)
		}
	}
	last := result.Outcomes[2]
	if last.Kind != OutcomeLinked || last.TradeID != "tr-ic" || *last.Score != 0.85 {
		t.Errorf("Expected e-match linked to tr-ic at 0.85, got %+v", last)
	}

	entry, _ := s.GetEntry(context.Background(), "u1", "e-match")
	if !entry.IsLinked() || *entry.TradeID != "tr-ic" {
		t.Error("Expected e-match to be linked in the store")
	}
}

func TestBulkLink_SecondPassIsIdempotent(t *testing.T) {
	s := seedStore(t)
	l := newLinker(t, s)
	batch := []string{"e-match", "e-weak", "e-none"}

	first := l.BulkLink(context.Background(), "u1", batch, "")
	second := l.BulkLink(context.Background(), "u1", batch, "")

	if first.Linked != 1 {
		t.Fatalf("Expected first pass to link 1, got %d", first.Linked)
	}
	if second.Linked != 0 || second.Skipped != 3 || len(second.Errors) != 0 {
		t.Errorf("Expected second pass to skip everything, got linked=%d skipped=%d errors=%d",
			second.Linked, second.Skipped, len(second.Errors))
	}
	if second.Outcomes[0].Reason != SkipAlreadyLinked {
		t.Errorf("Expected e-match to be skipped as already linked, got %s", second.Outcomes[0].Reason)
	}
}

func TestBulkLink_BelowAutoLinkThresholdIsSkipped(t *testing.T) {
	l := newLinker(t, seedStore(t))

	result := l.BulkLink(context.Background(), "u1", []string{"e-weak"}, "")
	if result.Skipped != 1 || result.Outcomes[0].Reason != SkipNoConfidentMatch {
		t.Errorf("Expected e-weak skipped for no confident match, got %+v", result.Outcomes[0])
	}

	suggestions, err := l.SuggestForEntry(context.Background(), "u1", "e-weak", 5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(suggestions) != 1 || suggestions[0].TradeID != "tr-nvda" {
		t.Errorf("Expected tr-nvda to still be suggested, got %v", suggestions)
	}
}

func TestBulkLink_ForeignAndMissingEntriesAreErrors(t *testing.T) {
	l := newLinker(t, seedStore(t))

	result := l.BulkLink(context.Background(), "u1", []string{"e-foreign", "nope", "e-match"}, "")

	if len(result.Errors) != 2 {
		t.Fatalf("Expected 2 errors, got %d", len(result.Errors))
	}
	for i, id := range []string{"e-foreign", "nope"} {
		if result.Errors[i].EntryID != id || result.Errors[i].Error != ErrEntryNotFound {
			t.Errorf("Expected %s to fail with %q, got %+v", id, ErrEntryNotFound, result.Errors[i])
		}
	}
	if result.Linked != 1 {
		t.Errorf("Expected processing to continue and link e-match, got %d linked", result.Linked)
	}
}

func TestBulkLink_FailuresAreIsolated(t *testing.T) {
	fs := &faultyStore{
		Store:       seedStore(t),
		getEntryErr: map[string]error{"e-none": errors.New("connection reset")},
		panicOn:     map[string]bool{"e-weak": true},
	}
	l := newLinker(t, fs)

	result := l.BulkLink(context.Background(), "u1", []string{"e-none", "e-weak", "e-match"}, "")

	if len(result.Errors) != 2 {
		t.Fatalf("Expected 2 errors, got %v", result.Errors)
	}
	if result.Errors[0].Error != "connection reset" {
		t.Errorf("Expected store error message, got %q", result.Errors[0].Error)
	}
	if result.Errors[1].Error != "panic: corrupt row" {
		t.Errorf("Expected panic message, got %q", result.Errors[1].Error)
	}
	if result.Linked != 1 {
		t.Errorf("Expected e-match to be linked after failures, got %d", result.Linked)
	}
}

func TestBulkLink_LinkWriteFailureIsRecorded(t *testing.T) {
	fs := &faultyStore{Store: seedStore(t), linkErr: errors.New("deadlock detected")}
	l := newLinker(t, fs)

	result := l.BulkLink(context.Background(), "u1", []string{"e-match"}, "")
	if len(result.Errors) != 1 || result.Errors[0].Error != "deadlock detected" {
		t.Errorf("Expected write failure recorded, got %+v", result)
	}
}

func TestBulkLink_LostRaceIsSkipped(t *testing.T) {
	fs := &faultyStore{Store: seedStore(t), loseRace: map[string]bool{"e-match": true}}
	l := newLinker(t, fs)

	result := l.BulkLink(context.Background(), "u1", []string{"e-match"}, "")
	if result.Skipped != 1 || result.Outcomes[0].Reason != SkipLinkedConcurrently {
		t.Errorf("Expected skip for concurrent link, got %+v", result.Outcomes)
	}
}

func TestBulkLink_TickerFilter(t *testing.T) {
	tests := []struct {
		name     string
		filter   string
		expected OutcomeKind
		reason   SkipReason
	}{
		{name: "matching filter", filter: "aapl", expected: OutcomeLinked},
		{name: "dollar prefixed filter", filter: "$AAPL", expected: OutcomeLinked},
		{name: "other ticker", filter: "TSLA", expected: OutcomeSkipped, reason: SkipTickerFilter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLinker(t, seedStore(t))
			result := l.BulkLink(context.Background(), "u1", []string{"e-match"}, tt.filter)
			o := result.Outcomes[0]
			if o.Kind != tt.expected || o.Reason != tt.reason {
				t.Errorf("Expected %s/%s, got %s/%s", tt.expected, tt.reason, o.Kind, o.Reason)
			}
		})
	}
}

func TestBulkLink_DuplicatesProcessedEachTime(t *testing.T) {
	l := newLinker(t, seedStore(t))

	result := l.BulkLink(context.Background(), "u1", []string{"e-match", "e-match"}, "")
	if result.Linked != 1 || result.Skipped != 1 {
		t.Errorf("Expected linked=1 skipped=1, got linked=%d skipped=%d", result.Linked, result.Skipped)
	}
	if result.Processed() != 2 {
		t.Errorf("Expected 2 processed, got %d", result.Processed())
	}
}

func TestBulkLink_CanceledContext(t *testing.T) {
	l := newLinker(t, seedStore(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := l.BulkLink(ctx, "u1", []string{"e-match", "e-weak"}, "")
	if len(result.Errors) != 2 {
		t.Errorf("Expected every entry to fail on a canceled context, got %+v", result)
	}
}

func TestBulkLink_CanceledContextLogsError(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.NewWithWriter(&logger.Config{
		Level: logger.InfoLevel, Format: logger.TextFormat, Output: logger.StdoutOutput, DisableTimestamp: true,
	}, &buf)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	s := seedStore(t)
	engine, _ := matcher.NewEngine(s, nil, logger.Nop())
	l, _ := New(s, engine, log)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l.BulkLink(ctx, "u1", []string{"e-match"}, "")

	out := buf.String()
	if !strings.Contains(out, "Operation completed with error") || !strings.Contains(out, "context canceled") {
		t.Errorf("Expected bulk link to complete with the cancellation error, got %q", out)
	}
	if strings.Contains(out, "level=info msg=\"Operation completed\"") {
		t.Error("Expected no successful completion log for a canceled batch")
	}
}

func TestLinkEntry(t *testing.T) {
	tests := []struct {
		name    string
		entryID string
		tradeID string
		code    apperrors.ErrorCode
	}{
		{name: "confirmed link", entryID: "e-weak", tradeID: "tr-nvda"},
		{name: "missing trade id", entryID: "e-weak", tradeID: "", code: apperrors.CodeMissingField},
		{name: "unknown entry", entryID: "nope", tradeID: "tr-nvda", code: apperrors.CodeNotFound},
		{name: "already linked", entryID: "e-linked", tradeID: "tr-nvda", code: apperrors.CodeLinkRejected},
		{name: "foreign trade", entryID: "e-weak", tradeID: "tr-other", code: apperrors.CodeForeignTrade},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLinker(t, seedStore(t))
			trade, err := l.LinkEntry(context.Background(), "u1", tt.entryID, tt.tradeID)
			if tt.code == "" {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				if trade.ID != tt.tradeID {
					t.Errorf("Expected trade %s, got %s", tt.tradeID, trade.ID)
				}
				return
			}
			if !apperrors.Is(err, tt.code) {
				t.Errorf("Expected error code %s, got %v", tt.code, err)
			}
		})
	}
}

func TestLinkEntry_LostRaceIsRejected(t *testing.T) {
	fs := &faultyStore{Store: seedStore(t), loseRace: map[string]bool{"e-weak": true}}
	l := newLinker(t, fs)

	_, err := l.LinkEntry(context.Background(), "u1", "e-weak", "tr-nvda")
	if !apperrors.Is(err, apperrors.CodeLinkRejected) {
		t.Errorf("Expected link rejected, got %v", err)
	}
}

func TestValidateBatch(t *testing.T) {
	l := newLinker(t, seedStore(t))

	big := make([]string, 101)
	for i := range big {
		big[i] = "e"
	}

	tests := []struct {
		name string
		ids  []string
		code apperrors.ErrorCode
	}{
		{name: "one id", ids: []string{"e-match"}},
		{name: "exactly max", ids: big[:100]},
		{name: "empty", ids: nil, code: apperrors.CodeMissingField},
		{name: "too large", ids: big, code: apperrors.CodeBatchTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.ValidateBatch(tt.ids)
			if tt.code == "" && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
			if tt.code != "" && !apperrors.Is(err, tt.code) {
				t.Errorf("Expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestSuggest_AdHocInput(t *testing.T) {
	l := newLinker(t, seedStore(t))

	suggestions, err := l.Suggest(context.Background(), "u1", matcher.MatchInput{
		Tickers: []string{"AAPL"},
		Date:    entryDay,
		Content: "thinking about another condor",
	}, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(suggestions) != 1 || suggestions[0].TradeID != "tr-ic" {
		t.Errorf("Expected only the owner's tr-ic, got %v", suggestions)
	}
}

func TestBatchLinkResult_Merge(t *testing.T) {
	a := NewBatchLinkResult()
	a.Record(Skipped("x", SkipNoTickers))
	b := NewBatchLinkResult()
	b.Record(Failed("y", ErrEntryNotFound))

	a.Merge(b)
	a.Merge(nil)
	if a.Skipped != 1 || len(a.Errors) != 1 || len(a.Outcomes) != 2 {
		t.Errorf("Unexpected merged result: %+v", a)
	}
}
