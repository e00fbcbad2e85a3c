package sweep

import (
	"context"
	"fmt"
	"testing"
	"time"

	"trade-journal-linker/internal/linker"
	"trade-journal-linker/internal/matcher"
	"trade-journal-linker/internal/models"
	"trade-journal-linker/internal/store/memory"
	"trade-journal-linker/pkg/logger"
)

var now = time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)

func newSweeper(t *testing.T, config Config) (*Sweeper, *memory.Store) {
	t.Helper()
	s := memory.New()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("Failed to seed store: %v", err)
		}
	}
	for _, owner := range []string{"u1", "u2"} {
		must(s.AddThesis(&models.Thesis{ID: "th-" + owner, UserID: owner, Ticker: "SPY", Name: "index"}))
		must(s.AddTrade(&models.Trade{
			ID: "tr-" + owner, UserID: owner, ThesisID: "th-" + owner,
			Strategy: models.StrategyStraddle, Status: models.TradeStatusOpen,
			OpenedAt: now.Add(-12 * time.Hour),
		}))
		must(s.AddEntry(models.NewJournalEntry("recent-"+owner, owner, "SPY straddle working", now.Add(-10*time.Hour), "SPY")))
		must(s.AddEntry(models.NewJournalEntry("old-"+owner, owner, "SPY straddle idea", now.AddDate(0, 0, -30), "SPY")))
	}

	engine, err := matcher.NewEngine(s, nil, logger.Nop())
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	l, err := linker.New(s, engine, logger.Nop())
	if err != nil {
		t.Fatalf("Failed to create linker: %v", err)
	}
	sw := New(s, l, config, logger.Nop())
	sw.now = func() time.Time { return now }
	return sw, s
}

func TestSweeper_RunLinksRecentEntriesForEveryOwner(t *testing.T) {
	config := DefaultConfig()
	config.Enabled = true
	sw, s := newSweeper(t, config)

	result, err := sw.Run(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Linked != 2 {
		t.Errorf("Expected 2 linked, got %d", result.Linked)
	}
	if result.Processed() != 2 {
		t.Errorf("Expected entries outside the lookback to be ignored, got %d processed", result.Processed())
	}

	for _, owner := range []string{"u1", "u2"} {
		e, _ := s.GetEntry(context.Background(), owner, "recent-"+owner)
		if !e.IsLinked() || *e.TradeID != "tr-"+owner {
			t.Errorf("Expected recent-%s linked to its owner's trade", owner)
		}
		old, _ := s.GetEntry(context.Background(), owner, "old-"+owner)
		if old.IsLinked() {
			t.Errorf("Expected old-%s to stay unlinked", owner)
		}
	}

	again, err := sw.Run(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if again.Processed() != 0 {
		t.Errorf("Expected nothing left to sweep, got %d", again.Processed())
	}
}

func TestSweeper_ZeroLookbackSweepsEverything(t *testing.T) {
	config := DefaultConfig()
	config.Lookback = 0
	sw, _ := newSweeper(t, config)

	result, err := sw.Run(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// old entries are 30 days from the trade and fall outside the window
	if result.Processed() != 4 || result.Linked != 2 || result.Skipped != 2 {
		t.Errorf("Expected 4 processed (2 linked, 2 skipped), got %+v", result)
	}
}

func addUnlinkable(t *testing.T, s *memory.Store, owner string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("note-%s-%d", owner, i)
		e := models.NewJournalEntry(id, owner, "general market musings", now.Add(-time.Duration(20+i)*time.Hour))
		if err := s.AddEntry(e); err != nil {
			t.Fatalf("Failed to seed store: %v", err)
		}
	}
}

func TestSweeper_UnlinkableEntriesDoNotStarveNewerOnes(t *testing.T) {
	config := DefaultConfig()
	config.Enabled = true
	config.BatchSize = 3
	sw, s := newSweeper(t, config)
	addUnlinkable(t, s, "u1", 7)

	result, err := sw.Run(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	e, _ := s.GetEntry(context.Background(), "u1", "recent-u1")
	if !e.IsLinked() {
		t.Fatalf("Expected recent-u1 linked despite older unlinkable entries, got %+v", result)
	}
	if result.Linked != 2 || result.Skipped != 7 {
		t.Errorf("Expected 2 linked and 7 skipped, got %d linked and %d skipped", result.Linked, result.Skipped)
	}
}

func TestSweeper_MaxEntriesCapsOneRun(t *testing.T) {
	config := DefaultConfig()
	config.Enabled = true
	config.BatchSize = 2
	config.MaxEntries = 3
	sw, s := newSweeper(t, config)
	addUnlinkable(t, s, "u1", 4)

	first, err := sw.Run(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// u1 stops after 3 of its 5 entries, u2 has only one
	if first.Processed() != 4 {
		t.Errorf("Expected 4 processed, got %d", first.Processed())
	}
	e, _ := s.GetEntry(context.Background(), "u1", "recent-u1")
	if e.IsLinked() {
		t.Error("Expected recent-u1 to wait for a later run")
	}

	second, err := sw.Run(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	e, _ = s.GetEntry(context.Background(), "u1", "recent-u1")
	if !e.IsLinked() {
		t.Error("Expected the second run to resume past the capped entries and link recent-u1")
	}
	if second.Processed() != 2 {
		t.Errorf("Expected the second run to process the 2 remaining entries, got %d", second.Processed())
	}

	third, err := sw.Run(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if third.Processed() != 3 {
		t.Errorf("Expected a fresh run to restart from the oldest entries, got %d processed", third.Processed())
	}
}

func TestSweeper_BatchSizeCapped(t *testing.T) {
	config := DefaultConfig()
	config.BatchSize = 5000
	sw, _ := newSweeper(t, config)

	if sw.config.BatchSize != 100 {
		t.Errorf("Expected batch size capped at 100, got %d", sw.config.BatchSize)
	}
}

func TestSweeper_Register(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		entries     int
	}{
		{name: "disabled", config: DefaultConfig(), entries: 0},
		{name: "enabled", config: Config{Enabled: true, Schedule: "@every 1m", BatchSize: 10}, entries: 1},
		{name: "six field spec", config: Config{Enabled: true, Schedule: "0 */5 * * * *", BatchSize: 10}, entries: 1},
		{name: "invalid spec", config: Config{Enabled: true, Schedule: "whenever", BatchSize: 10}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sw, _ := newSweeper(t, tt.config)
			r := NewRunner(logger.Nop(), context.Background())

			err := sw.Register(r)
			if tt.expectError {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if r.Entries() != tt.entries {
				t.Errorf("Expected %d scheduled jobs, got %d", tt.entries, r.Entries())
			}
		})
	}
}

func TestRunner_RunsJobs(t *testing.T) {
	r := NewRunner(logger.Nop(), context.Background())
	ran := make(chan struct{}, 1)

	if _, err := r.Add("@every 1s", func(ctx context.Context) {
		select {
		case ran <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	r.Start()
	defer r.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Error("Expected job to run within 3 seconds")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
	}{
		{name: "disabled ignores fields", config: Config{}},
		{name: "valid", config: Config{Enabled: true, Schedule: "@hourly", BatchSize: 50}},
		{name: "missing schedule", config: Config{Enabled: true, BatchSize: 50}, expectError: true},
		{name: "negative lookback", config: Config{Enabled: true, Schedule: "@hourly", Lookback: -time.Hour, BatchSize: 50}, expectError: true},
		{name: "zero batch", config: Config{Enabled: true, Schedule: "@hourly"}, expectError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}
