package matcher

import (
	"testing"
	"time"
	_ "time/tzdata"
)

func TestLinkingConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*LinkingConfig)
		expectError bool
	}{
		{name: "default", mutate: func(*LinkingConfig) {}},
		{name: "negative window", mutate: func(c *LinkingConfig) { c.DateWindowDays = -1 }, expectError: true},
		{name: "zero candidates", mutate: func(c *LinkingConfig) { c.MaxCandidates = 0 }, expectError: true},
		{name: "threshold above one", mutate: func(c *LinkingConfig) { c.SuggestionThreshold = 1.5 }, expectError: true},
		{name: "auto-link below suggestion", mutate: func(c *LinkingConfig) { c.AutoLinkThreshold = 0.1 }, expectError: true},
		{name: "default above max", mutate: func(c *LinkingConfig) { c.DefaultSuggestions = 11 }, expectError: true},
		{name: "zero batch", mutate: func(c *LinkingConfig) { c.MaxBatchSize = 0 }, expectError: true},
		{name: "unknown timezone", mutate: func(c *LinkingConfig) { c.Timezone = "Mars/Olympus" }, expectError: true},
		{name: "caps do not sum to one", mutate: func(c *LinkingConfig) { c.Weights.Ticker = 0.5 }, expectError: true},
		{name: "date weights increase", mutate: func(c *LinkingConfig) { c.Weights.DateInWindow = 0.25 }, expectError: true},
		{name: "closed above open", mutate: func(c *LinkingConfig) { c.Weights.StatusClosed = 0.2 }, expectError: true},
		{
			name: "rebalanced caps",
			mutate: func(c *LinkingConfig) {
				c.Weights.Ticker = 0.5
				c.Weights.Strategy = 0.1
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultLinkingConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.expectError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestPreset(t *testing.T) {
	for _, name := range []string{"", "default", "conservative"} {
		config, err := Preset(name)
		if err != nil {
			t.Fatalf("Unexpected error for %q: %v", name, err)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("Expected preset %q to be valid, got %v", name, err)
		}
	}
	if _, err := Preset("reckless"); err == nil {
		t.Error("Expected error for unknown preset")
	}
}

func TestLinkingConfig_DayDistance(t *testing.T) {
	config := DefaultLinkingConfig()

	tests := []struct {
		a, b     string
		expected int
	}{
		{"2025-03-14T00:00:00Z", "2025-03-14T23:59:59Z", 0},
		{"2025-03-14T23:59:59Z", "2025-03-15T00:00:00Z", 1},
		{"2025-03-14T12:00:00Z", "2025-03-11T12:00:00Z", 3},
		{"2025-03-14T12:00:00Z", "2025-03-18T00:00:00Z", 4},
		{"2024-12-31T12:00:00Z", "2025-01-01T12:00:00Z", 1},
		// beyond the range of time.Duration
		{"1600-03-14T12:00:00Z", "2025-03-14T12:00:00Z", 155228},
		{"2025-03-14T12:00:00Z", "1600-03-14T00:00:00Z", 155228},
	}
	for _, tt := range tests {
		if got := config.DayDistance(mustTime(tt.a), mustTime(tt.b)); got != tt.expected {
			t.Errorf("DayDistance(%s, %s): expected %d, got %d", tt.a, tt.b, tt.expected, got)
		}
	}
}

func TestLinkingConfig_DayDistanceAcrossDST(t *testing.T) {
	config := DefaultLinkingConfig()
	config.Timezone = "America/New_York"
	loc := config.Location()

	// DST began on 2025-03-09; the 8th to the 10th is still two calendar days.
	a := time.Date(2025, 3, 8, 23, 0, 0, 0, loc)
	b := time.Date(2025, 3, 10, 0, 30, 0, 0, loc)
	if got := config.DayDistance(a, b); got != 2 {
		t.Errorf("Expected 2 days across DST, got %d", got)
	}
}

func TestLinkingConfig_ClampSuggestions(t *testing.T) {
	config := DefaultLinkingConfig()
	tests := map[int]int{-1: 5, 0: 5, 1: 1, 10: 10, 11: 10}
	for requested, expected := range tests {
		if got := config.ClampSuggestions(requested); got != expected {
			t.Errorf("ClampSuggestions(%d): expected %d, got %d", requested, expected, got)
		}
	}
}
