package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestFixtureErrorLocation(t *testing.T) {
	err := InvalidFixtureValueError("testdata/demo.yaml", "trades", 2, "opened_at", "yesterday", "date in YYYY-MM-DD format", "2025-03-14")

	msg := err.Error()
	if !strings.Contains(msg, "demo.yaml") {
		t.Errorf("expected file name in message, got %s", msg)
	}
	if !strings.Contains(msg, "trades[2].opened_at") {
		t.Errorf("expected record location in message, got %s", msg)
	}

	detailed := err.GetDetailedError()
	for _, want := range []string{"Value: 'yesterday'", "Expected: date in YYYY-MM-DD format", "2025-03-14"} {
		if !strings.Contains(detailed, want) {
			t.Errorf("expected detailed error to contain %q, got:\n%s", want, detailed)
		}
	}
}

func TestFixtureErrorCollector(t *testing.T) {
	t.Run("stops on unrecoverable", func(t *testing.T) {
		c := NewFixtureErrorCollector(10, false)
		if !c.Add(MissingFixtureFieldError("f.yaml", "entries", 0, "id")) {
			t.Error("expected to continue after recoverable error")
		}
		if c.Add(DanglingReferenceError("f.yaml", "trades", 1, "thesis_id", "th-x")) {
			t.Error("expected to stop after dangling reference")
		}
		if len(c.GetErrors()) != 2 {
			t.Errorf("expected 2 errors, got %d", len(c.GetErrors()))
		}
		if c.GetSummary().ByCode[CodeFixtureReference] != 1 {
			t.Error("expected one fixture_reference error in summary")
		}
	})

	t.Run("stops at max errors", func(t *testing.T) {
		c := NewFixtureErrorCollector(2, true)
		c.Add(MissingFixtureFieldError("f.yaml", "entries", 0, "id"))
		if c.Add(MissingFixtureFieldError("f.yaml", "entries", 1, "id")) {
			t.Error("expected to stop at max errors")
		}
	})

	t.Run("err", func(t *testing.T) {
		c := NewFixtureErrorCollector(0, true)
		if c.Err() != nil {
			t.Error("expected nil error for empty collector")
		}
		c.Add(UnreadableFixtureError("f.yaml", errors.New("eof")))
		var fixtureErr *FixtureError
		if !errors.As(c.Err(), &fixtureErr) {
			t.Errorf("expected single FixtureError, got %T", c.Err())
		}
	})
}
