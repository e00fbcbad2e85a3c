package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"default", *DefaultConfig(), false},
		{"production", *ProductionConfig(), false},
		{"bad level", Config{Level: "loud", Format: TextFormat, Output: StderrOutput}, true},
		{"bad format", Config{Level: InfoLevel, Format: "xml", Output: StderrOutput}, true},
		{"file without path", Config{Level: InfoLevel, Format: TextFormat, Output: FileOutput}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFieldsArePreserved(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&Config{Level: DebugLevel, Format: JSONFormat, Output: StdoutOutput}, &buf)
	if err != nil {
		t.Fatalf("NewWithWriter failed: %v", err)
	}

	log.WithComponent("linker").
		WithFields(Fields{"entry_id": "e-1"}).
		WithError(errors.New("boom")).
		Info("entry failed")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if line["component"] != "linker" {
		t.Errorf("Expected component 'linker', got %v", line["component"])
	}
	if line["entry_id"] != "e-1" {
		t.Errorf("Expected entry_id 'e-1', got %v", line["entry_id"])
	}
	if line["error"] != "boom" {
		t.Errorf("Expected error 'boom', got %v", line["error"])
	}
}

func TestProgressTracker(t *testing.T) {
	var buf bytes.Buffer
	log, _ := NewWithWriter(&Config{Level: InfoLevel, Format: TextFormat, Output: StdoutOutput, DisableTimestamp: true}, &buf)

	tracker := NewProgressTracker(ProgressConfig{Operation: "bulk_link", Total: 4, LogInterval: time.Hour, Logger: log})
	tracker.Increment()
	tracker.Add(2)

	stats := tracker.GetStats()
	if stats.Current != 3 {
		t.Errorf("Expected current 3, got %d", stats.Current)
	}
	if stats.Percentage != 75 {
		t.Errorf("Expected 75%%, got %.1f", stats.Percentage)
	}

	tracker.Complete(Fields{"linked": 1})
	if !strings.Contains(buf.String(), "linked=1") {
		t.Errorf("Expected summary fields in completion log, got %q", buf.String())
	}
	if strings.Contains(buf.String(), "Progress update") {
		t.Error("Expected no interval progress log within the hour interval")
	}
}

func TestProgressTracker_CompleteWithError(t *testing.T) {
	var buf bytes.Buffer
	log, _ := NewWithWriter(&Config{Level: InfoLevel, Format: TextFormat, Output: StdoutOutput, DisableTimestamp: true}, &buf)

	tracker := NewProgressTracker(ProgressConfig{Operation: "bulk_link", Total: 2, LogInterval: time.Hour, Logger: log})
	tracker.Increment()
	tracker.CompleteWithError(errors.New("context canceled"))

	out := buf.String()
	if !strings.Contains(out, "level=error") || !strings.Contains(out, "processed=1") {
		t.Errorf("Expected error completion with progress fields, got %q", out)
	}
}

func TestTimedOperation(t *testing.T) {
	tests := []struct {
		name          string
		fn            func() error
		expectedLevel string
		expectedText  string
	}{
		{name: "success", fn: func() error { return nil }, expectedLevel: "level=info", expectedText: "status=success"},
		{name: "failure", fn: func() error { return errors.New("sweep broke") }, expectedLevel: "level=error", expectedText: "sweep broke"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log, _ := NewWithWriter(&Config{Level: InfoLevel, Format: TextFormat, Output: StdoutOutput, DisableTimestamp: true}, &buf)

			err := TimedOperation("sweep", log, tt.fn)
			if (err != nil) != (tt.name == "failure") {
				t.Errorf("Expected the function's error to be returned, got %v", err)
			}

			out := buf.String()
			if !strings.Contains(out, "Starting operation") {
				t.Errorf("Expected start log, got %q", out)
			}
			if !strings.Contains(out, tt.expectedLevel) || !strings.Contains(out, tt.expectedText) {
				t.Errorf("Expected %s with %q, got %q", tt.expectedLevel, tt.expectedText, out)
			}
		})
	}
}

func TestOperationLogger_StepsCarryFields(t *testing.T) {
	var buf bytes.Buffer
	log, _ := NewWithWriter(&Config{Level: InfoLevel, Format: TextFormat, Output: StdoutOutput, DisableTimestamp: true}, &buf)

	op := NewOperationLogger("migrate", log).WithField("seed", "demo.yaml")
	op.Step("auto_migrate")
	op.Success("Schema is up to date")

	out := buf.String()
	for _, want := range []string{"step=auto_migrate", "seed=demo.yaml", "operation=migrate", "status=success"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in operation log, got %q", want, out)
		}
	}
}
