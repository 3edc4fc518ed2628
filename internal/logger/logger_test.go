package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info", false)
	l.Info().Str("path", "a.md").Msg("parsed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "parsed" {
		t.Errorf("expected message 'parsed', got %v", entry["message"])
	}
	if entry["path"] != "a.md" {
		t.Errorf("expected path field, got %v", entry["path"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected timestamp field")
	}
}

func TestNewLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn", false)
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("expected warn message in output")
	}
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "loud", false)
	l.Debug().Msg("debug")
	l.Info().Msg("info")

	out := buf.String()
	if strings.Contains(out, "\"message\":\"debug\"") {
		t.Error("debug should be filtered at fallback info level")
	}
	if !strings.Contains(out, "\"message\":\"info\"") {
		t.Error("expected info message")
	}
}

func TestGetBeforeInitIsSilent(t *testing.T) {
	// Must not panic when nothing has been initialised.
	Info().Msg("ignored")
	if Get() == nil {
		t.Fatal("expected non-nil logger")
	}
}
