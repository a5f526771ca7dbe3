package logging

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoggerWritesLogfmtLine(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Debug).(*logfmtLogger)
	logger.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	logger.With(F("session_id", "abc")).Info("send confirmed", F("temp_id", "temp-1"), Err(errors.New("boom now")))

	got := strings.TrimSpace(buf.String())
	want := `ts=2025-01-02T03:04:05Z level=info msg="send confirmed" session_id=abc temp_id=temp-1 err="boom now"`
	if got != want {
		t.Fatalf("unexpected line:\n got %s\nwant %s", got, want)
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Warn)
	logger.Info("hidden")
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing below warn, got %q", buf.String())
	}
	if logger.Enabled(Info) {
		t.Fatalf("expected info to be disabled")
	}
	logger.Error("shown")
	if !strings.Contains(buf.String(), "level=error") {
		t.Fatalf("expected error line, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   Debug,
		" WARN ":  Warn,
		"warning": Warn,
		"error":   Error,
		"":        Info,
		"verbose": Info,
	}
	for raw, want := range cases {
		if got := ParseLevel(raw); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestNewRotatingFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ui.log")
	w, err := NewRotatingFile(FileOptions{Path: path, MaxBackups: 2})
	if err != nil {
		t.Fatalf("NewRotatingFile: %v", err)
	}
	defer w.Close()
	if _, err := w.Write([]byte("hello\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewRotatingFile(FileOptions{}); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
