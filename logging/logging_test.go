package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]slog.Level{"debug": slog.LevelDebug, "INFO": slog.LevelInfo, " warn ": slog.LevelWarn, "error": slog.LevelError} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestFanoutToFile(t *testing.T) {
	t.Parallel()
	var terminal bytes.Buffer
	path := filepath.Join(t.TempDir(), "coachbot.log")
	logger, closer, err := newLogger(&terminal, Options{Level: "info", Format: "text", File: path})
	if err != nil {
		t.Fatalf("newLogger failed: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("Generated plan", "user", "u1")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(terminal.String(), "user=u1") || strings.Contains(terminal.String(), "hidden") {
		t.Errorf("unexpected terminal output: %q", terminal.String())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(raw), `"msg":"Generated plan"`) || !strings.Contains(string(raw), `"user":"u1"`) {
		t.Errorf("unexpected file output: %q", raw)
	}
}

func TestJSONTerminal(t *testing.T) {
	t.Parallel()
	var terminal bytes.Buffer
	logger, _, err := newLogger(&terminal, Options{Level: "debug", Format: "json"})
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("Parsed command", "command", "ping")
	if !strings.Contains(terminal.String(), `"command":"ping"`) {
		t.Errorf("unexpected output: %q", terminal.String())
	}
}
