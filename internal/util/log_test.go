package util

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerLevel(t *testing.T) {
	logger := NewLogger("debug")
	if logger.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %s", logger.GetLevel())
	}

	logger = NewLogger("invalid")
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info fallback, got %s", logger.GetLevel())
	}
}

func TestWithRunStampsContext(t *testing.T) {
	var buf bytes.Buffer
	logger := WithRun(zerolog.New(&buf), "run-123", "EURUSD")
	logger.Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, "run-123") || !strings.Contains(out, "EURUSD") {
		t.Fatalf("expected run context in log line, got %s", out)
	}
}
