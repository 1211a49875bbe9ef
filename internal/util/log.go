// Package util carries small shared helpers for the backtest commands.
package util

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger at the requested level,
// defaulting to info on unknown levels.
func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger().Level(lvl)
}

// WithRun stamps the run id and pair onto a logger so every pipeline
// line can be traced back to its run.
func WithRun(log zerolog.Logger, runID, pair string) zerolog.Logger {
	return log.With().Str("run_id", runID).Str("pair", pair).Logger()
}
