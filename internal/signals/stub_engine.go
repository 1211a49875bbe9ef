package signals

import (
	"fxbacktest-go/internal/config"
	"fxbacktest-go/internal/metrics"
	"fxbacktest-go/internal/tick"
)

// stubEngine never opens. Useful for predicate-only strategies and tests.
type stubEngine struct {
	name string
}

func newStubEngine(cfg config.EntryConfig, _ float64) (Engine, error) {
	return &stubEngine{name: cfg.Name}, nil
}

func (e *stubEngine) Name() string { return e.name }

func (e *stubEngine) Update(tick.Tick, *metrics.Snapshot) EntryResult {
	return EntryResult{Reason: e.name}
}
