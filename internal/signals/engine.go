package signals

import (
	"fmt"

	"fxbacktest-go/internal/config"
	"fxbacktest-go/internal/metrics"
	"fxbacktest-go/internal/tick"
)

// EntryResult is the structured response produced by entry engines.
// TP and SL use NaN for "unset"; TimeoutSeconds of zero means no
// timeout. TPPips/SLPips carry the configured pip distances so the
// position loop can re-anchor unset stops to the actual fill price.
type EntryResult struct {
	ShouldOpen     bool
	Direction      int
	TP             float64
	SL             float64
	TPPips         float64
	SLPips         float64
	TimeoutSeconds float64
	Reason         string
	Metadata       map[string]float64
}

// Engine is a pluggable entry decision component. Update is called on
// every tick, warmup included, so engines keep their internal state
// continuous; the generator applies the warmup and predicate gates.
type Engine interface {
	Name() string
	Update(tk tick.Tick, snap *metrics.Snapshot) EntryResult
}

// EngineConstructor builds an engine from its entry config and the
// run's pip size.
type EngineConstructor func(cfg config.EntryConfig, pipSize float64) (Engine, error)

var engineRegistry = map[string]EngineConstructor{
	"threshold_reversion": newReversionEngine,
	"ewma_crossover":      newCrossoverEngine,
	"stub":                newStubEngine,
}

// BuildEngine resolves the configured engine id, failing on unknown ids.
func BuildEngine(cfg config.EntryConfig, pipSize float64) (Engine, error) {
	ctor, ok := engineRegistry[cfg.Engine]
	if !ok {
		return nil, fmt.Errorf("unrecognized entry engine %q for entry %q", cfg.Engine, cfg.Name)
	}
	return ctor(cfg, pipSize)
}
