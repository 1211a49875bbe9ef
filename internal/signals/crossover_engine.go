package signals

import (
	"fmt"
	"math"

	"fxbacktest-go/internal/config"
	"fxbacktest-go/internal/metrics"
	"fxbacktest-go/internal/tick"
)

// crossoverEngine opens on sign changes of fast − slow between two
// configured snapshot keys. Pip distances of zero leave the matching
// stop unset.
type crossoverEngine struct {
	name         string
	fastKey      string
	slowKey      string
	longOnCross  bool
	shortOnCross bool
	tpPips       float64
	slPips       float64
	timeout      float64
	pipSize      float64
	lastDiff     float64
	hasLast      bool
}

func newCrossoverEngine(cfg config.EntryConfig, pipSize float64) (Engine, error) {
	if cfg.Params.FastMetric == "" || cfg.Params.SlowMetric == "" {
		return nil, fmt.Errorf("entry %q: fast_metric and slow_metric are required", cfg.Name)
	}
	if cfg.Params.TPPips < 0 || cfg.Params.SLPips < 0 {
		return nil, fmt.Errorf("entry %q: tp_pips and sl_pips must be non-negative", cfg.Name)
	}
	return &crossoverEngine{
		name:         cfg.Name,
		fastKey:      cfg.Params.FastMetric,
		slowKey:      cfg.Params.SlowMetric,
		longOnCross:  cfg.Params.LongOnCross,
		shortOnCross: cfg.Params.ShortOnCross,
		tpPips:       cfg.Params.TPPips,
		slPips:       cfg.Params.SLPips,
		timeout:      cfg.Params.TradeTimeoutSeconds,
		pipSize:      pipSize,
	}, nil
}

func (e *crossoverEngine) Name() string { return e.name }

func (e *crossoverEngine) Update(tk tick.Tick, snap *metrics.Snapshot) EntryResult {
	fast, okFast := snap.Value(e.fastKey)
	slow, okSlow := snap.Value(e.slowKey)
	metadata := map[string]float64{"fast": fast, "slow": slow}

	if !okFast || !okSlow || !finite(fast) || !finite(slow) {
		e.hasLast = false
		return EntryResult{Reason: e.name, Metadata: metadata}
	}

	diff := fast - slow
	metadata["diff"] = diff

	if !e.hasLast {
		e.lastDiff = diff
		e.hasLast = true
		return EntryResult{Reason: e.name, Metadata: metadata}
	}

	direction := 0
	switch {
	case e.longOnCross && diff >= 0 && e.lastDiff < 0:
		direction = 1
	case e.shortOnCross && diff <= 0 && e.lastDiff > 0:
		direction = -1
	}
	e.lastDiff = diff

	if direction == 0 {
		return EntryResult{Reason: e.name, Metadata: metadata}
	}

	price := tk.Mid
	tp, sl := math.NaN(), math.NaN()
	if e.tpPips > 0 {
		offset := e.tpPips * e.pipSize
		if direction == 1 {
			tp = price + offset
		} else {
			tp = price - offset
		}
	}
	if e.slPips > 0 {
		offset := e.slPips * e.pipSize
		if direction == 1 {
			sl = price - offset
		} else {
			sl = price + offset
		}
	}

	metadata["direction"] = float64(direction)
	metadata["signal_price"] = price

	return EntryResult{
		ShouldOpen:     true,
		Direction:      direction,
		TP:             tp,
		SL:             sl,
		TPPips:         e.tpPips,
		SLPips:         e.slPips,
		TimeoutSeconds: e.timeout,
		Reason:         e.name,
		Metadata:       metadata,
	}
}
