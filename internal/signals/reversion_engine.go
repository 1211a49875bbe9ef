package signals

import (
	"fxbacktest-go/internal/config"
	"fxbacktest-go/internal/metrics"
	"fxbacktest-go/internal/tick"
)

// reversionEngine drives entries off the threshold-reversion metric it
// owns: each transition of the metric's virtual position into a new
// non-flat state is emitted exactly once as an open request.
type reversionEngine struct {
	name         string
	pipSize      float64
	tpPips       float64
	slPips       float64
	timeout      float64
	metric       *metrics.ThresholdReversion
	lastPosition int
}

func newReversionEngine(cfg config.EntryConfig, pipSize float64) (Engine, error) {
	params := metrics.ReversionParams{
		LookbackSeconds:     cfg.Params.LookbackSeconds,
		ThresholdPips:       cfg.Params.ThresholdPips,
		PipSize:             pipSize,
		TPPips:              cfg.Params.TPPips,
		SLPips:              cfg.Params.SLPips,
		MinRecencySeconds:   cfg.Params.MinRecencySeconds,
		TradeTimeoutSeconds: cfg.Params.TradeTimeoutSeconds,
	}
	metric, err := metrics.NewThresholdReversion(cfg.Name, params)
	if err != nil {
		return nil, err
	}

	tpPips := cfg.Params.TPPips
	if tpPips == 0 {
		tpPips = cfg.Params.ThresholdPips
	}
	slPips := cfg.Params.SLPips
	if slPips == 0 {
		slPips = cfg.Params.ThresholdPips
	}

	return &reversionEngine{
		name:    cfg.Name,
		pipSize: pipSize,
		tpPips:  tpPips,
		slPips:  slPips,
		timeout: cfg.Params.TradeTimeoutSeconds,
		metric:  metric,
	}, nil
}

func (e *reversionEngine) Name() string { return e.name }

func (e *reversionEngine) Update(tk tick.Tick, _ *metrics.Snapshot) EntryResult {
	e.metric.Update(tk)
	v := e.metric.Value()

	metadata := map[string]float64{
		"reference_price":           v["reference_price"],
		"threshold":                 v["threshold"],
		"threshold_pips":            v["threshold"] / e.pipSize,
		"tp_price":                  v["tp_price"],
		"sl_price":                  v["sl_price"],
		"reference_age_seconds":     v["reference_age_seconds"],
		"position_open_age_seconds": v["position_open_age_seconds"],
		"trade_timeout_seconds":     v["trade_timeout_seconds"],
	}

	position := int(v["position"])
	if position == 0 {
		e.lastPosition = 0
		return EntryResult{Reason: e.name, Metadata: metadata}
	}
	if e.lastPosition == position {
		return EntryResult{Reason: e.name, Metadata: metadata}
	}
	e.lastPosition = position

	price := tk.Mid
	tp := v["tp_price"]
	sl := v["sl_price"]
	if !finite(tp) || !finite(sl) {
		tpOffset := e.tpPips * e.pipSize
		slOffset := e.slPips * e.pipSize
		if position == 1 {
			tp = price + tpOffset
			sl = price - slOffset
		} else {
			tp = price - tpOffset
			sl = price + slOffset
		}
	}

	metadata["direction"] = float64(position)
	metadata["signal_price"] = price

	return EntryResult{
		ShouldOpen:     true,
		Direction:      position,
		TP:             tp,
		SL:             sl,
		TPPips:         e.tpPips,
		SLPips:         e.slPips,
		TimeoutSeconds: e.timeout,
		Reason:         e.name,
		Metadata:       metadata,
	}
}
