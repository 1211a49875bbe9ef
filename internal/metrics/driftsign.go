package metrics

import (
	"fmt"
	"math"

	"fxbacktest-go/internal/primitives"
	"fxbacktest-go/internal/tick"
)

// DriftSign reports the displacement of mid from its rolling mean,
// scaled by the lookback, plus the sign of that drift.
type DriftSign struct {
	name     string
	lookback float64
	window   *primitives.RollingWindow
	lastTs   float64
	hasLast  bool
	fields   map[string]float64
}

func NewDriftSign(name string, lookbackSeconds float64) (*DriftSign, error) {
	w, err := primitives.NewRollingWindow(lookbackSeconds)
	if err != nil {
		return nil, fmt.Errorf("drift_sign %q: %w", name, err)
	}
	return &DriftSign{
		name:     name,
		lookback: lookbackSeconds,
		window:   w,
		fields:   map[string]float64{"drift": math.NaN(), "drift_sign": 0},
	}, nil
}

func (m *DriftSign) Name() string { return m.name }

func (m *DriftSign) Update(tk tick.Tick) {
	dt := 0.0
	if m.hasLast {
		dt = tk.Timestamp - m.lastTs
		if dt < minTickDt {
			dt = minTickDt
		}
	}
	m.window.Append(tk.Timestamp, tk.Mid, dt)
	m.lastTs = tk.Timestamp
	m.hasLast = true

	mean, _ := m.window.Stats()
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		m.fields["drift"] = math.NaN()
		m.fields["drift_sign"] = 0
		return
	}
	drift := (tk.Mid - mean) / m.lookback
	sign := 0.0
	if drift > 0 {
		sign = 1
	} else if drift < 0 {
		sign = -1
	}
	m.fields["drift"] = drift
	m.fields["drift_sign"] = sign
}

func (m *DriftSign) Value() map[string]float64 { return m.fields }
