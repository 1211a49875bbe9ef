package metrics

import (
	"fmt"
	"math"

	"fxbacktest-go/internal/primitives"
	"fxbacktest-go/internal/tick"
)

// ZScore measures the residual of mid against its time-weighted rolling
// mean, normalized by the rolling standard deviation. Both fields fall
// back to zero while the window statistics are degenerate.
type ZScore struct {
	name    string
	window  *primitives.RollingWindow
	lastTs  float64
	hasLast bool
	fields  map[string]float64
}

func NewZScore(name string, lookbackSeconds float64) (*ZScore, error) {
	w, err := primitives.NewRollingWindow(lookbackSeconds)
	if err != nil {
		return nil, fmt.Errorf("zscore %q: %w", name, err)
	}
	return &ZScore{
		name:   name,
		window: w,
		fields: map[string]float64{"z_score": 0, "rolling_residual": 0},
	}, nil
}

func (z *ZScore) Name() string { return z.name }

func (z *ZScore) Update(tk tick.Tick) {
	dt := 0.0
	if z.hasLast {
		dt = tk.Timestamp - z.lastTs
		if dt < minTickDt {
			dt = minTickDt
		}
	}
	z.window.Append(tk.Timestamp, tk.Mid, dt)
	z.lastTs = tk.Timestamp
	z.hasLast = true

	mean, std := z.window.Stats()
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		z.fields["rolling_residual"] = 0
		z.fields["z_score"] = 0
		return
	}
	residual := tk.Mid - mean
	score := 0.0
	if std > 1e-12 {
		score = residual / std
	}
	z.fields["rolling_residual"] = residual
	z.fields["z_score"] = score
}

func (z *ZScore) Value() map[string]float64 { return z.fields }
