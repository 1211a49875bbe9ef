package metrics

import (
	"fmt"
	"math"

	"fxbacktest-go/internal/tick"
)

type slopePoint struct {
	ts float64
	v  float64
}

// EWMASlope tracks an EWMA of the selected price field together with
// its average rate of change over a trailing window.
type EWMASlope struct {
	name    string
	window  float64
	inner   *EWMA
	history []slopePoint
	slope   float64
	fields  map[string]float64
}

func NewEWMASlope(name string, tauSeconds, windowSeconds float64, initialValue *float64, priceField string) (*EWMASlope, error) {
	if !(windowSeconds > 0) {
		return nil, fmt.Errorf("ewma_slope %q: window_seconds must be positive, got %v", name, windowSeconds)
	}
	inner, err := NewEWMA(name+"_inner", tauSeconds, initialValue, priceField)
	if err != nil {
		return nil, fmt.Errorf("ewma_slope %q: %w", name, err)
	}
	return &EWMASlope{
		name:   name,
		window: windowSeconds,
		inner:  inner,
		slope:  math.NaN(),
		fields: map[string]float64{"ewma": math.NaN(), "slope": math.NaN()},
	}, nil
}

func (m *EWMASlope) Name() string { return m.name }

func (m *EWMASlope) Update(tk tick.Tick) {
	m.inner.Update(tk)
	current := m.inner.Current()
	ts := tk.Timestamp

	m.history = append(m.history, slopePoint{ts: ts, v: current})
	cutoff := ts - m.window
	idx := 0
	// Drop entries older than the window, always keeping the newest one.
	for idx < len(m.history)-1 && m.history[idx].ts < cutoff {
		idx++
	}
	if idx > 0 {
		m.history = m.history[idx:]
	}

	if len(m.history) < 2 {
		m.slope = math.NaN()
	} else {
		oldest := m.history[0]
		dt := ts - oldest.ts
		if dt < minTickDt {
			dt = minTickDt
		}
		m.slope = (current - oldest.v) / dt
	}

	m.fields["ewma"] = current
	m.fields["slope"] = m.slope
}

func (m *EWMASlope) Value() map[string]float64 { return m.fields }
