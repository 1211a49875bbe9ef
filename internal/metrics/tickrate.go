package metrics

import (
	"fmt"

	"fxbacktest-go/internal/tick"
)

// TickRate counts the ticks inside a rolling window and derives
// per-second and per-minute arrival rates.
type TickRate struct {
	name       string
	window     float64
	timestamps []float64
	fields     map[string]float64
}

func NewTickRate(name string, windowSeconds float64) (*TickRate, error) {
	if !(windowSeconds > 0) {
		return nil, fmt.Errorf("tick_rate %q: window_seconds must be positive, got %v", name, windowSeconds)
	}
	return &TickRate{
		name:   name,
		window: windowSeconds,
		fields: map[string]float64{
			"tick_count":        0,
			"tick_rate_per_sec": 0,
			"tick_rate_per_min": 0,
		},
	}, nil
}

func (m *TickRate) Name() string { return m.name }

func (m *TickRate) Update(tk tick.Tick) {
	m.timestamps = append(m.timestamps, tk.Timestamp)
	cutoff := tk.Timestamp - m.window
	idx := 0
	for idx < len(m.timestamps) && m.timestamps[idx] <= cutoff {
		idx++
	}
	if idx > 0 {
		m.timestamps = m.timestamps[idx:]
	}

	count := float64(len(m.timestamps))
	perSec := count / m.window
	m.fields["tick_count"] = count
	m.fields["tick_rate_per_sec"] = perSec
	m.fields["tick_rate_per_min"] = perSec * 60
}

func (m *TickRate) Value() map[string]float64 { return m.fields }
