package metrics

import (
	"fmt"
	"math"

	"fxbacktest-go/internal/tick"
)

type spreadPoint struct {
	ts   float64
	pips float64
}

// Spread tracks the raw bid/ask spread, its size in pips, and the
// empirical percentile of the current spread over a rolling window.
type Spread struct {
	name    string
	pipSize float64
	window  float64
	history []spreadPoint
	fields  map[string]float64
}

func NewSpread(name string, pipSize, windowSeconds float64) (*Spread, error) {
	if !(pipSize > 0) {
		return nil, fmt.Errorf("spread %q: pip_size must be positive, got %v", name, pipSize)
	}
	if !(windowSeconds > 0) {
		return nil, fmt.Errorf("spread %q: window_seconds must be positive, got %v", name, windowSeconds)
	}
	return &Spread{
		name:    name,
		pipSize: pipSize,
		window:  windowSeconds,
		fields: map[string]float64{
			"spread":            math.NaN(),
			"spread_pips":       math.NaN(),
			"spread_percentile": math.NaN(),
		},
	}, nil
}

func (m *Spread) Name() string { return m.name }

func (m *Spread) Update(tk tick.Tick) {
	raw := tk.Ask - tk.Bid
	if raw < 0 {
		raw = 0
	}
	pips := raw / m.pipSize

	m.history = append(m.history, spreadPoint{ts: tk.Timestamp, pips: pips})
	cutoff := tk.Timestamp - m.window
	idx := 0
	for idx < len(m.history) && m.history[idx].ts < cutoff {
		idx++
	}
	if idx > 0 {
		m.history = m.history[idx:]
	}

	count := 0
	for _, p := range m.history {
		if p.pips <= pips {
			count++
		}
	}

	m.fields["spread"] = raw
	m.fields["spread_pips"] = pips
	m.fields["spread_percentile"] = float64(count) / float64(len(m.history))
}

func (m *Spread) Value() map[string]float64 { return m.fields }
