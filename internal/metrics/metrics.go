// Package metrics implements the config-driven indicator set and the
// manager that composes their outputs into a flat per-tick snapshot.
package metrics

import (
	"fmt"

	"fxbacktest-go/internal/tick"
)

// Ticks closer together than this are treated as minTickDt apart when
// weighting rolling-window samples.
const minTickDt = 1e-6

// Metric is a named online estimator. Update is called once per tick by
// the single-threaded loop; Value returns the current numeric fields
// keyed by unprefixed field name. Implementations reuse the returned
// map across ticks.
type Metric interface {
	Name() string
	Update(tk tick.Tick)
	Value() map[string]float64
}

// LabelMetric is implemented by metrics that also expose categorical
// fields, such as the session classifier.
type LabelMetric interface {
	Metric
	Labels() map[string]string
}

// Snapshot is the flat key→value view of every metric output at the
// current tick. The manager rebuilds it in place; readers must not
// retain it across ticks.
type Snapshot struct {
	Values map[string]float64
	Labels map[string]string
}

func newSnapshot() *Snapshot {
	return &Snapshot{
		Values: make(map[string]float64),
		Labels: make(map[string]string),
	}
}

// Value resolves a fully qualified numeric key.
func (s *Snapshot) Value(key string) (float64, bool) {
	v, ok := s.Values[key]
	return v, ok
}

// Label resolves a fully qualified categorical key.
func (s *Snapshot) Label(key string) (string, bool) {
	v, ok := s.Labels[key]
	return v, ok
}

// Clone copies the snapshot for callers that need to retain it, such as
// entry-metadata capture.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Values: make(map[string]float64, len(s.Values)),
		Labels: make(map[string]string, len(s.Labels)),
	}
	for k, v := range s.Values {
		out.Values[k] = v
	}
	for k, v := range s.Labels {
		out.Labels[k] = v
	}
	return out
}

func priceSelector(field string) (func(tick.Tick) float64, error) {
	switch field {
	case "", "mid":
		return func(tk tick.Tick) float64 { return tk.Mid }, nil
	case "bid":
		return func(tk tick.Tick) float64 { return tk.Bid }, nil
	case "ask":
		return func(tk tick.Tick) float64 { return tk.Ask }, nil
	default:
		return nil, fmt.Errorf("unsupported price_field %q, expected one of mid, bid, ask", field)
	}
}
