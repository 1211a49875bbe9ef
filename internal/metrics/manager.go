package metrics

import (
	"github.com/rs/zerolog"

	"fxbacktest-go/internal/tick"
)

// Manager owns the metric collection and the snapshot. Metrics update
// in declaration order; the snapshot's key set is fixed once every
// metric has reported its fields, so steady-state updates only
// overwrite values in place.
type Manager struct {
	metrics []Metric
	snap    *Snapshot
	log     zerolog.Logger
}

func NewManager(metrics []Metric, log zerolog.Logger) *Manager {
	return &Manager{
		metrics: metrics,
		snap:    newSnapshot(),
		log:     log,
	}
}

// Update advances every metric with the tick and refreshes the
// snapshot. The returned snapshot is valid until the next Update.
func (m *Manager) Update(tk tick.Tick) *Snapshot {
	for _, metric := range m.metrics {
		metric.Update(tk)
		prefix := metric.Name() + "."
		for field, v := range metric.Value() {
			m.snap.Values[prefix+field] = v
		}
		if lm, ok := metric.(LabelMetric); ok {
			for field, v := range lm.Labels() {
				m.snap.Labels[prefix+field] = v
			}
		}
	}
	return m.snap
}

// Current returns the snapshot as of the last Update.
func (m *Manager) Current() *Snapshot { return m.snap }

// Metrics exposes the managed collection in declaration order.
func (m *Manager) Metrics() []Metric { return m.metrics }
