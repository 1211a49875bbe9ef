package metrics

import (
	"fmt"
	"math"

	"fxbacktest-go/internal/primitives"
	"fxbacktest-go/internal/tick"
)

// EWMAVol estimates instantaneous variance by smoothing squared log
// returns, and reports where the current estimate ranks inside a
// time-weighted histogram over the percentile horizon.
type EWMAVol struct {
	name     string
	smoother *primitives.EWMA
	hist     *primitives.Histogram
	lastT    float64
	lastMid  float64
	seeded   bool
	fields   map[string]float64
}

func NewEWMAVol(name string, tauSeconds, percentileHorizonSeconds float64, bins int, baseVol, stddevCap float64) (*EWMAVol, error) {
	if bins < 2 {
		return nil, fmt.Errorf("ewma_vol %q: bins must be at least 2, got %d", name, bins)
	}
	if !(baseVol > 0) {
		return nil, fmt.Errorf("ewma_vol %q: base_vol must be positive, got %v", name, baseVol)
	}
	if !(stddevCap > 0) {
		return nil, fmt.Errorf("ewma_vol %q: stddev_cap must be positive, got %v", name, stddevCap)
	}
	smoother, err := primitives.NewEWMA(tauSeconds, 2)
	if err != nil {
		return nil, fmt.Errorf("ewma_vol %q: %w", name, err)
	}

	hi := stddevCap * baseVol
	hi = hi * hi
	edges := make([]float64, bins+1)
	for i := range edges {
		edges[i] = hi * float64(i) / float64(bins)
	}
	hist, err := primitives.NewHistogram(edges, percentileHorizonSeconds)
	if err != nil {
		return nil, fmt.Errorf("ewma_vol %q: %w", name, err)
	}

	return &EWMAVol{
		name:     name,
		smoother: smoother,
		hist:     hist,
		fields:   map[string]float64{"vol_ewma": 0, "vol_percentile": math.NaN()},
	}, nil
}

func (m *EWMAVol) Name() string { return m.name }

func (m *EWMAVol) Update(tk tick.Tick) {
	t, mid := tk.Timestamp, tk.Mid
	if !m.seeded {
		m.seeded = true
		m.lastT = t
		m.lastMid = mid
		m.fields["vol_ewma"] = 0
		m.fields["vol_percentile"] = math.NaN()
		return
	}

	dt := t - m.lastT
	if dt < minTickDt {
		dt = minTickDt
	}
	r := 0.0
	if mid > 0 && m.lastMid > 0 {
		r = math.Log(mid / m.lastMid)
	}

	vol := m.smoother.Update(t, r)
	m.hist.Add(t-dt, t, vol)
	m.hist.Trim(t)

	m.lastT = t
	m.lastMid = mid
	m.fields["vol_ewma"] = vol
	m.fields["vol_percentile"] = m.hist.PercentileRank(vol)
}

func (m *EWMAVol) Value() map[string]float64 { return m.fields }
