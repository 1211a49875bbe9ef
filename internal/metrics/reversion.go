package metrics

import (
	"fmt"
	"math"

	"fxbacktest-go/internal/primitives"
	"fxbacktest-go/internal/tick"
)

// ReversionParams configures the threshold-reversion state machine.
// TPPips and SLPips default to ThresholdPips when zero;
// TradeTimeoutSeconds of zero means no timeout.
type ReversionParams struct {
	LookbackSeconds     float64
	ThresholdPips       float64
	PipSize             float64
	TPPips              float64
	SLPips              float64
	MinRecencySeconds   float64
	TradeTimeoutSeconds float64
}

// thresholdEps absorbs floating-point rounding in the threshold tests so
// a move of exactly threshold pips qualifies.
const thresholdEps = 1e-12

// ThresholdReversion watches local extrema via a pair of monotonic
// queues and holds a virtual position toward the most recent reference
// extremum once price has stretched at least threshold away from it.
//
// A tick that touches the reference flattens the position and
// immediately re-scans; the opposite extremum can reopen the reverse
// position on the same tick. That is deliberate.
type ThresholdReversion struct {
	name       string
	lookback   float64
	threshold  float64
	pipSize    float64
	tpDist     float64
	slDist     float64
	minRecency float64
	timeout    float64

	maxQ *primitives.MonoQueue
	minQ *primitives.MonoQueue

	position int
	refPrice float64
	refTime  float64
	tpPrice  float64
	slPrice  float64
	openTime float64

	fields map[string]float64
}

func NewThresholdReversion(name string, p ReversionParams) (*ThresholdReversion, error) {
	if !(p.LookbackSeconds > 0) {
		return nil, fmt.Errorf("threshold_reversion %q: lookback_seconds must be positive, got %v", name, p.LookbackSeconds)
	}
	if !(p.ThresholdPips > 0) {
		return nil, fmt.Errorf("threshold_reversion %q: threshold_pips must be positive, got %v", name, p.ThresholdPips)
	}
	if !(p.PipSize > 0) {
		return nil, fmt.Errorf("threshold_reversion %q: pip_size must be positive, got %v", name, p.PipSize)
	}
	if p.MinRecencySeconds < 0 {
		return nil, fmt.Errorf("threshold_reversion %q: min_recency_seconds must be non-negative, got %v", name, p.MinRecencySeconds)
	}
	if p.TradeTimeoutSeconds < 0 {
		return nil, fmt.Errorf("threshold_reversion %q: trade_timeout_seconds must be non-negative, got %v", name, p.TradeTimeoutSeconds)
	}
	tpPips := p.TPPips
	if tpPips == 0 {
		tpPips = p.ThresholdPips
	}
	slPips := p.SLPips
	if slPips == 0 {
		slPips = p.ThresholdPips
	}
	if tpPips < 0 || slPips < 0 {
		return nil, fmt.Errorf("threshold_reversion %q: tp_pips and sl_pips must be positive", name)
	}

	nan := math.NaN()
	m := &ThresholdReversion{
		name:       name,
		lookback:   p.LookbackSeconds,
		threshold:  p.ThresholdPips * p.PipSize,
		pipSize:    p.PipSize,
		tpDist:     tpPips * p.PipSize,
		slDist:     slPips * p.PipSize,
		minRecency: p.MinRecencySeconds,
		timeout:    p.TradeTimeoutSeconds,
		maxQ:       primitives.NewMaxQueue(),
		minQ:       primitives.NewMinQueue(),
		refPrice:   nan,
		refTime:    nan,
		tpPrice:    nan,
		slPrice:    nan,
		openTime:   nan,
		fields:     make(map[string]float64, 9),
	}
	m.refresh(nan, nan)
	return m, nil
}

func (m *ThresholdReversion) Name() string { return m.name }

func (m *ThresholdReversion) Update(tk tick.Tick) {
	t, mid := tk.Timestamp, tk.Mid
	cutoff := t - m.lookback

	m.maxQ.Append(t, mid)
	m.maxQ.Trim(cutoff)
	m.minQ.Append(t, mid)
	m.minQ.Trim(cutoff)

	candT, candP, ok := m.findReference(mid, t)

	// Reversion completed: price touched the reference. Flatten and
	// look again — the opposite extremum may open the reverse side now.
	if m.position != 0 && math.Abs(mid-m.refPrice) <= m.pipSize {
		m.flatten()
		candT, candP, ok = m.findReference(mid, t)
	}

	switch {
	case !ok:
		m.flatten()
		m.refPrice = math.NaN()
		m.refTime = math.NaN()
	case m.position != 0 && math.Abs(candP-m.refPrice) > m.pipSize/10:
		// The qualifying extremum moved; the held reference is stale.
		m.flatten()
	}

	if ok {
		m.refPrice = candP
		m.refTime = candT
		if m.position == 0 {
			switch {
			case mid-m.refPrice >= m.threshold-thresholdEps:
				m.position = -1
				m.tpPrice = mid - m.tpDist
				m.slPrice = mid + m.slDist
				m.openTime = t
			case m.refPrice-mid >= m.threshold-thresholdEps:
				m.position = 1
				m.tpPrice = mid + m.tpDist
				m.slPrice = mid - m.slDist
				m.openTime = t
			}
		}
	}

	m.refresh(t, mid)
}

// findReference returns the newer of the qualifying low and high
// extrema; on an exact timestamp tie the low wins.
func (m *ThresholdReversion) findReference(mid, now float64) (t, p float64, ok bool) {
	threshold := m.threshold - thresholdEps
	lowT, lowP, lowOK := m.minQ.FindCandidate(mid, threshold, now, m.minRecency)
	highT, highP, highOK := m.maxQ.FindCandidate(mid, threshold, now, m.minRecency)
	switch {
	case lowOK && highOK:
		if highT > lowT {
			return highT, highP, true
		}
		return lowT, lowP, true
	case lowOK:
		return lowT, lowP, true
	case highOK:
		return highT, highP, true
	default:
		return 0, 0, false
	}
}

func (m *ThresholdReversion) flatten() {
	m.position = 0
	m.tpPrice = math.NaN()
	m.slPrice = math.NaN()
	m.openTime = math.NaN()
}

func (m *ThresholdReversion) refresh(t, mid float64) {
	nan := math.NaN()
	m.fields["position"] = float64(m.position)
	m.fields["reference_price"] = m.refPrice
	m.fields["threshold"] = m.threshold
	m.fields["tp_price"] = m.tpPrice
	m.fields["sl_price"] = m.slPrice

	if !math.IsNaN(m.refPrice) && !math.IsNaN(mid) {
		m.fields["distance_from_reference"] = math.Abs(mid - m.refPrice)
	} else {
		m.fields["distance_from_reference"] = nan
	}
	if !math.IsNaN(m.refTime) && !math.IsNaN(t) {
		m.fields["reference_age_seconds"] = t - m.refTime
	} else {
		m.fields["reference_age_seconds"] = nan
	}
	if !math.IsNaN(m.openTime) && !math.IsNaN(t) {
		m.fields["position_open_age_seconds"] = t - m.openTime
	} else {
		m.fields["position_open_age_seconds"] = nan
	}
	if m.timeout > 0 {
		m.fields["trade_timeout_seconds"] = m.timeout
	} else {
		m.fields["trade_timeout_seconds"] = nan
	}
}

func (m *ThresholdReversion) Value() map[string]float64 { return m.fields }
