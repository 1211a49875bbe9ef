package metrics

import (
	"fmt"
	"math"

	"fxbacktest-go/internal/tick"
)

// EWMA smooths the selected price field with a continuous-time decay.
// The first tick seeds the value to the price unless an initial value
// was configured.
type EWMA struct {
	name   string
	tau    float64
	value  float64
	lastTs float64
	price  func(tick.Tick) float64
	fields map[string]float64
}

func NewEWMA(name string, tauSeconds float64, initialValue *float64, priceField string) (*EWMA, error) {
	if !(tauSeconds > 0) {
		return nil, fmt.Errorf("ewma %q: tau_seconds must be positive, got %v", name, tauSeconds)
	}
	getter, err := priceSelector(priceField)
	if err != nil {
		return nil, fmt.Errorf("ewma %q: %w", name, err)
	}
	value := math.NaN()
	if initialValue != nil {
		value = *initialValue
	}
	return &EWMA{
		name:   name,
		tau:    tauSeconds,
		value:  value,
		lastTs: math.NaN(),
		price:  getter,
		fields: map[string]float64{"ewma": value},
	}, nil
}

func (m *EWMA) Name() string { return m.name }

func (m *EWMA) Update(tk tick.Tick) {
	price := m.price(tk)
	t := tk.Timestamp

	if math.IsNaN(m.value) {
		m.value = price
		m.lastTs = t
	} else {
		dt := minTickDt
		if !math.IsNaN(m.lastTs) {
			dt = t - m.lastTs
			if dt < minTickDt {
				dt = minTickDt
			}
		}
		alpha := 1 - math.Exp(-dt/m.tau)
		m.value = (1-alpha)*m.value + alpha*price
		m.lastTs = t
	}
	m.fields["ewma"] = m.value
}

// Current returns the latest smoothed value.
func (m *EWMA) Current() float64 { return m.value }

func (m *EWMA) Value() map[string]float64 { return m.fields }
