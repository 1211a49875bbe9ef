package primitives

import (
	"fmt"
	"math"
)

// EWMA is a continuous-time exponential smoother. With power 2 it
// smooths squared inputs, which is how the volatility metric estimates
// variance of log returns.
type EWMA struct {
	tau    float64
	power  int
	y      float64
	lastT  float64
	seeded bool
}

func NewEWMA(tauSeconds float64, power int) (*EWMA, error) {
	if !isFinite(tauSeconds) || tauSeconds <= 0 {
		return nil, fmt.Errorf("ewma: tau_seconds must be positive, got %v", tauSeconds)
	}
	if power != 1 && power != 2 {
		return nil, fmt.Errorf("ewma: power must be 1 or 2, got %d", power)
	}
	return &EWMA{tau: tauSeconds, power: power}, nil
}

// Reset returns the smoother to its zero-initialized state.
func (e *EWMA) Reset() {
	e.y = 0
	e.lastT = 0
	e.seeded = false
}

// Update advances the smoother to time t. The first call only seeds the
// clock and returns the zero-initialized value.
func (e *EWMA) Update(t, x float64) float64 {
	if !e.seeded {
		e.lastT = t
		e.seeded = true
		return e.y
	}

	dt := t - e.lastT
	if dt < 1e-9 {
		dt = 1e-9
	}
	decay := math.Exp(-dt / e.tau)
	v := x
	if e.power == 2 {
		v = x * x
	}
	e.y = decay*e.y + (1-decay)*v
	e.lastT = t
	return e.y
}

func (e *EWMA) Value() float64 { return e.y }
