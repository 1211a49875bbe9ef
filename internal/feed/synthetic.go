package feed

import (
	"math/rand"

	"fxbacktest-go/internal/tick"
)

// SyntheticConfig parameterizes the seeded Brownian quote walk.
type SyntheticConfig struct {
	Seed        int64
	Count       int
	StartTime   float64
	StartMid    float64
	StepSeconds float64
	Sigma       float64 // per-step standard deviation of mid
	Spread      float64 // constant bid/ask spread
}

// Synthetic produces a deterministic Brownian bid/ask walk. The same
// seed always yields the same stream, which the determinism tests and
// fixture generation rely on.
type Synthetic struct {
	rng       *rand.Rand
	remaining int
	t         float64
	mid       float64
	step      float64
	sigma     float64
	spread    float64
	first     bool
}

func NewSynthetic(cfg SyntheticConfig) *Synthetic {
	step := cfg.StepSeconds
	if step <= 0 {
		step = 1
	}
	mid := cfg.StartMid
	if mid <= 0 {
		mid = 1.0
	}
	return &Synthetic{
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		remaining: cfg.Count,
		t:         cfg.StartTime,
		mid:       mid,
		step:      step,
		sigma:     cfg.Sigma,
		spread:    cfg.Spread,
		first:     true,
	}
}

func (s *Synthetic) Next() (tick.Tick, error) {
	if s.remaining <= 0 {
		return tick.Tick{}, ErrEndOfFeed
	}
	s.remaining--

	if s.first {
		s.first = false
	} else {
		s.t += s.step
		s.mid += s.sigma * s.rng.NormFloat64()
	}

	half := s.spread / 2
	return tick.New(s.t, s.mid-half, s.mid+half), nil
}
