package feed

import (
	"math"

	"github.com/rs/zerolog"

	"fxbacktest-go/internal/telemetry"
	"fxbacktest-go/internal/tick"
)

// Anomaly kinds counted by the validator.
const (
	AnomalyNonFinite      = "non_finite"
	AnomalyNegativeSpread = "negative_spread"
	AnomalyOutOfOrder     = "out_of_order"
)

// Validator filters anomalous ticks before they reach the pipeline:
// non-finite fields, crossed quotes, and timestamps moving backwards
// from the latest finite timestamp seen (crossed ticks included).
// Dropped ticks are counted per kind and logged; the wrapped stream's
// other errors pass through untouched.
type Validator struct {
	inner   Producer
	pair    string
	log     zerolog.Logger
	lastTs  float64
	haveTs  bool
	dropped uint64
}

func NewValidator(inner Producer, pair string, log zerolog.Logger) *Validator {
	return &Validator{inner: inner, pair: pair, log: log}
}

// Dropped reports how many ticks have been filtered so far.
func (v *Validator) Dropped() uint64 { return v.dropped }

func (v *Validator) Next() (tick.Tick, error) {
	for {
		tk, err := v.inner.Next()
		if err != nil {
			return tk, err
		}

		switch {
		case !finiteTick(tk):
			v.drop(tk, AnomalyNonFinite)
		case tk.Bid > tk.Ask:
			if !v.haveTs || tk.Timestamp > v.lastTs {
				v.lastTs = tk.Timestamp
				v.haveTs = true
			}
			v.drop(tk, AnomalyNegativeSpread)
		case v.haveTs && tk.Timestamp < v.lastTs:
			v.drop(tk, AnomalyOutOfOrder)
		default:
			v.lastTs = tk.Timestamp
			v.haveTs = true
			return tk, nil
		}
	}
}

func (v *Validator) drop(tk tick.Tick, kind string) {
	v.dropped++
	telemetry.AnomaliesTotal.WithLabelValues(v.pair, kind).Inc()
	v.log.Warn().
		Str("pair", v.pair).
		Str("kind", kind).
		Float64("timestamp", tk.Timestamp).
		Float64("bid", tk.Bid).
		Float64("ask", tk.Ask).
		Msg("dropped anomalous tick")
}

func finiteTick(tk tick.Tick) bool {
	for _, x := range [...]float64{tk.Timestamp, tk.Bid, tk.Ask} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
