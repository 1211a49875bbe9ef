package metrics

import (
	"fmt"

	"github.com/rs/zerolog"

	"fxbacktest-go/internal/config"
)

// Constructor builds a metric from its config entry. The run's pip size
// is passed alongside so metrics quoting distances in pips can fall
// back to it when the entry does not override pip_size.
type Constructor func(spec config.MetricSpec, pipSize float64) (Metric, error)

var registry = map[string]Constructor{
	"zscore": func(spec config.MetricSpec, _ float64) (Metric, error) {
		return NewZScore(spec.Name, spec.LookbackSeconds)
	},
	"ewma": func(spec config.MetricSpec, _ float64) (Metric, error) {
		return NewEWMA(spec.Name, spec.TauSeconds, spec.InitialValue, spec.PriceField)
	},
	"ewma_slope": func(spec config.MetricSpec, _ float64) (Metric, error) {
		return NewEWMASlope(spec.Name, spec.TauSeconds, spec.WindowSeconds, spec.InitialValue, spec.PriceField)
	},
	"ewma_vol": func(spec config.MetricSpec, _ float64) (Metric, error) {
		return NewEWMAVol(spec.Name, spec.TauSeconds, spec.PercentileHorizonSeconds, spec.Bins, spec.BaseVol, spec.StddevCap)
	},
	"drift_sign": func(spec config.MetricSpec, _ float64) (Metric, error) {
		return NewDriftSign(spec.Name, spec.LookbackSeconds)
	},
	"session": func(spec config.MetricSpec, _ float64) (Metric, error) {
		return NewSession(spec.Name), nil
	},
	"spread": func(spec config.MetricSpec, pipSize float64) (Metric, error) {
		pip := spec.PipSize
		if pip == 0 {
			pip = pipSize
		}
		return NewSpread(spec.Name, pip, spec.WindowSeconds)
	},
	"tick_rate": func(spec config.MetricSpec, _ float64) (Metric, error) {
		return NewTickRate(spec.Name, spec.WindowSeconds)
	},
}

// Build instantiates a single metric, failing on unknown types.
func Build(spec config.MetricSpec, pipSize float64) (Metric, error) {
	ctor, ok := registry[spec.Type]
	if !ok {
		return nil, fmt.Errorf("unrecognized metric type %q for metric %q", spec.Type, spec.Name)
	}
	m, err := ctor(spec, pipSize)
	if err != nil {
		return nil, fmt.Errorf("instantiate metric %q: %w", spec.Name, err)
	}
	return m, nil
}

// FromConfig builds the manager from the configured metric list,
// honoring per-metric enabled flags.
func FromConfig(specs []config.MetricSpec, pipSize float64, log zerolog.Logger) (*Manager, error) {
	built := make([]Metric, 0, len(specs))
	for _, spec := range specs {
		if !spec.IsEnabled() {
			log.Info().Str("metric", spec.Name).Msg("metric disabled via config")
			continue
		}
		m, err := Build(spec, pipSize)
		if err != nil {
			return nil, err
		}
		built = append(built, m)
	}
	return NewManager(built, log), nil
}
