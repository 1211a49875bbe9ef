// Package config exposes strongly typed run configuration structs
// loaded from YAML: the metric set, the strategy, and the backtest
// harness settings. Structural validation happens here; per-parameter
// numeric validation happens in the metric and engine constructors so a
// bad value fails the run before the first tick either way.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Feed selects and parameterizes the tick producer.
type Feed struct {
	Provider    string  `yaml:"provider"` // csv, synthetic, binance
	Path        string  `yaml:"path"`
	Symbol      string  `yaml:"symbol"`
	Seed        int64   `yaml:"seed"`
	Count       int     `yaml:"count"`
	StartTime   float64 `yaml:"start_time"`
	StartMid    float64 `yaml:"start_mid"`
	StepSeconds float64 `yaml:"step_seconds"`
	Sigma       float64 `yaml:"sigma"`
	SpreadPips  float64 `yaml:"spread_pips"`
}

// Output routes the trade ledger.
type Output struct {
	CSVPath    string `yaml:"csv_path"`
	JSONLPath  string `yaml:"jsonl_path"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Backtest groups the per-run harness settings.
type Backtest struct {
	Pair          string  `yaml:"pair"`
	PipSize       float64 `yaml:"pip_size"`
	WarmupSeconds float64 `yaml:"warmup_seconds"`
	Feed          Feed    `yaml:"feed"`
	Output        Output  `yaml:"output"`
}

// MetricSpec is one entry of the metrics list. The parameter fields are
// a flat union across metric types; each constructor reads the subset
// it understands and rejects bad values.
type MetricSpec struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Enabled *bool  `yaml:"enabled"`

	LookbackSeconds          float64  `yaml:"lookback_seconds"`
	TauSeconds               float64  `yaml:"tau_seconds"`
	WindowSeconds            float64  `yaml:"window_seconds"`
	InitialValue             *float64 `yaml:"initial_value"`
	PriceField               string   `yaml:"price_field"`
	PercentileHorizonSeconds float64  `yaml:"percentile_horizon_seconds"`
	Bins                     int      `yaml:"bins"`
	BaseVol                  float64  `yaml:"base_vol"`
	StddevCap                float64  `yaml:"stddev_cap"`
	PipSize                  float64  `yaml:"pip_size"`
}

// IsEnabled reports the enabled flag, defaulting to true.
func (s MetricSpec) IsEnabled() bool { return s.Enabled == nil || *s.Enabled }

// PredicateConfig compares one snapshot key against a literal value or
// a second snapshot key. Exactly one of Value and OtherMetric is set.
type PredicateConfig struct {
	Metric      string   `yaml:"metric"`
	Operator    string   `yaml:"operator"`
	Value       *float64 `yaml:"value"`
	OtherMetric string   `yaml:"other_metric"`
	UseAbs      bool     `yaml:"use_abs"`
}

// EntryParams is the flat union of entry engine parameters.
type EntryParams struct {
	LookbackSeconds     float64 `yaml:"lookback_seconds"`
	ThresholdPips       float64 `yaml:"threshold_pips"`
	TPPips              float64 `yaml:"tp_pips"`
	SLPips              float64 `yaml:"sl_pips"`
	MinRecencySeconds   float64 `yaml:"min_recency_seconds"`
	TradeTimeoutSeconds float64 `yaml:"trade_timeout_seconds"`

	FastMetric   string `yaml:"fast_metric"`
	SlowMetric   string `yaml:"slow_metric"`
	LongOnCross  bool   `yaml:"long_on_cross"`
	ShortOnCross bool   `yaml:"short_on_cross"`
}

// EntryConfig names an entry engine and its gate predicates.
type EntryConfig struct {
	Name       string            `yaml:"name"`
	Engine     string            `yaml:"engine"`
	Params     EntryParams       `yaml:"params"`
	Predicates []PredicateConfig `yaml:"predicates"`
}

// ExitConfig is a predicate-governed exit rule.
type ExitConfig struct {
	Name       string            `yaml:"name"`
	Predicates []PredicateConfig `yaml:"predicates"`
}

// Strategy is the top-level strategy definition.
type Strategy struct {
	SchemaVersion string      `yaml:"schema_version"`
	Name          string      `yaml:"name"`
	Entry         EntryConfig `yaml:"entry"`
	Exit          ExitConfig  `yaml:"exit"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App          `yaml:"app"`
	Backtest Backtest     `yaml:"backtest"`
	Metrics  []MetricSpec `yaml:"metrics"`
	Strategy Strategy     `yaml:"strategy"`
}

// Load reads a YAML file from disk, hydrates a Config, and validates it.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

var validOperators = map[string]bool{
	"<": true, "<=": true, ">": true, ">=": true, "==": true, "!=": true,
}

// Validate checks structural constraints across the whole config.
func (c *Config) Validate() error {
	if !(c.Backtest.PipSize > 0) {
		return fmt.Errorf("backtest: pip_size must be positive, got %v", c.Backtest.PipSize)
	}
	if c.Backtest.WarmupSeconds < 0 {
		return fmt.Errorf("backtest: warmup_seconds must be non-negative, got %v", c.Backtest.WarmupSeconds)
	}

	seen := make(map[string]bool, len(c.Metrics))
	for i, m := range c.Metrics {
		if m.Name == "" {
			return fmt.Errorf("metrics[%d]: name must be non-empty", i)
		}
		if m.Type == "" {
			return fmt.Errorf("metric %q: type must be non-empty", m.Name)
		}
		if seen[m.Name] {
			return fmt.Errorf("metric %q: duplicate name", m.Name)
		}
		seen[m.Name] = true
	}

	if c.Strategy.Entry.Name == "" {
		return fmt.Errorf("strategy: entry name must be non-empty")
	}
	if c.Strategy.Entry.Engine == "" {
		return fmt.Errorf("strategy entry %q: engine must be non-empty", c.Strategy.Entry.Name)
	}
	if err := validatePredicates(c.Strategy.Entry.Predicates, "entry"); err != nil {
		return err
	}
	if err := validatePredicates(c.Strategy.Exit.Predicates, "exit"); err != nil {
		return err
	}
	return nil
}

func validatePredicates(preds []PredicateConfig, where string) error {
	for i, p := range preds {
		if p.Metric == "" {
			return fmt.Errorf("%s predicate [%d]: metric must be non-empty", where, i)
		}
		if !validOperators[p.Operator] {
			return fmt.Errorf("%s predicate %q: unknown operator %q", where, p.Metric, p.Operator)
		}
		if p.Value == nil && p.OtherMetric == "" {
			return fmt.Errorf("%s predicate %q: either value or other_metric is required", where, p.Metric)
		}
		if p.Value != nil && p.OtherMetric != "" {
			return fmt.Errorf("%s predicate %q: value and other_metric are mutually exclusive", where, p.Metric)
		}
	}
	return nil
}
