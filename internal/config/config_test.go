package config

import (
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "fxbacktest-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.Backtest.Pair != "EURUSD" {
		t.Fatalf("unexpected pair: %s", cfg.Backtest.Pair)
	}
	if cfg.Backtest.PipSize != 0.0001 {
		t.Fatalf("unexpected pip size: %v", cfg.Backtest.PipSize)
	}
	if cfg.Backtest.WarmupSeconds != 600 {
		t.Fatalf("unexpected warmup: %v", cfg.Backtest.WarmupSeconds)
	}
	if cfg.Backtest.Feed.Provider != "csv" || cfg.Backtest.Feed.Path != "testdata/ticks.csv" {
		t.Fatalf("unexpected feed config: %+v", cfg.Backtest.Feed)
	}
	if cfg.Backtest.Output.CSVPath != "out/trades.csv" {
		t.Fatalf("unexpected output config: %+v", cfg.Backtest.Output)
	}

	if len(cfg.Metrics) != 7 {
		t.Fatalf("expected 7 metric specs, got %d", len(cfg.Metrics))
	}
	if cfg.Metrics[0].Type != "zscore" || cfg.Metrics[0].LookbackSeconds != 1800 {
		t.Fatalf("unexpected first metric: %+v", cfg.Metrics[0])
	}
	if !cfg.Metrics[0].IsEnabled() {
		t.Fatalf("expected enabled default true")
	}
	last := cfg.Metrics[6]
	if last.Name != "disabled_metric" || last.IsEnabled() {
		t.Fatalf("expected disabled metric, got %+v", last)
	}
	vol := cfg.Metrics[3]
	if vol.Bins != 64 || vol.BaseVol != 0.0001 || vol.StddevCap != 6 {
		t.Fatalf("unexpected vol params: %+v", vol)
	}

	entry := cfg.Strategy.Entry
	if entry.Engine != "threshold_reversion" {
		t.Fatalf("unexpected engine: %s", entry.Engine)
	}
	if entry.Params.ThresholdPips != 10 || entry.Params.SLPips != 20 {
		t.Fatalf("unexpected entry params: %+v", entry.Params)
	}
	if len(entry.Predicates) != 2 {
		t.Fatalf("expected 2 entry predicates, got %d", len(entry.Predicates))
	}
	if entry.Predicates[0].Metric != "tr.tick_rate_per_min" || *entry.Predicates[0].Value != 60 {
		t.Fatalf("unexpected first predicate: %+v", entry.Predicates[0])
	}
	exit := cfg.Strategy.Exit
	if exit.Name != "zscore_exit" || len(exit.Predicates) != 1 {
		t.Fatalf("unexpected exit config: %+v", exit)
	}
	if !exit.Predicates[0].UseAbs {
		t.Fatalf("expected use_abs on exit predicate")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(filepath.Join("testdata", "config.yaml"))
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		return cfg
	}

	cfg := base()
	cfg.Backtest.PipSize = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for zero pip size")
	}

	cfg = base()
	cfg.Metrics[1].Name = cfg.Metrics[0].Name
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for duplicate metric name")
	}

	cfg = base()
	cfg.Strategy.Entry.Engine = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for empty engine")
	}

	cfg = base()
	cfg.Strategy.Entry.Predicates[0].Operator = "~"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for bad operator")
	}

	cfg = base()
	cfg.Strategy.Entry.Predicates[0].Value = nil
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for predicate without operand")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "copy.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload returned error: %v", err)
	}
	if reloaded.Strategy.Entry.Params.ThresholdPips != cfg.Strategy.Entry.Params.ThresholdPips {
		t.Fatalf("round trip lost entry params")
	}
}
