package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"fxbacktest-go/internal/backtest"
	"fxbacktest-go/internal/config"
	"fxbacktest-go/internal/feed"
	"fxbacktest-go/internal/ledger"
	"fxbacktest-go/internal/metrics"
	"fxbacktest-go/internal/signals"
	"fxbacktest-go/internal/telemetry"
	"fxbacktest-go/internal/util"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the run configuration")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := util.NewLogger("info")
		bootLog.Fatal().Err(err).Msg("load config")
	}

	runID := uuid.NewString()
	log := util.WithRun(util.NewLogger(cfg.App.LogLevel), runID, cfg.Backtest.Pair)

	if cfg.App.MetricsAddr != "" {
		_ = telemetry.Serve(cfg.App.MetricsAddr)
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	manager, err := metrics.FromConfig(cfg.Metrics, cfg.Backtest.PipSize, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build metrics")
	}
	generator, err := signals.NewGenerator(cfg.Strategy, cfg.Backtest.PipSize)
	if err != nil {
		log.Fatal().Err(err).Msg("build strategy")
	}

	producer, err := buildProducer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build feed")
	}
	validated := feed.NewValidator(producer, cfg.Backtest.Pair, log)

	memory := ledger.NewMemory(0)
	sinks := ledger.Multi{memory}
	var closers []func() error

	if path := cfg.Backtest.Output.CSVPath; path != "" {
		sink, err := ledger.NewCSV(path)
		if err != nil {
			log.Fatal().Err(err).Msg("open csv ledger")
		}
		sinks = append(sinks, sink)
		closers = append(closers, sink.Close)
	}
	if path := cfg.Backtest.Output.JSONLPath; path != "" {
		sink, err := ledger.NewJSONL(path)
		if err != nil {
			log.Fatal().Err(err).Msg("open jsonl ledger")
		}
		sinks = append(sinks, sink)
		closers = append(closers, sink.Close)
	}
	if path := cfg.Backtest.Output.SQLitePath; path != "" {
		sink, err := ledger.OpenSQLite(path)
		if err != nil {
			log.Fatal().Err(err).Msg("open sqlite ledger")
		}
		sinks = append(sinks, sink)
		closers = append(closers, sink.Close)
	}

	bt, err := backtest.New(backtest.Config{
		Pair:          cfg.Backtest.Pair,
		PipSize:       cfg.Backtest.PipSize,
		WarmupSeconds: cfg.Backtest.WarmupSeconds,
	}, validated, manager, generator, sinks, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build backtest")
	}

	log.Info().Str("provider", cfg.Backtest.Feed.Provider).Msg("backtest started")
	runErr := bt.Run()

	for _, closeSink := range closers {
		if err := closeSink(); err != nil {
			log.Error().Err(err).Msg("close ledger")
		}
	}
	if runErr != nil {
		log.Fatal().Err(runErr).Msg("backtest failed")
	}
	if dropped := validated.Dropped(); dropped > 0 {
		log.Warn().Uint64("dropped", dropped).Msg("anomalous ticks filtered")
	}

	ledger.Summarize(memory.Snapshot()).Render(os.Stdout, cfg.Backtest.Pair, runID)
}

func buildProducer(cfg *config.Config) (feed.Producer, error) {
	fc := cfg.Backtest.Feed
	switch fc.Provider {
	case "", "csv":
		return feed.OpenCSV(fc.Path)
	case "synthetic":
		return feed.NewSynthetic(feed.SyntheticConfig{
			Seed:        fc.Seed,
			Count:       fc.Count,
			StartTime:   fc.StartTime,
			StartMid:    fc.StartMid,
			StepSeconds: fc.StepSeconds,
			Sigma:       fc.Sigma,
			Spread:      fc.SpreadPips * cfg.Backtest.PipSize,
		}), nil
	case "binance":
		return feed.DialBinance(context.Background(), fc.Symbol, util.NewLogger(cfg.App.LogLevel))
	default:
		return nil, fmt.Errorf("unknown feed provider %q", fc.Provider)
	}
}
