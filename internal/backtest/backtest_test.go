package backtest

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"fxbacktest-go/internal/config"
	"fxbacktest-go/internal/feed"
	"fxbacktest-go/internal/ledger"
	"fxbacktest-go/internal/metrics"
	"fxbacktest-go/internal/position"
	"fxbacktest-go/internal/signals"
	"fxbacktest-go/internal/tick"
)

// sliceProducer replays a fixed tick slice.
type sliceProducer struct {
	ticks []tick.Tick
	idx   int
}

func (p *sliceProducer) Next() (tick.Tick, error) {
	if p.idx >= len(p.ticks) {
		return tick.Tick{}, feed.ErrEndOfFeed
	}
	tk := p.ticks[p.idx]
	p.idx++
	return tk, nil
}

func mids(points []struct{ ts, mid float64 }, spread float64) []tick.Tick {
	out := make([]tick.Tick, len(points))
	for i, pt := range points {
		half := spread / 2
		out[i] = tick.New(pt.ts, pt.mid-half, pt.mid+half)
	}
	return out
}

func reversionStrategy() config.Strategy {
	return config.Strategy{
		Name: "reversion",
		Entry: config.EntryConfig{
			Name:   "thr_entry",
			Engine: "threshold_reversion",
			Params: config.EntryParams{
				LookbackSeconds:   1800,
				ThresholdPips:     10,
				TPPips:            10,
				SLPips:            10,
				MinRecencySeconds: 0,
			},
		},
		Exit: config.ExitConfig{Name: "default_exit"},
	}
}

func runBacktest(t *testing.T, ticks []tick.Tick, strategy config.Strategy, cfg Config) []position.Trade {
	t.Helper()
	manager := metrics.NewManager(nil, zerolog.Nop())
	generator, err := signals.NewGenerator(strategy, cfg.PipSize)
	if err != nil {
		t.Fatalf("NewGenerator returned error: %v", err)
	}
	sink := ledger.NewMemory(0)
	bt, err := New(cfg, &sliceProducer{ticks: ticks}, manager, generator, sink, zerolog.Nop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := bt.Run(); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	return sink.Snapshot()
}

func TestReversionRoundTripHitsTP(t *testing.T) {
	// Mid descends 10 pips over 10 seconds, then rebounds.
	var points []struct{ ts, mid float64 }
	for i := 0; i <= 10; i++ {
		points = append(points, struct{ ts, mid float64 }{float64(i), 1.1000 - 0.0001*float64(i)})
	}
	for i := 1; i <= 10; i++ {
		points = append(points, struct{ ts, mid float64 }{float64(10 + i), 1.0990 + 0.0001*float64(i)})
	}

	trades := runBacktest(t, mids(points, 0), reversionStrategy(), Config{
		Pair:    "EURUSD",
		PipSize: 0.0001,
	})

	// The full retrace re-arms the metric off the new low on the final
	// tick, so a short may open and be flushed at feed end; the round
	// trip itself must be exactly one long TP trade.
	var longs []position.Trade
	for _, trade := range trades {
		if trade.Direction == position.Long {
			longs = append(longs, trade)
		} else if trade.Outcome != position.OutcomeEndOfFeed {
			t.Fatalf("unexpected extra trade: %+v", trade)
		}
	}
	if len(longs) != 1 {
		t.Fatalf("expected exactly one long trade, got %d", len(longs))
	}
	trade := longs[0]
	if trade.Outcome != position.OutcomeTP {
		t.Fatalf("expected TP outcome, got %s", trade.Outcome)
	}
	if math.Abs(trade.EntryPrice-1.0990) > 1e-9 {
		t.Fatalf("expected entry near the low, got %v", trade.EntryPrice)
	}
	if math.Abs(trade.PnlPips-10) > 1e-6 {
		t.Fatalf("expected +10 pips, got %v", trade.PnlPips)
	}
	if trade.EntryTime > trade.ExitTime {
		t.Fatalf("entry after exit: %v > %v", trade.EntryTime, trade.ExitTime)
	}
}

func TestStopLossUsesSidedPrices(t *testing.T) {
	// Descend to open a long, then keep falling through the stop.
	var points []struct{ ts, mid float64 }
	for i := 0; i <= 10; i++ {
		points = append(points, struct{ ts, mid float64 }{float64(i), 1.1000 - 0.0001*float64(i)})
	}
	for i := 1; i <= 12; i++ {
		points = append(points, struct{ ts, mid float64 }{float64(10 + i), 1.0990 - 0.0001*float64(i)})
	}

	trades := runBacktest(t, mids(points, 0.00002), reversionStrategy(), Config{
		Pair:    "EURUSD",
		PipSize: 0.0001,
	})

	if len(trades) == 0 {
		t.Fatalf("expected at least one trade")
	}
	trade := trades[0]
	if trade.Outcome != position.OutcomeSL {
		t.Fatalf("expected SL outcome, got %s", trade.Outcome)
	}
	// Long exits fill at bid.
	if trade.PnlPips >= 0 {
		t.Fatalf("expected a loss, got %v pips", trade.PnlPips)
	}
}

func TestTimeoutClosesStalePosition(t *testing.T) {
	strategy := reversionStrategy()
	strategy.Entry.Params.TradeTimeoutSeconds = 30
	strategy.Entry.Params.SLPips = 1000

	// Open a long, then drift sideways below TP until the timeout.
	var points []struct{ ts, mid float64 }
	for i := 0; i <= 10; i++ {
		points = append(points, struct{ ts, mid float64 }{float64(i), 1.1000 - 0.0001*float64(i)})
	}
	for i := 1; i <= 40; i++ {
		points = append(points, struct{ ts, mid float64 }{float64(10 + i), 1.0992})
	}

	trades := runBacktest(t, mids(points, 0), strategy, Config{Pair: "EURUSD", PipSize: 0.0001})
	if len(trades) != 1 {
		t.Fatalf("expected one trade, got %d", len(trades))
	}
	if trades[0].Outcome != position.OutcomeTimeout {
		t.Fatalf("expected TIMEOUT, got %s", trades[0].Outcome)
	}
	if trades[0].HoldingSeconds < 30 {
		t.Fatalf("closed before the timeout: %v", trades[0].HoldingSeconds)
	}
}

func TestEndOfFeedForcesClose(t *testing.T) {
	strategy := reversionStrategy()
	strategy.Entry.Params.SLPips = 1000

	var points []struct{ ts, mid float64 }
	for i := 0; i <= 10; i++ {
		points = append(points, struct{ ts, mid float64 }{float64(i), 1.1000 - 0.0001*float64(i)})
	}
	// Feed ends while the position drifts below TP.
	points = append(points, struct{ ts, mid float64 }{12, 1.0992})

	trades := runBacktest(t, mids(points, 0), strategy, Config{Pair: "EURUSD", PipSize: 0.0001})
	if len(trades) != 1 {
		t.Fatalf("expected one trade, got %d", len(trades))
	}
	if trades[0].Outcome != position.OutcomeEndOfFeed {
		t.Fatalf("expected END_OF_FEED, got %s", trades[0].Outcome)
	}
}

func TestWarmupBlocksEntries(t *testing.T) {
	var points []struct{ ts, mid float64 }
	for i := 0; i <= 10; i++ {
		points = append(points, struct{ ts, mid float64 }{float64(i), 1.1000 - 0.0001*float64(i)})
	}
	for i := 1; i <= 10; i++ {
		points = append(points, struct{ ts, mid float64 }{float64(10 + i), 1.0990 + 0.0001*float64(i)})
	}

	trades := runBacktest(t, mids(points, 0), reversionStrategy(), Config{
		Pair:          "EURUSD",
		PipSize:       0.0001,
		WarmupSeconds: 1000,
	})
	if len(trades) != 0 {
		t.Fatalf("expected no trades during warmup, got %d", len(trades))
	}
}

func TestEntryPredicateGuardBlocksSparseStream(t *testing.T) {
	strategy := reversionStrategy()
	strategy.Entry.Predicates = []config.PredicateConfig{
		{Metric: "tr.tick_rate_per_min", Operator: ">", Value: func() *float64 { v := 60.0; return &v }()},
	}

	manager, err := metrics.FromConfig([]config.MetricSpec{
		{Name: "tr", Type: "tick_rate", WindowSeconds: 60},
	}, 0.0001, zerolog.Nop())
	if err != nil {
		t.Fatalf("FromConfig returned error: %v", err)
	}
	generator, err := signals.NewGenerator(strategy, 0.0001)
	if err != nil {
		t.Fatalf("NewGenerator returned error: %v", err)
	}

	// Sparse ticks (one per 2s, 30/min) that would otherwise open.
	var ticks []tick.Tick
	for i := 0; i <= 10; i++ {
		mid := 1.1000 - 0.0001*float64(i)
		ticks = append(ticks, tick.New(float64(2*i), mid, mid))
	}

	sink := ledger.NewMemory(0)
	bt, err := New(Config{Pair: "EURUSD", PipSize: 0.0001}, &sliceProducer{ticks: ticks}, manager, generator, sink, zerolog.Nop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := bt.Run(); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if trades := sink.Snapshot(); len(trades) != 0 {
		t.Fatalf("expected predicate guard to block all trades, got %d", len(trades))
	}
}

func TestTradeInvariantsAcrossOutcomes(t *testing.T) {
	synth := feed.NewSynthetic(feed.SyntheticConfig{
		Seed:        99,
		Count:       5000,
		StartMid:    1.1000,
		StepSeconds: 1,
		Sigma:       0.00008,
		Spread:      0.0001,
	})
	var ticks []tick.Tick
	for {
		tk, err := synth.Next()
		if err != nil {
			break
		}
		ticks = append(ticks, tk)
	}

	strategy := reversionStrategy()
	strategy.Entry.Params.TradeTimeoutSeconds = 600
	trades := runBacktest(t, ticks, strategy, Config{Pair: "EURUSD", PipSize: 0.0001})

	valid := map[string]bool{
		position.OutcomeTP:            true,
		position.OutcomeSL:            true,
		position.OutcomeTimeout:       true,
		position.OutcomeExitPredicate: true,
		position.OutcomeReversal:      true,
		position.OutcomeEndOfFeed:     true,
	}
	lastExit := math.Inf(-1)
	for i, trade := range trades {
		if trade.Direction != 1 && trade.Direction != -1 {
			t.Fatalf("trade %d: invalid direction %d", i, trade.Direction)
		}
		if trade.EntryTime > trade.ExitTime {
			t.Fatalf("trade %d: entry after exit", i)
		}
		if !valid[trade.Outcome] {
			t.Fatalf("trade %d: unknown outcome %q", i, trade.Outcome)
		}
		if trade.ExitTime < lastExit {
			t.Fatalf("trade %d: emission out of exit order", i)
		}
		lastExit = trade.ExitTime
	}
}

func TestIdenticalRunsProduceIdenticalLedgers(t *testing.T) {
	run := func() []byte {
		synth := feed.NewSynthetic(feed.SyntheticConfig{
			Seed:        7,
			Count:       3000,
			StartMid:    1.1000,
			StepSeconds: 1,
			Sigma:       0.0001,
			Spread:      0.0001,
		})
		var ticks []tick.Tick
		for {
			tk, err := synth.Next()
			if err != nil {
				break
			}
			ticks = append(ticks, tk)
		}
		trades := runBacktest(t, ticks, reversionStrategy(), Config{Pair: "EURUSD", PipSize: 0.0001})

		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		for _, trade := range trades {
			trade.Metadata = nil
			if err := enc.Encode(trade); err != nil {
				t.Fatalf("encode trade: %v", err)
			}
		}
		return buf.Bytes()
	}

	first := run()
	second := run()
	if len(first) == 0 {
		t.Fatalf("expected the seeded walk to produce trades")
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("ledgers differ between identical runs")
	}
}

func TestCoordinatorIsolatesFailures(t *testing.T) {
	good := func() *Backtest {
		manager := metrics.NewManager(nil, zerolog.Nop())
		generator, _ := signals.NewGenerator(reversionStrategy(), 0.0001)
		bt, _ := New(Config{Pair: "EURUSD", PipSize: 0.0001},
			&sliceProducer{ticks: []tick.Tick{tick.New(0, 1.1, 1.1)}},
			manager, generator, ledger.NewMemory(0), zerolog.Nop())
		return bt
	}
	bad := func() *Backtest {
		manager := metrics.NewManager(nil, zerolog.Nop())
		generator, _ := signals.NewGenerator(reversionStrategy(), 0.0001)
		bt, _ := New(Config{Pair: "GBPUSD", PipSize: 0.0001},
			&failingProducer{}, manager, generator, ledger.NewMemory(0), zerolog.Nop())
		return bt
	}

	results := NewCoordinator(zerolog.Nop()).RunAll([]Run{
		{Pair: "EURUSD", Backtest: good()},
		{Pair: "GBPUSD", Backtest: bad()},
		{Pair: "USDJPY", Backtest: good()},
	})

	if results[0].Err != nil || results[2].Err != nil {
		t.Fatalf("expected healthy pairs to finish: %v / %v", results[0].Err, results[2].Err)
	}
	if results[1].Err == nil {
		t.Fatalf("expected the failing pair to report its error")
	}
}

type failingProducer struct{}

func (failingProducer) Next() (tick.Tick, error) {
	return tick.Tick{}, errors.New("broken feed")
}
