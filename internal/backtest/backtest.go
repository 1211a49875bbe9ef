// Package backtest drives the per-symbol tick loop: metrics update,
// warmup gate, exit evaluation, entry evaluation, trade emission.
package backtest

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"fxbacktest-go/internal/feed"
	"fxbacktest-go/internal/ledger"
	"fxbacktest-go/internal/metrics"
	"fxbacktest-go/internal/position"
	"fxbacktest-go/internal/signals"
	"fxbacktest-go/internal/telemetry"
	"fxbacktest-go/internal/tick"
)

// ErrInvariant is returned when the position state machine is asked to
// do something it must never do, such as opening over an open position.
// It aborts the symbol's loop; the coordinator keeps other symbols
// running.
var ErrInvariant = errors.New("position invariant violated")

// Config carries the per-run harness settings.
type Config struct {
	Pair          string
	PipSize       float64
	WarmupSeconds float64
}

// Backtest owns one symbol's pipeline instance. All state is private to
// the instance; nothing is shared across symbols.
type Backtest struct {
	cfg       Config
	producer  feed.Producer
	manager   *metrics.Manager
	generator *signals.Generator
	sink      ledger.Sink
	log       zerolog.Logger

	pos      *position.Position
	lastTick tick.Tick
	haveTick bool
	runStart float64
	emitted  int
}

func New(cfg Config, producer feed.Producer, manager *metrics.Manager, generator *signals.Generator, sink ledger.Sink, log zerolog.Logger) (*Backtest, error) {
	if !(cfg.PipSize > 0) {
		return nil, fmt.Errorf("backtest: pip_size must be positive, got %v", cfg.PipSize)
	}
	if cfg.WarmupSeconds < 0 {
		return nil, fmt.Errorf("backtest: warmup_seconds must be non-negative, got %v", cfg.WarmupSeconds)
	}
	return &Backtest{
		cfg:       cfg,
		producer:  producer,
		manager:   manager,
		generator: generator,
		sink:      sink,
		log:       log,
	}, nil
}

// Run consumes the producer until exhaustion, then force-closes any
// open position at the last known quote.
func (b *Backtest) Run() error {
	for {
		tk, err := b.producer.Next()
		if errors.Is(err, feed.ErrEndOfFeed) {
			break
		}
		if err != nil {
			return fmt.Errorf("producer: %w", err)
		}
		if err := b.handleTick(tk); err != nil {
			return err
		}
	}
	return b.finish()
}

// Trades reports how many trades this run emitted.
func (b *Backtest) Trades() int { return b.emitted }

func (b *Backtest) handleTick(tk tick.Tick) error {
	if !b.haveTick {
		b.runStart = tk.Timestamp
		b.haveTick = true
	}
	b.lastTick = tk
	telemetry.TicksTotal.WithLabelValues(b.cfg.Pair).Inc()

	snap := b.manager.Update(tk)
	isWarmup := tk.Timestamp-b.runStart < b.cfg.WarmupSeconds
	sig := b.generator.Update(snap, tk, isWarmup)
	if isWarmup {
		return nil
	}

	if b.pos != nil {
		if err := b.evalExits(tk, sig); err != nil {
			return err
		}
	}

	// An accepted open in the opposite direction flips the position:
	// close as a reversal, then fall through to the open below.
	if b.pos != nil && sig.ShouldOpen && sig.Direction != 0 && sig.Direction != b.pos.Direction {
		if err := b.close(tk, position.OutcomeReversal); err != nil {
			return err
		}
	}

	if b.pos == nil && sig.ShouldOpen && sig.Direction != 0 {
		return b.open(tk, sig)
	}
	return nil
}

// levelEps absorbs floating-point rounding when a quote lands exactly on
// a TP or SL level.
const levelEps = 1e-12

// evalExits applies the fixed exit order: TP, SL, timeout, exit
// predicates. Exit fills are sided — bid for longs, ask for shorts.
func (b *Backtest) evalExits(tk tick.Tick, sig signals.Signal) error {
	p := b.pos
	switch p.Direction {
	case position.Long:
		if p.HasTP() && tk.Bid >= p.TP-levelEps {
			return b.close(tk, position.OutcomeTP)
		}
		if p.HasSL() && tk.Bid <= p.SL+levelEps {
			return b.close(tk, position.OutcomeSL)
		}
	case position.Short:
		if p.HasTP() && tk.Ask <= p.TP+levelEps {
			return b.close(tk, position.OutcomeTP)
		}
		if p.HasSL() && tk.Ask >= p.SL-levelEps {
			return b.close(tk, position.OutcomeSL)
		}
	default:
		return fmt.Errorf("%w: open position with direction %d", ErrInvariant, p.Direction)
	}

	if p.TimeoutSeconds > 0 && tk.Timestamp-p.EntryTime >= p.TimeoutSeconds {
		return b.close(tk, position.OutcomeTimeout)
	}
	if sig.ShouldClose {
		return b.close(tk, position.OutcomeExitPredicate)
	}
	return nil
}

func (b *Backtest) open(tk tick.Tick, sig signals.Signal) error {
	if b.pos != nil {
		return fmt.Errorf("%w: open requested while position active", ErrInvariant)
	}

	entry := tk.Ask
	if sig.Direction == position.Short {
		entry = tk.Bid
	}

	tp := sig.TP
	if !isFinite(tp) && sig.TPPips > 0 {
		tp = entry + float64(sig.Direction)*sig.TPPips*b.cfg.PipSize
	}
	if !isFinite(tp) {
		tp = math.NaN()
	}
	sl := sig.SL
	if !isFinite(sl) && sig.SLPips > 0 {
		sl = entry - float64(sig.Direction)*sig.SLPips*b.cfg.PipSize
	}
	if !isFinite(sl) {
		sl = math.NaN()
	}

	var metadata map[string]float64
	if len(sig.Metadata) > 0 {
		metadata = make(map[string]float64, len(sig.Metadata))
		for k, v := range sig.Metadata {
			metadata[k] = v
		}
	}

	b.pos = &position.Position{
		Direction:      sig.Direction,
		EntryTime:      tk.Timestamp,
		EntryPrice:     entry,
		TP:             tp,
		SL:             sl,
		TimeoutSeconds: sig.TimeoutSeconds,
		Reason:         sig.Reason,
		Metadata:       metadata,
	}
	b.log.Debug().
		Str("pair", b.cfg.Pair).
		Int("direction", sig.Direction).
		Float64("entry", entry).
		Str("reason", sig.Reason).
		Msg("position opened")
	return nil
}

func (b *Backtest) close(tk tick.Tick, outcome string) error {
	if b.pos == nil {
		return fmt.Errorf("%w: close requested with no open position", ErrInvariant)
	}
	exit := tk.Bid
	if b.pos.Direction == position.Short {
		exit = tk.Ask
	}
	trade := b.pos.Close(b.cfg.Pair, exit, tk.Timestamp, b.cfg.PipSize, outcome)
	b.pos = nil

	if err := b.sink.Emit(trade); err != nil {
		return fmt.Errorf("emit trade: %w", err)
	}
	b.emitted++
	telemetry.TradesTotal.WithLabelValues(b.cfg.Pair, outcome).Inc()
	b.log.Debug().
		Str("pair", b.cfg.Pair).
		Str("outcome", outcome).
		Float64("pnl_pips", trade.PnlPips).
		Msg("position closed")
	return nil
}

func (b *Backtest) finish() error {
	if b.pos == nil {
		return nil
	}
	if !b.haveTick {
		return fmt.Errorf("%w: open position with no ticks processed", ErrInvariant)
	}
	return b.close(b.lastTick, position.OutcomeEndOfFeed)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
