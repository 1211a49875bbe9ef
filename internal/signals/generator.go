package signals

import (
	"fmt"

	"fxbacktest-go/internal/config"
	"fxbacktest-go/internal/metrics"
	"fxbacktest-go/internal/tick"
)

// ReasonPredicateBlocked marks signals whose engine wanted to open but
// whose entry predicates did not pass.
const ReasonPredicateBlocked = "entry_predicate_blocked"

// Signal is the per-tick trading intent handed to the position loop.
type Signal struct {
	ShouldOpen     bool
	Direction      int
	TP             float64
	SL             float64
	TPPips         float64
	SLPips         float64
	TimeoutSeconds float64
	Reason         string
	ShouldClose    bool
	CloseReason    string
	Metadata       map[string]float64
}

// Generator composes the entry engine with the configured entry and
// exit predicate gates.
type Generator struct {
	engine     Engine
	entryName  string
	exitName   string
	entryPreds []Predicate
	exitPreds  []Predicate
}

// NewGenerator compiles the strategy config into a ready generator.
func NewGenerator(strategy config.Strategy, pipSize float64) (*Generator, error) {
	engine, err := BuildEngine(strategy.Entry, pipSize)
	if err != nil {
		return nil, err
	}
	entryPreds, err := CompilePredicates(strategy.Entry.Predicates)
	if err != nil {
		return nil, fmt.Errorf("strategy %q: %w", strategy.Name, err)
	}
	exitPreds, err := CompilePredicates(strategy.Exit.Predicates)
	if err != nil {
		return nil, fmt.Errorf("strategy %q: %w", strategy.Name, err)
	}
	return &Generator{
		engine:     engine,
		entryName:  strategy.Entry.Name,
		exitName:   strategy.Exit.Name,
		entryPreds: entryPreds,
		exitPreds:  exitPreds,
	}, nil
}

// Engine exposes the underlying entry engine.
func (g *Generator) Engine() Engine { return g.engine }

// Update computes the latest trading intent. The engine always sees the
// tick so its state stays continuous through warmup; warmup suppresses
// both opens and predicate exits.
//
// An exit rule with no predicates is inert: a literal empty conjunction
// would close every position on its first post-entry tick.
func (g *Generator) Update(snap *metrics.Snapshot, tk tick.Tick, isWarmup bool) Signal {
	entryOK := EvaluateAll(g.entryPreds, snap)
	exitOK := len(g.exitPreds) > 0 && EvaluateAll(g.exitPreds, snap)

	result := g.engine.Update(tk, snap)

	sig := Signal{Reason: g.entryName, Metadata: result.Metadata}

	switch {
	case result.ShouldOpen && entryOK && !isWarmup:
		sig.ShouldOpen = true
		sig.Direction = result.Direction
		sig.TP = result.TP
		sig.SL = result.SL
		sig.TPPips = result.TPPips
		sig.SLPips = result.SLPips
		sig.TimeoutSeconds = result.TimeoutSeconds
		sig.Reason = result.Reason
	case result.ShouldOpen && !entryOK:
		sig.Reason = ReasonPredicateBlocked
	default:
		sig.Reason = result.Reason
	}

	if exitOK && !isWarmup {
		sig.ShouldClose = true
		sig.CloseReason = g.exitName
	}
	return sig
}
