// Package signals turns metric snapshots into position intents: it
// evaluates configured predicates, runs the entry engine, and folds the
// results into a per-tick signal.
package signals

import (
	"fmt"
	"math"

	"fxbacktest-go/internal/config"
	"fxbacktest-go/internal/metrics"
)

// Predicate is a compiled comparison of one snapshot value against a
// literal or another snapshot value. A missing or non-finite operand
// makes the predicate false.
type Predicate struct {
	key      string
	op       func(a, b float64) bool
	useAbs   bool
	value    float64
	otherKey string
	hasValue bool
}

var operators = map[string]func(a, b float64) bool{
	"<":  func(a, b float64) bool { return a < b },
	"<=": func(a, b float64) bool { return a <= b },
	">":  func(a, b float64) bool { return a > b },
	">=": func(a, b float64) bool { return a >= b },
	"==": func(a, b float64) bool { return a == b },
	"!=": func(a, b float64) bool { return a != b },
}

// CompilePredicate validates and compiles a predicate config.
func CompilePredicate(cfg config.PredicateConfig) (Predicate, error) {
	op, ok := operators[cfg.Operator]
	if !ok {
		return Predicate{}, fmt.Errorf("predicate %q: unknown operator %q", cfg.Metric, cfg.Operator)
	}
	if cfg.Metric == "" {
		return Predicate{}, fmt.Errorf("predicate: metric key must be non-empty")
	}
	if cfg.Value == nil && cfg.OtherMetric == "" {
		return Predicate{}, fmt.Errorf("predicate %q: either value or other_metric is required", cfg.Metric)
	}
	if cfg.Value != nil && cfg.OtherMetric != "" {
		return Predicate{}, fmt.Errorf("predicate %q: value and other_metric are mutually exclusive", cfg.Metric)
	}
	p := Predicate{
		key:      cfg.Metric,
		op:       op,
		useAbs:   cfg.UseAbs,
		otherKey: cfg.OtherMetric,
	}
	if cfg.Value != nil {
		p.value = *cfg.Value
		p.hasValue = true
	}
	return p, nil
}

// CompilePredicates compiles a list, preserving order.
func CompilePredicates(cfgs []config.PredicateConfig) ([]Predicate, error) {
	out := make([]Predicate, 0, len(cfgs))
	for _, cfg := range cfgs {
		p, err := CompilePredicate(cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Evaluate resolves both operands from the snapshot and compares them.
func (p Predicate) Evaluate(snap *metrics.Snapshot) bool {
	left, ok := snap.Value(p.key)
	if !ok || !finite(left) {
		return false
	}
	if p.useAbs {
		left = math.Abs(left)
	}

	right := p.value
	if !p.hasValue {
		right, ok = snap.Value(p.otherKey)
		if !ok || !finite(right) {
			return false
		}
	}
	return p.op(left, right)
}

// EvaluateAll is the logical AND of the list; an empty list is true.
func EvaluateAll(preds []Predicate, snap *metrics.Snapshot) bool {
	for _, p := range preds {
		if !p.Evaluate(snap) {
			return false
		}
	}
	return true
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
