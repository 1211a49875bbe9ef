package primitives

import (
	"math"
	"testing"
)

func TestRollingWindowConstantInput(t *testing.T) {
	w, err := NewRollingWindow(60)
	if err != nil {
		t.Fatalf("NewRollingWindow returned error: %v", err)
	}

	const c = 1.2345
	last := 0.0
	for i := 0; i < 20; i++ {
		ts := float64(i)
		dt := ts - last
		w.Append(ts, c, dt)
		last = ts
	}

	mean, std := w.Stats()
	if math.Abs(mean-c) > 1e-9 {
		t.Fatalf("expected mean %v, got %v", c, mean)
	}
	if math.Abs(std) > 1e-9 {
		t.Fatalf("expected zero std, got %v", std)
	}
}

func TestRollingWindowEmptyStatsAreNaN(t *testing.T) {
	w, err := NewRollingWindow(10)
	if err != nil {
		t.Fatalf("NewRollingWindow returned error: %v", err)
	}
	mean, std := w.Stats()
	if !math.IsNaN(mean) || !math.IsNaN(std) {
		t.Fatalf("expected NaN stats on empty window, got (%v, %v)", mean, std)
	}
}

func TestRollingWindowSkipsNonFinite(t *testing.T) {
	w, _ := NewRollingWindow(10)
	w.Append(0, math.NaN(), 1)
	w.Append(1, math.Inf(1), 1)
	w.Append(math.NaN(), 1.0, 1)
	if w.Len() != 0 {
		t.Fatalf("expected non-finite appends to be skipped, have %d samples", w.Len())
	}
}

func TestRollingWindowTrimsExpiredSamples(t *testing.T) {
	w, _ := NewRollingWindow(5)

	// One old sample worth 1s of weight at value 100, then new samples
	// at value 1 pushing it out of the window.
	w.Append(0, 100, 1)
	for ts := 1.0; ts <= 10; ts++ {
		w.Append(ts, 1, 1)
	}

	mean, _ := w.Stats()
	if math.Abs(mean-1) > 1e-9 {
		t.Fatalf("expected old sample fully trimmed, mean %v", mean)
	}
}

func TestRollingWindowPartialTrim(t *testing.T) {
	w, _ := NewRollingWindow(10)

	// Sample spans [0, 8); cutoff at t=12 is 2, so 2s of its weight
	// must be dropped and 6s kept alongside the 4s at value 0.
	w.Append(0, 10, 8)
	w.Append(12, 0, 4)

	mean, _ := w.Stats()
	want := (6.0 * 10.0) / 10.0
	if math.Abs(mean-want) > 1e-9 {
		t.Fatalf("expected mean %v after partial trim, got %v", want, mean)
	}
}

func TestRollingWindowGrowsPastInitialCapacity(t *testing.T) {
	w, _ := NewRollingWindow(1e9)
	for i := 0; i < 1000; i++ {
		w.Append(float64(i), float64(i), 1)
	}
	if w.Len() != 1000 {
		t.Fatalf("expected 1000 samples retained, got %d", w.Len())
	}
	mean, _ := w.Stats()
	if math.Abs(mean-499.5) > 1e-6 {
		t.Fatalf("unexpected mean after growth: %v", mean)
	}
}

func TestNewRollingWindowRejectsBadLookback(t *testing.T) {
	if _, err := NewRollingWindow(0); err == nil {
		t.Fatalf("expected error for zero lookback")
	}
	if _, err := NewRollingWindow(-1); err == nil {
		t.Fatalf("expected error for negative lookback")
	}
}
