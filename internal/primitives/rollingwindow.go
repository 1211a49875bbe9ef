// Package primitives holds the incremental estimators the indicator
// metrics are built from. Every structure here is single-writer,
// allocation-free on the hot path past its peak working set, and keeps
// a fixed floating-point reduction order so runs reproduce exactly.
package primitives

import (
	"fmt"
	"math"
)

const windowEps = 1e-12

type windowSample struct {
	ts  float64
	val float64
	dt  float64
}

// RollingWindow keeps the samples inside [now-lookback, now], each
// weighted by the time it served in the window. Three running sums make
// Stats O(1); the backing ring doubles on overflow and never shrinks.
type RollingWindow struct {
	lookback float64
	buf      []windowSample
	head     int
	size     int
	sumW     float64
	sumX     float64
	sumX2    float64
}

func NewRollingWindow(lookbackSeconds float64) (*RollingWindow, error) {
	if !isFinite(lookbackSeconds) || lookbackSeconds <= 0 {
		return nil, fmt.Errorf("rolling window: lookback_seconds must be positive, got %v", lookbackSeconds)
	}
	return &RollingWindow{
		lookback: lookbackSeconds,
		buf:      make([]windowSample, 16),
	}, nil
}

func (w *RollingWindow) Len() int { return w.size }

// Append inserts a sample carrying dt seconds of weight, then trims
// entries that have aged past the lookback. Non-finite inputs are
// dropped silently; a non-positive dt is clamped to 1e-9.
func (w *RollingWindow) Append(ts, value, dt float64) {
	if !isFinite(ts) || !isFinite(value) || !isFinite(dt) {
		return
	}
	if dt <= 0 {
		dt = 1e-9
	}

	if w.size == len(w.buf) {
		w.grow()
	}
	w.buf[(w.head+w.size)%len(w.buf)] = windowSample{ts: ts, val: value, dt: dt}
	w.size++

	w.sumW += dt
	w.sumX += dt * value
	w.sumX2 += dt * value * value

	w.trim(ts)
}

func (w *RollingWindow) grow() {
	next := make([]windowSample, len(w.buf)*2)
	for i := 0; i < w.size; i++ {
		next[i] = w.buf[(w.head+i)%len(w.buf)]
	}
	w.buf = next
	w.head = 0
}

func (w *RollingWindow) trim(ts float64) {
	cutoff := ts - w.lookback
	for w.size > 0 {
		s := w.buf[w.head]
		end := s.ts + s.dt

		if end <= cutoff-windowEps {
			w.head = (w.head + 1) % len(w.buf)
			w.size--
			w.sumW -= s.dt
			w.sumX -= s.dt * s.val
			w.sumX2 -= s.dt * s.val * s.val
			continue
		}

		if s.ts < cutoff && cutoff < end {
			// Partially expired: keep only the slice past the cutoff.
			dropDt := cutoff - s.ts
			keepDt := s.dt - dropDt
			if keepDt < 0 {
				keepDt = 0
				dropDt = s.dt
			}
			w.sumW -= dropDt
			w.sumX -= dropDt * s.val
			w.sumX2 -= dropDt * s.val * s.val
			w.buf[w.head] = windowSample{ts: cutoff, val: s.val, dt: keepDt}
		}
		break
	}

	if math.Abs(w.sumW) < windowEps {
		w.sumW = 0
		w.sumX = 0
		w.sumX2 = 0
	}
}

// Stats returns the time-weighted mean and population standard
// deviation, or (NaN, NaN) while the window carries no weight.
func (w *RollingWindow) Stats() (mean, std float64) {
	nan := math.NaN()
	if !isFinite(w.sumW) || w.sumW <= windowEps {
		return nan, nan
	}
	if !isFinite(w.sumX) || !isFinite(w.sumX2) {
		return nan, nan
	}

	mean = w.sumX / w.sumW
	raw := w.sumX2/w.sumW - mean*mean
	if !isFinite(raw) {
		return mean, nan
	}
	if raw < 0 {
		raw = 0
	}
	return mean, math.Sqrt(raw)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
