package primitives

import (
	"fmt"
	"math"
	"sort"
)

type histEvent struct {
	start float64
	end   float64
	bin   int
}

// Histogram accumulates time-weighted observations into fixed bins and
// answers percentile-rank queries over a trailing horizon. Events are
// kept in a grow-only ring so expired weight can be decayed exactly.
type Histogram struct {
	edges   []float64
	horizon float64
	weights []float64
	total   float64
	events  []histEvent
	head    int
	size    int
}

func NewHistogram(edges []float64, horizonSeconds float64) (*Histogram, error) {
	if len(edges) < 2 {
		return nil, fmt.Errorf("histogram: need at least 2 edges, got %d", len(edges))
	}
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return nil, fmt.Errorf("histogram: edges must be strictly increasing at index %d", i)
		}
	}
	if !isFinite(horizonSeconds) || horizonSeconds <= 0 {
		return nil, fmt.Errorf("histogram: horizon_seconds must be positive, got %v", horizonSeconds)
	}
	h := &Histogram{
		edges:   append([]float64(nil), edges...),
		horizon: horizonSeconds,
		weights: make([]float64, len(edges)-1),
		events:  make([]histEvent, 16),
	}
	return h, nil
}

func (h *Histogram) binIndex(x float64) int {
	n := len(h.weights)
	if x <= h.edges[0] {
		return 0
	}
	if x >= h.edges[len(h.edges)-1] {
		return n - 1
	}
	idx := sort.Search(len(h.edges), func(i int) bool { return h.edges[i] > x }) - 1
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return idx
}

// Add assigns the interval's duration to the bin holding value. Empty
// or inverted intervals are ignored.
func (h *Histogram) Add(start, end, value float64) {
	if end <= start {
		return
	}
	b := h.binIndex(value)
	w := end - start
	h.weights[b] += w
	h.total += w

	if h.size == len(h.events) {
		next := make([]histEvent, len(h.events)*2)
		for i := 0; i < h.size; i++ {
			next[i] = h.events[(h.head+i)%len(h.events)]
		}
		h.events = next
		h.head = 0
	}
	h.events[(h.head+h.size)%len(h.events)] = histEvent{start: start, end: end, bin: b}
	h.size++
}

// Trim evicts events fully outside the horizon and partially decays the
// one straddling the cutoff.
func (h *Histogram) Trim(now float64) {
	cutoff := now - h.horizon
	for h.size > 0 {
		ev := h.events[h.head]
		if ev.end <= cutoff {
			w := ev.end - ev.start
			h.weights[ev.bin] -= w
			h.total -= w
			h.head = (h.head + 1) % len(h.events)
			h.size--
			continue
		}
		if ev.start < cutoff && cutoff < ev.end {
			drop := cutoff - ev.start
			h.weights[ev.bin] -= drop
			h.total -= drop
			h.events[h.head].start = cutoff
		}
		break
	}
	if h.total < 0 && -h.total < 1e-9 {
		h.total = 0
	}
}

// PercentileRank returns the linearly interpolated cumulative share of
// total weight at x, or NaN when the histogram holds no weight.
func (h *Histogram) PercentileRank(x float64) float64 {
	if h.total <= 0 {
		return math.NaN()
	}
	b := h.binIndex(x)
	below := 0.0
	for i := 0; i < b; i++ {
		below += h.weights[i]
	}
	left, right := h.edges[b], h.edges[b+1]
	frac := 0.0
	if right > left {
		frac = (x - left) / (right - left)
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}
	}
	return (below + h.weights[b]*frac) / h.total
}

// Total reports the weight currently inside the horizon.
func (h *Histogram) Total() float64 { return h.total }
