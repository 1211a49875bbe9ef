// Package ledger persists closed trades and summarizes them after a
// run. Every sink accepts records synchronously in exit order.
package ledger

import (
	"sync"

	"fxbacktest-go/internal/position"
)

// Sink consumes closed trade records.
type Sink interface {
	Emit(trade position.Trade) error
}

// Memory stores trades in memory for quick inspection and summaries.
type Memory struct {
	mu     sync.Mutex
	trades []position.Trade
}

// NewMemory creates an empty ledger optionally pre-sizing storage.
func NewMemory(capacity int) *Memory {
	if capacity < 0 {
		capacity = 0
	}
	return &Memory{trades: make([]position.Trade, 0, capacity)}
}

// Emit appends a trade to the ledger.
func (m *Memory) Emit(trade position.Trade) error {
	m.mu.Lock()
	m.trades = append(m.trades, trade)
	m.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the recorded trades.
func (m *Memory) Snapshot() []position.Trade {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]position.Trade, len(m.trades))
	copy(out, m.trades)
	return out
}

// Reset clears all stored trades.
func (m *Memory) Reset() {
	m.mu.Lock()
	m.trades = m.trades[:0]
	m.mu.Unlock()
}

// Multi fans each record out to several sinks, stopping on the first
// sink error.
type Multi []Sink

func (m Multi) Emit(trade position.Trade) error {
	for _, sink := range m {
		if err := sink.Emit(trade); err != nil {
			return err
		}
	}
	return nil
}
