// Package feed hosts tick producers: recorded CSV replay, seeded
// synthetic walks, and a live quote stream. A Validator wraps any
// producer so the pipeline only ever sees clean, ordered ticks.
package feed

import (
	"errors"

	"fxbacktest-go/internal/tick"
)

// ErrEndOfFeed signals normal exhaustion of a producer.
var ErrEndOfFeed = errors.New("feed: end of feed")

// Producer yields ticks in monotone timestamp order. Next returns
// ErrEndOfFeed when the stream is exhausted; any other error is
// unrecoverable for this producer.
type Producer interface {
	Next() (tick.Tick, error)
}

// TickRow is the on-disk CSV shape shared by the replay producer and
// the fixture generator.
type TickRow struct {
	Timestamp float64 `csv:"timestamp"`
	Bid       float64 `csv:"bid"`
	Ask       float64 `csv:"ask"`
}
