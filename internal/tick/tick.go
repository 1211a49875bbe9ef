// Package tick defines the canonical quote record flowing through the
// backtest pipeline.
package tick

// Tick is a single bid/ask observation. Timestamp is UTC seconds since
// the epoch; Hour and Minute are the UTC wall-clock components,
// precomputed once so session lookups stay a table index.
type Tick struct {
	Timestamp float64
	Bid       float64
	Ask       float64
	Mid       float64
	Hour      int
	Minute    int
}

// New derives mid and the wall-clock components from a raw quote.
func New(timestamp, bid, ask float64) Tick {
	secs := int64(timestamp)
	dayS := secs % 86400
	if dayS < 0 {
		dayS += 86400
	}
	return Tick{
		Timestamp: timestamp,
		Bid:       bid,
		Ask:       ask,
		Mid:       (bid + ask) / 2,
		Hour:      int(dayS / 3600),
		Minute:    int(dayS % 3600 / 60),
	}
}
