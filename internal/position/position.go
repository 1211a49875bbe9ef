// Package position models the single open position per symbol and the
// closed trade records it produces.
package position

import "math"

// Position directions. Flat positions are represented by a nil
// *Position in the loop, so Direction is only ever Long or Short here.
const (
	Long  = 1
	Short = -1
)

// Outcome labels attached to closed trades.
const (
	OutcomeTP            = "TP"
	OutcomeSL            = "SL"
	OutcomeTimeout       = "TIMEOUT"
	OutcomeExitPredicate = "EXIT_PREDICATE"
	OutcomeReversal      = "REVERSAL"
	OutcomeEndOfFeed     = "END_OF_FEED"
)

// Position is an open trade. TP and SL use NaN for "unset";
// TimeoutSeconds of zero means no timeout.
type Position struct {
	Direction      int
	EntryTime      float64
	EntryPrice     float64
	TP             float64
	SL             float64
	TimeoutSeconds float64
	Reason         string
	Metadata       map[string]float64
}

// Trade is the record emitted when a position closes. Emission order
// equals chronological exit order.
type Trade struct {
	Pair           string             `csv:"pair" json:"pair"`
	EntryTime      float64            `csv:"entry_time" json:"entry_time"`
	ExitTime       float64            `csv:"exit_time" json:"exit_time"`
	Direction      int                `csv:"direction" json:"direction"`
	EntryPrice     float64            `csv:"entry_price" json:"entry_price"`
	ExitPrice      float64            `csv:"exit_price" json:"exit_price"`
	PnlPips        float64            `csv:"pnl_pips" json:"pnl_pips"`
	HoldingSeconds float64            `csv:"holding_seconds" json:"holding_seconds"`
	Outcome        string             `csv:"outcome" json:"outcome"`
	Reason         string             `csv:"reason" json:"reason"`
	Metadata       map[string]float64 `csv:"-" json:"entry_metadata,omitempty"`
}

// Close finalizes the position at the given sided exit price and
// returns the trade record.
func (p *Position) Close(pair string, exitPrice, exitTime, pipSize float64, outcome string) Trade {
	return Trade{
		Pair:           pair,
		EntryTime:      p.EntryTime,
		ExitTime:       exitTime,
		Direction:      p.Direction,
		EntryPrice:     p.EntryPrice,
		ExitPrice:      exitPrice,
		PnlPips:        (exitPrice - p.EntryPrice) * float64(p.Direction) / pipSize,
		HoldingSeconds: exitTime - p.EntryTime,
		Outcome:        outcome,
		Reason:         p.Reason,
		Metadata:       p.Metadata,
	}
}

// HasTP reports whether a take-profit level is set.
func (p *Position) HasTP() bool { return !math.IsNaN(p.TP) }

// HasSL reports whether a stop-loss level is set.
func (p *Position) HasSL() bool { return !math.IsNaN(p.SL) }
