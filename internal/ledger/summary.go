package ledger

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/olekukonko/tablewriter"

	"fxbacktest-go/internal/position"
)

// Summary aggregates a run's closed trades.
type Summary struct {
	Trades          int
	Wins            int
	WinRate         float64
	TotalPips       float64
	MeanPips        float64
	MedianPips      float64
	StdDevPips      float64
	MaxDrawdownPips float64
	Outcomes        map[string]int
}

// Summarize computes summary statistics over the trades in emission
// order. An empty ledger yields a zero summary with NaN moments.
func Summarize(trades []position.Trade) Summary {
	s := Summary{
		Outcomes:   make(map[string]int),
		MeanPips:   math.NaN(),
		MedianPips: math.NaN(),
		StdDevPips: math.NaN(),
	}
	if len(trades) == 0 {
		return s
	}

	pnl := make([]float64, len(trades))
	equity := 0.0
	peak := 0.0
	for i, trade := range trades {
		pnl[i] = trade.PnlPips
		s.TotalPips += trade.PnlPips
		if trade.PnlPips > 0 {
			s.Wins++
		}
		s.Outcomes[trade.Outcome]++

		equity += trade.PnlPips
		if equity > peak {
			peak = equity
		}
		if dd := peak - equity; dd > s.MaxDrawdownPips {
			s.MaxDrawdownPips = dd
		}
	}

	s.Trades = len(trades)
	s.WinRate = float64(s.Wins) / float64(s.Trades)
	if mean, err := stats.Mean(pnl); err == nil {
		s.MeanPips = mean
	}
	if median, err := stats.Median(pnl); err == nil {
		s.MedianPips = median
	}
	if sd, err := stats.StandardDeviation(pnl); err == nil {
		s.StdDevPips = sd
	}
	return s
}

// Render prints the summary as a table.
func (s Summary) Render(w io.Writer, pair, runID string) {
	fmt.Fprintf(w, "run %s  pair %s\n", runID, pair)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"trades", fmt.Sprintf("%d", s.Trades)})
	table.Append([]string{"win rate", fmt.Sprintf("%.2f%%", s.WinRate*100)})
	table.Append([]string{"total pips", fmt.Sprintf("%.2f", s.TotalPips)})
	table.Append([]string{"mean pips", fmt.Sprintf("%.3f", s.MeanPips)})
	table.Append([]string{"median pips", fmt.Sprintf("%.3f", s.MedianPips)})
	table.Append([]string{"stddev pips", fmt.Sprintf("%.3f", s.StdDevPips)})
	table.Append([]string{"max drawdown pips", fmt.Sprintf("%.2f", s.MaxDrawdownPips)})

	outcomes := make([]string, 0, len(s.Outcomes))
	for outcome := range s.Outcomes {
		outcomes = append(outcomes, outcome)
	}
	sort.Strings(outcomes)
	for _, outcome := range outcomes {
		table.Append([]string{"outcome " + outcome, fmt.Sprintf("%d", s.Outcomes[outcome])})
	}
	table.Render()
}
