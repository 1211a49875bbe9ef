package backtest

import (
	"sync"

	"github.com/rs/zerolog"
)

// Run pairs a symbol with its fully wired pipeline instance.
type Run struct {
	Pair     string
	Backtest *Backtest
}

// Result reports one symbol's outcome.
type Result struct {
	Pair   string
	Trades int
	Err    error
}

// Coordinator fans independent symbol pipelines out to goroutines.
// Pipelines share nothing; a failing symbol is recorded and does not
// abort the batch.
type Coordinator struct {
	log zerolog.Logger
}

func NewCoordinator(log zerolog.Logger) *Coordinator {
	return &Coordinator{log: log}
}

// RunAll executes every run and returns results in input order.
func (c *Coordinator) RunAll(runs []Run) []Result {
	results := make([]Result, len(runs))
	var wg sync.WaitGroup
	for i, run := range runs {
		wg.Add(1)
		go func(i int, run Run) {
			defer wg.Done()
			err := run.Backtest.Run()
			results[i] = Result{Pair: run.Pair, Trades: run.Backtest.Trades(), Err: err}
			if err != nil {
				c.log.Error().Err(err).Str("pair", run.Pair).Msg("backtest failed")
			} else {
				c.log.Info().Str("pair", run.Pair).Int("trades", run.Backtest.Trades()).Msg("backtest finished")
			}
		}(i, run)
	}
	wg.Wait()
	return results
}
