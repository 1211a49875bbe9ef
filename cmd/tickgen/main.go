// Command tickgen writes a seeded Brownian-motion tick fixture as a
// `timestamp,bid,ask` CSV. The same flags always produce the same file.
package main

import (
	"errors"
	"flag"
	"os"

	"github.com/gocarina/gocsv"

	"fxbacktest-go/internal/feed"
	"fxbacktest-go/internal/util"
)

func main() {
	out := flag.String("out", "ticks.csv", "output CSV path")
	seed := flag.Int64("seed", 42, "random seed")
	count := flag.Int("count", 10000, "number of ticks")
	startTime := flag.Float64("start-time", 1420070400, "first timestamp, epoch seconds")
	startMid := flag.Float64("start-mid", 1.1000, "initial mid price")
	step := flag.Float64("step", 1.0, "seconds between ticks")
	sigma := flag.Float64("sigma", 0.00005, "per-step mid standard deviation")
	spread := flag.Float64("spread", 0.0001, "constant bid/ask spread")
	flag.Parse()

	log := util.NewLogger("info")

	producer := feed.NewSynthetic(feed.SyntheticConfig{
		Seed:        *seed,
		Count:       *count,
		StartTime:   *startTime,
		StartMid:    *startMid,
		StepSeconds: *step,
		Sigma:       *sigma,
		Spread:      *spread,
	})

	rows := make([]feed.TickRow, 0, *count)
	for {
		tk, err := producer.Next()
		if errors.Is(err, feed.ErrEndOfFeed) {
			break
		}
		if err != nil {
			log.Fatal().Err(err).Msg("generate ticks")
		}
		rows = append(rows, feed.TickRow{Timestamp: tk.Timestamp, Bid: tk.Bid, Ask: tk.Ask})
	}

	file, err := os.Create(*out)
	if err != nil {
		log.Fatal().Err(err).Msg("create output")
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		log.Fatal().Err(err).Msg("write output")
	}
	log.Info().Str("path", *out).Int("ticks", len(rows)).Msg("fixture written")
}
