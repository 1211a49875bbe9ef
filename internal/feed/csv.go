package feed

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"fxbacktest-go/internal/tick"
)

// CSV replays a recorded `timestamp,bid,ask` file in row order.
type CSV struct {
	rows []TickRow
	idx  int
}

// OpenCSV loads the tick file.
func OpenCSV(path string) (*CSV, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ticks: %w", err)
	}
	defer file.Close()

	var rows []TickRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("decode ticks: %w", err)
	}
	return &CSV{rows: rows}, nil
}

func (c *CSV) Next() (tick.Tick, error) {
	if c.idx >= len(c.rows) {
		return tick.Tick{}, ErrEndOfFeed
	}
	row := c.rows[c.idx]
	c.idx++
	return tick.New(row.Timestamp, row.Bid, row.Ask), nil
}

// Len reports the number of rows loaded.
func (c *CSV) Len() int { return len(c.rows) }
