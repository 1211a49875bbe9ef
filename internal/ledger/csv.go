package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"

	"fxbacktest-go/internal/position"
)

// CSV collects trades and writes them as one CSV file on Close. The
// rows land in emission order, so identical runs produce identical
// files.
type CSV struct {
	mu     sync.Mutex
	path   string
	trades []position.Trade
}

func NewCSV(path string) (*CSV, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &CSV{path: path}, nil
}

// Emit buffers a trade for the final write.
func (c *CSV) Emit(trade position.Trade) error {
	c.mu.Lock()
	c.trades = append(c.trades, trade)
	c.mu.Unlock()
	return nil
}

// Close writes the buffered trades to disk.
func (c *CSV) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	file, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("create trades csv: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&c.trades, file); err != nil {
		return fmt.Errorf("write trades csv: %w", err)
	}
	return nil
}
