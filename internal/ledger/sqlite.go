package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"fxbacktest-go/internal/position"
)

// SQLite persists trades into a local database so downstream analysis
// can query runs without re-parsing ledgers.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	store := &SQLite{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		pair TEXT NOT NULL,
		entry_time REAL NOT NULL,
		exit_time REAL NOT NULL,
		direction INTEGER NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL NOT NULL,
		pnl_pips REAL NOT NULL,
		holding_seconds REAL NOT NULL,
		outcome TEXT NOT NULL,
		reason TEXT NOT NULL,
		entry_metadata TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_trades_pair ON trades(pair);
	CREATE INDEX IF NOT EXISTS idx_trades_exit_time ON trades(exit_time);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Emit inserts one trade row.
func (s *SQLite) Emit(trade position.Trade) error {
	var metadata any
	if len(trade.Metadata) > 0 {
		encoded, err := json.Marshal(trade.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		metadata = string(encoded)
	}

	_, err := s.db.Exec(`
		INSERT INTO trades (pair, entry_time, exit_time, direction, entry_price,
			exit_price, pnl_pips, holding_seconds, outcome, reason, entry_metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trade.Pair, trade.EntryTime, trade.ExitTime, trade.Direction, trade.EntryPrice,
		trade.ExitPrice, trade.PnlPips, trade.HoldingSeconds, trade.Outcome, trade.Reason, metadata,
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}
