package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"fxbacktest-go/internal/position"
)

// JSONL appends trades as JSON lines for later analysis.
type JSONL struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewJSONL creates/opens the target file and returns a recorder.
func NewJSONL(path string) (*JSONL, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONL{
		file: file,
		enc:  json.NewEncoder(file),
	}, nil
}

// Emit writes a single trade to the underlying JSONL file.
func (r *JSONL) Emit(trade position.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enc.Encode(trade)
}

// Close flushes and closes the file handle.
func (r *JSONL) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
