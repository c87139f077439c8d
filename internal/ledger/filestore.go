package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mpetrov/gswapbot/internal/domain"
)

// FileStore persists the ledger as a small JSON file:
//
//	{ "<symbol>": { "units": 12.5, "cost_usdt": 10 }, ... }
//
// Writes go through a temp file and rename so a crash mid-write never
// leaves a truncated ledger behind.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore writing to the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the ledger file. A missing file yields an empty ledger.
func (s *FileStore) Load(_ context.Context) (domain.Ledger, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(domain.Ledger), nil
		}
		return nil, fmt.Errorf("ledger file: read %s: %w", s.path, err)
	}

	var l domain.Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("ledger file: decode %s: %w", s.path, err)
	}
	if l == nil {
		l = make(domain.Ledger)
	}
	return l, nil
}

// Save writes the ledger atomically via temp file + rename.
func (s *FileStore) Save(_ context.Context, l domain.Ledger) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("ledger file: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("ledger file: temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("ledger file: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ledger file: close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ledger file: rename: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.LedgerStore = (*FileStore)(nil)
