package memory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"govspend/internal/core"
	"govspend/internal/source"
)

var _ source.RowReader = (*Store)(nil)

// Store serves a fixed set of raw rows.
type Store struct {
	mu   sync.Mutex
	rows []core.RawRow
}

func New(rows []core.RawRow) *Store {
	return &Store{rows: cloneRows(rows)}
}

// NewFromFile seeds the store from a YAML or JSON list of rows. A missing file
// yields the built-in fallback dataset.
func NewFromFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(FallbackRows()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var rows []map[string]any
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	out := make([]core.RawRow, len(rows))
	for i, r := range rows {
		out[i] = core.RawRow(r)
	}
	return New(out), nil
}

// FallbackRows returns the built-in dataset in raw form.
func FallbackRows() []core.RawRow {
	records := core.FallbackRecords()
	rows := make([]core.RawRow, len(records))
	for i, r := range records {
		rows[i] = core.RawRow{
			core.KeyDepartment: r.Department,
			core.KeyYear:       r.Year,
			core.KeyAmount:     r.Amount,
		}
	}
	return rows
}

// ReadRows returns a copy of the stored rows.
func (s *Store) ReadRows(_ context.Context) ([]core.RawRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRows(s.rows), nil
}

// Len returns the number of stored rows.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func cloneRows(in []core.RawRow) []core.RawRow {
	out := make([]core.RawRow, len(in))
	for i, r := range in {
		c := make(core.RawRow, len(r))
		for k, v := range r {
			c[k] = v
		}
		out[i] = c
	}
	return out
}
