// Package persist is the key/value table store collaborator. The runtime
// core never reads it during a tick's scheduling decisions; systems write
// snapshots to it and setup code ingests authored data into it.
package persist

import (
	"context"
	"sort"
	"sync"

	"github.com/kitu-show/kitu/internal/core/errs"
)

// Row maps column names to values.
type Row map[string]string

// TableStore is the narrow storage interface consumed by the runtime.
type TableStore interface {
	// CreateTable registers an empty table. Existing names fail with InvalidInput.
	CreateTable(ctx context.Context, name string) error
	// Insert appends row to an existing table.
	Insert(ctx context.Context, table string, row Row) error
	// QueryAll returns every row of table in insertion order.
	QueryAll(ctx context.Context, table string) ([]Row, error)
	// Tables lists table names in lexical order.
	Tables(ctx context.Context) ([]string, error)
}

const (
	errTableExists  = "table already exists"
	errMissingTable = "missing table"
)

// MemStore keeps tables in memory. Safe for concurrent use.
type MemStore struct {
	mu     sync.RWMutex
	tables map[string][]Row
}

func NewMemStore() *MemStore {
	return &MemStore{tables: make(map[string][]Row)}
}

func (s *MemStore) CreateTable(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[name]; ok {
		return errs.InvalidInput(errTableExists + ": " + name)
	}
	s.tables[name] = []Row{}
	return nil
}

func (s *MemStore) Insert(_ context.Context, table string, row Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tables[table]
	if !ok {
		return errs.InvalidInput(errMissingTable + ": " + table)
	}
	s.tables[table] = append(rows, cloneRow(row))
	return nil
}

func (s *MemStore) QueryAll(_ context.Context, table string) ([]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.tables[table]
	if !ok {
		return nil, errs.InvalidInput(errMissingTable + ": " + table)
	}
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = cloneRow(r)
	}
	return out, nil
}

func (s *MemStore) Tables(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func cloneRow(r Row) Row {
	c := make(Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// EnsureTable creates table unless it already exists.
func EnsureTable(ctx context.Context, s TableStore, table string) error {
	names, err := s.Tables(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		if n == table {
			return nil
		}
	}
	return s.CreateTable(ctx, table)
}
