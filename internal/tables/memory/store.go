// Package memory is an in-process table store used for local development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/utilityprofit/moveout-tracker/internal/tables"
)

type table struct {
	order []string
	rows  map[string]tables.Fields
}

// Store keeps every table in memory, in insertion order.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*table
}

// New returns an empty store.
func New() *Store {
	return &Store{tables: make(map[string]*table)}
}

func (s *Store) table(name string) *table {
	t, ok := s.tables[name]
	if !ok {
		t = &table{rows: make(map[string]tables.Fields)}
		s.tables[name] = t
	}
	return t
}

func clone(f tables.Fields) tables.Fields {
	out := make(tables.Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Select returns the matching records, sorted when q.Sort is set.
func (s *Store) Select(ctx context.Context, name string, q tables.Query) ([]tables.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	if !ok {
		return nil, nil
	}
	var out []tables.Record
	for _, id := range t.order {
		f := t.rows[id]
		if q.Filter.Matches(f) {
			out = append(out, tables.Record{ID: id, Fields: clone(f)})
		}
	}
	if len(q.Sort) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, k := range q.Sort {
				a, b := out[i].Fields.String(k.Field), out[j].Fields.String(k.Field)
				if a == b {
					continue
				}
				if k.Direction == tables.Desc {
					return a > b
				}
				return a < b
			}
			return false
		})
	}
	if q.MaxRecords > 0 && len(out) > q.MaxRecords {
		out = out[:q.MaxRecords]
	}
	return out, nil
}

// Create inserts rows and assigns each a fresh id.
func (s *Store) Create(ctx context.Context, name string, rows []tables.Fields) ([]tables.Record, error) {
	if err := tables.CheckBatch(len(rows)); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(name)
	out := make([]tables.Record, 0, len(rows))
	for _, f := range rows {
		id := "rec" + uuid.NewString()
		t.order = append(t.order, id)
		t.rows[id] = clone(f)
		out = append(out, tables.Record{ID: id, Fields: clone(f)})
	}
	return out, nil
}

// Update merges fields into an existing record.
func (s *Store) Update(ctx context.Context, name, id string, fields tables.Fields) (tables.Record, error) {
	if err := ctx.Err(); err != nil {
		return tables.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(name)
	row, ok := t.rows[id]
	if !ok {
		return tables.Record{}, tables.ErrRecordNotFound
	}
	for k, v := range fields {
		row[k] = v
	}
	return tables.Record{ID: id, Fields: clone(row)}, nil
}

// Destroy removes records. Unknown ids fail the whole call before anything is removed.
func (s *Store) Destroy(ctx context.Context, name string, ids []string) error {
	if err := tables.CheckBatch(len(ids)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(name)
	for _, id := range ids {
		if _, ok := t.rows[id]; !ok {
			return tables.ErrRecordNotFound
		}
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		delete(t.rows, id)
		drop[id] = true
	}
	kept := t.order[:0]
	for _, id := range t.order {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	t.order = kept
	return nil
}

// Len returns the number of records in a table.
func (s *Store) Len(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tables[name]; ok {
		return len(t.rows)
	}
	return 0
}
