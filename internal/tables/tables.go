// Package tables is the client surface of the hosted table service: named tables of
// loosely-typed records that can be selected by a field predicate, created and destroyed
// in small batches, and patched one record at a time.
package tables

import (
	"context"
	"errors"
	"fmt"
)

// MaxBatch is the most records a single Create or Destroy call accepts.
const MaxBatch = 10

var (
	// ErrBatchTooLarge is returned when a Create or Destroy call exceeds MaxBatch.
	ErrBatchTooLarge = fmt.Errorf("tables: batch exceeds %d records", MaxBatch)
	// ErrRecordNotFound is returned by Update and Destroy for an unknown record id.
	ErrRecordNotFound = errors.New("tables: record not found")
)

// Fields is the attribute map of one record. Keys may be absent.
type Fields map[string]any

// String returns the value for key as a string, or "" when it is absent or not a string.
func (f Fields) String(key string) string {
	v, ok := f[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprint(v)
	}
	return s
}

// Record is a stored row.
type Record struct {
	ID     string
	Fields Fields
}

// Filter matches records whose Field equals any of Values.
type Filter struct {
	Field  string
	Values []string
}

// Eq matches records whose field equals value.
func Eq(field, value string) *Filter {
	return &Filter{Field: field, Values: []string{value}}
}

// AnyOf matches records whose field equals one of values.
func AnyOf(field string, values []string) *Filter {
	return &Filter{Field: field, Values: values}
}

// Matches evaluates the filter against fields. A nil filter matches everything.
func (f *Filter) Matches(fields Fields) bool {
	if f == nil {
		return true
	}
	got := fields.String(f.Field)
	for _, v := range f.Values {
		if got == v {
			return true
		}
	}
	return false
}

// Direction orders a sort key.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort is one ordering key.
type Sort struct {
	Field     string
	Direction Direction
}

// Query selects records from one table.
type Query struct {
	Filter     *Filter
	MaxRecords int
	Sort       []Sort
}

// Store is the hosted table service. Implementations must be safe for concurrent use.
type Store interface {
	Select(ctx context.Context, table string, q Query) ([]Record, error)
	Create(ctx context.Context, table string, rows []Fields) ([]Record, error)
	Update(ctx context.Context, table, id string, fields Fields) (Record, error)
	Destroy(ctx context.Context, table string, ids []string) error
}

// Names maps the logical tables onto the store's table identifiers.
type Names struct {
	Companies  string
	Properties string
	Transfers  string
	Activity   string
}

// DefaultNames are the table names used by the self-hosted backends.
var DefaultNames = Names{
	Companies:  "companies",
	Properties: "properties",
	Transfers:  "utility_transfers",
	Activity:   "activity_log",
}

// Chunk splits ids into consecutive slices of at most size elements.
func Chunk(ids []string, size int) [][]string {
	if size <= 0 {
		size = MaxBatch
	}
	var out [][]string
	for i := 0; i < len(ids); i += size {
		end := i + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[i:end])
	}
	return out
}

// CheckBatch returns ErrBatchTooLarge when n exceeds MaxBatch.
func CheckBatch(n int) error {
	if n > MaxBatch {
		return ErrBatchTooLarge
	}
	return nil
}
