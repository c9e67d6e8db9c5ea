// Package tablestest wraps a table store to count calls and inject failures in tests.
package tablestest

import (
	"context"
	"errors"
	"sync"

	"github.com/utilityprofit/moveout-tracker/internal/tables"
)

// ErrInjected is returned by calls that a Recorder was told to fail.
var ErrInjected = errors.New("tablestest: injected failure")

// Call is one recorded store call.
type Call struct {
	Method string
	Table  string
	IDs    []string
	Rows   int
}

// Recorder forwards to an inner store and records every call.
type Recorder struct {
	Inner tables.Store

	mu    sync.Mutex
	calls []Call
	// Fail decides whether a call should fail with ErrInjected instead of reaching Inner.
	Fail func(c Call) bool
}

// New wraps inner.
func New(inner tables.Store) *Recorder {
	return &Recorder{Inner: inner}
}

func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	fail := r.Fail
	r.mu.Unlock()
	if fail != nil && fail(c) {
		return ErrInjected
	}
	return nil
}

// Calls returns the recorded calls, optionally filtered by method and table ("" matches any).
func (r *Recorder) Calls(method, table string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Call
	for _, c := range r.calls {
		if (method == "" || c.Method == method) && (table == "" || c.Table == table) {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears the recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

func (r *Recorder) Select(ctx context.Context, table string, q tables.Query) ([]tables.Record, error) {
	if err := r.record(Call{Method: "Select", Table: table}); err != nil {
		return nil, err
	}
	return r.Inner.Select(ctx, table, q)
}

func (r *Recorder) Create(ctx context.Context, table string, rows []tables.Fields) ([]tables.Record, error) {
	if err := r.record(Call{Method: "Create", Table: table, Rows: len(rows)}); err != nil {
		return nil, err
	}
	return r.Inner.Create(ctx, table, rows)
}

func (r *Recorder) Update(ctx context.Context, table, id string, fields tables.Fields) (tables.Record, error) {
	if err := r.record(Call{Method: "Update", Table: table, IDs: []string{id}}); err != nil {
		return tables.Record{}, err
	}
	return r.Inner.Update(ctx, table, id, fields)
}

func (r *Recorder) Destroy(ctx context.Context, table string, ids []string) error {
	if err := r.record(Call{Method: "Destroy", Table: table, IDs: append([]string(nil), ids...), Rows: len(ids)}); err != nil {
		return err
	}
	return r.Inner.Destroy(ctx, table, ids)
}
