package activity

import (
	"context"

	"github.com/utilityprofit/moveout-tracker/internal/models"
	"github.com/utilityprofit/moveout-tracker/internal/records"
	"github.com/utilityprofit/moveout-tracker/internal/tables"
	"github.com/utilityprofit/moveout-tracker/pkg/apperr"
)

// Repository handles the activity log table.
type Repository struct {
	store tables.Store
	table string
}

// NewRepository creates an activity repository.
func NewRepository(store tables.Store, table string) *Repository {
	return &Repository{store: store, table: table}
}

// Append writes one entry. It satisfies Sink.
func (r *Repository) Append(ctx context.Context, e records.ActivityCreate) error {
	_, err := r.store.Create(ctx, r.table, []tables.Fields{e.Fields()})
	return apperr.Storage("append activity", err)
}

// ListForProperties returns entries for the given property keys, newest first.
// No keys means no store call.
func (r *Repository) ListForProperties(ctx context.Context, keys []string) ([]models.ActivityEntry, error) {
	if len(keys) == 0 {
		return []models.ActivityEntry{}, nil
	}
	recs, err := r.store.Select(ctx, r.table, tables.Query{
		Filter: tables.AnyOf("property_id", keys),
		Sort:   []tables.Sort{{Field: "timestamp", Direction: tables.Desc}},
	})
	if err != nil {
		return nil, apperr.Storage("list activity", err)
	}
	return records.Map(recs, records.Activity), nil
}
