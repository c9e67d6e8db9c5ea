package utilities

import (
	"context"
	"errors"
	"fmt"

	"github.com/utilityprofit/moveout-tracker/internal/models"
	"github.com/utilityprofit/moveout-tracker/internal/records"
	"github.com/utilityprofit/moveout-tracker/internal/tables"
	"github.com/utilityprofit/moveout-tracker/pkg/apperr"
)

// Repository handles the utility transfers table.
type Repository struct {
	store tables.Store
	table string
}

// NewRepository creates a utility transfer repository.
func NewRepository(store tables.Store, table string) *Repository {
	return &Repository{store: store, table: table}
}

func notFound(id string, err error) error {
	if errors.Is(err, tables.ErrRecordNotFound) {
		return fmt.Errorf("utility transfer %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// ListForProperties returns the transfers owned by any of keys. No keys means no store call.
func (r *Repository) ListForProperties(ctx context.Context, keys []string) ([]models.UtilityTransfer, error) {
	if len(keys) == 0 {
		return []models.UtilityTransfer{}, nil
	}
	recs, err := r.store.Select(ctx, r.table, tables.Query{Filter: tables.AnyOf("property_id", keys)})
	if err != nil {
		return nil, apperr.Storage("list utility transfers", err)
	}
	return records.Map(recs, records.Utility), nil
}

// IDsForProperty returns the record ids of every transfer owned by key.
func (r *Repository) IDsForProperty(ctx context.Context, key string) ([]string, error) {
	recs, err := r.store.Select(ctx, r.table, tables.Query{Filter: tables.Eq("property_id", key)})
	if err != nil {
		return nil, apperr.Storage("list utility transfers", err)
	}
	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	return ids, nil
}

// Create adds one transfer. Status defaults to Not Started.
func (r *Repository) Create(ctx context.Context, c records.UtilityCreate) (models.UtilityTransfer, error) {
	recs, err := r.store.Create(ctx, r.table, []tables.Fields{c.Fields()})
	if err != nil {
		return models.UtilityTransfer{}, apperr.Storage("create utility transfer", err)
	}
	if len(recs) != 1 {
		return models.UtilityTransfer{}, apperr.Storage("create utility transfer", fmt.Errorf("store returned %d records", len(recs)))
	}
	return records.Utility(recs[0]), nil
}

// CreateMany adds transfers in batches of tables.MaxBatch, preserving input order.
// Batches that completed before a failure stay created.
func (r *Repository) CreateMany(ctx context.Context, cs []records.UtilityCreate) ([]models.UtilityTransfer, error) {
	out := make([]models.UtilityTransfer, 0, len(cs))
	for start := 0; start < len(cs); start += tables.MaxBatch {
		end := start + tables.MaxBatch
		if end > len(cs) {
			end = len(cs)
		}
		rows := make([]tables.Fields, 0, end-start)
		for _, c := range cs[start:end] {
			rows = append(rows, c.Fields())
		}
		recs, err := r.store.Create(ctx, r.table, rows)
		if err != nil {
			return out, apperr.Storage("create utility transfers", err)
		}
		out = append(out, records.Map(recs, records.Utility)...)
	}
	return out, nil
}

// Update applies a partial update. Fields that are not set keep their stored value.
func (r *Repository) Update(ctx context.Context, id string, u records.UtilityUpdate) (models.UtilityTransfer, error) {
	rec, err := r.store.Update(ctx, r.table, id, u.Fields())
	if err != nil {
		if nf := notFound(id, err); nf != nil {
			return models.UtilityTransfer{}, nf
		}
		return models.UtilityTransfer{}, apperr.Storage("update utility transfer", err)
	}
	return records.Utility(rec), nil
}

// Delete removes one transfer.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.store.Destroy(ctx, r.table, []string{id}); err != nil {
		if nf := notFound(id, err); nf != nil {
			return nf
		}
		return apperr.Storage("delete utility transfer", err)
	}
	return nil
}

// DeleteBatch removes up to tables.MaxBatch transfers in one store call.
func (r *Repository) DeleteBatch(ctx context.Context, ids []string) error {
	return apperr.Storage("delete utility transfers", r.store.Destroy(ctx, r.table, ids))
}
