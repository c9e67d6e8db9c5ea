package properties

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/utilityprofit/moveout-tracker/internal/models"
	"github.com/utilityprofit/moveout-tracker/internal/records"
	"github.com/utilityprofit/moveout-tracker/internal/tables"
	"github.com/utilityprofit/moveout-tracker/internal/utilities"
	"github.com/utilityprofit/moveout-tracker/pkg/apperr"
)

const maxKeyAddressLen = 30

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

// GenerateKey builds a property key as {slug}-{address}-{epoch ms}, where the address is
// lowercased, has every non [a-z0-9] byte replaced by '-' and is cut to 30 characters.
// Two creates with the same slug and address in the same millisecond collide.
func GenerateKey(slug, address string, now time.Time) string {
	addr := nonAlnum.ReplaceAllString(strings.ToLower(address), "-")
	if len(addr) > maxKeyAddressLen {
		addr = addr[:maxKeyAddressLen]
	}
	return slug + "-" + addr + "-" + strconv.FormatInt(now.UnixMilli(), 10)
}

// Repository handles the properties table and the cascade into utility transfers.
type Repository struct {
	store     tables.Store
	table     string
	transfers *utilities.Repository
	logger    *zap.Logger
	now       func() time.Time
}

// NewRepository creates a property repository. Cascade failures are logged to logger.
func NewRepository(store tables.Store, table string, transfers *utilities.Repository, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{store: store, table: table, transfers: transfers, logger: logger, now: time.Now}
}

// ListForCompany returns the company's properties in store order.
func (r *Repository) ListForCompany(ctx context.Context, slug string) ([]models.Property, error) {
	recs, err := r.store.Select(ctx, r.table, tables.Query{Filter: tables.Eq("company_slug", slug)})
	if err != nil {
		return nil, apperr.Storage("list properties", err)
	}
	return records.Map(recs, records.Property), nil
}

// Create stores a property, generating its key when p.PropertyID is empty.
func (r *Repository) Create(ctx context.Context, p records.PropertyCreate) (models.Property, error) {
	if p.PropertyID == "" {
		p.PropertyID = GenerateKey(p.CompanySlug, p.Address, r.now())
	}
	recs, err := r.store.Create(ctx, r.table, []tables.Fields{p.Fields()})
	if err != nil {
		return models.Property{}, apperr.Storage("create property", err)
	}
	if len(recs) != 1 {
		return models.Property{}, apperr.Storage("create property", fmt.Errorf("store returned %d records", len(recs)))
	}
	return records.Property(recs[0]), nil
}

// Delete removes a property. When key is set, the transfers it owns are removed first in
// concurrent batches of at most tables.MaxBatch. The property row is deleted whatever
// happened to those batches; failures are listed in the result, not rolled back.
func (r *Repository) Delete(ctx context.Context, id, key string) (models.PropertyDeleteResult, error) {
	res := models.PropertyDeleteResult{ID: id}
	if key != "" {
		res.TransfersDeleted, res.FailedBatches = r.deleteTransfers(ctx, key)
	}
	if err := r.store.Destroy(ctx, r.table, []string{id}); err != nil {
		if errors.Is(err, tables.ErrRecordNotFound) {
			return res, fmt.Errorf("property %s: %w", id, apperr.ErrNotFound)
		}
		return res, apperr.Storage("delete property", err)
	}
	return res, nil
}

func (r *Repository) deleteTransfers(ctx context.Context, key string) (int, []string) {
	ids, err := r.transfers.IDsForProperty(ctx, key)
	if err != nil {
		r.logger.Error("cascade select transfers", zap.String("property_id", key), zap.Error(err))
		return 0, []string{"select failed"}
	}
	batches := tables.Chunk(ids, tables.MaxBatch)

	var (
		mu      sync.Mutex
		deleted int
		failed  []string
	)
	var g errgroup.Group
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			err := r.transfers.DeleteBatch(ctx, batch)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.logger.Error("cascade delete batch",
					zap.String("property_id", key),
					zap.Int("batch", i+1),
					zap.Strings("ids", batch),
					zap.Error(err),
				)
				failed = append(failed, fmt.Sprintf("batch %d failed", i+1))
				return nil
			}
			deleted += len(batch)
			return nil
		})
	}
	_ = g.Wait()
	return deleted, failed
}
