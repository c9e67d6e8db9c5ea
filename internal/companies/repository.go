package companies

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/utilityprofit/moveout-tracker/internal/activity"
	"github.com/utilityprofit/moveout-tracker/internal/models"
	"github.com/utilityprofit/moveout-tracker/internal/properties"
	"github.com/utilityprofit/moveout-tracker/internal/records"
	"github.com/utilityprofit/moveout-tracker/internal/tables"
	"github.com/utilityprofit/moveout-tracker/internal/utilities"
	"github.com/utilityprofit/moveout-tracker/pkg/apperr"
)

// Repository reads companies and assembles the full dashboard view.
type Repository struct {
	store      tables.Store
	table      string
	properties *properties.Repository
	transfers  *utilities.Repository
	activity   *activity.Repository
}

// NewRepository creates a company repository.
func NewRepository(store tables.Store, table string, props *properties.Repository, transfers *utilities.Repository, act *activity.Repository) *Repository {
	return &Repository{store: store, table: table, properties: props, transfers: transfers, activity: act}
}

// GetBySlug returns the company with an exact slug match.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Company, error) {
	recs, err := r.store.Select(ctx, r.table, tables.Query{Filter: tables.Eq("slug", slug), MaxRecords: 1})
	if err != nil {
		return nil, apperr.Storage("get company", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("company %q: %w", slug, apperr.ErrNotFound)
	}
	c := records.Company(recs[0])
	return &c, nil
}

// GetFullData returns the company with every property, each carrying its transfers and
// activity. Transfers and activity are fetched concurrently and grouped by property key.
func (r *Repository) GetFullData(ctx context.Context, slug string) (*models.CompanyData, error) {
	company, err := r.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	props, err := r.properties.ListForCompany(ctx, slug)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(props))
	for _, p := range props {
		if p.PropertyID != "" {
			keys = append(keys, p.PropertyID)
		}
	}

	var (
		transfers []models.UtilityTransfer
		entries   []models.ActivityEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		transfers, err = r.transfers.ListForProperties(gctx, keys)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = r.activity.ListForProperties(gctx, keys)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byProperty := make(map[string][]models.UtilityTransfer)
	for _, t := range transfers {
		byProperty[t.PropertyID] = append(byProperty[t.PropertyID], t)
	}
	activityByProperty := make(map[string][]models.ActivityEntry)
	for _, a := range entries {
		activityByProperty[a.PropertyID] = append(activityByProperty[a.PropertyID], a)
	}

	out := &models.CompanyData{Company: *company, Properties: make([]models.PropertyWithData, len(props))}
	for i, p := range props {
		u := byProperty[p.PropertyID]
		if u == nil {
			u = []models.UtilityTransfer{}
		}
		a := activityByProperty[p.PropertyID]
		if a == nil {
			a = []models.ActivityEntry{}
		}
		out.Properties[i] = models.PropertyWithData{Property: p, Utilities: u, Activity: a}
	}
	return out, nil
}
