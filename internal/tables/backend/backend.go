// Package backend opens the table store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/utilityprofit/moveout-tracker/config"
	"github.com/utilityprofit/moveout-tracker/internal/tables"
	"github.com/utilityprofit/moveout-tracker/internal/tables/airtable"
	"github.com/utilityprofit/moveout-tracker/internal/tables/memory"
	"github.com/utilityprofit/moveout-tracker/internal/tables/postgres"
	"github.com/utilityprofit/moveout-tracker/pkg/database"
)

// Backend is an opened table store with the table names it uses.
type Backend struct {
	Store tables.Store
	Names tables.Names
	close func()
}

// Close releases the store's connections.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open builds the store named by cfg.Storage.Backend. The postgres backend
// connects and applies migrations before returning.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendAirtable:
		client, err := airtable.New(airtable.Config{
			APIKey:  cfg.Airtable.APIKey,
			BaseID:  cfg.Airtable.BaseID,
			BaseURL: cfg.Airtable.APIURL,
			Timeout: cfg.Lookup.HTTPTimeout(),
		}, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("table store: airtable", zap.String("base_id", cfg.Airtable.BaseID))
		return &Backend{Store: client, Names: tables.Names{
			Companies:  cfg.Airtable.CompaniesTable,
			Properties: cfg.Airtable.PropertiesTable,
			Transfers:  cfg.Airtable.TransfersTable,
			Activity:   cfg.Airtable.ActivityTable,
		}}, nil

	case config.BackendPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.Database.URL, logger)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return &Backend{Store: postgres.New(pool), Names: tables.DefaultNames, close: pool.Close}, nil

	case config.BackendMemory:
		logger.Warn("table store: memory, data is lost on restart")
		return &Backend{Store: memory.New(), Names: tables.DefaultNames}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
