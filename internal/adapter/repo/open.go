package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"socialgood/internal/domain"
	"socialgood/internal/infra"
)

// Backend is the record store selected by RECORD_STORE. Pool is set only
// for the postgres backend.
type Backend struct {
	Store domain.RecordStore
	Pool  *pgxpool.Pool
	close func()
}

// Close releases whatever the backend opened.
func (b *Backend) Close() {
	if b != nil && b.close != nil {
		b.close()
	}
}

// Open builds the record store named by cfg.RecordStore.
func Open(ctx context.Context, cfg *infra.Config, logger *infra.Logger) (*Backend, error) {
	log := infra.OrDiscard(logger)
	switch cfg.RecordStore {
	case infra.StorePostgres:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store := NewDonationPGStore(infra.NewSQLRunner(pool, log), logger)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return &Backend{Store: store, Pool: pool, close: pool.Close}, nil
	case infra.StoreSQLite:
		store, err := NewDonationSQLiteStore(cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: store, close: func() { _ = store.Close() }}, nil
	case infra.StoreFile, "":
		store, err := NewDonationFileStore(cfg.DataPath, logger)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: store}, nil
	default:
		return nil, fmt.Errorf("repo: unsupported record store %q", cfg.RecordStore)
	}
}
