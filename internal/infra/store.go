package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/digitalbank/backoffice/internal/config"
	"github.com/digitalbank/backoffice/internal/ledger"
)

// NewStore opens the account store selected by cfg.StoreDriver. For the
// postgres driver the returned pool must be closed by the caller after the
// store; it is nil for the other drivers.
func NewStore(ctx context.Context, cfg config.Config) (ledger.Store, *pgxpool.Pool, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return ledger.NewInMemory(), nil, nil
	case config.DriverFile:
		store, err := ledger.OpenFile(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open file store: %w", err)
		}
		return store, nil, nil
	case config.DriverPostgres:
		pool, err := NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := ledger.NewPostgresStore(pool)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return store, pool, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
