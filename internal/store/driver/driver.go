// Package driver opens the store selected by configuration.
package driver

import (
	"context"
	"fmt"

	"table-order/internal/config"
	"table-order/internal/store"
	"table-order/internal/store/memory"
	"table-order/internal/store/postgres"

	"go.uber.org/zap"
)

func Open(ctx context.Context, cfg config.Config, log *zap.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory, "":
		return memory.New(), nil
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.DatabaseURL}, log)
		if err != nil {
			return nil, err
		}
		return postgres.New(pool), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
