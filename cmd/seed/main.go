package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"table-order/internal/config"
	"table-order/internal/menu"
	"table-order/internal/store/driver"
	"table-order/internal/telemetry"

	"go.uber.org/zap"
)

// seed writes a menu file into the configured store:
//
//	STORE_DRIVER=postgres seed ./seed/menu.json
func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()

	log, _, _, shutdown, err := telemetry.Setup(ctx, "seed", telemetry.Options{
		Enabled:  cfg.TelemetryEnabled,
		Endpoint: cfg.OTLPEndpoint,
	})
	if err != nil {
		panic("failed to initialize telemetry: " + err.Error())
	}
	defer shutdown(context.Background())

	path := cfg.MenuSeed
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if path == "" {
		log.Fatal("no seed file: pass a path or set MENU_SEED_FILE")
	}
	if cfg.StoreDriver != config.DriverPostgres {
		log.Warn("seeding the memory store only checks the file", zap.String("driver", cfg.StoreDriver))
	}

	st, err := driver.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer st.Close()

	n, err := menu.SeedFile(ctx, st, path, log)
	if err != nil {
		log.Error("seed failed", zap.String("file", path), zap.Error(err))
		return
	}
	log.Info("seed complete", zap.Int("items", n))
}
