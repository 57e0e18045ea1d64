package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/transtime/routeplanner/internal/adapters/valkey"
	"github.com/transtime/routeplanner/internal/offline"
	"github.com/transtime/routeplanner/internal/pkg/config"
	"github.com/transtime/routeplanner/internal/pkg/logging"
)

// Warms the offline cache out of band, typically from a deploy hook.
// Opening the current cache version purges every older generation.
func main() {
	cfg, err := config.Load("routeplanner-precache")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "routeplanner-precache",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := valkey.NewOfflineStore(ctx, cfg.Valkey.Addr, offline.CacheVersion)
	if err != nil {
		log.Fatalf("offline store: %v", err)
	}
	defer store.Close()

	worker := offline.NewWorker(
		store,
		offline.Policy{ProviderHosts: cfg.Offline.ProviderHosts},
		offline.NewHTTPFetcher(cfg.Server.PublicURL, 10*time.Second),
		nil,
	)

	slog.Info("precache starting", "version", offline.CacheVersion, "entries", len(offline.DefaultPrecache))
	if err := worker.Install(ctx); err != nil {
		log.Fatalf("precache: %v", err)
	}
	slog.Info("precache complete")
}
