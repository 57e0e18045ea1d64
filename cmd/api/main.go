package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/transtime/routeplanner/internal/adapters/geodata"
	"github.com/transtime/routeplanner/internal/adapters/http"
	natsadapter "github.com/transtime/routeplanner/internal/adapters/nats"
	"github.com/transtime/routeplanner/internal/adapters/provider"
	"github.com/transtime/routeplanner/internal/adapters/valkey"
	"github.com/transtime/routeplanner/internal/core/domain"
	"github.com/transtime/routeplanner/internal/core/ports"
	"github.com/transtime/routeplanner/internal/core/usecases"
	"github.com/transtime/routeplanner/internal/offline"
	"github.com/transtime/routeplanner/internal/pkg/config"
	"github.com/transtime/routeplanner/internal/pkg/logging"
	"github.com/transtime/routeplanner/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("routeplanner-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "routeplanner-api",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// State store
	store, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.KeyPrefix)
	if err != nil {
		slog.Warn("valkey unavailable, running without persistence", "error", err)
		store = nil
	} else {
		defer store.Close()
	}

	// NATS
	events, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
		events = nil
	} else {
		defer events.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// External providers
	routeProvider := provider.New(cfg.Provider.BaseURL, cfg.Provider.APIKey,
		time.Duration(cfg.Provider.TimeoutSeconds)*time.Second)
	layerSource := geodata.New(cfg.Geodata.BaseURL,
		time.Duration(cfg.Geodata.TimeoutSeconds)*time.Second)

	// Use cases
	session := usecases.NewSession(domain.VehicleMode(cfg.Routing.DefaultVehicle))
	prefs := usecases.NewPreferencesService(storeOrNil(store))
	layers := usecases.NewLayerManager(session, layerSource, publisherOrNil(events), prefs)
	orchestrator := usecases.NewOrchestrator(session, routeProvider, routeProvider, layers, publisherOrNil(events))
	share := usecases.NewShareService(session, orchestrator)
	saved := usecases.NewSavedRoutesService(ctx, storeOrNil(store), session, orchestrator)

	layers.RestorePersisted(ctx)

	// Offline cache
	var worker *offline.Worker
	if cfg.Offline.Enabled {
		offStore, err := valkey.NewOfflineStore(ctx, cfg.Valkey.Addr, offline.CacheVersion)
		if err != nil {
			slog.Warn("offline store unavailable, using in-memory cache", "error", err)
			worker = offline.NewWorker(
				offline.NewMemoryStore(offline.CacheVersion),
				offline.Policy{ProviderHosts: cfg.Offline.ProviderHosts},
				offline.NewHTTPFetcher(cfg.Server.PublicURL, 10*time.Second),
				nil,
			)
		} else {
			defer offStore.Close()
			worker = offline.NewWorker(
				offStore,
				offline.Policy{ProviderHosts: cfg.Offline.ProviderHosts},
				offline.NewHTTPFetcher(cfg.Server.PublicURL, 10*time.Second),
				nil,
			)
		}
	}

	deps := &http.Dependencies{
		Session:      session,
		Orchestrator: orchestrator,
		Layers:       layers,
		Share:        share,
		Saved:        saved,
		Prefs:        prefs,
		Offline:      worker,
		NATS:         natsConn,
		Store:        store,
		PublicURL:    cfg.Server.PublicURL,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "TransTime Route Planner",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.transtime.example",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// storeOrNil avoids handing a typed-nil pointer to an interface field.
func storeOrNil(s *valkey.Store) ports.StateStore {
	if s == nil {
		return nil
	}
	return s
}

func publisherOrNil(p *natsadapter.Publisher) ports.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}
