package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/transtime/routeplanner/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1. Builds may wait on the provider, give them 30s.
	v1 := app.Group("/v1")
	v1.Post("/routes/build", timeout.NewWithContext(BuildRouteHandler(deps), 30*time.Second))
	v1.Get("/routes/active", timeout.NewWithContext(ActiveRouteHandler(deps), 15*time.Second))
	v1.Post("/routes/active/:index", timeout.NewWithContext(SetActiveAlternativeHandler(deps), 15*time.Second))
	v1.Post("/routes/via", timeout.NewWithContext(AddViaHandler(deps), 30*time.Second))
	v1.Delete("/routes/via", timeout.NewWithContext(ClearViaHandler(deps), 30*time.Second))
	v1.Get("/routes/navigator", timeout.NewWithContext(NavigatorHandler(deps), 15*time.Second))

	v1.Get("/routes/saved", timeout.NewWithContext(ListSavedRoutesHandler(deps), 15*time.Second))
	v1.Post("/routes/saved", timeout.NewWithContext(SaveRouteHandler(deps), 15*time.Second))
	v1.Delete("/routes/saved/:id", timeout.NewWithContext(DeleteSavedRouteHandler(deps), 15*time.Second))
	v1.Post("/routes/saved/:id/load", timeout.NewWithContext(LoadSavedRouteHandler(deps), 30*time.Second))

	v1.Post("/vehicle/mode", timeout.NewWithContext(SetVehicleModeHandler(deps), 15*time.Second))

	v1.Get("/layers", timeout.NewWithContext(ListLayersHandler(deps), 15*time.Second))
	v1.Post("/layers/:name/toggle", timeout.NewWithContext(ToggleLayerHandler(deps), 30*time.Second))
	v1.Get("/layers/:name/features", timeout.NewWithContext(LayerFeaturesHandler(deps), 15*time.Second))

	v1.Get("/share", timeout.NewWithContext(ShareHandler(deps), 15*time.Second))
	v1.Post("/share/apply", timeout.NewWithContext(ApplyShareHandler(deps), 30*time.Second))

	v1.Get("/preferences/viewport", timeout.NewWithContext(GetViewportHandler(deps), 15*time.Second))
	v1.Put("/preferences/viewport", timeout.NewWithContext(SetViewportHandler(deps), 15*time.Second))

	// Offline cache
	v1.Get("/offline/manifest", OfflineManifestHandler(deps))
	v1.Post("/offline/install", timeout.NewWithContext(OfflineInstallHandler(deps), 60*time.Second))
	app.All("/offline/asset/*", OfflineAssetHandler(deps))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
