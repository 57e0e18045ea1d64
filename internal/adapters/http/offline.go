package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/transtime/routeplanner/internal/offline"
	"github.com/transtime/routeplanner/internal/pkg/metrics"
)

// OfflineManifestHandler returns the precache manifest and cache version.
func OfflineManifestHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "no-cache")
		return c.JSON(fiber.Map{
			"version":  offline.CacheVersion,
			"precache": offline.DefaultPrecache,
		})
	}
}

// OfflineInstallHandler warms the offline cache with the precache manifest.
func OfflineInstallHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Offline == nil {
			return errNotFound(c, "offline cache disabled")
		}
		if err := deps.Offline.Install(c.UserContext()); err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{"status": "installed", "version": offline.CacheVersion})
	}
}

// OfflineAssetHandler answers an asset request through the interception
// worker: first-party shell assets come cache-first, provider traffic
// network-first, everything non-GET passes through.
func OfflineAssetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Offline == nil {
			return errNotFound(c, "offline cache disabled")
		}

		req := offline.Request{
			Method:      c.Method(),
			URL:         "/" + c.Params("*"),
			Destination: c.Query("destination"),
		}
		strategy := deps.Offline.Strategy(req)

		resp, err := deps.Offline.Handle(c.UserContext(), req)
		if err != nil {
			metrics.OfflineMisses.WithLabelValues(strategy.String()).Inc()
			return newError(c, 502, "bad_gateway", err.Error())
		}
		if resp.Cached {
			metrics.OfflineHits.WithLabelValues(strategy.String()).Inc()
		} else {
			metrics.OfflineMisses.WithLabelValues(strategy.String()).Inc()
		}

		for k, v := range resp.Header {
			c.Set(k, v)
		}
		c.Set("X-Offline-Cache", map[bool]string{true: "hit", false: "miss"}[resp.Cached])
		return c.Status(resp.Status).Send(resp.Body)
	}
}
