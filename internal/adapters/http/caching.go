package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Adds sensible defaults if not already set by the handler.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		// Only set on GET requests
		if c.Method() != "GET" {
			return err
		}

		// Don't override a handler's explicit choice
		if existing := c.GetRespHeader("Cache-Control"); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10" // Very short for system checks

		case path == "/metrics":
			ttl = "no-cache" // Metrics are real-time

		case path == "/graphql":
			ttl = "private, max-age=0" // GraphQL varies wildly

		case strings.HasPrefix(path, "/v1/routes/active") ||
			strings.HasPrefix(path, "/v1/routes/navigator"):
			ttl = "no-store" // Live session state

		case strings.HasPrefix(path, "/v1/layers"):
			ttl = "no-cache" // Layer state tracks the active route

		case path == "/v1/offline/manifest":
			ttl = "public, max-age=3600" // Manifest changes with deploys only

		case strings.HasPrefix(path, "/v1/"):
			ttl = "private, max-age=0" // Session-scoped by default
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}
