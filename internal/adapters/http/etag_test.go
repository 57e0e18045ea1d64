package http_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	api "github.com/transtime/routeplanner/internal/adapters/http"
)

func newETagApp() *fiber.App {
	app := fiber.New()
	app.Use(api.ETagMiddleware())
	app.Get("/stable", func(c *fiber.Ctx) error {
		return c.SendString("payload")
	})
	app.Get("/live", func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "no-store")
		return c.SendString("payload")
	})
	return app
}

func TestETagMiddleware_NotModified(t *testing.T) {
	app := newETagApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/stable", nil), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected an ETag on a cacheable GET")
	}

	req := httptest.NewRequest("GET", "/stable", nil)
	req.Header.Set("If-None-Match", `W/"unrelated", `+etag)
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 304 {
		t.Errorf("expected 304 for a matching candidate, got %d", resp.StatusCode)
	}
}

func TestETagMiddleware_SkipsNoStore(t *testing.T) {
	app := newETagApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/live", nil), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Header.Get("ETag") != "" {
		t.Error("no-store responses must not be tagged")
	}
}
