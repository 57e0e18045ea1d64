package offline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// CacheVersion names the current cache generation. Bumping it invalidates
// every previously cached response on the next Install.
const CacheVersion = "tt-v2"

// DefaultPrecache is the application shell warmed during Install.
var DefaultPrecache = []string{
	"/",
	"/index.html",
	"/offline-status",
	"/assets/css/app.css",
	"/assets/js/boot.js",
	"/assets/js/map.js",
	"/manifest.webmanifest",
}

// Navigation fallback targets, tried in order: the offline diagnostics
// page first, then the cached application root.
const (
	statusPath = "/offline-status"
	rootPath   = "/"
)

// Request is one intercepted request.
type Request struct {
	Method      string
	URL         string
	Destination string
}

// Response is what the worker answers with.
type Response struct {
	Status  int
	Header  map[string]string
	Body    []byte
	Cached  bool
	FromNet bool
}

// Fetcher forwards a request to the network.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Response, error)
}

// FetchFunc adapts a function to the Fetcher interface.
type FetchFunc func(ctx context.Context, req Request) (*Response, error)

func (f FetchFunc) Fetch(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// Worker intercepts requests and applies the caching policy. Any store
// failure degrades the affected request to a plain network fetch; the
// cache is an accelerator, never a gate.
type Worker struct {
	store    Store
	policy   Policy
	fetcher  Fetcher
	precache []string
	log      *slog.Logger
}

// NewWorker creates the request-interception worker. precache may be nil
// to use DefaultPrecache.
func NewWorker(store Store, policy Policy, fetcher Fetcher, precache []string) *Worker {
	if precache == nil {
		precache = DefaultPrecache
	}
	return &Worker{
		store:    store,
		policy:   policy,
		fetcher:  fetcher,
		precache: precache,
		log:      slog.Default().With("component", "offline"),
	}
}

// Install warms the cache with the precache manifest. Individual fetch
// failures only log; install succeeds with whatever could be fetched.
func (w *Worker) Install(ctx context.Context) error {
	for _, path := range w.precache {
		req := Request{Method: http.MethodGet, URL: path, Destination: "document"}
		resp, err := w.fetcher.Fetch(ctx, req)
		if err != nil || resp.Status != http.StatusOK {
			w.log.Warn("precache entry skipped", "path", path, "error", err)
			continue
		}
		if err := w.cachePut(ctx, req.URL, resp); err != nil {
			w.log.Warn("precache entry not stored", "path", path, "error", err)
		}
	}
	return ctx.Err()
}

// Strategy reports the policy decision for a request.
func (w *Worker) Strategy(req Request) Strategy {
	return w.policy.Classify(req.Method, req.URL, req.Destination)
}

// Handle answers one intercepted request according to its strategy.
func (w *Worker) Handle(ctx context.Context, req Request) (*Response, error) {
	switch w.policy.Classify(req.Method, req.URL, req.Destination) {
	case PassThrough:
		return w.fetcher.Fetch(ctx, req)
	case NetworkFirst:
		return w.networkFirst(ctx, req)
	default:
		return w.cacheFirst(ctx, req)
	}
}

func (w *Worker) networkFirst(ctx context.Context, req Request) (*Response, error) {
	resp, err := w.fetcher.Fetch(ctx, req)
	if err == nil && resp.Status == http.StatusOK {
		if perr := w.cachePut(ctx, req.URL, resp); perr != nil {
			w.log.Debug("response not cached", "url", req.URL, "error", perr)
		}
		return resp, nil
	}
	if cached, ok := w.cacheGet(ctx, req.URL); ok {
		return cached, nil
	}
	if resp != nil {
		return resp, nil
	}
	return w.fallback(ctx, req, err)
}

func (w *Worker) cacheFirst(ctx context.Context, req Request) (*Response, error) {
	if cached, ok := w.cacheGet(ctx, req.URL); ok {
		return cached, nil
	}
	resp, err := w.fetcher.Fetch(ctx, req)
	if err == nil && resp.Status == http.StatusOK {
		if perr := w.cachePut(ctx, req.URL, resp); perr != nil {
			w.log.Debug("response not cached", "url", req.URL, "error", perr)
		}
		return resp, nil
	}
	if err != nil {
		return w.fallback(ctx, req, err)
	}
	return resp, nil
}

// fallback degrades a failed navigation to the cached diagnostics page,
// then the cached application root. Non-navigation requests surface the
// network error.
func (w *Worker) fallback(ctx context.Context, req Request, cause error) (*Response, error) {
	if req.Destination == "document" {
		if cached, ok := w.cacheGet(ctx, statusPath); ok {
			return cached, nil
		}
		if cached, ok := w.cacheGet(ctx, rootPath); ok {
			return cached, nil
		}
	}
	return nil, fmt.Errorf("offline fetch %s: %w", req.URL, cause)
}

func (w *Worker) cacheGet(ctx context.Context, key string) (*Response, bool) {
	e, ok, err := w.store.Get(ctx, key)
	if err != nil {
		w.log.Debug("cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &Response{Status: e.Status, Header: e.Header, Body: e.Body, Cached: true}, true
}

func (w *Worker) cachePut(ctx context.Context, key string, resp *Response) error {
	return w.store.Put(ctx, key, &Entry{Status: resp.Status, Header: resp.Header, Body: resp.Body})
}
