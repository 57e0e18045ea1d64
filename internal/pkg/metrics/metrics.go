package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "transtime",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "transtime",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "transtime",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Routing metrics
	RouteBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "transtime",
		Subsystem: "routing",
		Name:      "builds_total",
		Help:      "Total route builds by outcome",
	}, []string{"status"})

	BuildRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "transtime",
		Subsystem: "routing",
		Name:      "build_rejections_total",
		Help:      "Total builds rejected because another was in flight",
	})

	GeocodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "transtime",
		Subsystem: "routing",
		Name:      "geocode_errors_total",
		Help:      "Total geocoding failures",
	})

	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "transtime",
		Subsystem: "routing",
		Name:      "build_duration_seconds",
		Help:      "Duration of route builds end to end",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	// Geodata layer metrics
	LayerLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "transtime",
		Subsystem: "layers",
		Name:      "loads_total",
		Help:      "Total layer document loads by outcome",
	}, []string{"layer", "status"})

	LayerVisibleFeatures = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "transtime",
		Subsystem: "layers",
		Name:      "visible_features",
		Help:      "Features currently passing the spatial filter per layer",
	}, []string{"layer"})

	// Offline cache metrics
	OfflineHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "transtime",
		Subsystem: "offline",
		Name:      "hits_total",
		Help:      "Total offline cache hits",
	}, []string{"strategy"})

	OfflineMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "transtime",
		Subsystem: "offline",
		Name:      "misses_total",
		Help:      "Total offline cache misses",
	}, []string{"strategy"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "transtime",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
