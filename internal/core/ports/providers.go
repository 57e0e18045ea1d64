package ports

import (
	"context"

	"github.com/transtime/routeplanner/internal/core/domain"
)

// Geocoder resolves free-text addresses to coordinates.
// Implementations return domain.ErrGeocodeNotFound when nothing matches
// and domain.ErrProvider for transport or provider failures.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Coordinate, error)
}

// RouteBuilder computes ranked route alternatives through the ordered
// waypoint list. Failures map to domain.ErrNoRoute, domain.ErrInvalidInput,
// or domain.ErrProvider.
type RouteBuilder interface {
	BuildRoute(ctx context.Context, points []domain.Coordinate, opts domain.RouteOptions) (*domain.RouteResult, error)
}

// GeodataSource fetches one layer's feature collection by source filename.
// A missing document (HTTP 404) is reported as domain.ErrLayerNoData; any
// other failure as domain.ErrLayerLoad.
type GeodataSource interface {
	FetchLayer(ctx context.Context, sourceFile string) (*domain.FeatureCollection, error)
}

// StateStore is the session key-value persistence (saved routes, toggle
// states, viewport). Get returns domain.ErrNotFound for absent keys.
// Callers must tolerate any failure: the application stays fully usable
// with zero persisted state.
type StateStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher broadcasts session events to connected clients.
type EventPublisher interface {
	PublishRouteBuilt(ctx context.Context, result *domain.RouteResult) error
	PublishActiveRouteChanged(ctx context.Context, activeIndex int) error
	PublishLayerChanged(ctx context.Context, name domain.LayerName, visible bool, visibleFeatures int) error
	PublishNotice(ctx context.Context, text string) error
}
