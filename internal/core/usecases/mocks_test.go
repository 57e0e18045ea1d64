package usecases_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/transtime/routeplanner/internal/core/domain"
)

// --- Mock Geocoder ---

type mockGeocoder struct {
	geocodeFn func(ctx context.Context, address string) (domain.Coordinate, error)
}

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (domain.Coordinate, error) {
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, address)
	}
	return domain.Coordinate{Lon: 37.6, Lat: 55.7}, nil
}

// --- Mock RouteBuilder ---

type mockRouter struct {
	buildFn func(ctx context.Context, points []domain.Coordinate, opts domain.RouteOptions) (*domain.RouteResult, error)
}

func (m *mockRouter) BuildRoute(ctx context.Context, points []domain.Coordinate, opts domain.RouteOptions) (*domain.RouteResult, error) {
	if m.buildFn != nil {
		return m.buildFn(ctx, points, opts)
	}
	return &domain.RouteResult{
		Alternatives: []domain.RouteAlternative{{Index: 0, DurationSec: 100}},
	}, nil
}

// --- Mock GeodataSource ---

type mockSource struct {
	fetchFn func(ctx context.Context, sourceFile string) (*domain.FeatureCollection, error)
}

func (m *mockSource) FetchLayer(ctx context.Context, sourceFile string) (*domain.FeatureCollection, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, sourceFile)
	}
	return &domain.FeatureCollection{Type: "FeatureCollection"}, nil
}

// --- Mock StateStore ---

type mockStore struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string][]byte)}
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
	}
	return v, nil
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func (m *mockStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockEvents struct {
	mu            sync.Mutex
	routesBuilt   int
	activeChanges []int
	layerChanges  []string
}

func (m *mockEvents) PublishRouteBuilt(ctx context.Context, result *domain.RouteResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routesBuilt++
	return nil
}

func (m *mockEvents) PublishActiveRouteChanged(ctx context.Context, activeIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeChanges = append(m.activeChanges, activeIndex)
	return nil
}

func (m *mockEvents) PublishLayerChanged(ctx context.Context, name domain.LayerName, visible bool, visibleFeatures int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layerChanges = append(m.layerChanges, string(name))
	return nil
}

func (m *mockEvents) PublishNotice(ctx context.Context, text string) error { return nil }
