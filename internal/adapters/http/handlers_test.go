package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"

	api "github.com/transtime/routeplanner/internal/adapters/http"
	"github.com/transtime/routeplanner/internal/core/domain"
	"github.com/transtime/routeplanner/internal/core/usecases"
	"github.com/transtime/routeplanner/internal/offline"
)

type mockGeocoder struct {
	geocodeFn func(ctx context.Context, address string) (domain.Coordinate, error)
}

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (domain.Coordinate, error) {
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, address)
	}
	return domain.Coordinate{Lon: 37.6, Lat: 55.7}, nil
}

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

type mockSource struct {
	fetchFn func(ctx context.Context, sourceFile string) (*domain.FeatureCollection, error)
}

func (m *mockSource) FetchLayer(ctx context.Context, sourceFile string) (*domain.FeatureCollection, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, sourceFile)
	}
	return &domain.FeatureCollection{
		Type: "FeatureCollection",
		Features: []*domain.Feature{
			{
				Geometry:   &domain.Geometry{Type: domain.GeometryPoint, Point: []float64{37.6, 55.7}},
				Properties: map[string]any{"name": "Frame 12"},
			},
		},
	}, nil
}

type mockStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMockStore() *mockStore { return &mockStore{data: make(map[string][]byte)} }

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
	}
	return v, nil
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func newTestApp(t *testing.T, router *mockRouter, source *mockSource) (*fiber.App, *api.Dependencies) {
	t.Helper()
	if router == nil {
		router = &mockRouter{}
	}
	if source == nil {
		source = &mockSource{}
	}

	store := newMockStore()
	session := usecases.NewSession(domain.VehicleTruck40)
	prefs := usecases.NewPreferencesService(store)
	layers := usecases.NewLayerManager(session, source, nil, prefs)
	orc := usecases.NewOrchestrator(session, &mockGeocoder{}, router, layers, nil)

	worker := offline.NewWorker(
		offline.NewMemoryStore(offline.CacheVersion),
		offline.Policy{},
		offline.FetchFunc(func(ctx context.Context, req offline.Request) (*offline.Response, error) {
			return &offline.Response{Status: http.StatusOK, Body: []byte("asset"), FromNet: true}, nil
		}),
		offline.DefaultPrecache,
	)

	deps := &api.Dependencies{
		Session:      session,
		Orchestrator: orc,
		Layers:       layers,
		Share:        usecases.NewShareService(session, orc),
		Saved:        usecases.NewSavedRoutesService(context.Background(), store, session, orc),
		Prefs:        prefs,
		Offline:      worker,
		PublicURL:    "https://planner.example",
	}

	app := fiber.New()
	api.SetupRoutes(app, deps)
	return app, deps
}

func jsonRequest(method, target string, body any) *http.Request {
	var rd io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestBuildRouteHandler(t *testing.T) {
	app, _ := newTestApp(t, nil, nil)

	resp, err := app.Test(jsonRequest("POST", "/v1/routes/build", fiber.Map{
		"from": "Moscow",
		"to":   "Kazan",
	}), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var outcome struct {
		Result *domain.RouteResult `json:"result"`
	}
	decodeBody(t, resp, &outcome)
	if outcome.Result == nil || len(outcome.Result.Alternatives) != 1 {
		t.Errorf("unexpected outcome: %+v", outcome)
	}
}

func TestBuildRouteHandler_GeocodeNotFound(t *testing.T) {
	app, deps := newTestApp(t, nil, nil)
	geocoder := &mockGeocoder{geocodeFn: func(ctx context.Context, address string) (domain.Coordinate, error) {
		return domain.Coordinate{}, fmt.Errorf("%w: %q", domain.ErrGeocodeNotFound, address)
	}}
	session := deps.Session
	deps.Orchestrator = usecases.NewOrchestrator(session, geocoder, &mockRouter{}, deps.Layers, nil)
	// Routes are already bound to the old orchestrator; rebuild the app.
	app = fiber.New()
	api.SetupRoutes(app, deps)

	resp, err := app.Test(jsonRequest("POST", "/v1/routes/build", fiber.Map{"from": "nowhere", "to": "Kazan"}), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	var apiErr api.APIError
	decodeBody(t, resp, &apiErr)
	if apiErr.Code != "geocode_not_found" {
		t.Errorf("unexpected error code %q", apiErr.Code)
	}
}

func TestBuildRouteHandler_Conflict(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	router := &mockRouter{buildFn: func(ctx context.Context, points []domain.Coordinate, opts domain.RouteOptions) (*domain.RouteResult, error) {
		close(started)
		<-release
		return &domain.RouteResult{Alternatives: []domain.RouteAlternative{{Index: 0, DurationSec: 100}}}, nil
	}}
	app, _ := newTestApp(t, router, nil)

	body := fiber.Map{"from": "Moscow", "to": "Kazan"}
	firstDone := make(chan error, 1)
	go func() {
		_, err := app.Test(jsonRequest("POST", "/v1/routes/build", body), -1)
		firstDone <- err
	}()
	<-started

	resp, err := app.Test(jsonRequest("POST", "/v1/routes/build", body), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 409 {
		t.Errorf("expected 409 while a build is in flight, got %d", resp.StatusCode)
	}
	var apiErr api.APIError
	decodeBody(t, resp, &apiErr)
	if apiErr.Code != "build_in_progress" {
		t.Errorf("unexpected error code %q", apiErr.Code)
	}

	close(release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first build failed: %v", err)
	}
}

func TestActiveRouteHandler_NoBuild(t *testing.T) {
	app, _ := newTestApp(t, nil, nil)
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/routes/active", nil), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("expected 404 before any build, got %d", resp.StatusCode)
	}
}

func TestAddViaHandler(t *testing.T) {
	app, deps := newTestApp(t, nil, nil)
	deps.Session.SetEndpoints("Moscow", "Kazan")

	// Coordinates travel as [lon, lat] pairs.
	resp, err := app.Test(jsonRequest("POST", "/v1/routes/via", []float64{38.9, 55.5}), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if via := deps.Session.Via(); len(via) != 1 || via[0].Lon != 38.9 {
		t.Errorf("via point not applied: %+v", via)
	}

	resp, err = app.Test(jsonRequest("POST", "/v1/routes/via", fiber.Map{"lon": 38.9}), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("expected 400 for a non-pair body, got %d", resp.StatusCode)
	}
}

func TestSetVehicleModeHandler_Invalid(t *testing.T) {
	app, _ := newTestApp(t, nil, nil)
	resp, err := app.Test(jsonRequest("POST", "/v1/vehicle/mode", fiber.Map{"mode": "bus"}), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("expected 400 for unknown mode, got %d", resp.StatusCode)
	}
}

func TestToggleLayerHandler(t *testing.T) {
	app, _ := newTestApp(t, nil, nil)

	resp, err := app.Test(jsonRequest("POST", "/v1/layers/frames/toggle", fiber.Map{"on": true}), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var state domain.LayerState
	decodeBody(t, resp, &state)
	if !state.Visible || !state.Loaded {
		t.Errorf("layer not visible after toggle: %+v", state)
	}
}

func TestToggleLayerHandler_NoData(t *testing.T) {
	source := &mockSource{fetchFn: func(ctx context.Context, sourceFile string) (*domain.FeatureCollection, error) {
		return nil, fmt.Errorf("%w: %s", domain.ErrLayerNoData, sourceFile)
	}}
	app, _ := newTestApp(t, nil, source)

	resp, err := app.Test(jsonRequest("POST", "/v1/layers/frames/toggle", fiber.Map{"on": true}), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	var apiErr api.APIError
	decodeBody(t, resp, &apiErr)
	if apiErr.Code != "layer_no_data" {
		t.Errorf("unexpected error code %q", apiErr.Code)
	}
}

func TestShareHandlers(t *testing.T) {
	app, deps := newTestApp(t, nil, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/share", nil), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Fatalf("empty session must have nothing to share, got %d", resp.StatusCode)
	}

	deps.Session.SetEndpoints("Moscow", "Kazan")
	resp, err = app.Test(httptest.NewRequest("GET", "/v1/share", nil), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var share struct {
		Token string `json:"token"`
		URL   string `json:"url"`
	}
	decodeBody(t, resp, &share)
	if share.Token == "" || share.URL == "" {
		t.Fatalf("incomplete share payload: %+v", share)
	}

	resp, err = app.Test(jsonRequest("POST", "/v1/share/apply", fiber.Map{"token": share.Token}), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("expected 200 applying own token, got %d", resp.StatusCode)
	}

	resp, err = app.Test(jsonRequest("POST", "/v1/share/apply", fiber.Map{"token": "garbage"}), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("expected 400 for a bad token, got %d", resp.StatusCode)
	}
}

func TestSavedRouteHandlers(t *testing.T) {
	app, deps := newTestApp(t, nil, nil)
	deps.Session.SetEndpoints("Moscow", "Kazan")

	resp, err := app.Test(jsonRequest("POST", "/v1/routes/saved", fiber.Map{"label": "trip"}), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var saved domain.SavedRoute
	decodeBody(t, resp, &saved)
	if saved.ID != 1 || saved.Label != "trip" {
		t.Errorf("unexpected saved route: %+v", saved)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/routes/saved", nil), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var list struct {
		Data []domain.SavedRoute `json:"data"`
	}
	decodeBody(t, resp, &list)
	if len(list.Data) != 1 {
		t.Fatalf("expected 1 saved route, got %d", len(list.Data))
	}

	resp, err = app.Test(httptest.NewRequest("DELETE", "/v1/routes/saved/1", nil), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 204 {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("DELETE", "/v1/routes/saved/1", nil), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("expected 404 for a double delete, got %d", resp.StatusCode)
	}
}

func TestViewportHandlers(t *testing.T) {
	app, _ := newTestApp(t, nil, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/preferences/viewport", nil), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404 with no stored viewport, got %d", resp.StatusCode)
	}

	resp, err = app.Test(jsonRequest("PUT", "/v1/preferences/viewport", fiber.Map{
		"center": []float64{37.6, 55.7},
		"zoom":   11.5,
	}), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/preferences/viewport", nil), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var vp domain.Viewport
	decodeBody(t, resp, &vp)
	if vp.Center.Lon != 37.6 || vp.Zoom != 11.5 {
		t.Errorf("viewport did not round trip: %+v", vp)
	}
}

func TestOfflineManifestHandler(t *testing.T) {
	app, _ := newTestApp(t, nil, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/offline/manifest", nil), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var manifest struct {
		Version  string   `json:"version"`
		Precache []string `json:"precache"`
	}
	decodeBody(t, resp, &manifest)
	if manifest.Version != offline.CacheVersion || len(manifest.Precache) == 0 {
		t.Errorf("unexpected manifest: %+v", manifest)
	}
}

func TestOfflineAssetHandler(t *testing.T) {
	app, _ := newTestApp(t, nil, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/offline/asset/assets/css/app.css?destination=style", nil), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Offline-Cache"); got != "miss" {
		t.Errorf("first request must be a miss, got %q", got)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/offline/asset/assets/css/app.css?destination=style", nil), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resp.Header.Get("X-Offline-Cache"); got != "hit" {
		t.Errorf("second request must be a hit, got %q", got)
	}
}

func TestHealthHandler(t *testing.T) {
	app, _ := newTestApp(t, nil, nil)
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}
