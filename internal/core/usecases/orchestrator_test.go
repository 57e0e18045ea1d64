package usecases_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/transtime/routeplanner/internal/core/domain"
	"github.com/transtime/routeplanner/internal/core/usecases"
)

func newOrchestrator(geocoder *mockGeocoder, router *mockRouter, events *mockEvents) (*usecases.Orchestrator, *usecases.Session) {
	session := usecases.NewSession(domain.VehicleTruck40)
	prefs := usecases.NewPreferencesService(nil)
	layers := usecases.NewLayerManager(session, &mockSource{}, nil, prefs)
	if events == nil {
		return usecases.NewOrchestrator(session, geocoder, router, layers, nil), session
	}
	return usecases.NewOrchestrator(session, geocoder, router, layers, events), session
}

func TestOrchestrator_Build_RanksByEffectiveDuration(t *testing.T) {
	router := &mockRouter{
		buildFn: func(ctx context.Context, points []domain.Coordinate, opts domain.RouteOptions) (*domain.RouteResult, error) {
			return &domain.RouteResult{
				Alternatives: []domain.RouteAlternative{
					{Index: 0, DurationSec: 600},
					{Index: 1, DurationSec: 500},
					{Index: 2, DurationSec: 700},
				},
			}, nil
		},
	}
	orc, _ := newOrchestrator(&mockGeocoder{}, router, nil)

	outcome, err := orc.Build(context.Background(), domain.RouteRequest{From: "A", To: "B"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []float64{500, 600, 700}
	if len(outcome.RankedList) != 3 {
		t.Fatalf("expected 3 ranked alternatives, got %d", len(outcome.RankedList))
	}
	for i, alt := range outcome.RankedList {
		if alt.EffectiveDuration() != want[i] {
			t.Errorf("rank %d: expected duration %v, got %v", i, want[i], alt.EffectiveDuration())
		}
	}
	// Provider order is untouched; only the ranked list is sorted.
	if outcome.Result.Alternatives[0].DurationSec != 600 {
		t.Error("provider alternative order must be preserved")
	}
	if outcome.Result.ActiveIndex != 0 {
		t.Errorf("provider default active index must be kept, got %d", outcome.Result.ActiveIndex)
	}
}

func TestOrchestrator_Build_SingleAlternativeNoRankedList(t *testing.T) {
	orc, _ := newOrchestrator(&mockGeocoder{}, &mockRouter{}, nil)

	outcome, err := orc.Build(context.Background(), domain.RouteRequest{From: "A", To: "B"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.RankedList != nil {
		t.Error("ranked list must be nil for a single alternative")
	}
}

func TestOrchestrator_Build_RejectsConcurrent(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var startOnce sync.Once
	router := &mockRouter{
		buildFn: func(ctx context.Context, points []domain.Coordinate, opts domain.RouteOptions) (*domain.RouteResult, error) {
			// Only the first build blocks; the post-release one returns.
			startOnce.Do(func() {
				close(started)
				<-release
			})
			return &domain.RouteResult{
				Alternatives: []domain.RouteAlternative{{Index: 0, DurationSec: 100}},
			}, nil
		},
	}
	orc, _ := newOrchestrator(&mockGeocoder{}, router, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := orc.Build(context.Background(), domain.RouteRequest{From: "A", To: "B"}); err != nil {
			t.Errorf("first build failed: %v", err)
		}
	}()

	<-started
	_, err := orc.Build(context.Background(), domain.RouteRequest{From: "C", To: "D"})
	if !errors.Is(err, domain.ErrBuildInProgress) {
		t.Errorf("expected ErrBuildInProgress, got %v", err)
	}

	close(release)
	wg.Wait()

	// The slot is free again after the first build completes.
	if _, err := orc.Build(context.Background(), domain.RouteRequest{From: "C", To: "D"}); err != nil {
		t.Errorf("build after completion failed: %v", err)
	}
}

func TestOrchestrator_Build_VehicleOptionMapping(t *testing.T) {
	var got domain.RouteOptions
	router := &mockRouter{
		buildFn: func(ctx context.Context, points []domain.Coordinate, opts domain.RouteOptions) (*domain.RouteResult, error) {
			got = opts
			return &domain.RouteResult{
				Alternatives: []domain.RouteAlternative{{Index: 0, DurationSec: 100}},
			}, nil
		},
	}
	orc, _ := newOrchestrator(&mockGeocoder{}, router, nil)

	req := domain.RouteRequest{
		From: "A", To: "B",
		Vehicle:    domain.VehicleTruck20,
		Dimensions: domain.VehicleDimensions{WeightTons: 20, HeightM: 4},
	}
	if _, err := orc.Build(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Mode != domain.RoutingTruck {
		t.Errorf("expected truck routing mode, got %s", got.Mode)
	}
	if got.WeightKg != 20000 {
		t.Errorf("expected weight 20000 kg, got %v", got.WeightKg)
	}
	if got.HeightM != 4 {
		t.Errorf("expected height 4, got %v", got.HeightM)
	}
	if got.WidthM != 0 || got.LengthM != 0 {
		t.Error("unset dimensions must stay zero")
	}

	req.Vehicle = domain.VehicleCar
	if _, err := orc.Build(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Mode != domain.RoutingDriving {
		t.Errorf("expected driving mode for car, got %s", got.Mode)
	}
}

func TestOrchestrator_Build_CapsViaPoints(t *testing.T) {
	var waypoints int
	router := &mockRouter{
		buildFn: func(ctx context.Context, points []domain.Coordinate, opts domain.RouteOptions) (*domain.RouteResult, error) {
			waypoints = len(points)
			return &domain.RouteResult{
				Alternatives: []domain.RouteAlternative{{Index: 0, DurationSec: 100}},
			}, nil
		},
	}
	orc, _ := newOrchestrator(&mockGeocoder{}, router, nil)

	via := make([]domain.Coordinate, 9)
	for i := range via {
		via[i] = domain.Coordinate{Lon: 37.0 + float64(i), Lat: 55.0}
	}
	if _, err := orc.Build(context.Background(), domain.RouteRequest{From: "A", To: "B", ViaPoints: via}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if waypoints != domain.MaxViaPoints+2 {
		t.Errorf("expected %d waypoints, got %d", domain.MaxViaPoints+2, waypoints)
	}
}

func TestOrchestrator_Build_FailureKeepsPreviousResult(t *testing.T) {
	fail := false
	router := &mockRouter{
		buildFn: func(ctx context.Context, points []domain.Coordinate, opts domain.RouteOptions) (*domain.RouteResult, error) {
			if fail {
				return nil, domain.ErrNoRoute
			}
			return &domain.RouteResult{
				Alternatives: []domain.RouteAlternative{{Index: 0, DurationSec: 100}},
			}, nil
		},
	}
	orc, session := newOrchestrator(&mockGeocoder{}, router, nil)

	if _, err := orc.Build(context.Background(), domain.RouteRequest{From: "A", To: "B"}); err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	previous := session.Result()

	fail = true
	if _, err := orc.Build(context.Background(), domain.RouteRequest{From: "A", To: "B"}); !errors.Is(err, domain.ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
	if session.Result() != previous {
		t.Error("failed build must not replace the previous result")
	}
}

func TestOrchestrator_Build_GeocodeFailure(t *testing.T) {
	geocoder := &mockGeocoder{
		geocodeFn: func(ctx context.Context, address string) (domain.Coordinate, error) {
			if address == "nowhere" {
				return domain.Coordinate{}, domain.ErrGeocodeNotFound
			}
			return domain.Coordinate{Lon: 37.6, Lat: 55.7}, nil
		},
	}
	orc, session := newOrchestrator(geocoder, &mockRouter{}, nil)

	_, err := orc.Build(context.Background(), domain.RouteRequest{From: "A", To: "nowhere"})
	if !errors.Is(err, domain.ErrGeocodeNotFound) {
		t.Fatalf("expected ErrGeocodeNotFound, got %v", err)
	}
	if session.Result() != nil {
		t.Error("no result must be stored after a geocode failure")
	}
}

func TestOrchestrator_Build_EmptyEndpoints(t *testing.T) {
	orc, _ := newOrchestrator(&mockGeocoder{}, &mockRouter{}, nil)

	for _, req := range []domain.RouteRequest{
		{From: "", To: "B"},
		{From: "A", To: "   "},
	} {
		if _, err := orc.Build(context.Background(), req); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for %+v, got %v", req, err)
		}
	}
}

func TestOrchestrator_SetActiveAlternative(t *testing.T) {
	router := &mockRouter{
		buildFn: func(ctx context.Context, points []domain.Coordinate, opts domain.RouteOptions) (*domain.RouteResult, error) {
			return &domain.RouteResult{
				Alternatives: []domain.RouteAlternative{
					{Index: 0, DurationSec: 600},
					{Index: 1, DurationSec: 500},
				},
			}, nil
		},
	}
	events := &mockEvents{}
	orc, session := newOrchestrator(&mockGeocoder{}, router, events)

	if _, err := orc.Build(context.Background(), domain.RouteRequest{From: "A", To: "B"}); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if err := orc.SetActiveAlternative(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Result().ActiveIndex != 1 {
		t.Errorf("expected active index 1, got %d", session.Result().ActiveIndex)
	}

	if err := orc.SetActiveAlternative(context.Background(), 7); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown index, got %v", err)
	}
	if session.Result().ActiveIndex != 1 {
		t.Error("failed switch must not change the active index")
	}
}

func TestOrchestrator_NavigatorURL(t *testing.T) {
	orc, _ := newOrchestrator(&mockGeocoder{}, &mockRouter{}, nil)

	if _, err := orc.NavigatorURL(); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound before any build, got %v", err)
	}

	if _, err := orc.Build(context.Background(), domain.RouteRequest{From: "A", To: "B"}); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	u, err := orc.NavigatorURL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u == "" {
		t.Error("expected a non-empty navigator URL")
	}
}

func TestOrchestrator_SetVehicleMode_Invalid(t *testing.T) {
	orc, _ := newOrchestrator(&mockGeocoder{}, &mockRouter{}, nil)
	if err := orc.SetVehicleMode(context.Background(), "bus"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
