package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/transtime/routeplanner/internal/core/domain"
	"github.com/transtime/routeplanner/internal/core/ports"
)

// defaultAlternatives is how many route variants are requested per build.
const defaultAlternatives = 3

// BuildOutcome is what one successful build hands to the presentation
// layer: the stored result and the ranked list for the comparison UI.
// RankedList is nil when fewer than two alternatives exist; single-route
// builds need no comparison UI.
type BuildOutcome struct {
	Result     *domain.RouteResult       `json:"result"`
	RankedList []domain.RouteAlternative `json:"ranked_list,omitempty"`
}

// Orchestrator serializes route builds: it validates the request, resolves
// endpoints through the geocoder, invokes the route builder, and owns the
// active-route lifecycle. At most one build is in flight at any time; a
// concurrent request is rejected, never queued.
type Orchestrator struct {
	session  *Session
	geocoder ports.Geocoder
	router   ports.RouteBuilder
	layers   *LayerManager
	events   ports.EventPublisher
	log      *slog.Logger

	building atomic.Bool
}

// NewOrchestrator creates the orchestrator. events may be nil.
func NewOrchestrator(session *Session, geocoder ports.Geocoder, router ports.RouteBuilder, layers *LayerManager, events ports.EventPublisher) *Orchestrator {
	return &Orchestrator{
		session:  session,
		geocoder: geocoder,
		router:   router,
		layers:   layers,
		events:   events,
		log:      slog.Default().With("component", "orchestrator"),
	}
}

// Build runs one route build for the request. A build already in flight
// rejects this one immediately with domain.ErrBuildInProgress. On any
// failure the previously displayed route is left untouched.
func (o *Orchestrator) Build(ctx context.Context, req domain.RouteRequest) (*BuildOutcome, error) {
	if strings.TrimSpace(req.From) == "" || strings.TrimSpace(req.To) == "" {
		return nil, fmt.Errorf("%w: origin and destination are required", domain.ErrInvalidInput)
	}

	if !o.building.CompareAndSwap(false, true) {
		return nil, domain.ErrBuildInProgress
	}
	defer o.building.Store(false)

	opts := routeOptions(req)

	origin, err := o.geocoder.Geocode(ctx, req.From)
	if err != nil {
		return nil, fmt.Errorf("geocode origin %q: %w", req.From, err)
	}
	dest, err := o.geocoder.Geocode(ctx, req.To)
	if err != nil {
		return nil, fmt.Errorf("geocode destination %q: %w", req.To, err)
	}

	via := req.ViaPoints
	if len(via) > domain.MaxViaPoints {
		via = via[:domain.MaxViaPoints]
	}
	points := make([]domain.Coordinate, 0, len(via)+2)
	points = append(points, origin)
	points = append(points, via...)
	points = append(points, dest)

	result, err := o.router.BuildRoute(ctx, points, opts)
	if err != nil {
		return nil, fmt.Errorf("build route: %w", err)
	}
	result.Waypoints = points

	// Swap in the new result; the session detaches the previous result's
	// change listener before installing ours.
	fallback := points
	o.session.ReplaceResult(result, func(lctx context.Context) {
		o.layers.RefreshForActiveRoute(lctx, fallback)
		o.publishActiveChange(lctx)
	})

	o.layers.RefreshForActiveRoute(ctx, fallback)
	o.publishBuilt(ctx, result)

	o.log.Info("route built",
		"from", req.From, "to", req.To,
		"via", len(via), "alternatives", len(result.Alternatives))

	return &BuildOutcome{Result: result, RankedList: RankAlternatives(result)}, nil
}

// BuildCurrent builds from the session's editable state.
func (o *Orchestrator) BuildCurrent(ctx context.Context) (*BuildOutcome, error) {
	return o.Build(ctx, o.session.Request())
}

// SetActiveAlternative switches the active alternative; the session fires
// the owned change listener, which refilters the geodata layers.
func (o *Orchestrator) SetActiveAlternative(ctx context.Context, index int) error {
	return o.session.SetActiveIndex(ctx, index)
}

// Outcome re-derives the build outcome for the session's current result.
func (o *Orchestrator) Outcome() *BuildOutcome {
	result := o.session.Result()
	if result == nil {
		return nil
	}
	return &BuildOutcome{Result: result, RankedList: RankAlternatives(result)}
}

// SetVehicleMode switches the vehicle profile and reconciles the frames
// layer (force-hidden in car mode, restored otherwise).
func (o *Orchestrator) SetVehicleMode(ctx context.Context, mode domain.VehicleMode) error {
	switch mode {
	case domain.VehicleCar, domain.VehicleTruck12, domain.VehicleTruck20, domain.VehicleTruck40:
	default:
		return fmt.Errorf("%w: unknown vehicle mode %q", domain.ErrInvalidInput, mode)
	}
	o.session.SetVehicle(mode)
	return o.layers.SyncVehicleMode(ctx)
}

// NavigatorURL renders the active result's waypoints as an external
// navigator hand-off link (lat,lon pairs joined by "~").
func (o *Orchestrator) NavigatorURL() (string, error) {
	result := o.session.Result()
	if result == nil || len(result.Waypoints) == 0 {
		return "", fmt.Errorf("%w: no route to open", domain.ErrNotFound)
	}
	parts := make([]string, 0, len(result.Waypoints))
	for _, wp := range result.Waypoints {
		parts = append(parts, fmt.Sprintf("%g,%g", wp.Lat, wp.Lon))
	}
	return "https://yandex.ru/navi/?rtext=" + url.QueryEscape(strings.Join(parts, "~")) + "&rtt=auto", nil
}

// RankAlternatives sorts the alternatives by traffic-aware duration
// ascending, ties broken by provider order. Returns nil when fewer than
// two alternatives exist.
func RankAlternatives(result *domain.RouteResult) []domain.RouteAlternative {
	if result == nil || len(result.Alternatives) < 2 {
		return nil
	}
	ranked := append([]domain.RouteAlternative(nil), result.Alternatives...)
	sort.SliceStable(ranked, func(i, j int) bool {
		di, dj := ranked[i].EffectiveDuration(), ranked[j].EffectiveDuration()
		if di != dj {
			return di < dj
		}
		return ranked[i].Index < ranked[j].Index
	})
	return ranked
}

// routeOptions translates UI vehicle parameters into provider routing
// options. Dimensions left at zero are omitted; weight converts t → kg.
func routeOptions(req domain.RouteRequest) domain.RouteOptions {
	opts := domain.RouteOptions{
		Mode:         domain.RoutingTruck,
		Alternatives: defaultAlternatives,
	}
	if req.Vehicle == domain.VehicleCar {
		opts.Mode = domain.RoutingDriving
	}
	if req.Dimensions.WeightTons > 0 {
		opts.WeightKg = req.Dimensions.WeightTons * 1000
	}
	if req.Dimensions.HeightM > 0 {
		opts.HeightM = req.Dimensions.HeightM
	}
	if req.Dimensions.WidthM > 0 {
		opts.WidthM = req.Dimensions.WidthM
	}
	if req.Dimensions.LengthM > 0 {
		opts.LengthM = req.Dimensions.LengthM
	}
	return opts
}

func (o *Orchestrator) publishBuilt(ctx context.Context, result *domain.RouteResult) {
	if o.events == nil {
		return
	}
	if err := o.events.PublishRouteBuilt(ctx, result); err != nil {
		o.log.Debug("route event not published", "error", err)
	}
}

func (o *Orchestrator) publishActiveChange(ctx context.Context) {
	if o.events == nil {
		return
	}
	result := o.session.Result()
	if result == nil {
		return
	}
	if err := o.events.PublishActiveRouteChanged(ctx, result.ActiveIndex); err != nil {
		o.log.Debug("active-route event not published", "error", err)
	}
}
