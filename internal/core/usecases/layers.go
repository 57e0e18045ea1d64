package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/transtime/routeplanner/internal/core/domain"
	"github.com/transtime/routeplanner/internal/core/ports"
	"github.com/transtime/routeplanner/internal/pkg/geospatial"
)

// Stroke colours for regulatory access decoration, in precedence order.
const (
	colorForbidden   = "#dc2626"
	colorConditional = "#eab308"
	colorAllowed     = "#16a34a"
	colorOverHeight  = "#ef4444"
	colorOverWidth   = "#f97316"
	colorDefault     = "#9ca3af"
)

type layerEntry struct {
	spec      domain.LayerSpec
	loaded    bool
	visible   bool
	features  *domain.FeatureCollection
	filterBox *domain.BoundingBox

	// generation is bumped on every toggle. A load that completes under a
	// stale generation is discarded: the user hid the layer (or toggled it
	// again) while the fetch was in flight, and the late response must not
	// resurrect it.
	generation uint64
}

// LayerManager owns the fixed set of regulatory overlays: on-demand loads,
// feature decoration, and the spatial filter that tracks the active route.
type LayerManager struct {
	session *Session
	source  ports.GeodataSource
	events  ports.EventPublisher
	prefs   *PreferencesService
	log     *slog.Logger

	mu     sync.Mutex
	layers map[domain.LayerName]*layerEntry
	order  []domain.LayerName

	// framesBeforeCar remembers the frames toggle state while the session
	// is in car mode, so it can be restored when the mode changes away.
	framesBeforeCar *bool
}

// NewLayerManager creates the manager with the fixed overlay set.
// prefs and events may be nil.
func NewLayerManager(session *Session, source ports.GeodataSource, events ports.EventPublisher, prefs *PreferencesService) *LayerManager {
	m := &LayerManager{
		session: session,
		source:  source,
		events:  events,
		prefs:   prefs,
		log:     slog.Default().With("component", "layers"),
		layers:  make(map[domain.LayerName]*layerEntry),
	}
	for _, spec := range domain.DefaultLayerSpecs() {
		m.layers[spec.Name] = &layerEntry{spec: spec}
		m.order = append(m.order, spec.Name)
	}
	return m
}

// RestorePersisted re-applies the persisted toggle choices at startup.
// Load failures only log: a layer that cannot load stays unchecked.
func (m *LayerManager) RestorePersisted(ctx context.Context) {
	for _, name := range m.order {
		if !m.prefs.GetToggle(ctx, name, false) {
			continue
		}
		if name == domain.LayerFrames && m.session.Vehicle() == domain.VehicleCar {
			continue
		}
		if err := m.Toggle(ctx, name, true); err != nil {
			m.log.Warn("persisted layer not restored", "layer", name, "error", err)
		}
	}
}

// States returns the live state of every layer in display order.
func (m *LayerManager) States() []domain.LayerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	states := make([]domain.LayerState, 0, len(m.order))
	for _, name := range m.order {
		states = append(states, m.stateLocked(m.layers[name]))
	}
	return states
}

// State returns the live state of one layer.
func (m *LayerManager) State(name domain.LayerName) (domain.LayerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.layers[name]
	if !ok {
		return domain.LayerState{}, fmt.Errorf("%w: layer %s", domain.ErrNotFound, name)
	}
	return m.stateLocked(e), nil
}

func (m *LayerManager) stateLocked(e *layerEntry) domain.LayerState {
	st := domain.LayerState{
		Spec:      e.spec,
		Loaded:    e.loaded,
		Visible:   e.visible,
		FilterBox: e.filterBox,
	}
	if e.features != nil {
		st.TotalFeatures = len(e.features.Features)
		st.VisibleFeatures = m.countVisibleLocked(e)
	}
	return st
}

// VisibleFeatures returns the features of a visible layer that pass its
// current spatial filter. Hidden layers contribute nothing.
func (m *LayerManager) VisibleFeatures(name domain.LayerName) []*domain.Feature {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.layers[name]
	if !ok || !e.visible || e.features == nil {
		return nil
	}
	var out []*domain.Feature
	for _, f := range e.features.Features {
		if m.featurePassesLocked(e, f) {
			out = append(out, f)
		}
	}
	return out
}

// Toggle switches a layer on or off. Turning on loads the source document;
// a missing document (404) or an empty collection unchecks the layer again
// with domain.ErrLayerNoData, any other failure with domain.ErrLayerLoad.
// No partial layer state survives a failed load.
func (m *LayerManager) Toggle(ctx context.Context, name domain.LayerName, on bool) error {
	m.mu.Lock()
	e, ok := m.layers[name]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: layer %s", domain.ErrNotFound, name)
	}

	if on && name == domain.LayerFrames && m.session.Vehicle() == domain.VehicleCar {
		m.mu.Unlock()
		return fmt.Errorf("%w: frames layer is unavailable in car mode", domain.ErrInvalidInput)
	}

	e.generation++
	gen := e.generation

	if !on {
		e.visible = false
		e.filterBox = nil
		m.mu.Unlock()
		m.persistToggle(ctx, name, false)
		m.publishLayer(ctx, name)
		return nil
	}
	m.mu.Unlock()

	fc, err := m.source.FetchLayer(ctx, e.spec.SourceFile)

	m.mu.Lock()
	if e.generation != gen {
		// Toggled again while loading; this response no longer matters.
		m.mu.Unlock()
		m.log.Debug("discarding stale layer load", "layer", name)
		return nil
	}
	if err != nil {
		e.visible = false
		m.mu.Unlock()
		m.persistToggle(ctx, name, false)
		return fmt.Errorf("layer %s: %w", name, err)
	}

	m.prepareLocked(e, fc)
	if len(fc.Features) == 0 {
		e.visible = false
		m.mu.Unlock()
		m.persistToggle(ctx, name, false)
		return fmt.Errorf("layer %s: %w", name, domain.ErrLayerNoData)
	}

	e.features = fc
	e.loaded = true
	e.visible = true
	m.mu.Unlock()

	m.persistToggle(ctx, name, true)
	m.publishLayer(ctx, name)
	return nil
}

// prepareLocked normalizes, identifies, and decorates a freshly loaded
// collection, dropping non-point geometries on point-only layers.
func (m *LayerManager) prepareLocked(e *layerEntry, fc *domain.FeatureCollection) {
	geospatial.NormalizeFeatureCollection(fc)

	if e.spec.PointOnly {
		kept := fc.Features[:0]
		for _, f := range fc.Features {
			if f != nil && f.Geometry != nil && f.Geometry.Type == domain.GeometryPoint {
				kept = append(kept, f)
			}
		}
		fc.Features = kept
	}

	dims := m.session.Request().Dimensions
	seq := 0
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		if f.ID == "" {
			f.ID = string(e.spec.Name) + "_" + strconv.Itoa(seq)
			seq++
		}
		decorateFeature(f, dims)
	}
}

// decorateFeature derives the human-readable title/caption and the stroke
// colour for line features carrying regulatory access properties.
func decorateFeature(f *domain.Feature, dims domain.VehicleDimensions) {
	p := f.Properties

	f.Title = firstString(p, "name", "title", "comment_human")
	if f.Title == "" {
		if stringProp(p, "object_type") == "frame" {
			f.Title = "Weight-control frame"
		} else {
			f.Title = "Object"
		}
	}
	f.Caption = firstString(p, "comment_human", "comment")
	if state := stringProp(p, "frame_state"); state != "" {
		f.Caption = joinCaption(f.Caption, "State: "+state)
	}
	if id := stringProp(p, "frame_id"); id != "" {
		f.Caption = joinCaption(f.Caption, "ID: "+id)
	}

	if stringProp(p, "object_type") != "segment" || f.Geometry == nil || !f.Geometry.IsLine() {
		return
	}

	color := colorDefault
	switch stringProp(p, "hgv_access") {
	case "forbidden":
		color = colorForbidden
	case "conditional":
		color = colorConditional
	case "allowed":
		color = colorAllowed
	default:
		if limit, ok := floatProp(p, "height_limit"); ok && dims.HeightM > 0 && limit < dims.HeightM {
			color = colorOverHeight
		} else if limit, ok := floatProp(p, "width_limit"); ok && dims.WidthM > 0 && limit < dims.WidthM {
			color = colorOverWidth
		}
	}
	f.Style = &domain.FeatureStyle{StrokeColor: color, StrokeWidth: 3, StrokeOpacity: 0.9}
}

// SyncVehicleMode reconciles the frames layer with the vehicle mode:
// entering car mode force-hides it and remembers its checked state,
// leaving car mode restores that state.
func (m *LayerManager) SyncVehicleMode(ctx context.Context) error {
	m.mu.Lock()
	e := m.layers[domain.LayerFrames]
	car := m.session.Vehicle() == domain.VehicleCar

	if car {
		if m.framesBeforeCar == nil {
			was := e.visible
			m.framesBeforeCar = &was
		}
		e.generation++
		e.visible = false
		e.filterBox = nil
		m.mu.Unlock()
		m.publishLayer(ctx, domain.LayerFrames)
		return nil
	}

	var restore bool
	if m.framesBeforeCar != nil {
		restore = *m.framesBeforeCar
		m.framesBeforeCar = nil
	}
	m.mu.Unlock()

	if restore {
		return m.Toggle(ctx, domain.LayerFrames, true)
	}
	return nil
}

// RefreshForActiveRoute re-derives the frames layer's spatial filter from
// the active route. No-op in car mode or while the layer is hidden. The
// bounding region is taken from, in priority order: the provider-reported
// bounds of the active alternative, a box over every coordinate of its
// path segments, a box over the supplied fallback endpoint/via list, and
// finally the via list alone. A nil result clears the filter.
func (m *LayerManager) RefreshForActiveRoute(ctx context.Context, fallbackPoints []domain.Coordinate) {
	if m.session.Vehicle() == domain.VehicleCar {
		return
	}
	m.mu.Lock()
	e := m.layers[domain.LayerFrames]
	if !e.visible {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	box := m.deriveRouteBox(fallbackPoints)

	m.mu.Lock()
	if !e.visible {
		// Toggled off while the box was being derived; nothing to filter.
		m.mu.Unlock()
		return
	}
	if box != nil {
		expanded := geospatial.Expand(*box, geospatial.ExpandMargin)
		e.filterBox = &expanded
	} else {
		e.filterBox = nil
	}
	m.mu.Unlock()

	m.publishLayer(ctx, domain.LayerFrames)
}

func (m *LayerManager) deriveRouteBox(fallbackPoints []domain.Coordinate) *domain.BoundingBox {
	if active := m.session.Result().Active(); active != nil {
		if active.Bounds != nil {
			b := geospatial.NormalizeBounds(*active.Bounds)
			return &b
		}
		if b, ok := geospatial.FromPoints(active.GeometryPoints(), geospatial.ExpandMargin); ok {
			return &b
		}
	}
	if b, ok := geospatial.FromPoints(fallbackPoints, geospatial.FromPointsMargin); ok {
		return &b
	}
	if b, ok := geospatial.FromPoints(m.session.Via(), geospatial.FromPointsMargin); ok {
		return &b
	}
	return nil
}

func (m *LayerManager) countVisibleLocked(e *layerEntry) int {
	n := 0
	for _, f := range e.features.Features {
		if m.featurePassesLocked(e, f) {
			n++
		}
	}
	return n
}

func (m *LayerManager) featurePassesLocked(e *layerEntry, f *domain.Feature) bool {
	if f == nil {
		return false
	}
	if e.filterBox == nil {
		return true
	}
	if f.Geometry == nil {
		return false
	}
	pair, ok := f.Geometry.PrimaryCoordinate()
	if !ok {
		return false
	}
	pt := append([]float64(nil), pair...)
	if !geospatial.NormalizePair(pt) {
		return false
	}
	return e.filterBox.Contains(domain.Coordinate{Lon: pt[0], Lat: pt[1]})
}

// persistToggle records the toggle state, silently tolerating store failure.
func (m *LayerManager) persistToggle(ctx context.Context, name domain.LayerName, on bool) {
	m.prefs.SetToggle(ctx, name, on)
}

func (m *LayerManager) publishLayer(ctx context.Context, name domain.LayerName) {
	if m.events == nil {
		return
	}
	st, err := m.State(name)
	if err != nil {
		return
	}
	if err := m.events.PublishLayerChanged(ctx, name, st.Visible, st.VisibleFeatures); err != nil {
		m.log.Debug("layer event not published", "layer", name, "error", err)
	}
}

func firstString(p map[string]any, keys ...string) string {
	for _, k := range keys {
		if v := stringProp(p, k); v != "" {
			return v
		}
	}
	return ""
}

func stringProp(p map[string]any, key string) string {
	if p == nil {
		return ""
	}
	v, _ := p[key].(string)
	return v
}

func floatProp(p map[string]any, key string) (float64, bool) {
	if p == nil {
		return 0, false
	}
	switch v := p[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func joinCaption(base, extra string) string {
	if base == "" {
		return extra
	}
	return base + "\n" + extra
}
