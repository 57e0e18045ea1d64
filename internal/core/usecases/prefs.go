package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"

	"github.com/transtime/routeplanner/internal/core/domain"
	"github.com/transtime/routeplanner/internal/core/ports"
)

const viewportKey = "viewport"

// PreferencesService persists small UI preferences: per-layer toggle
// states and the last map viewport. Every operation is best-effort; a
// broken store degrades to defaults, never to an error surfaced upward.
type PreferencesService struct {
	store ports.StateStore
	log   *slog.Logger
}

// NewPreferencesService creates the service. store may be nil.
func NewPreferencesService(store ports.StateStore) *PreferencesService {
	return &PreferencesService{
		store: store,
		log:   slog.Default().With("component", "prefs"),
	}
}

// SetToggle persists a layer's visibility choice.
func (p *PreferencesService) SetToggle(ctx context.Context, name domain.LayerName, on bool) {
	if p == nil || p.store == nil {
		return
	}
	if err := p.store.Set(ctx, toggleKey(name), []byte(strconv.FormatBool(on))); err != nil {
		p.log.Debug("toggle not persisted", "layer", name, "error", err)
	}
}

// GetToggle reads a persisted toggle, returning the fallback when the key
// is absent or the store fails.
func (p *PreferencesService) GetToggle(ctx context.Context, name domain.LayerName, fallback bool) bool {
	if p == nil || p.store == nil {
		return fallback
	}
	raw, err := p.store.Get(ctx, toggleKey(name))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			p.log.Debug("toggle not read", "layer", name, "error", err)
		}
		return fallback
	}
	on, err := strconv.ParseBool(string(raw))
	if err != nil {
		return fallback
	}
	return on
}

// SetViewport persists the map camera position.
func (p *PreferencesService) SetViewport(ctx context.Context, vp domain.Viewport) {
	if p == nil || p.store == nil {
		return
	}
	raw, err := json.Marshal(vp)
	if err != nil {
		return
	}
	if err := p.store.Set(ctx, viewportKey, raw); err != nil {
		p.log.Debug("viewport not persisted", "error", err)
	}
}

// Viewport returns the persisted camera position, ok=false when none.
func (p *PreferencesService) Viewport(ctx context.Context) (domain.Viewport, bool) {
	if p == nil || p.store == nil {
		return domain.Viewport{}, false
	}
	raw, err := p.store.Get(ctx, viewportKey)
	if err != nil {
		return domain.Viewport{}, false
	}
	var vp domain.Viewport
	if err := json.Unmarshal(raw, &vp); err != nil {
		return domain.Viewport{}, false
	}
	return vp, true
}

func toggleKey(name domain.LayerName) string {
	return "layer_toggle:" + string(name)
}
