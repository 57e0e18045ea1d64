package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/transtime/routeplanner/internal/core/domain"
	"github.com/transtime/routeplanner/internal/core/ports"
)

const savedRoutesKey = "saved_routes"

// SavedRoutesService keeps the user's saved route list. The in-memory list
// is the source of truth; the state store is best-effort persistence and
// any store failure leaves the service fully functional.
type SavedRoutesService struct {
	store        ports.StateStore
	orchestrator *Orchestrator
	session      *Session
	log          *slog.Logger

	mu     sync.Mutex
	routes []domain.SavedRoute
	nextID int
}

// NewSavedRoutesService creates the service and loads any persisted list.
func NewSavedRoutesService(ctx context.Context, store ports.StateStore, session *Session, orchestrator *Orchestrator) *SavedRoutesService {
	s := &SavedRoutesService{
		store:        store,
		orchestrator: orchestrator,
		session:      session,
		log:          slog.Default().With("component", "saved_routes"),
		nextID:       1,
	}
	s.restore(ctx)
	return s
}

func (s *SavedRoutesService) restore(ctx context.Context) {
	if s.store == nil {
		return
	}
	raw, err := s.store.Get(ctx, savedRoutesKey)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Warn("saved routes not restored", "error", err)
		}
		return
	}
	var routes []domain.SavedRoute
	if err := json.Unmarshal(raw, &routes); err != nil {
		s.log.Warn("saved routes document malformed, starting empty", "error", err)
		return
	}
	s.routes = routes
	for _, r := range routes {
		if r.ID >= s.nextID {
			s.nextID = r.ID + 1
		}
	}
}

// List returns the saved routes in insertion order.
func (s *SavedRoutesService) List() []domain.SavedRoute {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.SavedRoute(nil), s.routes...)
}

// Save snapshots the session's current request onto the end of the list.
func (s *SavedRoutesService) Save(ctx context.Context, label string) (domain.SavedRoute, error) {
	req := s.session.Request()
	if req.From == "" || req.To == "" {
		return domain.SavedRoute{}, fmt.Errorf("%w: nothing to save", domain.ErrInvalidInput)
	}
	if label == "" {
		label = req.From + " → " + req.To
	}

	s.mu.Lock()
	route := domain.SavedRoute{ID: s.nextID, Label: label, RouteRequest: req}
	s.nextID++
	s.routes = append(s.routes, route)
	s.mu.Unlock()

	s.persist(ctx)
	return route, nil
}

// Delete removes the route with the given id.
func (s *SavedRoutesService) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	idx := -1
	for i, r := range s.routes {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: saved route %d", domain.ErrNotFound, id)
	}
	s.routes = append(s.routes[:idx], s.routes[idx+1:]...)
	s.mu.Unlock()

	s.persist(ctx)
	return nil
}

// Load applies a saved route to the session and builds it.
func (s *SavedRoutesService) Load(ctx context.Context, id int) (*BuildOutcome, error) {
	s.mu.Lock()
	var route *domain.SavedRoute
	for i := range s.routes {
		if s.routes[i].ID == id {
			route = &s.routes[i]
			break
		}
	}
	s.mu.Unlock()
	if route == nil {
		return nil, fmt.Errorf("%w: saved route %d", domain.ErrNotFound, id)
	}

	s.session.ApplyRequest(route.RouteRequest)
	if err := s.orchestrator.SetVehicleMode(ctx, s.session.Vehicle()); err != nil {
		s.log.Warn("vehicle mode sync after load", "error", err)
	}
	return s.orchestrator.BuildCurrent(ctx)
}

func (s *SavedRoutesService) persist(ctx context.Context) {
	if s.store == nil {
		return
	}
	s.mu.Lock()
	raw, err := json.Marshal(s.routes)
	s.mu.Unlock()
	if err != nil {
		s.log.Warn("saved routes not serializable", "error", err)
		return
	}
	if err := s.store.Set(ctx, savedRoutesKey, raw); err != nil {
		s.log.Warn("saved routes not persisted", "error", err)
	}
}
