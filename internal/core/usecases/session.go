package usecases

import (
	"context"
	"fmt"
	"sync"

	"github.com/transtime/routeplanner/internal/core/domain"
)

// Session is the application context for one page session: the request
// being edited, the active route result, and the vehicle profile. It is
// created at startup and lives for the process lifetime.
//
// The active-route change listener is a single owned slot: installing a
// new one always detaches the previous, so a stale handler can never fire
// for a result that has been replaced.
type Session struct {
	mu sync.Mutex

	from    string
	to      string
	vehicle domain.VehicleMode
	dims    domain.VehicleDimensions
	via     []domain.Coordinate

	result         *domain.RouteResult
	activeListener func(ctx context.Context)

	appliedShareTokens map[string]struct{}
}

// NewSession creates a session with the given default vehicle profile.
func NewSession(defaultVehicle domain.VehicleMode) *Session {
	if defaultVehicle == "" {
		defaultVehicle = domain.VehicleTruck40
	}
	return &Session{
		vehicle:            defaultVehicle,
		appliedShareTokens: make(map[string]struct{}),
	}
}

// Request snapshots the current editable state as an immutable request.
func (s *Session) Request() domain.RouteRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.RouteRequest{
		From:       s.from,
		To:         s.to,
		ViaPoints:  append([]domain.Coordinate(nil), s.via...),
		Vehicle:    s.vehicle,
		Dimensions: s.dims,
	}
}

// SetEndpoints updates the origin/destination texts.
func (s *Session) SetEndpoints(from, to string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.from, s.to = from, to
}

// SetDimensions replaces the vehicle physical parameters.
func (s *Session) SetDimensions(d domain.VehicleDimensions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dims = d
}

// Vehicle returns the current vehicle mode.
func (s *Session) Vehicle() domain.VehicleMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vehicle
}

// SetVehicle switches the vehicle mode and returns the previous one.
func (s *Session) SetVehicle(mode domain.VehicleMode) domain.VehicleMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.vehicle
	s.vehicle = mode
	return prev
}

// ApplyRequest populates the editable state from a request (saved route or
// decoded share payload). Via points beyond the cap are dropped.
func (s *Session) ApplyRequest(req domain.RouteRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.from, s.to = req.From, req.To
	if req.Vehicle != "" {
		s.vehicle = req.Vehicle
	}
	s.dims = req.Dimensions
	via := req.ViaPoints
	if len(via) > domain.MaxViaPoints {
		via = via[:domain.MaxViaPoints]
	}
	s.via = append([]domain.Coordinate(nil), via...)
}

// AddVia appends an intermediate waypoint, rejecting additions past the cap.
func (s *Session) AddVia(c domain.Coordinate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.via) >= domain.MaxViaPoints {
		return fmt.Errorf("%w: maximum %d via points", domain.ErrViaLimit, domain.MaxViaPoints)
	}
	s.via = append(s.via, c)
	return nil
}

// ClearVia removes all intermediate waypoints.
func (s *Session) ClearVia() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.via = nil
}

// Via returns a copy of the via-point list.
func (s *Session) Via() []domain.Coordinate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Coordinate(nil), s.via...)
}

// Result returns the active route result, nil when no build has succeeded.
func (s *Session) Result() *domain.RouteResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// ReplaceResult swaps in a new route result. The previous result's change
// listener is detached before the new one is installed; previous state is
// only replaced wholesale, never mutated.
func (s *Session) ReplaceResult(result *domain.RouteResult, onActiveChange func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeListener = nil // detach previous subscription
	s.result = result
	s.activeListener = onActiveChange
}

// SetActiveIndex switches the active alternative and fires the change
// listener. The index must name an existing alternative.
func (s *Session) SetActiveIndex(ctx context.Context, index int) error {
	s.mu.Lock()
	if s.result == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: no active route", domain.ErrNotFound)
	}
	found := false
	for _, alt := range s.result.Alternatives {
		if alt.Index == index {
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return fmt.Errorf("%w: alternative %d", domain.ErrNotFound, index)
	}
	s.result.ActiveIndex = index
	listener := s.activeListener
	s.mu.Unlock()

	if listener != nil {
		listener(ctx)
	}
	return nil
}

// MarkShareTokenApplied records a token as processed for this session and
// reports whether it had been applied before (replay guard).
func (s *Session) MarkShareTokenApplied(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.appliedShareTokens[token]; seen {
		return true
	}
	s.appliedShareTokens[token] = struct{}{}
	return false
}
