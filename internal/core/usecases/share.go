package usecases

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/transtime/routeplanner/internal/core/domain"
)

// sharePayload is the wire shape of a share token: a flat JSON document
// holding the endpoints, via points, vehicle mode, and dimensions. Field
// names are part of the link format and must not change.
type sharePayload struct {
	From      string              `json:"from"`
	To        string              `json:"to"`
	ViaPoints []domain.Coordinate `json:"viaPoints,omitempty"`
	Vehicle   domain.VehicleMode  `json:"veh,omitempty"`
	Weight    float64             `json:"weight,omitempty"`
	Height    float64             `json:"height,omitempty"`
	Width     float64             `json:"width,omitempty"`
	Length    float64             `json:"length,omitempty"`
}

// ShareService encodes the session state into portable share tokens and
// applies decoded tokens back onto a session.
type ShareService struct {
	session      *Session
	orchestrator *Orchestrator
	log          *slog.Logger
}

// NewShareService creates the share codec bound to a session.
func NewShareService(session *Session, orchestrator *Orchestrator) *ShareService {
	return &ShareService{
		session:      session,
		orchestrator: orchestrator,
		log:          slog.Default().With("component", "share"),
	}
}

// EncodeToken serializes the session's current request into a share token:
// URL-escaped standard base64 over the UTF-8 JSON payload. Returns "" when
// there is nothing shareable or serialization fails.
func (s *ShareService) EncodeToken() string {
	req := s.session.Request()
	if strings.TrimSpace(req.From) == "" && strings.TrimSpace(req.To) == "" {
		return ""
	}
	payload := sharePayload{
		From:      req.From,
		To:        req.To,
		ViaPoints: req.ViaPoints,
		Vehicle:   req.Vehicle,
		Weight:    req.Dimensions.WeightTons,
		Height:    req.Dimensions.HeightM,
		Width:     req.Dimensions.WidthM,
		Length:    req.Dimensions.LengthM,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("share payload not serializable", "error", err)
		return ""
	}
	return url.QueryEscape(base64.StdEncoding.EncodeToString(raw))
}

// ShareURL renders the full share link for the configured public base URL.
func (s *ShareService) ShareURL(baseURL string) string {
	token := s.EncodeToken()
	if token == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/#share=" + token
}

// DecodeToken parses a share token back into a route request. Only
// malformed input (bad escaping, bad base64, bad JSON) yields
// domain.ErrShareDecode; a payload with missing fields decodes fine and
// the caller decides how far to take it. A bad link never breaks the
// session.
func DecodeToken(token string) (*domain.RouteRequest, error) {
	unescaped, err := url.QueryUnescape(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrShareDecode, err)
	}
	raw, err := base64.StdEncoding.DecodeString(unescaped)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrShareDecode, err)
	}
	var payload sharePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrShareDecode, err)
	}
	return &domain.RouteRequest{
		From:      payload.From,
		To:        payload.To,
		ViaPoints: payload.ViaPoints,
		Vehicle:   payload.Vehicle,
		Dimensions: domain.VehicleDimensions{
			WeightTons: payload.Weight,
			HeightM:    payload.Height,
			WidthM:     payload.Width,
			LengthM:    payload.Length,
		},
	}, nil
}

// Apply decodes a token, populates the session, and triggers a build when
// the payload carries both endpoints; a partial payload only fills in the
// session state. Each token is applied at most once per session; a
// replayed token is a silent no-op returning the current outcome.
func (s *ShareService) Apply(ctx context.Context, token string) (*BuildOutcome, error) {
	req, err := DecodeToken(token)
	if err != nil {
		return nil, err
	}
	if s.session.MarkShareTokenApplied(token) {
		s.log.Debug("share token already applied")
		return s.orchestrator.Outcome(), nil
	}
	s.session.ApplyRequest(*req)
	if err := s.orchestrator.SetVehicleMode(ctx, s.session.Vehicle()); err != nil {
		s.log.Warn("vehicle mode sync after share apply", "error", err)
	}
	if strings.TrimSpace(req.From) == "" || strings.TrimSpace(req.To) == "" {
		s.log.Info("share token applied without build", "from", req.From, "to", req.To)
		return s.orchestrator.Outcome(), nil
	}
	return s.orchestrator.BuildCurrent(ctx)
}
