package domain

// VehicleMode identifies the vehicle profile a route is built for.
type VehicleMode string

const (
	VehicleCar     VehicleMode = "car"
	VehicleTruck12 VehicleMode = "truck12"
	VehicleTruck20 VehicleMode = "truck20"
	VehicleTruck40 VehicleMode = "truck40"
)

// IsTruck reports whether the mode is any freight profile.
func (m VehicleMode) IsTruck() bool {
	return m != VehicleCar && m != ""
}

// MaxViaPoints caps the number of intermediate waypoints on a request.
const MaxViaPoints = 5

// VehicleDimensions carries the physical parameters of a truck profile.
// A zero value means "not set" and is omitted from provider options.
type VehicleDimensions struct {
	WeightTons float64 `json:"weight,omitempty"`
	HeightM    float64 `json:"height,omitempty"`
	WidthM     float64 `json:"width,omitempty"`
	LengthM    float64 `json:"length,omitempty"`
}

// RouteRequest describes one route build: free-text endpoints, up to
// MaxViaPoints intermediate coordinates, and the vehicle profile.
// It is immutable once handed to the orchestrator.
type RouteRequest struct {
	From       string            `json:"from"`
	To         string            `json:"to"`
	ViaPoints  []Coordinate      `json:"viaPoints,omitempty"`
	Vehicle    VehicleMode       `json:"veh"`
	Dimensions VehicleDimensions `json:"dimensions,omitempty"`
}

// RoutingMode is the provider-side travel mode.
type RoutingMode string

const (
	RoutingDriving RoutingMode = "driving"
	RoutingTruck   RoutingMode = "truck"
)

// RouteOptions are the provider routing options derived from a request.
type RouteOptions struct {
	Mode         RoutingMode `json:"mode"`
	Alternatives int         `json:"alternatives"`
	WeightKg     float64     `json:"weight,omitempty"`
	HeightM      float64     `json:"height,omitempty"`
	WidthM       float64     `json:"width,omitempty"`
	LengthM      float64     `json:"length,omitempty"`
}

// RouteAlternative is one provider-ranked route variant.
type RouteAlternative struct {
	// Index is the provider's original position, used as the stable
	// identity of the alternative and as the sort tie-breaker.
	Index int `json:"index"`

	DistanceMeters       float64 `json:"distance_meters"`
	DurationSec          float64 `json:"duration_sec"`
	DurationInTrafficSec float64 `json:"duration_in_traffic_sec"`

	// Bounds is the provider-reported bounding box, when present.
	Bounds *BoundingBox `json:"bounds,omitempty"`

	// Paths is the renderable geometry, one path per route segment.
	Paths []Path `json:"paths,omitempty"`
}

// EffectiveDuration is the traffic-aware duration used for ranking,
// falling back to the plain duration when traffic data is absent.
func (a RouteAlternative) EffectiveDuration() float64 {
	if a.DurationInTrafficSec > 0 {
		return a.DurationInTrafficSec
	}
	return a.DurationSec
}

// GeometryPoints flattens every coordinate along the alternative's paths.
func (a RouteAlternative) GeometryPoints() []Coordinate {
	var pts []Coordinate
	for _, p := range a.Paths {
		pts = append(pts, p.Coordinates...)
	}
	return pts
}

// RouteResult is the provider's answer to one build: the ranked
// alternatives plus the resolved waypoints that produced them. Exactly one
// alternative is active at a time; the orchestrator owns that selection.
type RouteResult struct {
	Alternatives []RouteAlternative `json:"alternatives"`
	Waypoints    []Coordinate       `json:"waypoints"`
	ActiveIndex  int                `json:"active_index"`
}

// Active returns the currently selected alternative, nil when the result
// is empty or the index is stale.
func (r *RouteResult) Active() *RouteAlternative {
	if r == nil {
		return nil
	}
	for i := range r.Alternatives {
		if r.Alternatives[i].Index == r.ActiveIndex {
			return &r.Alternatives[i]
		}
	}
	return nil
}

// SavedRoute is a user-created snapshot of a route request. Entries live
// in an ordered list and are only ever removed by the user.
type SavedRoute struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	RouteRequest
}

// Viewport is the last map camera position, persisted across sessions.
type Viewport struct {
	Center Coordinate `json:"center"`
	Zoom   float64    `json:"zoom"`
}
