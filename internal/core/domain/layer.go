package domain

// LayerName identifies one of the fixed regulatory overlays.
type LayerName string

const (
	LayerFrames         LayerName = "frames"
	LayerHGVAllowed     LayerName = "hgv_allowed"
	LayerHGVForbidden   LayerName = "hgv_forbidden"
	LayerHGVConditional LayerName = "hgv_conditional"
	LayerFederal        LayerName = "federal"
	LayerClearance      LayerName = "clearance"
)

// LayerSpec is the static definition of an overlay. The set of specs is
// fixed at startup and never changes for the session lifetime.
type LayerSpec struct {
	Name       LayerName `json:"name"`
	SourceFile string    `json:"source_file"`
	Title      string    `json:"title"`
	ZIndex     int       `json:"z_index"`

	// PointOnly layers discard any non-point feature in their source.
	// The weight-control frame layer is the only one set.
	PointOnly bool `json:"point_only,omitempty"`
}

// DefaultLayerSpecs returns the fixed overlay set, ordered by display weight.
func DefaultLayerSpecs() []LayerSpec {
	return []LayerSpec{
		{Name: LayerFrames, SourceFile: "frames_ready.geojson", Title: "Weight-control frames", ZIndex: 220, PointOnly: true},
		{Name: LayerHGVAllowed, SourceFile: "hgv_allowed.geojson", Title: "HGV >3.5t allowed", ZIndex: 210},
		{Name: LayerHGVForbidden, SourceFile: "hgv_forbidden.geojson", Title: "HGV >3.5t forbidden", ZIndex: 208},
		{Name: LayerHGVConditional, SourceFile: "hgv_conditional.geojson", Title: "HGV >3.5t conditional", ZIndex: 205},
		{Name: LayerFederal, SourceFile: "federal.geojson", Title: "Federal roads", ZIndex: 200},
		{Name: LayerClearance, SourceFile: "clearance.geojson", Title: "Clearance limits", ZIndex: 202},
	}
}

// FeatureStyle is the render styling attached to a decorated line feature.
type FeatureStyle struct {
	StrokeColor   string  `json:"stroke_color"`
	StrokeWidth   int     `json:"stroke_width"`
	StrokeOpacity float64 `json:"stroke_opacity"`
}

// Feature is one geodata object in a layer.
type Feature struct {
	ID         string         `json:"id,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Geometry   *Geometry      `json:"geometry,omitempty"`

	// Title and Caption are derived during decoration.
	Title   string        `json:"title,omitempty"`
	Caption string        `json:"caption,omitempty"`
	Style   *FeatureStyle `json:"style,omitempty"`
}

// FeatureCollection is the document a geodata source serves per layer.
type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

// LayerState is the live state of one overlay.
type LayerState struct {
	Spec      LayerSpec    `json:"spec"`
	Loaded    bool         `json:"loaded"`
	Visible   bool         `json:"visible"`
	FilterBox *BoundingBox `json:"filter_box,omitempty"`

	// VisibleFeatures counts features passing the current spatial filter.
	VisibleFeatures int `json:"visible_features"`
	TotalFeatures   int `json:"total_features"`
}
