package domain

import (
	"encoding/json"
	"fmt"
)

// GeometryType enumerates the geometry kinds the planner understands.
type GeometryType string

const (
	GeometryPoint           GeometryType = "Point"
	GeometryMultiPoint      GeometryType = "MultiPoint"
	GeometryLineString      GeometryType = "LineString"
	GeometryMultiLineString GeometryType = "MultiLineString"
	GeometryPolygon         GeometryType = "Polygon"
	GeometryMultiPolygon    GeometryType = "MultiPolygon"
	GeometryCollection      GeometryType = "GeometryCollection"
)

// Geometry is a closed union over the GeoJSON geometry types. Exactly one
// coordinate field is populated, selected by Type. Geometries of a type not
// listed above keep their raw document and round-trip through JSON untouched.
//
// Coordinates are held as plain float slices rather than Coordinate values
// because axis order is unknown until normalization has run over them.
type Geometry struct {
	Type GeometryType

	Point      []float64       // Point
	Points     [][]float64     // MultiPoint, LineString
	Lines      [][][]float64   // MultiLineString, Polygon (outer ring first)
	Polygons   [][][][]float64 // MultiPolygon
	Geometries []Geometry      // GeometryCollection

	raw json.RawMessage // unknown types, passed through unchanged
}

type geometryDoc struct {
	Type        GeometryType    `json:"type"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
	Geometries  []Geometry      `json:"geometries,omitempty"`
}

// UnmarshalJSON decodes a GeoJSON geometry document into the union.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	var doc geometryDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*g = Geometry{Type: doc.Type}

	switch doc.Type {
	case GeometryPoint:
		return unmarshalCoords(doc.Coordinates, &g.Point)
	case GeometryMultiPoint, GeometryLineString:
		return unmarshalCoords(doc.Coordinates, &g.Points)
	case GeometryMultiLineString, GeometryPolygon:
		return unmarshalCoords(doc.Coordinates, &g.Lines)
	case GeometryMultiPolygon:
		return unmarshalCoords(doc.Coordinates, &g.Polygons)
	case GeometryCollection:
		g.Geometries = doc.Geometries
		return nil
	default:
		g.raw = append(json.RawMessage(nil), data...)
		return nil
	}
}

func unmarshalCoords(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// MarshalJSON re-encodes the union as a GeoJSON geometry document.
func (g Geometry) MarshalJSON() ([]byte, error) {
	switch g.Type {
	case GeometryPoint:
		return marshalGeom(g.Type, g.Point)
	case GeometryMultiPoint, GeometryLineString:
		return marshalGeom(g.Type, g.Points)
	case GeometryMultiLineString, GeometryPolygon:
		return marshalGeom(g.Type, g.Lines)
	case GeometryMultiPolygon:
		return marshalGeom(g.Type, g.Polygons)
	case GeometryCollection:
		return json.Marshal(geometryDoc{Type: g.Type, Geometries: g.Geometries})
	default:
		if len(g.raw) > 0 {
			return g.raw, nil
		}
		return nil, fmt.Errorf("geometry type %q has no document", g.Type)
	}
}

func marshalGeom(t GeometryType, coords any) ([]byte, error) {
	raw, err := json.Marshal(coords)
	if err != nil {
		return nil, err
	}
	return json.Marshal(geometryDoc{Type: t, Coordinates: raw})
}

// PrimaryCoordinate returns the first coordinate pair of the geometry, the
// one used for point-in-box layer filtering. ok is false when the geometry
// carries no resolvable coordinate.
func (g *Geometry) PrimaryCoordinate() ([]float64, bool) {
	switch g.Type {
	case GeometryPoint:
		if len(g.Point) >= 2 {
			return g.Point, true
		}
	case GeometryMultiPoint, GeometryLineString:
		if len(g.Points) > 0 && len(g.Points[0]) >= 2 {
			return g.Points[0], true
		}
	case GeometryMultiLineString, GeometryPolygon:
		if len(g.Lines) > 0 && len(g.Lines[0]) > 0 && len(g.Lines[0][0]) >= 2 {
			return g.Lines[0][0], true
		}
	case GeometryMultiPolygon:
		if len(g.Polygons) > 0 && len(g.Polygons[0]) > 0 &&
			len(g.Polygons[0][0]) > 0 && len(g.Polygons[0][0][0]) >= 2 {
			return g.Polygons[0][0][0], true
		}
	case GeometryCollection:
		for i := range g.Geometries {
			if c, ok := g.Geometries[i].PrimaryCoordinate(); ok {
				return c, true
			}
		}
	}
	return nil, false
}

// IsLine reports whether the geometry renders as a line on the map.
func (g *Geometry) IsLine() bool {
	return g.Type == GeometryLineString || g.Type == GeometryMultiLineString
}
