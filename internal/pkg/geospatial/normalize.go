package geospatial

import (
	"math"

	"github.com/transtime/routeplanner/internal/core/domain"
)

// NormalizePair canonicalizes a raw coordinate pair of unknown axis order
// into (lon, lat), mutating the slice in place. When |first| <= 90 and
// |second| > 90 the pair is almost certainly (lat, lon), since longitude
// can exceed 90 and latitude cannot, so the two are swapped. Pairs that are
// already plausible are left untouched, which also makes the operation
// idempotent. Returns false for short or non-finite input.
//
// Coordinates near the equator/prime meridian where both orders are
// plausible keep their given order; stored and shared links depend on
// exactly this behavior.
func NormalizePair(pair []float64) bool {
	if len(pair) < 2 {
		return false
	}
	x, y := pair[0], pair[1]
	if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
		return false
	}
	if math.Abs(x) <= 90 && math.Abs(y) > 90 {
		pair[0], pair[1] = y, x
	}
	return true
}

// NormalizeCoordinate applies the pair heuristic to a Coordinate value.
func NormalizeCoordinate(c domain.Coordinate) (domain.Coordinate, bool) {
	pair := []float64{c.Lon, c.Lat}
	if !NormalizePair(pair) {
		return domain.Coordinate{}, false
	}
	return domain.Coordinate{Lon: pair[0], Lat: pair[1]}, true
}

// NormalizeGeometry recursively applies the pair normalizer to every
// coordinate of the geometry, mutating in place and dropping unresolvable
// points. Unknown geometry types pass through unchanged. Applying it twice
// is a no-op.
func NormalizeGeometry(g *domain.Geometry) {
	if g == nil {
		return
	}
	switch g.Type {
	case domain.GeometryPoint:
		if !NormalizePair(g.Point) {
			g.Point = nil
		}
	case domain.GeometryMultiPoint, domain.GeometryLineString:
		g.Points = normalizeLine(g.Points)
	case domain.GeometryMultiLineString, domain.GeometryPolygon:
		for i := range g.Lines {
			g.Lines[i] = normalizeLine(g.Lines[i])
		}
	case domain.GeometryMultiPolygon:
		for i := range g.Polygons {
			for j := range g.Polygons[i] {
				g.Polygons[i][j] = normalizeLine(g.Polygons[i][j])
			}
		}
	case domain.GeometryCollection:
		for i := range g.Geometries {
			NormalizeGeometry(&g.Geometries[i])
		}
	}
}

// normalizeLine normalizes each pair in place and compacts out the ones
// that do not resolve.
func normalizeLine(line [][]float64) [][]float64 {
	kept := line[:0]
	for _, pt := range line {
		if NormalizePair(pt) {
			kept = append(kept, pt)
		}
	}
	return kept
}

// NormalizeFeatureCollection normalizes every feature geometry in place.
func NormalizeFeatureCollection(fc *domain.FeatureCollection) {
	if fc == nil {
		return
	}
	for _, f := range fc.Features {
		if f != nil && f.Geometry != nil {
			NormalizeGeometry(f.Geometry)
		}
	}
}
