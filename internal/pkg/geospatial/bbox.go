package geospatial

import (
	"math"

	"github.com/transtime/routeplanner/internal/core/domain"
)

// Margin defaults, in degrees. Route-derived boxes are already precise and
// get the tight margin; boxes built from sparse via/endpoint fallbacks get
// the loose one so edge features are not clipped.
const (
	ExpandMargin     = 0.02
	FromPointsMargin = 0.05
)

// NormalizeBBox builds a bounding box from two corner pairs given in either
// order, normalizing each corner first. Returns false on malformed input.
func NormalizeBBox(corners [][]float64) (domain.BoundingBox, bool) {
	if len(corners) < 2 {
		return domain.BoundingBox{}, false
	}
	p1 := append([]float64(nil), corners[0]...)
	p2 := append([]float64(nil), corners[1]...)
	if !NormalizePair(p1) || !NormalizePair(p2) {
		return domain.BoundingBox{}, false
	}
	return domain.BoundingBox{
		Min: domain.Coordinate{Lon: math.Min(p1[0], p2[0]), Lat: math.Min(p1[1], p2[1])},
		Max: domain.Coordinate{Lon: math.Max(p1[0], p2[0]), Lat: math.Max(p1[1], p2[1])},
	}, true
}

// NormalizeBounds reorders an existing box so min <= max on both axes.
func NormalizeBounds(b domain.BoundingBox) domain.BoundingBox {
	return domain.BoundingBox{
		Min: domain.Coordinate{Lon: math.Min(b.Min.Lon, b.Max.Lon), Lat: math.Min(b.Min.Lat, b.Max.Lat)},
		Max: domain.Coordinate{Lon: math.Max(b.Min.Lon, b.Max.Lon), Lat: math.Max(b.Min.Lat, b.Max.Lat)},
	}
}

// Expand grows the box by margin degrees on every side.
func Expand(b domain.BoundingBox, margin float64) domain.BoundingBox {
	n := NormalizeBounds(b)
	return domain.BoundingBox{
		Min: domain.Coordinate{Lon: n.Min.Lon - margin, Lat: n.Min.Lat - margin},
		Max: domain.Coordinate{Lon: n.Max.Lon + margin, Lat: n.Max.Lat + margin},
	}
}

// FromPoints computes the enclosing box of the valid points expanded by
// margin on each side. Invalid points are filtered via the pair normalizer;
// false is returned when no valid point remains.
func FromPoints(points []domain.Coordinate, margin float64) (domain.BoundingBox, bool) {
	minLat, minLon := math.Inf(1), math.Inf(1)
	maxLat, maxLon := math.Inf(-1), math.Inf(-1)

	for _, pt := range points {
		c, ok := NormalizeCoordinate(pt)
		if !ok {
			continue
		}
		minLat = math.Min(minLat, c.Lat)
		maxLat = math.Max(maxLat, c.Lat)
		minLon = math.Min(minLon, c.Lon)
		maxLon = math.Max(maxLon, c.Lon)
	}

	if math.IsInf(minLat, 1) || math.IsInf(minLon, 1) {
		return domain.BoundingBox{}, false
	}
	return domain.BoundingBox{
		Min: domain.Coordinate{Lon: minLon - margin, Lat: minLat - margin},
		Max: domain.Coordinate{Lon: maxLon + margin, Lat: maxLat + margin},
	}, true
}
