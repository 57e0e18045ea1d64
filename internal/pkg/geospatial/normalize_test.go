package geospatial_test

import (
	"math"
	"testing"

	"github.com/transtime/routeplanner/internal/core/domain"
	"github.com/transtime/routeplanner/internal/pkg/geospatial"
)

func TestNormalizePair_SwapsLatLonOrder(t *testing.T) {
	// Moscow given as (lat, lon): 55.75 fits latitude, 37.61 does not
	// force a swap, so use a longitude beyond 90 to trigger it.
	pair := []float64{55.75, 137.61}
	if !geospatial.NormalizePair(pair) {
		t.Fatal("expected valid pair")
	}
	if pair[0] != 137.61 || pair[1] != 55.75 {
		t.Errorf("expected swap to (137.61, 55.75), got (%v, %v)", pair[0], pair[1])
	}
}

func TestNormalizePair_KeepsPlausibleOrder(t *testing.T) {
	pair := []float64{37.61, 55.75}
	if !geospatial.NormalizePair(pair) {
		t.Fatal("expected valid pair")
	}
	if pair[0] != 37.61 || pair[1] != 55.75 {
		t.Errorf("ambiguous pair must keep given order, got (%v, %v)", pair[0], pair[1])
	}
}

func TestNormalizePair_Idempotent(t *testing.T) {
	pair := []float64{55.75, 137.61}
	geospatial.NormalizePair(pair)
	first := []float64{pair[0], pair[1]}
	geospatial.NormalizePair(pair)
	if pair[0] != first[0] || pair[1] != first[1] {
		t.Errorf("second pass changed pair: (%v, %v) -> (%v, %v)", first[0], first[1], pair[0], pair[1])
	}
}

func TestNormalizePair_RejectsBadInput(t *testing.T) {
	cases := [][]float64{
		nil,
		{42.0},
		{math.NaN(), 55.0},
		{37.0, math.Inf(1)},
	}
	for _, pair := range cases {
		if geospatial.NormalizePair(pair) {
			t.Errorf("expected rejection for %v", pair)
		}
	}
}

func TestNormalizeGeometry_DropsUnresolvablePoints(t *testing.T) {
	g := &domain.Geometry{
		Type: domain.GeometryLineString,
		Points: [][]float64{
			{37.0, 55.0},
			{math.NaN(), 55.0},
			{55.75, 137.61},
		},
	}
	geospatial.NormalizeGeometry(g)

	if len(g.Points) != 2 {
		t.Fatalf("expected 2 points after normalization, got %d", len(g.Points))
	}
	if g.Points[1][0] != 137.61 || g.Points[1][1] != 55.75 {
		t.Errorf("expected swapped pair, got %v", g.Points[1])
	}
}

func TestNormalizeGeometry_NestedCollection(t *testing.T) {
	g := &domain.Geometry{
		Type: domain.GeometryCollection,
		Geometries: []domain.Geometry{
			{Type: domain.GeometryPoint, Point: []float64{55.75, 137.61}},
		},
	}
	geospatial.NormalizeGeometry(g)

	pt := g.Geometries[0].Point
	if pt[0] != 137.61 || pt[1] != 55.75 {
		t.Errorf("nested point not normalized, got %v", pt)
	}
}

func TestNormalizeCoordinate(t *testing.T) {
	c, ok := geospatial.NormalizeCoordinate(domain.Coordinate{Lon: 55.75, Lat: 137.61})
	if !ok {
		t.Fatal("expected valid coordinate")
	}
	if c.Lon != 137.61 || c.Lat != 55.75 {
		t.Errorf("expected swapped coordinate, got %+v", c)
	}

	if _, ok := geospatial.NormalizeCoordinate(domain.Coordinate{Lon: math.Inf(1), Lat: 0}); ok {
		t.Error("expected rejection for non-finite coordinate")
	}
}
