package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// Coordinate is a geographic coordinate (WGS 84, longitude first).
// On the wire it is a two-element JSON array [lon, lat], the same shape
// used by geodata sources and share payloads.
type Coordinate struct {
	Lon float64
	Lat float64
}

// Valid reports whether both components are finite.
func (c Coordinate) Valid() bool {
	return !math.IsNaN(c.Lon) && !math.IsInf(c.Lon, 0) &&
		!math.IsNaN(c.Lat) && !math.IsInf(c.Lat, 0)
}

// MarshalJSON encodes the coordinate as [lon, lat].
func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lon, c.Lat})
}

// UnmarshalJSON decodes a [lon, lat] pair. Pairs with fewer than two
// elements are rejected; extra elements (altitude etc.) are ignored.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var raw []float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) < 2 {
		return fmt.Errorf("coordinate needs two elements, got %d", len(raw))
	}
	c.Lon, c.Lat = raw[0], raw[1]
	return nil
}

// BoundingBox is an axis-aligned geographic rectangle.
// Min is the south-west corner, Max the north-east corner.
type BoundingBox struct {
	Min Coordinate `json:"min"`
	Max Coordinate `json:"max"`
}

// Contains reports whether the point lies inside the box (inclusive).
func (b BoundingBox) Contains(c Coordinate) bool {
	return c.Lat >= b.Min.Lat && c.Lat <= b.Max.Lat &&
		c.Lon >= b.Min.Lon && c.Lon <= b.Max.Lon
}

// Path is an ordered sequence of coordinates making up one segment of a
// route geometry.
type Path struct {
	Coordinates []Coordinate `json:"coordinates"`
}
