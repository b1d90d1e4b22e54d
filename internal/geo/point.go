// Package geo holds the point model shared by the converter and the map viewer,
// plus the two geometric helpers the viewer is built around: trimmed bounds
// fitting and nearest-point search in a compass direction.
//
// All functions here are pure. They never mutate the slices they are given and
// are safe to call from several goroutines at once.
package geo

import "math"

// NoSelection marks the absence of a focused point.
const NoSelection = -1

// Point is one photograph placed on the map.
type Point struct {
	ID        string
	Lat       float64
	Lng       float64
	Thumbnail string
	Marker    string
}

// BoundingBox is an axis-aligned rectangle in latitude/longitude space.
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLng float64 `json:"minLng"`
	MaxLng float64 `json:"maxLng"`
}

// BoxAround returns the degenerate box covering a single coordinate.
func BoxAround(lat, lng float64) BoundingBox {
	return BoundingBox{MinLat: lat, MaxLat: lat, MinLng: lng, MaxLng: lng}
}

// Extend returns b grown to include (lat, lng).
func (b BoundingBox) Extend(lat, lng float64) BoundingBox {
	b.MinLat = math.Min(b.MinLat, lat)
	b.MaxLat = math.Max(b.MaxLat, lat)
	b.MinLng = math.Min(b.MinLng, lng)
	b.MaxLng = math.Max(b.MaxLng, lng)
	return b
}

// Pad grows the box by inc decimal degrees on every side.
func (b BoundingBox) Pad(inc float64) BoundingBox {
	b.MinLat -= inc
	b.MinLng -= inc
	b.MaxLat += inc
	b.MaxLng += inc
	return b
}

// Contains reports whether (lat, lng) lies inside or on the edge of b.
func (b BoundingBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() (lat, lng float64) {
	return (b.MinLat + b.MaxLat) / 2, (b.MinLng + b.MaxLng) / 2
}
