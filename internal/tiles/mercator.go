// Package tiles provides the raster basemap behind the viewer: Web Mercator
// math, a tile downloader and an MBTiles cache.
package tiles

import (
	"fmt"
	"math"

	"github.com/bekharsky/el-cabanyal-tiles/internal/geo"
)

const (
	// TileSize is the edge of a raster tile in pixels.
	TileSize = 256

	// MaxLat is the latitude at which Web Mercator becomes a square.
	MaxLat = 85.0511287798066
)

// Tile addresses an XYZ tile.
type Tile struct {
	Z, X, Y int
}

func (t Tile) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// Valid reports whether the tile exists at its zoom level.
func (t Tile) Valid() bool {
	n := 1 << t.Z
	return t.Z >= 0 && t.X >= 0 && t.X < n && t.Y >= 0 && t.Y < n
}

// Wrap folds X into range so panning across the antimeridian repeats the
// world. Y is left untouched.
func (t Tile) Wrap() Tile {
	n := 1 << t.Z
	t.X = ((t.X % n) + n) % n
	return t
}

// WorldSize is the width of the whole map in pixels at zoom.
func WorldSize(zoom int) float64 {
	return float64(TileSize) * math.Exp2(float64(zoom))
}

// Project converts a coordinate to world pixels at zoom, origin top-left.
func Project(lat, lng float64, zoom int) (x, y float64) {
	lat = math.Max(-MaxLat, math.Min(MaxLat, lat))
	latRad := lat * math.Pi / 180
	size := WorldSize(zoom)
	x = (lng + 180) / 360 * size
	y = (1 - math.Asinh(math.Tan(latRad))/math.Pi) / 2 * size
	return x, y
}

// Unproject is the inverse of Project.
func Unproject(x, y float64, zoom int) (lat, lng float64) {
	size := WorldSize(zoom)
	lng = x/size*360 - 180
	lat = math.Atan(math.Sinh(math.Pi*(1-2*y/size))) * 180 / math.Pi
	return lat, lng
}

// TileAt returns the tile containing the coordinate.
func TileAt(lat, lng float64, zoom int) Tile {
	x, y := Project(lat, lng, zoom)
	n := 1 << zoom
	return Tile{
		Z: zoom,
		X: clamp(int(math.Floor(x/TileSize)), 0, n-1),
		Y: clamp(int(math.Floor(y/TileSize)), 0, n-1),
	}
}

// TileRange lists the tiles covering box at zoom, row by row.
func TileRange(box geo.BoundingBox, zoom int) []Tile {
	nw := TileAt(box.MaxLat, box.MinLng, zoom)
	se := TileAt(box.MinLat, box.MaxLng, zoom)

	tiles := make([]Tile, 0, (se.X-nw.X+1)*(se.Y-nw.Y+1))
	for y := nw.Y; y <= se.Y; y++ {
		for x := nw.X; x <= se.X; x++ {
			tiles = append(tiles, Tile{Z: zoom, X: x, Y: y})
		}
	}
	return tiles
}

// FitZoom returns the largest zoom in [minZoom, maxZoom] at which box,
// surrounded by padding pixels on every side, fits a w×h viewport. It
// returns minZoom when nothing fits.
func FitZoom(box geo.BoundingBox, w, h, padding, minZoom, maxZoom int) int {
	availW := float64(w - 2*padding)
	availH := float64(h - 2*padding)
	if availW <= 0 || availH <= 0 {
		return minZoom
	}
	for z := maxZoom; z > minZoom; z-- {
		x0, y0 := Project(box.MaxLat, box.MinLng, z)
		x1, y1 := Project(box.MinLat, box.MaxLng, z)
		if x1-x0 <= availW && y1-y0 <= availH {
			return z
		}
	}
	return minZoom
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
