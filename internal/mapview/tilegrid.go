package mapview

import (
	"errors"
	"math"

	"github.com/bekharsky/el-cabanyal-tiles/internal/tiles"
)

// PlacedTile is a basemap tile and the screen position of its top-left
// corner. Tile is already wrapped into the valid X range.
type PlacedTile struct {
	Tile tiles.Tile
	X, Y float64
}

// VisibleTiles lists the basemap tiles covering the camera's viewport.
// Rows beyond the poles are left out; columns repeat around the world.
func VisibleTiles(cam Camera) []PlacedTile {
	cx, cy := cam.centerWorld()
	left := cx - float64(cam.Width)/2
	top := cy - float64(cam.Height)/2

	x0 := int(math.Floor(left / tiles.TileSize))
	y0 := int(math.Floor(top / tiles.TileSize))
	x1 := int(math.Floor((left + float64(cam.Width) - 1) / tiles.TileSize))
	y1 := int(math.Floor((top + float64(cam.Height) - 1) / tiles.TileSize))

	n := 1 << cam.Zoom
	var placed []PlacedTile
	for y := y0; y <= y1; y++ {
		if y < 0 || y >= n {
			continue
		}
		for x := x0; x <= x1; x++ {
			placed = append(placed, PlacedTile{
				Tile: tiles.Tile{Z: cam.Zoom, X: x, Y: y}.Wrap(),
				X:    float64(x*tiles.TileSize) - left,
				Y:    float64(y*tiles.TileSize) - top,
			})
		}
	}
	return placed
}

// TileRequests remembers which basemap tiles have been asked for so each is
// fetched once. Tiles the server does not have stay marked; any other
// failure is forgotten so the tile is retried when it is next visible.
type TileRequests struct {
	pending map[tiles.Tile]bool
}

func NewTileRequests() *TileRequests {
	return &TileRequests{pending: make(map[tiles.Tile]bool)}
}

// Claim marks t as requested and reports whether the caller should fetch it.
func (r *TileRequests) Claim(t tiles.Tile) bool {
	if r.pending[t] {
		return false
	}
	r.pending[t] = true
	return true
}

// Done records the outcome of a fetch.
func (r *TileRequests) Done(t tiles.Tile, err error) {
	if err != nil && !errors.Is(err, tiles.ErrNotFound) {
		delete(r.pending, t)
	}
}

// Forget drops t, e.g. after its texture was evicted.
func (r *TileRequests) Forget(t tiles.Tile) {
	delete(r.pending, t)
}
