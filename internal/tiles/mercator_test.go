package tiles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bekharsky/el-cabanyal-tiles/internal/geo"
)

var cabanyal = geo.BoundingBox{MinLat: 39.46, MaxLat: 39.48, MinLng: -0.34, MaxLng: -0.32}

func TestProject(t *testing.T) {
	x, y := Project(0, 0, 0)
	assert.InDelta(t, 128, x, 1e-9)
	assert.InDelta(t, 128, y, 1e-9)

	x, y = Project(MaxLat, -180, 1)
	assert.InDelta(t, 0, x, 1e-9)
	assert.InDelta(t, 0, y, 1e-6)

	// clamped beyond the Mercator limit
	_, y = Project(89.9, 0, 0)
	assert.InDelta(t, 0, y, 1e-6)
}

func TestUnprojectRoundTrip(t *testing.T) {
	for _, c := range [][2]float64{{39.4699, -0.3263}, {-33.8688, 151.2093}, {0, 0}, {60, -179}} {
		x, y := Project(c[0], c[1], 14)
		lat, lng := Unproject(x, y, 14)
		assert.InDelta(t, c[0], lat, 1e-9)
		assert.InDelta(t, c[1], lng, 1e-9)
	}
}

func TestTileAt(t *testing.T) {
	assert.Equal(t, Tile{Z: 14, X: 8177, Y: 6234}, TileAt(39.4699, -0.3263, 14))
	assert.Equal(t, Tile{Z: 0, X: 0, Y: 0}, TileAt(39.4699, -0.3263, 0))
	// the antimeridian and poles stay inside the grid
	assert.Equal(t, Tile{Z: 2, X: 3, Y: 3}, TileAt(-90, 180, 2))
}

func TestTileRange(t *testing.T) {
	assert.Equal(t, []Tile{
		{Z: 14, X: 8176, Y: 6233}, {Z: 14, X: 8177, Y: 6233},
		{Z: 14, X: 8176, Y: 6234}, {Z: 14, X: 8177, Y: 6234},
	}, TileRange(cabanyal, 14))

	assert.Equal(t, []Tile{{Z: 0, X: 0, Y: 0}}, TileRange(cabanyal, 0))
}

func TestTileValidAndWrap(t *testing.T) {
	assert.True(t, Tile{Z: 1, X: 1, Y: 1}.Valid())
	assert.False(t, Tile{Z: 1, X: 2, Y: 0}.Valid())
	assert.False(t, Tile{Z: 1, X: 0, Y: -1}.Valid())

	assert.Equal(t, Tile{Z: 2, X: 3, Y: 1}, Tile{Z: 2, X: -1, Y: 1}.Wrap())
	assert.Equal(t, Tile{Z: 2, X: 1, Y: 7}, Tile{Z: 2, X: 5, Y: 7}.Wrap())
	assert.Equal(t, "14/8177/6234", Tile{Z: 14, X: 8177, Y: 6234}.String())
}

func TestFitZoom(t *testing.T) {
	// 233x302 px at z14 fits 700x500; z15 (466x604) does not.
	assert.Equal(t, 14, FitZoom(cabanyal, 800, 600, 50, 2, 19))
	// a single point fits at any zoom
	assert.Equal(t, 19, FitZoom(geo.BoxAround(10, 20), 800, 600, 50, 2, 19))
	// nearly the whole world only fits at the minimum
	assert.Equal(t, 2, FitZoom(geo.BoundingBox{MinLat: -80, MaxLat: 80, MinLng: -170, MaxLng: 170}, 800, 600, 50, 2, 19))
	// padding larger than the viewport
	assert.Equal(t, 3, FitZoom(cabanyal, 80, 80, 50, 3, 19))
}
