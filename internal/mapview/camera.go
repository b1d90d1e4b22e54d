// Package mapview is the geometry behind the map viewer: the camera, fly
// animations, marker placement and the selection model. It has no
// rendering dependencies.
package mapview

import (
	"math"

	"github.com/bekharsky/el-cabanyal-tiles/internal/geo"
	"github.com/bekharsky/el-cabanyal-tiles/internal/tiles"
)

// Camera is the viewport: a centre coordinate, an integer zoom level and
// the screen size in pixels.
type Camera struct {
	Lat, Lng float64
	Zoom     int
	Width    int
	Height   int
}

// centerWorld returns the camera centre in world pixels.
func (c Camera) centerWorld() (x, y float64) {
	return tiles.Project(c.Lat, c.Lng, c.Zoom)
}

// ToScreen converts a coordinate to screen pixels.
func (c Camera) ToScreen(lat, lng float64) (x, y float64) {
	cx, cy := c.centerWorld()
	wx, wy := tiles.Project(lat, lng, c.Zoom)
	return wx - cx + float64(c.Width)/2, wy - cy + float64(c.Height)/2
}

// ToGeo converts screen pixels to a coordinate.
func (c Camera) ToGeo(x, y float64) (lat, lng float64) {
	cx, cy := c.centerWorld()
	return tiles.Unproject(cx+x-float64(c.Width)/2, cy+y-float64(c.Height)/2, c.Zoom)
}

// Visible returns the coordinate box shown on screen.
func (c Camera) Visible() geo.BoundingBox {
	north, west := c.ToGeo(0, 0)
	south, east := c.ToGeo(float64(c.Width), float64(c.Height))
	return geo.BoundingBox{MinLat: south, MaxLat: north, MinLng: west, MaxLng: east}
}

// Pan moves the view by a screen-pixel drag.
func (c *Camera) Pan(dx, dy float64) {
	cx, cy := c.centerWorld()
	c.Lat, c.Lng = tiles.Unproject(cx-dx, cy-dy, c.Zoom)
	c.normalize()
}

// ZoomAt changes the zoom by delta keeping the coordinate under screen point
// (x, y) in place.
func (c *Camera) ZoomAt(delta int, x, y float64, minZoom, maxZoom int) {
	z := clampInt(c.Zoom+delta, minZoom, maxZoom)
	if z == c.Zoom {
		return
	}
	lat, lng := c.ToGeo(x, y)
	c.Zoom = z
	// after the zoom change, shift so (lat, lng) is back under the cursor
	sx, sy := c.ToScreen(lat, lng)
	c.Pan(x-sx, y-sy)
}

// Fit centres the camera on box at the largest zoom where it fits with
// padding pixels of margin.
func (c *Camera) Fit(box geo.BoundingBox, padding, minZoom, maxZoom int) {
	c.Zoom = tiles.FitZoom(box, c.Width, c.Height, padding, minZoom, maxZoom)
	x0, y0 := tiles.Project(box.MaxLat, box.MinLng, c.Zoom)
	x1, y1 := tiles.Project(box.MinLat, box.MaxLng, c.Zoom)
	c.Lat, c.Lng = tiles.Unproject((x0+x1)/2, (y0+y1)/2, c.Zoom)
}

func (c *Camera) normalize() {
	c.Lat = math.Max(-tiles.MaxLat, math.Min(tiles.MaxLat, c.Lat))
	if c.Lng < -180 || c.Lng > 180 {
		c.Lng = math.Mod(c.Lng+540, 360) - 180
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
