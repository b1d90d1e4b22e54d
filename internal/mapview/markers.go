package mapview

import (
	"image"
	"sort"

	"github.com/bekharsky/el-cabanyal-tiles/internal/geo"
)

// Icon is the on-screen marker size. The anchor sits at the bottom centre,
// on the point itself.
type Icon struct {
	Width, Height int
}

// Rect returns the screen rectangle of the icon for the point at (lat, lng).
func (ic Icon) Rect(cam Camera, lat, lng float64) image.Rectangle {
	x, y := cam.ToScreen(lat, lng)
	ax, ay := int(x+0.5), int(y+0.5)
	return image.Rect(ax-ic.Width/2, ay-ic.Height, ax-ic.Width/2+ic.Width, ay)
}

// VisibleMarkers returns the positions of the markers at least partly on
// screen, in drawing order: north to south, so southern pins overlap the
// ones behind them.
func VisibleMarkers(cam Camera, points []geo.Point, index *geo.Index, icon Icon) []int {
	// widen the viewport so pins hanging in from outside are kept
	wide := cam
	wide.Width += 2 * icon.Width
	wide.Height += 2 * icon.Height
	hits := index.Within(wide.Visible())
	sortDrawOrder(points, hits)
	return hits
}

// MarkerAt returns the topmost marker whose icon covers screen point (x, y).
func MarkerAt(cam Camera, points []geo.Point, index *geo.Index, icon Icon, x, y int) (int, bool) {
	// anchors whose icon can contain (x, y) lie in [x-w/2, x+w/2] × [y, y+h]
	north, west := cam.ToGeo(float64(x-icon.Width/2-1), float64(y-1))
	south, east := cam.ToGeo(float64(x+icon.Width/2+1), float64(y+icon.Height+1))
	candidates := index.Within(geo.BoundingBox{MinLat: south, MaxLat: north, MinLng: west, MaxLng: east})
	sortDrawOrder(points, candidates)

	pt := image.Pt(x, y)
	for i := len(candidates) - 1; i >= 0; i-- {
		p := points[candidates[i]]
		if pt.In(icon.Rect(cam, p.Lat, p.Lng)) {
			return candidates[i], true
		}
	}
	return geo.NoSelection, false
}

func sortDrawOrder(points []geo.Point, positions []int) {
	sort.SliceStable(positions, func(a, b int) bool {
		pa, pb := points[positions[a]], points[positions[b]]
		if pa.Lat != pb.Lat {
			return pa.Lat > pb.Lat
		}
		return positions[a] < positions[b]
	})
}
