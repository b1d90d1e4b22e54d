package mapview

import "github.com/bekharsky/el-cabanyal-tiles/internal/geo"

// Navigator owns the selected marker. The selection is either a valid
// position in points or geo.NoSelection.
type Navigator struct {
	points   []geo.Point
	index    *geo.Index
	selected int
}

func NewNavigator(points []geo.Point) *Navigator {
	return &Navigator{
		points:   points,
		index:    geo.NewIndex(points),
		selected: geo.NoSelection,
	}
}

func (n *Navigator) Points() []geo.Point { return n.points }

func (n *Navigator) Index() *geo.Index { return n.index }

// Selected returns the selected position, or geo.NoSelection.
func (n *Navigator) Selected() int { return n.selected }

// Current returns the selected point.
func (n *Navigator) Current() (geo.Point, bool) {
	if n.selected == geo.NoSelection {
		return geo.Point{}, false
	}
	return n.points[n.selected], true
}

// Select focuses point i. Out-of-range positions are ignored.
func (n *Navigator) Select(i int) bool {
	if i < 0 || i >= len(n.points) {
		return false
	}
	n.selected = i
	return true
}

func (n *Navigator) Clear() { n.selected = geo.NoSelection }

// Move steps the selection to the nearest point in dir. It reports whether
// the selection changed; with nothing selected it is a no-op.
func (n *Navigator) Move(dir geo.Direction) bool {
	if n.selected == geo.NoSelection {
		return false
	}
	next := geo.FindNearestInDirection(n.points, n.selected, dir)
	if next == n.selected {
		return false
	}
	n.selected = next
	return true
}

// SelectNearest focuses the point closest to (lat, lng).
func (n *Navigator) SelectNearest(lat, lng float64) bool {
	i, ok := n.index.Nearest(lat, lng)
	if !ok {
		return false
	}
	n.selected = i
	return true
}
