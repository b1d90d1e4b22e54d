package geo

import (
	"sort"

	"github.com/dhconnelly/rtreego"
)

const (
	indexDimensions  = 2
	indexMinChildren = 25
	indexMaxChildren = 50
	// pointTolerance gives each point a non-empty rectangle in the tree.
	pointTolerance = 1e-9
)

// indexedPoint wraps a slice position for R-Tree indexing.
type indexedPoint struct {
	pos  int
	rect rtreego.Rect
}

func (ip *indexedPoint) Bounds() rtreego.Rect {
	return ip.rect
}

// Index answers spatial queries over a fixed point slice, returning positions
// into that slice. It is read-only after construction.
type Index struct {
	tree *rtreego.Rtree
	size int
}

// NewIndex bulk-loads points into an R-Tree keyed by (lat, lng).
func NewIndex(points []Point) *Index {
	objs := make([]rtreego.Spatial, 0, len(points))
	for i, p := range points {
		objs = append(objs, &indexedPoint{
			pos:  i,
			rect: rtreego.Point{p.Lat, p.Lng}.ToRect(pointTolerance),
		})
	}
	return &Index{
		tree: rtreego.NewTree(indexDimensions, indexMinChildren, indexMaxChildren, objs...),
		size: len(objs),
	}
}

// Size returns the number of indexed points.
func (x *Index) Size() int {
	return x.size
}

// Nearest returns the position of the point closest to (lat, lng).
func (x *Index) Nearest(lat, lng float64) (int, bool) {
	if x.size == 0 {
		return NoSelection, false
	}
	hit := x.tree.NearestNeighbor(rtreego.Point{lat, lng})
	if hit == nil {
		return NoSelection, false
	}
	return hit.(*indexedPoint).pos, true
}

// Within returns the positions of all points inside box, in ascending order.
func (x *Index) Within(box BoundingBox) []int {
	if x.size == 0 {
		return nil
	}
	box = box.Pad(pointTolerance)
	rect, err := rtreego.NewRectFromPoints(
		rtreego.Point{box.MinLat, box.MinLng},
		rtreego.Point{box.MaxLat, box.MaxLng},
	)
	if err != nil {
		return nil
	}

	hits := x.tree.SearchIntersect(rect)
	positions := make([]int, 0, len(hits))
	for _, hit := range hits {
		positions = append(positions, hit.(*indexedPoint).pos)
	}
	sort.Ints(positions)
	return positions
}
