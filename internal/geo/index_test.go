package geo

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grid(n int) []Point {
	var points []Point
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			points = append(points, Point{
				ID:  fmt.Sprintf("%d,%d", i, j),
				Lat: float64(i),
				Lng: float64(j),
			})
		}
	}
	return points
}

func TestIndexNearest(t *testing.T) {
	points := grid(10) // 100 points, exercises bulk loading
	index := NewIndex(points)
	require.Equal(t, 100, index.Size())

	pos, ok := index.Nearest(4.1, 6.9)
	require.True(t, ok)
	assert.Equal(t, "4,7", points[pos].ID)

	pos, ok = index.Nearest(-50, -50)
	require.True(t, ok)
	assert.Equal(t, "0,0", points[pos].ID)
}

func TestIndexNearest_Empty(t *testing.T) {
	index := NewIndex(nil)
	pos, ok := index.Nearest(0, 0)
	assert.False(t, ok)
	assert.Equal(t, NoSelection, pos)
	assert.Empty(t, index.Within(BoundingBox{MaxLat: 1, MaxLng: 1}))
}

func TestIndexWithin(t *testing.T) {
	points := grid(5)
	index := NewIndex(points)

	got := index.Within(BoundingBox{MinLat: 1, MaxLat: 2, MinLng: 3, MaxLng: 4})
	var ids []string
	for _, pos := range got {
		ids = append(ids, points[pos].ID)
	}
	assert.Equal(t, []string{"1,3", "1,4", "2,3", "2,4"}, ids)

	// A degenerate box still matches the point it sits on.
	got = index.Within(BoxAround(3, 3))
	require.Len(t, got, 1)
	assert.Equal(t, "3,3", points[got[0]].ID)
}

func TestBoundingBoxHelpers(t *testing.T) {
	box := BoxAround(1, 2).Extend(3, -2)
	assert.Equal(t, BoundingBox{MinLat: 1, MaxLat: 3, MinLng: -2, MaxLng: 2}, box)

	lat, lng := box.Center()
	assert.Equal(t, 2.0, lat)
	assert.Equal(t, 0.0, lng)

	assert.True(t, box.Contains(1, 2))
	assert.False(t, box.Contains(0.9, 0))
	assert.True(t, box.Pad(0.5).Contains(0.9, 0))
}
