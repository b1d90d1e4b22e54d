package geo

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func latLine(lats ...float64) []Point {
	points := make([]Point, len(lats))
	for i, lat := range lats {
		points[i] = Point{ID: string(rune('a' + i)), Lat: lat}
	}
	return points
}

func TestEstimateBounds_Empty(t *testing.T) {
	box, ok := EstimateBounds(nil, TrimMajority)
	assert.False(t, ok)
	assert.Equal(t, BoundingBox{}, box)

	_, ok = EstimateBounds([]Point{}, TrimNone)
	assert.False(t, ok)
}

func TestEstimateBounds_MajorityDropsOutliers(t *testing.T) {
	points := latLine(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	// shuffle so the ordering is not given for free
	rand.New(rand.NewSource(7)).Shuffle(len(points), func(i, j int) {
		points[i], points[j] = points[j], points[i]
	})

	box, ok := EstimateBounds(points, Trim{Lower: 0.1, Upper: 0.9})
	require.True(t, ok)
	assert.Equal(t, 1.0, box.MinLat)
	assert.Equal(t, 8.0, box.MaxLat)
	assert.Equal(t, 0.0, box.MinLng)
	assert.Equal(t, 0.0, box.MaxLng)
}

func TestEstimateBounds_NoTrimIsExactExtent(t *testing.T) {
	points := []Point{
		{ID: "a", Lat: 39.47, Lng: -0.33},
		{ID: "b", Lat: 39.46, Lng: -0.32},
		{ID: "c", Lat: 39.48, Lng: -0.34},
		{ID: "d", Lat: 39.465, Lng: -0.31},
	}
	box, ok := EstimateBounds(points, TrimNone)
	require.True(t, ok)
	assert.Equal(t, BoundingBox{MinLat: 39.46, MaxLat: 39.48, MinLng: -0.34, MaxLng: -0.31}, box)
}

func TestEstimateBounds_CorePreset(t *testing.T) {
	points := latLine(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	box, ok := EstimateBounds(points, TrimCore)
	require.True(t, ok)
	// [floor(3), ceil(7)) = ranks 3..6
	assert.Equal(t, 3.0, box.MinLat)
	assert.Equal(t, 6.0, box.MaxLat)
}

func TestEstimateBounds_SinglePoint(t *testing.T) {
	p := Point{ID: "only", Lat: 39.47, Lng: -0.33}
	for _, trim := range []Trim{TrimNone, TrimMajority, TrimCore, {Lower: 0.49, Upper: 0.51}} {
		box, ok := EstimateBounds([]Point{p}, trim)
		require.True(t, ok, trim.String())
		assert.Equal(t, BoxAround(p.Lat, p.Lng), box, trim.String())
	}
}

func TestEstimateBounds_NarrowWindowKeepsOnePoint(t *testing.T) {
	// n=3: [floor(1.35), ceil(1.65)) = rank 1 only
	points := latLine(5, 1, 3)
	box, ok := EstimateBounds(points, Trim{Lower: 0.45, Upper: 0.55})
	require.True(t, ok)
	assert.Equal(t, BoxAround(3, 0), box)
}

func TestEstimateBounds_CollapsedWindowClampsToLastRank(t *testing.T) {
	// Out-of-range fractions are clamped rather than panicking.
	points := latLine(2, 1)
	box, ok := EstimateBounds(points, Trim{Lower: 1.5, Upper: 0.2})
	require.True(t, ok)
	assert.Equal(t, BoxAround(2, 0), box)

	box, ok = EstimateBounds(points, Trim{Lower: math.NaN(), Upper: math.NaN()})
	require.True(t, ok)
	assert.Equal(t, BoundingBox{MinLat: 1, MaxLat: 2}, box)
}

func TestEstimateBounds_LngBreaksLatTies(t *testing.T) {
	points := []Point{
		{ID: "east", Lat: 1, Lng: 9},
		{ID: "west", Lat: 1, Lng: -9},
		{ID: "mid", Lat: 1, Lng: 0},
		{ID: "north", Lat: 2, Lng: 0},
	}
	// n=4, core: [floor(1.2), ceil(2.8)) = ranks 1..2 -> (1,0) and (1,9)
	box, ok := EstimateBounds(points, TrimCore)
	require.True(t, ok)
	assert.Equal(t, BoundingBox{MinLat: 1, MaxLat: 1, MinLng: 0, MaxLng: 9}, box)
}

func TestEstimateBounds_DoesNotMutateInput(t *testing.T) {
	points := latLine(3, 1, 2)
	before := append([]Point(nil), points...)
	_, _ = EstimateBounds(points, TrimNone)
	assert.Equal(t, before, points)
}

func TestEstimateBounds_ContainsTrimmedWindow(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		n := 1 + rng.Intn(40)
		points := make([]Point, n)
		for i := range points {
			points[i] = Point{Lat: rng.Float64()*2 - 1, Lng: rng.Float64()*2 - 1}
		}
		all, ok := EstimateBounds(points, TrimNone)
		require.True(t, ok)
		for _, p := range points {
			assert.True(t, all.Contains(p.Lat, p.Lng))
		}

		trimmed, ok := EstimateBounds(points, TrimMajority)
		require.True(t, ok)
		ranked := append([]Point(nil), points...)
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].Lat != ranked[j].Lat {
				return ranked[i].Lat < ranked[j].Lat
			}
			return ranked[i].Lng < ranked[j].Lng
		})
		start, end := trimWindow(n, TrimMajority)
		require.Less(t, start, end)
		for _, p := range ranked[start:end] {
			assert.True(t, trimmed.Contains(p.Lat, p.Lng), "n=%d rank window [%d,%d) misses %+v", n, start, end, p)
		}
		assert.GreaterOrEqual(t, trimmed.MinLat, all.MinLat)
		assert.LessOrEqual(t, trimmed.MaxLat, all.MaxLat)
		assert.LessOrEqual(t, trimmed.MinLat, trimmed.MaxLat)
		assert.LessOrEqual(t, trimmed.MinLng, trimmed.MaxLng)
	}
}

func TestTrimValidate(t *testing.T) {
	tests := []struct {
		name    string
		trim    Trim
		wantErr bool
	}{
		{"majority", TrimMajority, false},
		{"core", TrimCore, false},
		{"none", TrimNone, false},
		{"lower at half", Trim{Lower: 0.5, Upper: 0.9}, true},
		{"negative lower", Trim{Lower: -0.1, Upper: 0.9}, true},
		{"upper at half", Trim{Lower: 0.1, Upper: 0.5}, true},
		{"upper above one", Trim{Lower: 0.1, Upper: 1.1}, true},
		{"nan", Trim{Lower: math.NaN(), Upper: 0.9}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.trim.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTrim)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTrimPreset(t *testing.T) {
	trim, err := TrimPreset("Majority")
	require.NoError(t, err)
	assert.Equal(t, TrimMajority, trim)

	trim, err = TrimPreset("core")
	require.NoError(t, err)
	assert.Equal(t, TrimCore, trim)

	trim, err = TrimPreset("all")
	require.NoError(t, err)
	assert.Equal(t, TrimNone, trim)

	_, err = TrimPreset("iqr")
	assert.ErrorIs(t, err, ErrInvalidTrim)
}
