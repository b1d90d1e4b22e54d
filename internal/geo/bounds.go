package geo

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrInvalidTrim is returned when trim fractions are out of range.
var ErrInvalidTrim = errors.New("invalid trim")

// Trim selects the rank window used to fit bounds. Points are ordered by
// (lat, lng) and only ranks in [floor(n*Lower), ceil(n*Upper)) are kept.
type Trim struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

var (
	// TrimMajority drops the bottom and top tenth.
	TrimMajority = Trim{Lower: 0.1, Upper: 0.9}
	// TrimCore keeps only the middle 40 percent.
	TrimCore = Trim{Lower: 0.3, Upper: 0.7}
	// TrimNone keeps every point.
	TrimNone = Trim{Lower: 0, Upper: 1}
)

// Validate checks 0 <= Lower < 0.5 and 0.5 < Upper <= 1.
func (t Trim) Validate() error {
	if math.IsNaN(t.Lower) || t.Lower < 0 || t.Lower >= 0.5 {
		return fmt.Errorf("%w: lower fraction %v not in [0, 0.5)", ErrInvalidTrim, t.Lower)
	}
	if math.IsNaN(t.Upper) || t.Upper <= 0.5 || t.Upper > 1 {
		return fmt.Errorf("%w: upper fraction %v not in (0.5, 1]", ErrInvalidTrim, t.Upper)
	}
	return nil
}

func (t Trim) String() string {
	return fmt.Sprintf("%g/%g", t.Lower, t.Upper)
}

// TrimPreset resolves a named preset: "majority", "core" or "all".
func TrimPreset(name string) (Trim, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "majority", "":
		return TrimMajority, nil
	case "core":
		return TrimCore, nil
	case "all", "none":
		return TrimNone, nil
	}
	return Trim{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidTrim, name)
}

// EstimateBounds returns the box covering the trimmed majority of points.
// The second result is false when points is empty; callers should then leave
// the viewport alone.
//
// When the trim window collapses (small n, aggressive fractions) the box
// degenerates to the single point at the window start.
func EstimateBounds(points []Point, trim Trim) (BoundingBox, bool) {
	n := len(points)
	if n == 0 {
		return BoundingBox{}, false
	}

	sorted := make([]Point, n)
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Lat != sorted[j].Lat {
			return sorted[i].Lat < sorted[j].Lat
		}
		return sorted[i].Lng < sorted[j].Lng
	})

	start, end := trimWindow(n, trim)
	box := BoxAround(sorted[start].Lat, sorted[start].Lng)
	for _, p := range sorted[start+1 : end] {
		box = box.Extend(p.Lat, p.Lng)
	}
	return box, true
}

// trimWindow returns [start, end) clamped so that start is a valid index and
// end > start.
func trimWindow(n int, t Trim) (start, end int) {
	lower, upper := t.Lower, t.Upper
	if math.IsNaN(lower) {
		lower = 0
	}
	if math.IsNaN(upper) {
		upper = 1
	}

	start = clampInt(int(math.Floor(float64(n)*math.Max(lower, 0))), 0, n-1)
	end = clampInt(int(math.Ceil(float64(n)*math.Min(upper, 1))), 0, n)
	if end <= start {
		end = start + 1
	}
	return start, end
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
