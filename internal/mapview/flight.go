package mapview

import (
	"time"

	"github.com/bekharsky/el-cabanyal-tiles/internal/tiles"
)

// Flight animates the camera centre between two coordinates at a fixed
// zoom, easing in and out.
type Flight struct {
	fromX, fromY float64
	toX, toY     float64
	zoom         int
	start        time.Time
	duration     time.Duration
}

func NewFlight(cam Camera, toLat, toLng float64, start time.Time, duration time.Duration) *Flight {
	f := &Flight{zoom: cam.Zoom, start: start, duration: duration}
	f.fromX, f.fromY = tiles.Project(cam.Lat, cam.Lng, cam.Zoom)
	f.toX, f.toY = tiles.Project(toLat, toLng, cam.Zoom)
	return f
}

// At returns the centre at now and whether the flight has landed.
func (f *Flight) At(now time.Time) (lat, lng float64, done bool) {
	t := 1.0
	if f.duration > 0 {
		t = float64(now.Sub(f.start)) / float64(f.duration)
	}
	if t >= 1 {
		lat, lng = tiles.Unproject(f.toX, f.toY, f.zoom)
		return lat, lng, true
	}
	if t < 0 {
		t = 0
	}
	k := easeInOut(t)
	lat, lng = tiles.Unproject(f.fromX+(f.toX-f.fromX)*k, f.fromY+(f.toY-f.fromY)*k, f.zoom)
	return lat, lng, false
}

// easeInOut is the quadratic ease-in-out curve on [0, 1].
func easeInOut(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	u := -2*t + 2
	return 1 - u*u/2
}
