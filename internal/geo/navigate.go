package geo

import (
	"fmt"
	"math"
	"strings"
)

// Direction is a compass direction on the map.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

var directionNames = [...]string{"up", "down", "left", "right"}

func (d Direction) String() string {
	if d < Up || d > Right {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// ParseDirection accepts up/down/left/right, the compass names and the
// browser-style ArrowUp spelling, case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "north", "n", "arrowup":
		return Up, nil
	case "down", "south", "s", "arrowdown":
		return Down, nil
	case "left", "west", "w", "arrowleft":
		return Left, nil
	case "right", "east", "e", "arrowright":
		return Right, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// qualifies applies the strict half-plane test for d.
func (d Direction) qualifies(dLat, dLng float64) bool {
	switch d {
	case Up:
		return dLat > 0
	case Down:
		return dLat < 0
	case Left:
		return dLng < 0
	case Right:
		return dLng > 0
	}
	return false
}

// FindNearestInDirection returns the index of the point closest to
// points[current] that lies strictly in direction dir. Distance is planar
// Euclidean in degrees, which is only accurate at neighbourhood scale.
// Exact ties go to the earlier index.
//
// If nothing qualifies, or current is not a valid index, current is returned.
func FindNearestInDirection(points []Point, current int, dir Direction) int {
	if current < 0 || current >= len(points) {
		return current
	}
	origin := points[current]

	best := current
	bestDist := math.Inf(1)
	for i, p := range points {
		if i == current {
			continue
		}
		dLat := p.Lat - origin.Lat
		dLng := p.Lng - origin.Lng
		if !dir.qualifies(dLat, dLng) {
			continue
		}
		if dist := math.Sqrt(dLat*dLat + dLng*dLng); dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}
