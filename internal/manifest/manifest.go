// Package manifest reads and writes tiles.json, the list of processed photos
// shared by the converter and the viewer.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/bekharsky/el-cabanyal-tiles/internal/geo"
)

// ErrInvalidEntry is wrapped by Validate for entries the viewer cannot place.
var ErrInvalidEntry = errors.New("invalid manifest entry")

// Entry is one processed photo. Thumbnail and Marker are slash-separated
// paths, relative paths being resolved against the manifest's directory.
type Entry struct {
	Name      string  `json:"name"`
	Thumbnail string  `json:"thumbnail"`
	Marker    string  `json:"marker"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

// Validate checks that the entry has a name and a coordinate on the globe.
func (e Entry) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidEntry)
	}
	if math.IsNaN(e.Lat) || math.IsNaN(e.Lng) || math.IsInf(e.Lat, 0) || math.IsInf(e.Lng, 0) {
		return fmt.Errorf("%w: %s has a non-finite coordinate", ErrInvalidEntry, e.Name)
	}
	if e.Lat < -90 || e.Lat > 90 || e.Lng < -180 || e.Lng > 180 {
		return fmt.Errorf("%w: %s at (%f, %f) is out of range", ErrInvalidEntry, e.Name, e.Lat, e.Lng)
	}
	return nil
}

// Write stores entries as a 2-space indented JSON array. The file is
// replaced atomically.
func Write(path string, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create manifest directory: %w", err)
		}
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

// Read loads a manifest. Invalid and duplicate entries are dropped with a
// warning; only an unreadable or malformed file is an error.
func Read(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var raw []Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	entries := make([]Entry, 0, len(raw))
	names := make(map[string]struct{}, len(raw))
	for i, e := range raw {
		if err := e.Validate(); err != nil {
			log.Warn().Err(err).Int("index", i).Msg("Skipping manifest entry")
			continue
		}
		if _, dup := names[e.Name]; dup {
			log.Warn().Str("file", e.Name).Int("index", i).Msg("Skipping duplicate manifest entry")
			continue
		}
		names[e.Name] = struct{}{}
		entries = append(entries, e)
	}
	return entries, nil
}

// ToPoints maps entries to geo points in the same order.
func ToPoints(entries []Entry) []geo.Point {
	points := make([]geo.Point, len(entries))
	for i, e := range entries {
		points[i] = geo.Point{
			ID:        e.Name,
			Lat:       e.Lat,
			Lng:       e.Lng,
			Thumbnail: e.Thumbnail,
			Marker:    e.Marker,
		}
	}
	return points
}

// Resolve turns an asset path from the manifest at manifestPath into a
// filesystem path.
func Resolve(manifestPath, asset string) string {
	p := filepath.FromSlash(asset)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(manifestPath), p)
}

// Lookup returns the position of the entry called name.
func Lookup(entries []Entry, name string) (int, bool) {
	for i, e := range entries {
		if e.Name == name {
			return i, true
		}
	}
	return -1, false
}
