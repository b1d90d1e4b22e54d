package photo

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/rwcarlsen/goexif/exif"
)

// ErrNoGeotag means the file carries no usable GPS position.
var ErrNoGeotag = errors.New("no GPS data")

// Photo is a geotagged source image.
type Photo struct {
	FilePath    string
	Name        string // path relative to the input dir, slash-separated
	Lat         float64
	Lng         float64
	Orientation int // EXIF orientation, 1 when absent
	ModTime     time.Time
}

// Loader lists geotagged photos in an input directory.
type Loader struct {
	Recursive bool
	// CachePath points at the metadata cache file. Empty disables caching.
	CachePath string
}

// Load walks dir, reads the geotag of every JPEG and returns the geotagged
// ones ordered by name. Files without GPS data are skipped with a warning
// and their names returned as skipped.
func (l Loader) Load(dir string) (photos []Photo, skipped []string, err error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve input dir: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, fmt.Errorf("read input dir: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("input %s is not a directory", dir)
	}

	cache := l.openCache()
	seen := make(map[string]struct{})
	dirty := false

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error accessing path")
			// Skip this file/dir but keep walking
			return nil
		}
		if d.IsDir() {
			if path != root && !l.Recursive {
				return fs.SkipDir
			}
			return nil
		}
		if !isImageFile(path) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Could not stat file")
			return nil
		}
		seen[path] = struct{}{}

		entry, ok := cache.get(path, fi.ModTime())
		if !ok {
			entry, err = readCacheEntry(path, fi.ModTime())
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("Could not read metadata")
				return nil
			}
			cache.set(path, entry)
			dirty = true
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		if !entry.HasGeotag {
			log.Warn().Str("file", filepath.ToSlash(rel)).Msg("No GPS data")
			skipped = append(skipped, filepath.ToSlash(rel))
			return nil
		}

		photos = append(photos, Photo{
			FilePath:    path,
			Name:        filepath.ToSlash(rel),
			Lat:         entry.Lat,
			Lng:         entry.Lng,
			Orientation: entry.Orientation,
			ModTime:     fi.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	if cache.prune(root, seen) {
		dirty = true
	}
	if dirty && l.CachePath != "" {
		if err := saveMetadataCache(l.CachePath, cache); err != nil {
			log.Warn().Err(err).Msg("Could not save metadata cache")
		}
	}

	sort.Slice(photos, func(i, j int) bool {
		return photos[i].Name < photos[j].Name
	})
	sort.Strings(skipped)
	return photos, skipped, nil
}

func (l Loader) openCache() *metadataCache {
	if l.CachePath == "" {
		return newMetadataCache()
	}
	cache, err := loadMetadataCache(l.CachePath)
	if err != nil {
		log.Warn().Err(err).Msg("Ignoring unreadable metadata cache")
		return newMetadataCache()
	}
	return cache
}

// readCacheEntry turns a missing geotag into a negative entry so the file is
// not decoded again until it changes.
func readCacheEntry(path string, modTime time.Time) (metadataCacheEntry, error) {
	entry := metadataCacheEntry{ModTime: modTime.UnixNano()}
	lat, lng, orientation, err := ReadGeotag(path)
	if errors.Is(err, ErrNoGeotag) {
		return entry, nil
	}
	if err != nil {
		return metadataCacheEntry{}, err
	}
	entry.HasGeotag = true
	entry.Lat, entry.Lng, entry.Orientation = lat, lng, orientation
	return entry, nil
}

// isImageFile matches .jpg and .jpeg in any case.
func isImageFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return true
	}
	return false
}

// ReadGeotag decodes the EXIF block of a photo and returns its position and
// orientation. Errors wrapping ErrNoGeotag mean the file is readable but has
// no usable coordinate.
func ReadGeotag(path string) (lat, lng float64, orientation int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if x == nil {
		return 0, 0, 0, fmt.Errorf("%w: decoding exif: %v", ErrNoGeotag, err)
	}

	lat, lng, err = x.LatLong()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %v", ErrNoGeotag, err)
	}
	if !validCoordinate(lat, lng) {
		return 0, 0, 0, fmt.Errorf("%w: coordinate (%f, %f) out of range", ErrNoGeotag, lat, lng)
	}

	orientation = 1
	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil && v >= 1 && v <= 8 {
			orientation = v
		}
	}
	return lat, lng, orientation, nil
}

func validCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
