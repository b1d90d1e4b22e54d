package photo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bekharsky/el-cabanyal-tiles/internal/config"
)

const (
	metadataCacheFileName = "photo_metadata_cache.json"
	metadataCacheVersion  = 1
)

type metadataCache struct {
	Version int                           `json:"version"`
	Entries map[string]metadataCacheEntry `json:"entries"`
}

type metadataCacheEntry struct {
	ModTime     int64   `json:"modTime"`
	HasGeotag   bool    `json:"hasGeotag"`
	Lat         float64 `json:"lat,omitempty"`
	Lng         float64 `json:"lng,omitempty"`
	Orientation int     `json:"orientation,omitempty"`
}

// DefaultCachePath returns ~/.cabanyal/photo_metadata_cache.json.
func DefaultCachePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine user home: %w", err)
	}
	return filepath.Join(homeDir, config.DefaultConfigDir, metadataCacheFileName), nil
}

func loadMetadataCache(path string) (*metadataCache, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return newMetadataCache(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata cache: %w", err)
	}

	cache := newMetadataCache()
	if err := json.Unmarshal(data, cache); err != nil {
		return nil, fmt.Errorf("unmarshal metadata cache: %w", err)
	}

	if cache.Version != metadataCacheVersion || cache.Entries == nil {
		return newMetadataCache(), nil
	}

	return cache, nil
}

func saveMetadataCache(path string, cache *metadataCache) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmpPath := path + ".tmp"
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata cache: %w", err)
	}

	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write metadata cache: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace metadata cache: %w", err)
	}

	return nil
}

func newMetadataCache() *metadataCache {
	return &metadataCache{
		Version: metadataCacheVersion,
		Entries: make(map[string]metadataCacheEntry),
	}
}

func (c *metadataCache) get(path string, modTime time.Time) (metadataCacheEntry, bool) {
	if c == nil {
		return metadataCacheEntry{}, false
	}
	entry, ok := c.Entries[path]
	if !ok || entry.ModTime != modTime.UnixNano() {
		return metadataCacheEntry{}, false
	}
	return entry, true
}

func (c *metadataCache) set(path string, entry metadataCacheEntry) {
	if c == nil {
		return
	}
	c.Entries[path] = entry
}

// prune drops entries under dir that were not seen in the latest walk.
// Entries for other input directories are left alone.
func (c *metadataCache) prune(dir string, seen map[string]struct{}) bool {
	if c == nil {
		return false
	}
	prefix := filepath.Clean(dir) + string(filepath.Separator)
	changed := false
	for path := range c.Entries {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		if _, ok := seen[path]; !ok {
			delete(c.Entries, path)
			changed = true
		}
	}
	return changed
}
