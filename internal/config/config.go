package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bekharsky/el-cabanyal-tiles/internal/geo"
)

const (
	// DefaultConfigDir lives under the user's home directory.
	DefaultConfigDir  = ".cabanyal"
	DefaultConfigName = "config.json"

	// DefaultTileURL is the CARTO Voyager raster basemap.
	DefaultTileURL = "https://{s}.basemaps.cartocdn.com/rastertiles/voyager/{z}/{x}/{y}{r}.png"
)

// Config is the full tool configuration. Every key has a default, so the
// config file is optional.
type Config struct {
	InputDir     string `mapstructure:"inputDir"`
	ThumbnailDir string `mapstructure:"thumbnailDir"`
	MarkerDir    string `mapstructure:"markerDir"`
	Manifest     string `mapstructure:"manifest"`
	Recursive    bool   `mapstructure:"recursive"`
	Workers      int    `mapstructure:"workers"`
	LogLevel     string `mapstructure:"logLevel"`

	Thumbnail ThumbnailConfig `mapstructure:"thumbnail"`
	Marker    MarkerConfig    `mapstructure:"marker"`
	Bounds    BoundsConfig    `mapstructure:"bounds"`
	View      ViewConfig      `mapstructure:"view"`
	Tiles     TilesConfig     `mapstructure:"tiles"`
	CEC       CECConfig       `mapstructure:"cec"`
}

type ThumbnailConfig struct {
	Width      int  `mapstructure:"width"`
	Rotate     int  `mapstructure:"rotate"` // clockwise degrees, multiple of 90
	AutoOrient bool `mapstructure:"autoOrient"`
	Quality    int  `mapstructure:"quality"`
}

type MarkerConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// BoundsConfig picks the trim used to fit the initial viewport. Lower and
// Upper, when set, override the preset.
type BoundsConfig struct {
	Preset string   `mapstructure:"preset"`
	Lower  *float64 `mapstructure:"lower"`
	Upper  *float64 `mapstructure:"upper"`
}

type ViewConfig struct {
	Width       int           `mapstructure:"width"`
	Height      int           `mapstructure:"height"`
	Fullscreen  bool          `mapstructure:"fullscreen"`
	Padding     int           `mapstructure:"padding"`
	Zoom        int           `mapstructure:"zoom"`
	MinZoom     int           `mapstructure:"minZoom"`
	MaxZoom     int           `mapstructure:"maxZoom"`
	FlyDuration time.Duration `mapstructure:"flyDuration"`
	IconWidth   int           `mapstructure:"iconWidth"`
	IconHeight  int           `mapstructure:"iconHeight"`
}

type TilesConfig struct {
	URL       string `mapstructure:"url"`
	Cache     string `mapstructure:"cache"`
	Offline   bool   `mapstructure:"offline"`
	UserAgent string `mapstructure:"userAgent"`
}

type CECConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	PowerOn   bool `mapstructure:"powerOn"`
	HDMIInput int  `mapstructure:"hdmiInput"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("inputDir", "tiles")
	v.SetDefault("thumbnailDir", "tiles_small")
	v.SetDefault("markerDir", "tiles_markers")
	v.SetDefault("manifest", "tiles.json")
	v.SetDefault("recursive", false)
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("logLevel", "info")

	v.SetDefault("thumbnail.width", 800)
	v.SetDefault("thumbnail.rotate", 90)
	v.SetDefault("thumbnail.autoOrient", false)
	v.SetDefault("thumbnail.quality", 85)

	v.SetDefault("marker.width", 80)
	v.SetDefault("marker.height", 128)

	v.SetDefault("bounds.preset", "majority")

	v.SetDefault("view.width", 1280)
	v.SetDefault("view.height", 800)
	v.SetDefault("view.fullscreen", false)
	v.SetDefault("view.padding", 50)
	v.SetDefault("view.zoom", 14)
	v.SetDefault("view.minZoom", 2)
	v.SetDefault("view.maxZoom", 19)
	v.SetDefault("view.flyDuration", "500ms")
	v.SetDefault("view.iconWidth", 40)
	v.SetDefault("view.iconHeight", 50)

	v.SetDefault("tiles.url", DefaultTileURL)
	v.SetDefault("tiles.cache", filepath.Join("~", DefaultConfigDir, "tiles.mbtiles"))
	v.SetDefault("tiles.offline", false)
	v.SetDefault("tiles.userAgent", "cabanyal-tiles/1.0")

	v.SetDefault("cec.enabled", false)
	v.SetDefault("cec.powerOn", false)
	v.SetDefault("cec.hdmiInput", 0)
}

// Load reads the JSON config at path. An empty path means
// ~/.cabanyal/config.json, which may be absent. Environment variables
// prefixed with CABANYAL_ (dots become underscores) override file values.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("json")
	v.SetEnvPrefix("CABANYAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to read config file at %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cache, err := ExpandHome(cfg.Tiles.Cache)
	if err != nil {
		return Config{}, err
	}
	cfg.Tiles.Cache = cache

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultPath returns ~/.cabanyal/config.json.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, DefaultConfigDir, DefaultConfigName), nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// Trim resolves the bounds preset and any explicit fraction overrides.
func (b BoundsConfig) Trim() (geo.Trim, error) {
	trim, err := geo.TrimPreset(b.Preset)
	if err != nil {
		return geo.Trim{}, err
	}
	if b.Lower != nil {
		trim.Lower = *b.Lower
	}
	if b.Upper != nil {
		trim.Upper = *b.Upper
	}
	return trim, trim.Validate()
}

// Validate rejects values that would make conversion or viewing meaningless.
func (c Config) Validate() error {
	if c.InputDir == "" || c.ThumbnailDir == "" || c.MarkerDir == "" || c.Manifest == "" {
		return errors.New("inputDir, thumbnailDir, markerDir and manifest must be set")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Thumbnail.Width < 1 {
		return fmt.Errorf("thumbnail.width must be positive, got %d", c.Thumbnail.Width)
	}
	if c.Thumbnail.Rotate%90 != 0 {
		return fmt.Errorf("thumbnail.rotate must be a multiple of 90, got %d", c.Thumbnail.Rotate)
	}
	if c.Thumbnail.Quality < 1 || c.Thumbnail.Quality > 100 {
		return fmt.Errorf("thumbnail.quality must be in [1, 100], got %d", c.Thumbnail.Quality)
	}
	if c.Marker.Width < 1 || c.Marker.Height < 1 {
		return fmt.Errorf("marker size must be positive, got %dx%d", c.Marker.Width, c.Marker.Height)
	}
	if _, err := c.Bounds.Trim(); err != nil {
		return fmt.Errorf("bounds: %w", err)
	}
	if c.View.MinZoom < 0 || c.View.MaxZoom < c.View.MinZoom {
		return fmt.Errorf("view zoom range [%d, %d] is invalid", c.View.MinZoom, c.View.MaxZoom)
	}
	if c.View.Padding < 0 {
		return fmt.Errorf("view.padding must not be negative, got %d", c.View.Padding)
	}
	return nil
}
