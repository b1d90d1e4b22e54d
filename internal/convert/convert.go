// Package convert turns a folder of geotagged photos into thumbnails, map
// markers and the manifest the viewer reads.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/bekharsky/el-cabanyal-tiles/internal/config"
	"github.com/bekharsky/el-cabanyal-tiles/internal/manifest"
	"github.com/bekharsky/el-cabanyal-tiles/internal/photo"
	"github.com/bekharsky/el-cabanyal-tiles/internal/progress"
	"github.com/bekharsky/el-cabanyal-tiles/internal/render"
)

type Options struct {
	InputDir     string
	ThumbnailDir string
	MarkerDir    string
	Manifest     string
	Recursive    bool
	Workers      int
	// CachePath is the photo metadata cache. Empty disables it.
	CachePath string

	Thumbnail render.ThumbnailOptions
	Marker    render.MarkerOptions

	// Progress receives the progress bar. Nil hides it.
	Progress io.Writer
}

// OptionsFromConfig maps the configuration onto converter options.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		InputDir:     cfg.InputDir,
		ThumbnailDir: cfg.ThumbnailDir,
		MarkerDir:    cfg.MarkerDir,
		Manifest:     cfg.Manifest,
		Recursive:    cfg.Recursive,
		Workers:      cfg.Workers,
		Thumbnail: render.ThumbnailOptions{
			Width:      cfg.Thumbnail.Width,
			Rotate:     cfg.Thumbnail.Rotate,
			AutoOrient: cfg.Thumbnail.AutoOrient,
			Quality:    cfg.Thumbnail.Quality,
		},
		Marker: render.MarkerOptions{
			Width:  cfg.Marker.Width,
			Height: cfg.Marker.Height,
		},
	}
}

// Result summarises a run. Entries are in manifest order.
type Result struct {
	Entries   []manifest.Entry
	Processed int
	Skipped   int // no geotag
	Failed    int // geotagged but could not be rendered
}

// Run processes every geotagged photo in opts.InputDir. A photo that fails
// to render is logged and left out; only setup failures, a cancelled ctx or
// a failed manifest write abort the run.
func Run(ctx context.Context, opts Options) (Result, error) {
	for _, dir := range []string{opts.ThumbnailDir, opts.MarkerDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Result{}, fmt.Errorf("create output dir: %w", err)
		}
	}

	loader := photo.Loader{Recursive: opts.Recursive, CachePath: opts.CachePath}
	photos, skipped, err := loader.Load(opts.InputDir)
	if err != nil {
		return Result{}, err
	}
	log.Info().Int("count", len(photos)).Int("skipped", len(skipped)).Str("dir", opts.InputDir).Msg("Found geotagged photos")

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	entries := make([]*manifest.Entry, len(photos))
	bar := progress.New(opts.Progress, len(photos), "Converting")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range photos {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			defer func() { _ = bar.Add(1) }()
			if err := gctx.Err(); err != nil {
				return err
			}
			entry, err := processPhoto(p, opts)
			if err != nil {
				log.Warn().Err(err).Str("file", p.Name).Msg("Failed to process photo")
				return nil
			}
			entries[i] = &entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("convert interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("convert interrupted: %w", err)
	}
	_ = bar.Finish()

	res := Result{Skipped: len(skipped), Entries: make([]manifest.Entry, 0, len(photos))}
	for _, e := range entries {
		if e == nil {
			res.Failed++
			continue
		}
		res.Entries = append(res.Entries, *e)
	}
	res.Processed = len(res.Entries)

	if err := manifest.Write(opts.Manifest, res.Entries); err != nil {
		return Result{}, err
	}

	log.Info().
		Int("processed", res.Processed).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Str("manifest", opts.Manifest).
		Msg("processing complete")
	return res, nil
}

// processPhoto renders the thumbnail and marker for one photo.
func processPhoto(p photo.Photo, opts Options) (manifest.Entry, error) {
	name := filepath.FromSlash(p.Name)
	thumbPath := filepath.Join(opts.ThumbnailDir, name)
	// keep the source extension so x.jpg and x.jpeg get separate markers
	markerPath := filepath.Join(opts.MarkerDir, name+".png")

	thumb, err := render.Thumbnail(p.FilePath, p.Orientation, opts.Thumbnail)
	if err != nil {
		return manifest.Entry{}, err
	}
	if err := os.MkdirAll(filepath.Dir(thumbPath), 0o755); err != nil {
		return manifest.Entry{}, fmt.Errorf("create thumbnail dir: %w", err)
	}
	if err := render.SaveThumbnail(thumb, thumbPath, opts.Thumbnail.Quality); err != nil {
		return manifest.Entry{}, err
	}

	marker, err := render.Marker(thumb, opts.Marker)
	if err != nil {
		return manifest.Entry{}, err
	}
	if err := os.MkdirAll(filepath.Dir(markerPath), 0o755); err != nil {
		return manifest.Entry{}, fmt.Errorf("create marker dir: %w", err)
	}
	if err := render.SaveMarker(marker, markerPath); err != nil {
		return manifest.Entry{}, err
	}

	return manifest.Entry{
		Name:      p.Name,
		Thumbnail: manifestPath(opts.Manifest, thumbPath),
		Marker:    manifestPath(opts.Manifest, markerPath),
		Lat:       p.Lat,
		Lng:       p.Lng,
	}, nil
}

// manifestPath expresses an output file relative to the manifest's
// directory, falling back to an absolute path.
func manifestPath(manifestFile, file string) string {
	base, err := filepath.Abs(filepath.Dir(manifestFile))
	if err != nil {
		return filepath.ToSlash(file)
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return filepath.ToSlash(file)
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return path.Clean(filepath.ToSlash(rel))
}
