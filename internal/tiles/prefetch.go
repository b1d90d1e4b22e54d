package tiles

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/bekharsky/el-cabanyal-tiles/internal/geo"
	"github.com/bekharsky/el-cabanyal-tiles/internal/progress"
)

// ErrTooManyTiles guards against accidentally mirroring a whole region.
var ErrTooManyTiles = errors.New("too many tiles")

type PrefetchOptions struct {
	MinZoom  int
	MaxZoom  int
	Workers  int
	MaxTiles int // 0 means no limit
	// Progress receives the progress bar. Nil hides it.
	Progress io.Writer
}

type PrefetchResult struct {
	Total   int
	Fetched int
	Cached  int
	Failed  int
}

// Plan lists every tile covering box between the zoom levels, inclusive.
func Plan(box geo.BoundingBox, minZoom, maxZoom int) []Tile {
	var all []Tile
	for z := minZoom; z <= maxZoom; z++ {
		all = append(all, TileRange(box, z)...)
	}
	return all
}

// Prefetch fills cache with the tiles covering box. Failed downloads are
// counted, not fatal.
func Prefetch(ctx context.Context, cache *Cache, box geo.BoundingBox, opts PrefetchOptions) (PrefetchResult, error) {
	if opts.MinZoom < 0 || opts.MaxZoom < opts.MinZoom {
		return PrefetchResult{}, fmt.Errorf("invalid zoom range %d..%d", opts.MinZoom, opts.MaxZoom)
	}
	plan := Plan(box, opts.MinZoom, opts.MaxZoom)
	if opts.MaxTiles > 0 && len(plan) > opts.MaxTiles {
		return PrefetchResult{}, fmt.Errorf("%w: %d tiles exceed the limit of %d", ErrTooManyTiles, len(plan), opts.MaxTiles)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var fetched, cached, failed atomic.Int64
	bar := progress.New(opts.Progress, len(plan), "Downloading tiles")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, t := range plan {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			defer func() { _ = bar.Add(1) }()
			has, err := cache.Has(gctx, t)
			if err != nil {
				return err
			}
			if has {
				cached.Add(1)
				return nil
			}
			if _, err := cache.Tile(gctx, t); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Debug().Err(err).Str("tile", t.String()).Msg("Tile download failed")
				failed.Add(1)
				return nil
			}
			fetched.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return PrefetchResult{}, fmt.Errorf("prefetch: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return PrefetchResult{}, fmt.Errorf("prefetch: %w", err)
	}
	_ = bar.Finish()

	res := PrefetchResult{
		Total:   len(plan),
		Fetched: int(fetched.Load()),
		Cached:  int(cached.Load()),
		Failed:  int(failed.Load()),
	}
	log.Info().
		Int("total", res.Total).
		Int("fetched", res.Fetched).
		Int("cached", res.Cached).
		Int("failed", res.Failed).
		Msg("Prefetch complete")
	return res, nil
}
