package viewer

import (
	"bytes"
	"context"
	"errors"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog/log"

	"github.com/bekharsky/el-cabanyal-tiles/internal/mapview"
	"github.com/bekharsky/el-cabanyal-tiles/internal/tiles"
)

const (
	tileWorkers    = 4
	maxCachedTiles = 256
)

type loadedTile struct {
	tile tiles.Tile
	img  image.Image
	err  error
}

// tileLayer draws the basemap. Tiles are fetched and decoded on background
// goroutines and turned into textures on the game goroutine.
type tileLayer struct {
	ctx    context.Context
	source tiles.Source

	images    map[tiles.Tile]*ebiten.Image
	requested *mapview.TileRequests
	loaded    chan loadedTile
	sem       chan struct{}
}

// newTileLayer returns a layer over source. A nil source draws nothing.
func newTileLayer(ctx context.Context, source tiles.Source) *tileLayer {
	return &tileLayer{
		ctx:       ctx,
		source:    source,
		images:    make(map[tiles.Tile]*ebiten.Image),
		requested: mapview.NewTileRequests(),
		loaded:    make(chan loadedTile, 64),
		sem:       make(chan struct{}, tileWorkers),
	}
}

// update collects finished downloads and requests missing visible tiles.
func (l *tileLayer) update(cam mapview.Camera) {
	if l.source == nil {
		return
	}

readLoop:
	for {
		select {
		case lt := <-l.loaded:
			l.requested.Done(lt.tile, lt.err)
			if lt.err != nil {
				if !errors.Is(lt.err, tiles.ErrNotFound) && l.ctx.Err() == nil {
					log.Debug().Err(lt.err).Str("tile", lt.tile.String()).Msg("Tile unavailable")
				}
				continue
			}
			l.images[lt.tile] = ebiten.NewImageFromImage(lt.img)
		default:
			break readLoop
		}
	}

	visible := mapview.VisibleTiles(cam)
	for _, pt := range visible {
		if l.requested.Claim(pt.Tile) {
			go l.fetch(pt.Tile)
		}
	}
	l.evict(visible)
}

func (l *tileLayer) fetch(t tiles.Tile) {
	select {
	case l.sem <- struct{}{}:
	case <-l.ctx.Done():
		return
	}
	defer func() { <-l.sem }()

	data, err := l.source.Tile(l.ctx, t)
	var img image.Image
	if err == nil {
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	select {
	case l.loaded <- loadedTile{tile: t, img: img, err: err}:
	case <-l.ctx.Done():
	}
}

// evict drops off-screen textures once the cache grows past its limit. A
// dropped tile is requested again when it comes back into view.
func (l *tileLayer) evict(visible []mapview.PlacedTile) {
	if len(l.images) <= maxCachedTiles {
		return
	}
	keep := make(map[tiles.Tile]bool, len(visible))
	for _, pt := range visible {
		keep[pt.Tile] = true
	}
	for t, img := range l.images {
		if keep[t] {
			continue
		}
		img.Deallocate()
		delete(l.images, t)
		l.requested.Forget(t)
	}
}

func (l *tileLayer) draw(screen *ebiten.Image, cam mapview.Camera) {
	if l.source == nil {
		return
	}
	for _, pt := range mapview.VisibleTiles(cam) {
		img, ok := l.images[pt.Tile]
		if !ok {
			continue
		}
		op := &ebiten.DrawImageOptions{}
		b := img.Bounds()
		if b.Dx() != tiles.TileSize {
			// @2x tiles
			s := float64(tiles.TileSize) / float64(b.Dx())
			op.GeoM.Scale(s, s)
			op.Filter = ebiten.FilterLinear
		}
		op.GeoM.Translate(pt.X, pt.Y)
		screen.DrawImage(img, op)
	}
}
