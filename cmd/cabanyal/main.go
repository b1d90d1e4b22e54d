package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog/log"

	"github.com/bekharsky/el-cabanyal-tiles/internal/cec"
	"github.com/bekharsky/el-cabanyal-tiles/internal/cli"
	"github.com/bekharsky/el-cabanyal-tiles/internal/config"
	"github.com/bekharsky/el-cabanyal-tiles/internal/geo"
	"github.com/bekharsky/el-cabanyal-tiles/internal/mapview"
	"github.com/bekharsky/el-cabanyal-tiles/internal/tiles"
	"github.com/bekharsky/el-cabanyal-tiles/internal/viewer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd(runViewer).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runViewer(ctx context.Context, cfg config.Config, points []geo.Point) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 1. Bounds trim
	trim, err := cfg.Bounds.Trim()
	if err != nil {
		return err
	}

	// 2. Basemap: MBTiles cache in front of the tile server
	var source tiles.Source
	cache, err := cli.OpenTileSource(cfg.Tiles)
	switch {
	case err == nil:
		defer cache.Close()
		source = cache
	case cfg.Tiles.Offline:
		log.Warn().Err(err).Msg("Tile cache unavailable, showing map without basemap")
	default:
		log.Warn().Err(err).Msg("Tile cache unavailable, fetching tiles directly")
		source = tiles.NewFetcher(cfg.Tiles.URL, cfg.Tiles.UserAgent)
	}

	// 3. HDMI-CEC remote
	var remote chan cec.RemoteCommand
	if cfg.CEC.Enabled {
		remote = make(chan cec.RemoteCommand, 10)
		cec.StartListener(ctx, remote)
		go cec.NewController().Prepare(ctx, cfg.CEC.PowerOn, cfg.CEC.HDMIInput)
	}

	// 4. Run the map
	game := viewer.NewMapGame(ctx, points, viewer.Options{
		Width:       cfg.View.Width,
		Height:      cfg.View.Height,
		Fullscreen:  cfg.View.Fullscreen,
		Title:       "El Cabanyal",
		Padding:     cfg.View.Padding,
		Zoom:        cfg.View.Zoom,
		MinZoom:     cfg.View.MinZoom,
		MaxZoom:     cfg.View.MaxZoom,
		FlyDuration: cfg.View.FlyDuration,
		Icon:        mapview.Icon{Width: cfg.View.IconWidth, Height: cfg.View.IconHeight},
		Trim:        trim,
		Tiles:       source,
		Remote:      remote,
	})
	if err := viewer.Run(game); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("map window: %w", err)
	}
	return nil
}
