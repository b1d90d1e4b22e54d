package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bekharsky/el-cabanyal-tiles/internal/config"
	"github.com/bekharsky/el-cabanyal-tiles/internal/geo"
	"github.com/bekharsky/el-cabanyal-tiles/internal/tiles"
)

// OpenTileSource returns the basemap source for cfg: the MBTiles cache,
// backed by the tile server unless tiles.offline is set. The caller closes
// the cache.
func OpenTileSource(cfg config.TilesConfig) (*tiles.Cache, error) {
	var upstream tiles.Source
	if !cfg.Offline {
		upstream = tiles.NewFetcher(cfg.URL, cfg.UserAgent)
	}
	return tiles.OpenCache(cfg.Cache, upstream)
}

func newTilesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tiles",
		Short: "Manage the offline basemap cache",
	}
	cmd.AddCommand(newPrefetchCmd(a), newTilesInfoCmd(a))
	return cmd
}

func newPrefetchCmd(a *app) *cobra.Command {
	var (
		minZoom  int
		maxZoom  int
		maxTiles int
		pad      float64
		workers  int
		quiet    bool
	)

	cmd := &cobra.Command{
		Use:   "prefetch",
		Short: "Download the tiles around the manifest photos",
		Long: `Stores every basemap tile covering the trimmed bounds of the manifest photos
into the MBTiles cache, so the map works without a network connection.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Tiles.Offline {
				return errors.New("tiles.offline is set; nothing can be downloaded")
			}
			trim, err := a.cfg.Bounds.Trim()
			if err != nil {
				return err
			}
			_, points, err := a.readPoints()
			if err != nil {
				return err
			}
			box, ok := geo.EstimateBounds(points, trim)
			if !ok {
				return fmt.Errorf("%w: %s", errNoPoints, a.cfg.Manifest)
			}

			cache, err := OpenTileSource(a.cfg.Tiles)
			if err != nil {
				return err
			}
			defer cache.Close()

			area := box.Pad(pad)
			// MBTiles orders bounds as left,bottom,right,top
			if err := cache.SetMetadata(cmd.Context(), "bounds", fmt.Sprintf("%f,%f,%f,%f", area.MinLng, area.MinLat, area.MaxLng, area.MaxLat)); err != nil {
				return err
			}

			opts := tiles.PrefetchOptions{
				MinZoom:  minZoom,
				MaxZoom:  maxZoom,
				Workers:  workers,
				MaxTiles: maxTiles,
			}
			if !quiet {
				opts.Progress = cmd.ErrOrStderr()
			}
			res, err := tiles.Prefetch(cmd.Context(), cache, area, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d tiles: %d downloaded, %d already cached, %d failed\n",
				res.Total, res.Fetched, res.Cached, res.Failed)
			return nil
		},
	}

	cmd.Flags().IntVar(&minZoom, "min-zoom", 10, "Lowest zoom level to download")
	cmd.Flags().IntVar(&maxZoom, "max-zoom", 17, "Highest zoom level to download")
	cmd.Flags().IntVar(&maxTiles, "max-tiles", 20000, "Refuse plans larger than this; 0 disables the limit")
	cmd.Flags().Float64Var(&pad, "pad", 0.005, "Extra margin around the bounds, in degrees")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "Concurrent downloads")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Hide the progress bar")
	return cmd
}

func newTilesInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show what the tile cache holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := tiles.OpenCache(a.cfg.Tiles.Cache, nil)
			if err != nil {
				return err
			}
			defer cache.Close()

			n, err := cache.Count(cmd.Context())
			if err != nil {
				return err
			}
			bounds, err := cache.Metadata(cmd.Context(), "bounds")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "cache:  %s\n", a.cfg.Tiles.Cache)
			fmt.Fprintf(out, "tiles:  %d\n", n)
			if bounds != "" {
				fmt.Fprintf(out, "bounds: %s\n", bounds)
			}
			return nil
		},
	}
}
