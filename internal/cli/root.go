// Package cli holds the cabanyal command tree. The map window itself is
// injected by the binary so that everything here builds without a display.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bekharsky/el-cabanyal-tiles/internal/cec"
	"github.com/bekharsky/el-cabanyal-tiles/internal/config"
	"github.com/bekharsky/el-cabanyal-tiles/internal/geo"
	"github.com/bekharsky/el-cabanyal-tiles/internal/logging"
	"github.com/bekharsky/el-cabanyal-tiles/internal/manifest"
)

// ViewFunc opens the interactive map over points. Asset paths in points are
// already resolved against the manifest location.
type ViewFunc func(ctx context.Context, cfg config.Config, points []geo.Point) error

type app struct {
	configPath string
	logLevel   string
	cfg        config.Config
	view       ViewFunc
}

// NewRootCmd builds the command tree. view may be nil, in which case the
// view command reports that no display is available.
func NewRootCmd(view ViewFunc) *cobra.Command {
	a := &app{view: view}

	rootCmd := &cobra.Command{
		Use:   "cabanyal",
		Short: "Geotagged photo tiles on an interactive map",
		Long: `Turns a folder of geotagged photos into thumbnails, pin markers and a JSON
manifest, and shows them on a keyboard and remote friendly map.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default ~/.cabanyal/config.json)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")

	rootCmd.AddCommand(
		newConvertCmd(a),
		newViewCmd(a),
		newBoundsCmd(a),
		newNearestCmd(a),
		newTilesCmd(a),
		newRemoteCmd(a, cec.Listen),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	logging.Setup(cmd.ErrOrStderr(), cfg.LogLevel)
	a.cfg = cfg
	log.Debug().Str("config", a.configPath).Str("manifest", cfg.Manifest).Msg("Configuration loaded")
	return nil
}

// readPoints loads the configured manifest with asset paths made usable from
// the working directory.
func (a *app) readPoints() ([]manifest.Entry, []geo.Point, error) {
	entries, err := manifest.Read(a.cfg.Manifest)
	if err != nil {
		return nil, nil, err
	}
	points := manifest.ToPoints(entries)
	for i := range points {
		points[i].Thumbnail = manifest.Resolve(a.cfg.Manifest, points[i].Thumbnail)
		points[i].Marker = manifest.Resolve(a.cfg.Manifest, points[i].Marker)
	}
	return entries, points, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
