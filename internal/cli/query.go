package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bekharsky/el-cabanyal-tiles/internal/config"
	"github.com/bekharsky/el-cabanyal-tiles/internal/geo"
	"github.com/bekharsky/el-cabanyal-tiles/internal/manifest"
)

var errNoPoints = errors.New("manifest has no points")

type boundsOutput struct {
	Points int             `json:"points"`
	Trim   geo.Trim        `json:"trim"`
	Bounds geo.BoundingBox `json:"bounds"`
}

func newBoundsCmd(a *app) *cobra.Command {
	var (
		preset       string
		lower, upper float64
	)

	cmd := &cobra.Command{
		Use:   "bounds",
		Short: "Print the viewport the map would open on",
		Long: `Estimates the bounding box of the manifest points after trimming outliers
and prints it as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bc := a.cfg.Bounds
			flags := cmd.Flags()
			if flags.Changed("preset") {
				bc = config.BoundsConfig{Preset: preset}
			}
			if flags.Changed("lower") {
				bc.Lower = &lower
			}
			if flags.Changed("upper") {
				bc.Upper = &upper
			}
			trim, err := bc.Trim()
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
			return writeJSON(cmd.OutOrStdout(), boundsOutput{Points: len(points), Trim: trim, Bounds: box})
		},
	}

	cmd.Flags().StringVarP(&preset, "preset", "p", "", "Trim preset: majority, core or all")
	cmd.Flags().Float64Var(&lower, "lower", 0, "Lower trim fraction in [0, 0.5)")
	cmd.Flags().Float64Var(&upper, "upper", 1, "Upper trim fraction in (0.5, 1]")
	return cmd
}

type nearestOutput struct {
	From      string         `json:"from"`
	Direction string         `json:"direction"`
	Moved     bool           `json:"moved"`
	To        manifest.Entry `json:"to"`
}

func newNearestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "nearest <name> <direction>",
		Short: "Print the photo an arrow key would move to",
		Long: `Looks up the photo called name in the manifest and prints the closest photo
in the given direction (up, down, left or right). When there is none the
selection stays where it is.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := geo.ParseDirection(args[1])
			if err != nil {
				return err
			}
			entries, points, err := a.readPoints()
			if err != nil {
				return err
			}
			current, ok := manifest.Lookup(entries, args[0])
			if !ok {
				return fmt.Errorf("no photo named %q in %s", args[0], a.cfg.Manifest)
			}

			next := geo.FindNearestInDirection(points, current, dir)
			return writeJSON(cmd.OutOrStdout(), nearestOutput{
				From:      entries[current].Name,
				Direction: dir.String(),
				Moved:     next != current,
				To:        entries[next],
			})
		},
	}
}
