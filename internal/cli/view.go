package cli

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var errNoDisplay = errors.New("this build has no map window")

func newViewCmd(a *app) *cobra.Command {
	var fullscreen bool

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Open the interactive map",
		Long: `Shows every manifest photo as a pin on the map. Arrow keys move the selection
to the nearest photo in that direction, Enter selects the photo nearest the
centre and Escape quits. Clicking a pin selects it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.view == nil {
				return errNoDisplay
			}
			if cmd.Flags().Changed("fullscreen") {
				a.cfg.View.Fullscreen = fullscreen
			}
			_, points, err := a.readPoints()
			if err != nil {
				return err
			}
			if len(points) == 0 {
				log.Warn().Str("manifest", a.cfg.Manifest).Msg("No photos in manifest")
			}
			return a.view(cmd.Context(), a.cfg, points)
		},
	}
	cmd.Flags().BoolVarP(&fullscreen, "fullscreen", "f", false, "Run fullscreen")
	return cmd
}
