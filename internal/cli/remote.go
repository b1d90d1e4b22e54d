package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bekharsky/el-cabanyal-tiles/internal/cec"
)

// listenFunc matches cec.Listen.
type listenFunc func(ctx context.Context, events chan<- cec.RemoteCommand) error

func newRemoteCmd(a *app, listen listenFunc) *cobra.Command {
	var (
		prepare bool
		count   int
	)

	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Print HDMI-CEC remote presses",
		Long: `Runs cec-client in traffic mode and prints every remote button the map
understands. Useful to check the TV forwards its remote before a kiosk
install.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if prepare {
				cec.NewController().Prepare(ctx, a.cfg.CEC.PowerOn, a.cfg.CEC.HDMIInput)
			}

			events := make(chan cec.RemoteCommand, 10)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				defer close(events)
				return listen(gctx, events)
			})

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Listening for remote presses; Ctrl-C to stop.")
			seen := 0
			for ev := range events {
				fmt.Fprintf(out, "pressed: %s\n", ev)
				seen++
				if count > 0 && seen >= count {
					cancel()
					break
				}
			}
			// drain so the listener never blocks on a full channel
			for range events {
			}

			err := g.Wait()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&prepare, "prepare", false, "Power on the display and switch input first, as configured under cec")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Exit after this many presses; 0 runs until interrupted")
	return cmd
}
