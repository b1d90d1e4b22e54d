package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bekharsky/el-cabanyal-tiles/internal/convert"
	"github.com/bekharsky/el-cabanyal-tiles/internal/photo"
)

func newConvertCmd(a *app) *cobra.Command {
	var (
		input      string
		thumbnails string
		markers    string
		manifest   string
		recursive  bool
		workers    int
		quiet      bool
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Generate thumbnails, markers and the manifest",
		Long: `Scans the input directory for JPEG photos with GPS data, writes a thumbnail
and a pin marker for each, and records them in the manifest. Photos without
GPS data are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := convert.OptionsFromConfig(a.cfg)
			flags := cmd.Flags()
			if flags.Changed("input") {
				opts.InputDir = input
			}
			if flags.Changed("thumbnails") {
				opts.ThumbnailDir = thumbnails
			}
			if flags.Changed("markers") {
				opts.MarkerDir = markers
			}
			if flags.Changed("manifest") {
				opts.Manifest = manifest
			}
			if flags.Changed("recursive") {
				opts.Recursive = recursive
			}
			if flags.Changed("workers") {
				if workers < 1 {
					return fmt.Errorf("--workers must be at least 1, got %d", workers)
				}
				opts.Workers = workers
			}
			if !quiet {
				opts.Progress = cmd.ErrOrStderr()
			}
			if !noCache {
				path, err := photo.DefaultCachePath()
				if err != nil {
					return err
				}
				opts.CachePath = path
			}

			res, err := convert.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d entries to %s (%d skipped without GPS, %d failed)\n",
				len(res.Entries), opts.Manifest, res.Skipped, res.Failed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Directory of source photos")
	cmd.Flags().StringVar(&thumbnails, "thumbnails", "", "Thumbnail output directory")
	cmd.Flags().StringVar(&markers, "markers", "", "Marker output directory")
	cmd.Flags().StringVarP(&manifest, "manifest", "m", "", "Manifest file to write")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Descend into subdirectories")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of worker goroutines")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Hide the progress bar")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Re-read EXIF from every photo instead of using ~/.cabanyal/photo_metadata_cache.json")
	return cmd
}
