// Package progress builds the terminal progress bars shown by long batch
// jobs.
package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// New returns a bar counting to max on w. A nil w gives an invisible bar so
// callers never need to nil-check.
func New(w io.Writer, max int, description string) *progressbar.ProgressBar {
	if w == nil {
		return progressbar.NewOptions64(int64(max), progressbar.OptionSetVisibility(false))
	}
	return progressbar.NewOptions64(
		int64(max),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(10),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
	)
}
