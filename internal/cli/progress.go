package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/big-brother/internal/scan"
)

// scanProgress draws a file progress bar for a scan.
type scanProgress struct {
	quiet bool
	out   io.Writer
	bar   *progressbar.ProgressBar
}

func newScanProgress(out io.Writer, quiet bool) *scanProgress {
	return &scanProgress{quiet: quiet, out: out}
}

// Func returns the callback handed to the scanner; nil when quiet.
func (p *scanProgress) Func() scan.ProgressFunc {
	if p.quiet {
		return nil
	}
	return func(done, total int) {
		if p.bar == nil {
			p.bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(p.out),
				progressbar.OptionSetDescription("Scanning files"),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetItsString("files/s"),
				progressbar.OptionThrottle(65*time.Millisecond),
				progressbar.OptionClearOnFinish(),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprint(p.out, "\r")
				}),
			)
		}
		_ = p.bar.Set(done)
	}
}

// Finish completes the bar if one was drawn.
func (p *scanProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}
