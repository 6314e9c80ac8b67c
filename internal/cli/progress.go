package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
)

// Progress renders a counting progress bar for long catalog operations.
type Progress struct {
	bar  *progressbar.ProgressBar
	last int
}

// NewProgress creates a progress bar over total items.
func NewProgress(w io.Writer, total int, description string) *Progress {
	p := &Progress{}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return p
}

// Update moves the bar to done. Its signature matches the progress callbacks
// of the ingest package.
func (p *Progress) Update(done, _ int) {
	if done <= p.last {
		return
	}
	if err := p.bar.Add(done - p.last); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
	p.last = done
}

// Done reports whether the bar reached its total.
func (p *Progress) Done() bool {
	return p.bar.IsFinished()
}
