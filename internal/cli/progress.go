package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
)

// Progress renders bulk progress reported as (done, total) pairs.
type Progress struct {
	bar    *progressbar.ProgressBar
	writer io.Writer
	title  string
}

// NewProgress creates a progress renderer. The bar is sized on the first
// report, since bulk jobs learn their total only after loading.
func NewProgress(writer io.Writer, title string) *Progress {
	return &Progress{writer: writer, title: title}
}

// Report moves the bar to done out of total.
func (p *Progress) Report(done, total int) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.writer),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("[cyan][bold]"+p.title+"[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				if _, err := fmt.Fprintln(p.writer); err != nil {
					slog.Warn("Failed to write newline after progress bar", "error", err)
				}
			}),
		)
	}
	if err := p.bar.Set(done); err != nil {
		slog.Debug("Failed to update progress bar", "error", err)
	}
}

// Started reports whether any progress was rendered.
func (p *Progress) Started() bool {
	return p.bar != nil
}
