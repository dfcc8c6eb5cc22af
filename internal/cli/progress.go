package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/docsift/internal/report"
)

// CLIProgressReporter implements progress reporting with a progress bar.
type CLIProgressReporter struct {
	out            io.Writer
	fileBar        *progressbar.ProgressBar
	startTime      time.Time
	totalFiles     int
	processedFiles int
	failedFiles    int
}

// NewCLIProgressReporter creates a new CLI progress reporter writing to out.
func NewCLIProgressReporter(out io.Writer) *CLIProgressReporter {
	return &CLIProgressReporter{
		out:       out,
		startTime: time.Now(),
	}
}

func (c *CLIProgressReporter) OnDiscoveryStart() {
	fmt.Fprintln(c.out, "Discovering files...")
}

func (c *CLIProgressReporter) OnDiscoveryComplete(totalFiles int) {
	c.totalFiles = totalFiles
	c.processedFiles = 0
	fmt.Fprintf(c.out, "Processing %s files\n", formatNumber(totalFiles))

	if totalFiles == 0 {
		return
	}
	c.fileBar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Extracting"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

func (c *CLIProgressReporter) OnFileProcessed(entry report.Entry) {
	c.processedFiles++
	if entry.Outcome == report.OutcomeFailure {
		c.failedFiles++
	}
	if c.fileBar != nil {
		c.fileBar.Add(1)
	}
}

func (c *CLIProgressReporter) OnComplete(stats report.Stats) {
	if c.fileBar != nil {
		c.fileBar.Finish()
		c.fileBar = nil
	}

	mark := "✓"
	if stats.Failed > 0 {
		mark = "✗"
	}
	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "%s Extraction complete: %s files in %.1fs\n",
		mark, formatNumber(stats.Total), time.Since(c.startTime).Seconds())
	fmt.Fprintf(c.out, "  Succeeded: %s\n", formatNumber(stats.Succeeded))
	fmt.Fprintf(c.out, "  Failed:    %s\n", formatNumber(stats.Failed))
	fmt.Fprintf(c.out, "  Skipped:   %s\n", formatNumber(stats.Skipped))
}

func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	// Simple implementation for thousands/millions
	str := fmt.Sprintf("%d", n)
	var result string
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}
