package pipeline

import "github.com/mvp-joe/docsift/internal/report"

// ProgressReporter provides callbacks for reporting run progress.
// Implementations can display progress bars, log messages, or remain silent.
type ProgressReporter interface {
	// OnDiscoveryStart is called when file discovery begins.
	OnDiscoveryStart()

	// OnDiscoveryComplete is called when file discovery finishes.
	OnDiscoveryComplete(totalFiles int)

	// OnFileProcessed is called after each file is recorded.
	OnFileProcessed(entry report.Entry)

	// OnComplete is called when every discovered file has been handled.
	OnComplete(stats report.Stats)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryStart()                  {}
func (n *NoOpProgressReporter) OnDiscoveryComplete(totalFiles int) {}
func (n *NoOpProgressReporter) OnFileProcessed(entry report.Entry) {}
func (n *NoOpProgressReporter) OnComplete(stats report.Stats)      {}
