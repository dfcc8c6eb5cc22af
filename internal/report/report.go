// Package report records the outcome of every file seen during a run.
package report

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mvp-joe/docsift/internal/classify"
	"github.com/mvp-joe/docsift/internal/fault"
)

// Outcome is the result of processing one file.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeSkipped Outcome = "skipped"
)

// Entry is the record of one file.
type Entry struct {
	Path     string        `json:"path"`
	RelPath  string        `json:"rel_path"`
	Tag      classify.Tag  `json:"tag"`
	Outcome  Outcome       `json:"outcome"`
	Cause    fault.Cause   `json:"cause,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	Filtered bool          `json:"filtered,omitempty"` // skipped by a format filter, not unsupported
	Elements int           `json:"elements"`
	Duration time.Duration `json:"duration"`
}

// Stats are the per-outcome counts of a report.
type Stats struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
}

// Report accumulates one entry per file. It is append-only until Finalize,
// after which it is read-only.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	mu        sync.Mutex
	entries   []Entry
	finalized bool
}

// New starts a report with a fresh run id.
func New() *Report {
	return &Report{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}
}

// Add appends an entry. Adding to a finalized report is a programming error.
func (r *Report) Add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		panic(fmt.Sprintf("report: Add(%s) after Finalize", e.Path))
	}
	r.entries = append(r.entries, e)
}

// Finalize marks the report complete. Calling it twice is harmless.
func (r *Report) Finalize() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.finalized {
		r.finalized = true
		r.FinishedAt = time.Now()
	}
}

// Finalized reports whether Finalize has been called.
func (r *Report) Finalized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finalized
}

// Entries returns a copy of the entries in insertion order.
func (r *Report) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Counts tallies entries by outcome.
func (r *Report) Counts() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Stats{Total: len(r.entries)}
	for _, e := range r.entries {
		switch e.Outcome {
		case OutcomeSuccess:
			s.Succeeded++
		case OutcomeFailure:
			s.Failed++
		case OutcomeSkipped:
			s.Skipped++
		}
	}
	return s
}

// Failures returns the failed entries in insertion order.
func (r *Report) Failures() []Entry {
	return r.filter(OutcomeFailure)
}

// Skipped returns the skipped entries in insertion order.
func (r *Report) Skipped() []Entry {
	return r.filter(OutcomeSkipped)
}

// Unsupported returns the skipped entries whose format is not supported at
// all, leaving out supported files excluded by a format filter.
func (r *Report) Unsupported() []Entry {
	var out []Entry
	for _, e := range r.Skipped() {
		if !e.Filtered {
			out = append(out, e)
		}
	}
	return out
}

// HasFailures reports whether any file failed.
func (r *Report) HasFailures() bool {
	return r.Counts().Failed > 0
}

// Duration is the wall time of a finalized run.
func (r *Report) Duration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.finalized {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Report) filter(o Outcome) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Entry
	for _, e := range r.entries {
		if e.Outcome == o {
			out = append(out, e)
		}
	}
	return out
}
