package report

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/docsift/internal/classify"
	"github.com/mvp-joe/docsift/internal/fault"
)

// Test Plan for Report:
// - entries keep insertion order and counts add up to Total
// - Failures/Skipped filter by outcome, HasFailures follows failures only
// - Add after Finalize panics; Finalize is idempotent
// - run ids are UUIDs
// - ledgers: unsupported list rewritten per run, failures appended
// - files left out by a format filter are skipped but not unsupported

func populated() *Report {
	r := New()
	r.Add(Entry{Path: "/in/a.txt", RelPath: "a.txt", Tag: classify.TagText, Outcome: OutcomeSuccess, Elements: 3})
	r.Add(Entry{Path: "/in/b.pdf", RelPath: "b.pdf", Tag: classify.TagPDF, Outcome: OutcomeFailure, Cause: fault.CauseExtraction, Reason: "encrypted"})
	r.Add(Entry{Path: "/in/c.xyz", RelPath: "c.xyz", Outcome: OutcomeSkipped})
	return r
}

func TestReport_Counts(t *testing.T) {
	t.Parallel()

	r := populated()
	assert.Equal(t, Stats{Total: 3, Succeeded: 1, Failed: 1, Skipped: 1}, r.Counts())
	assert.True(t, r.HasFailures())

	failures := r.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "b.pdf", failures[0].RelPath)
	assert.Equal(t, fault.CauseExtraction, failures[0].Cause)

	skipped := r.Skipped()
	require.Len(t, skipped, 1)
	assert.Equal(t, classify.Unsupported, skipped[0].Tag)

	var order []string
	for _, e := range r.Entries() {
		order = append(order, e.RelPath)
	}
	assert.Equal(t, []string{"a.txt", "b.pdf", "c.xyz"}, order)
}

func TestReport_SkippedOnlyIsClean(t *testing.T) {
	t.Parallel()

	r := New()
	r.Add(Entry{Path: "/in/x.bin", Outcome: OutcomeSkipped})
	r.Finalize()
	assert.False(t, r.HasFailures())
	assert.Equal(t, Stats{Total: 1, Skipped: 1}, r.Counts())
}

func TestReport_Finalize(t *testing.T) {
	t.Parallel()

	r := populated()
	assert.False(t, r.Finalized())
	r.Finalize()
	finished := r.FinishedAt
	r.Finalize()

	assert.True(t, r.Finalized())
	assert.Equal(t, finished, r.FinishedAt)
	assert.False(t, r.FinishedAt.Before(r.StartedAt))
	assert.GreaterOrEqual(t, int64(r.Duration()), int64(0))
	assert.Panics(t, func() { r.Add(Entry{Path: "/in/late.txt"}) })
	assert.Len(t, r.Entries(), 3)
}

func TestReport_RunID(t *testing.T) {
	t.Parallel()

	a, b := New(), New()
	_, err := uuid.Parse(a.RunID)
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestWriteLedgers_FilteredNotUnsupported(t *testing.T) {
	t.Parallel()

	r := New()
	r.Add(Entry{Path: "/in/a.pdf", Tag: classify.TagPDF, Outcome: OutcomeSuccess})
	r.Add(Entry{Path: "/in/b.txt", Outcome: OutcomeSkipped, Reason: "format not selected", Filtered: true})
	r.Add(Entry{Path: "/in/c.xyz", Outcome: OutcomeSkipped, Reason: "unsupported file type"})
	r.Finalize()

	assert.Len(t, r.Skipped(), 2)
	unsupportedEntries := r.Unsupported()
	require.Len(t, unsupportedEntries, 1)
	assert.Equal(t, "/in/c.xyz", unsupportedEntries[0].Path)

	fs := afero.NewMemMapFs()
	require.NoError(t, WriteLedgers(fs, "/logs", r))
	unsupported, err := afero.ReadFile(fs, filepath.Join("/logs", UnsupportedLedger))
	require.NoError(t, err)
	assert.Equal(t, "/in/c.xyz\n", string(unsupported))
}

func TestWriteLedgers(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	logDir := "/logs"

	r := populated()
	r.Finalize()
	require.NoError(t, WriteLedgers(fs, logDir, r))

	unsupported, err := afero.ReadFile(fs, filepath.Join(logDir, UnsupportedLedger))
	require.NoError(t, err)
	assert.Equal(t, "/in/c.xyz\n", string(unsupported))

	failed, err := afero.ReadFile(fs, filepath.Join(logDir, FailedLedger))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(failed), r.RunID+" /in/b.pdf: encrypted\n"), string(failed))

	// A second clean run rewrites the unsupported list and leaves failures alone.
	clean := New()
	clean.Add(Entry{Path: "/in/a.txt", Outcome: OutcomeSuccess})
	clean.Finalize()
	require.NoError(t, WriteLedgers(fs, logDir, clean))

	unsupported, err = afero.ReadFile(fs, filepath.Join(logDir, UnsupportedLedger))
	require.NoError(t, err)
	assert.Empty(t, string(unsupported))

	again, err := afero.ReadFile(fs, filepath.Join(logDir, FailedLedger))
	require.NoError(t, err)
	assert.Equal(t, string(failed), string(again))

	// Failures accumulate across runs.
	require.NoError(t, WriteLedgers(fs, logDir, r))
	again, err = afero.ReadFile(fs, filepath.Join(logDir, FailedLedger))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(again), "/in/b.pdf"))
}
