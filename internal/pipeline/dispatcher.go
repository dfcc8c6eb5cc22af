// Package pipeline walks an input tree and routes every file through
// classification, extraction and output, one file at a time.
package pipeline

import (
	"context"
	"fmt"
	"path"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/mvp-joe/docsift/internal/classify"
	"github.com/mvp-joe/docsift/internal/element"
	"github.com/mvp-joe/docsift/internal/extract"
	"github.com/mvp-joe/docsift/internal/fault"
	"github.com/mvp-joe/docsift/internal/output"
	"github.com/mvp-joe/docsift/internal/report"
)

// Dispatcher processes every discovered file exactly once. A failure in one
// file never affects another: errors and panics are caught at the file
// boundary and recorded in the report.
type Dispatcher struct {
	classifier *classify.Classifier
	registry   *extract.Registry
	fs         afero.Fs
	discovery  DiscoveryOptions
	logger     zerolog.Logger
	progress   ProgressReporter
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithFs sets the filesystem artifacts are written to.
func WithFs(fs afero.Fs) Option {
	return func(d *Dispatcher) { d.fs = fs }
}

// WithDiscovery sets the discovery options.
func WithDiscovery(opts DiscoveryOptions) Option {
	return func(d *Dispatcher) { d.discovery = opts }
}

// WithLogger sets the logger for per-file lines.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithProgress sets the progress reporter.
func WithProgress(p ProgressReporter) Option {
	return func(d *Dispatcher) {
		if p != nil {
			d.progress = p
		}
	}
}

// NewDispatcher returns a dispatcher that writes to the OS filesystem and
// logs nothing unless configured otherwise.
func NewDispatcher(c *classify.Classifier, reg *extract.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		classifier: c,
		registry:   reg,
		fs:         afero.NewOsFs(),
		logger:     zerolog.Nop(),
		progress:   &NoOpProgressReporter{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run processes inputRoot into outputRoot and returns the finalized report.
func (d *Dispatcher) Run(ctx context.Context, inputRoot, outputRoot string) (*report.Report, error) {
	rep := report.New()
	err := d.RunInto(ctx, rep, inputRoot, outputRoot)
	return rep, err
}

// RunInto is Run with a caller-supplied report, so the caller can tag its own
// log lines with the run id before the run starts. The report is finalized
// on return. The only errors are a failed walk of the root and context
// cancellation, which stops the run between files.
func (d *Dispatcher) RunInto(ctx context.Context, rep *report.Report, inputRoot, outputRoot string) error {
	defer rep.Finalize()

	d.progress.OnDiscoveryStart()
	opts := d.discovery
	opts.SkipDirs = append(append([]string(nil), opts.SkipDirs...), outputRoot)
	disc, err := NewDiscovery(inputRoot, opts)
	if err != nil {
		return fmt.Errorf("prepare discovery: %w", err)
	}
	candidates, err := disc.Discover()
	if err != nil {
		return err
	}
	d.progress.OnDiscoveryComplete(len(candidates))
	d.logger.Info().Int("files", len(candidates)).Str("input", inputRoot).Msg("discovery complete")

	writer := output.NewWriter(d.fs, outputRoot)
	stems := newStemTable()

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			d.logger.Warn().Err(err).Msg("run cancelled")
			d.progress.OnComplete(rep.Counts())
			return err
		}
		entry := d.process(ctx, c, writer, stems)
		rep.Add(entry)
		d.logEntry(entry)
		d.progress.OnFileProcessed(entry)
	}

	d.progress.OnComplete(rep.Counts())
	return nil
}

func (d *Dispatcher) process(ctx context.Context, c Candidate, w *output.Writer, stems *stemTable) report.Entry {
	start := time.Now()
	entry := report.Entry{Path: c.Path, RelPath: c.RelPath}
	fail := func(err error, reason string) report.Entry {
		entry.Outcome = report.OutcomeFailure
		entry.Cause = fault.CauseOf(err)
		entry.Reason = reason
		entry.Duration = time.Since(start)
		return entry
	}

	if c.Err != nil {
		return fail(c.Err, c.Err.Error())
	}

	tag, err := d.classifier.Classify(c.Path)
	if err != nil {
		return fail(err, err.Error())
	}
	entry.Tag = tag
	if tag == classify.Unsupported {
		entry.Outcome = report.OutcomeSkipped
		entry.Reason = "unsupported file type"
		if d.classifier.Restricted() && classify.ForExtension(path.Ext(c.RelPath)) != classify.Unsupported {
			entry.Reason = "format not selected"
			entry.Filtered = true
		}
		entry.Duration = time.Since(start)
		return entry
	}

	capability, err := d.registry.Resolve(tag)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", extract.ErrExtraction, err), err.Error())
	}

	elements, err := safeExtract(ctx, capability, tag, c.Path)
	if err != nil {
		return fail(err, extract.Reason(err))
	}
	if len(elements) == 0 {
		d.logger.Warn().Str("path", c.RelPath).Str("tag", string(tag)).Msg("no content extracted")
	}

	if err := w.WriteStem(stems.claim(c.RelPath), elements); err != nil {
		return fail(err, err.Error())
	}

	entry.Outcome = report.OutcomeSuccess
	entry.Elements = len(elements)
	entry.Duration = time.Since(start)
	return entry
}

// safeExtract runs a capability, converting a panic into an extraction error.
func safeExtract(ctx context.Context, c extract.Capability, tag classify.Tag, file string) (els []element.Element, err error) {
	defer func() {
		if r := recover(); r != nil {
			els = nil
			err = &extract.Error{
				Tag:    tag,
				Path:   file,
				Reason: fmt.Sprintf("panic: %v", r),
				Err:    fmt.Errorf("%s", debug.Stack()),
			}
		}
	}()
	return c.Extract(ctx, file)
}

func (d *Dispatcher) logEntry(e report.Entry) {
	var ev *zerolog.Event
	switch e.Outcome {
	case report.OutcomeFailure:
		ev = d.logger.Error().Str("cause", string(e.Cause))
	case report.OutcomeSkipped:
		ev = d.logger.Info()
	default:
		ev = d.logger.Info().Int("elements", e.Elements)
	}
	ev = ev.Str("path", e.RelPath).
		Str("tag", e.Tag.String()).
		Str("outcome", string(e.Outcome)).
		Dur("duration", e.Duration)
	if e.Reason != "" {
		ev = ev.Str("reason", e.Reason)
	}
	ev.Msg("processed file")
}
