// Package runner coordinates one batch run: it validates the roots, drives
// the dispatcher over the input tree, writes the run ledgers and reports
// the exit status.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/mvp-joe/docsift/internal/classify"
	"github.com/mvp-joe/docsift/internal/config"
	"github.com/mvp-joe/docsift/internal/extract"
	"github.com/mvp-joe/docsift/internal/pipeline"
	"github.com/mvp-joe/docsift/internal/report"
)

// ErrConfig is the fatal configuration error. Nothing is written when a run
// fails with it.
var ErrConfig = config.ErrInvalidConfig

// Process exit codes.
const (
	ExitOK          = 0
	ExitFailures    = 1
	ExitConfigError = 2
)

// Runner runs the pipeline once per Run call.
type Runner struct {
	cfg        *config.Config
	only       []classify.Tag
	registry   *extract.Registry
	fs         afero.Fs
	logger     zerolog.Logger
	progress   pipeline.ProgressReporter
	classifier *classify.Classifier
}

// Option configures a Runner.
type Option func(*Runner)

// WithOnly restricts the run to the given formats, overriding
// discovery.only. Per-format commands use it with a single tag.
func WithOnly(tags ...classify.Tag) Option {
	return func(r *Runner) { r.only = tags }
}

// WithRegistry replaces the production capability registry.
func WithRegistry(reg *extract.Registry) Option {
	return func(r *Runner) { r.registry = reg }
}

// WithFs sets the filesystem artifacts and ledgers are written to.
func WithFs(fs afero.Fs) Option {
	return func(r *Runner) { r.fs = fs }
}

// WithLogger sets the run logger. Every line gets the run id.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithProgress sets the progress reporter.
func WithProgress(p pipeline.ProgressReporter) Option {
	return func(r *Runner) { r.progress = p }
}

// New builds a runner from a validated configuration.
func New(cfg *config.Config, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: no configuration", ErrConfig)
	}
	r := &Runner{
		cfg:      cfg,
		only:     cfg.OnlyTags(),
		fs:       afero.NewOsFs(),
		logger:   zerolog.Nop(),
		progress: &pipeline.NoOpProgressReporter{},
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.registry == nil {
		reg, err := extract.Default(cfg.ExtractOptions())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfig, err)
		}
		r.registry = reg
	}
	r.classifier = classify.New(r.only...)
	return r, nil
}

// Run processes the input tree once. The returned report is finalized
// whenever it is non-nil. Errors are ErrConfig (nothing processed), a
// failed walk of the input root, or context cancellation.
func (r *Runner) Run(ctx context.Context) (*report.Report, error) {
	paths := r.cfg.Paths
	if err := checkRoots(paths.Input, paths.Output); err != nil {
		return nil, err
	}

	rep := report.New()
	logger := r.logger.With().Str("run_id", rep.RunID).Logger()
	logger.Info().
		Str("input", paths.Input).
		Str("output", paths.Output).
		Strs("only", tagNames(r.only)).
		Msg("run started")

	var skip []string
	if paths.Logs != "" {
		skip = append(skip, paths.Logs)
	}
	d := pipeline.NewDispatcher(r.classifier, r.registry,
		pipeline.WithFs(r.fs),
		pipeline.WithLogger(logger),
		pipeline.WithProgress(r.progress),
		pipeline.WithDiscovery(pipeline.DiscoveryOptions{
			IncludeHidden: r.cfg.Discovery.IncludeHidden,
			Ignore:        r.cfg.Discovery.Ignore,
			SkipDirs:      skip,
		}),
	)
	runErr := d.RunInto(ctx, rep, paths.Input, paths.Output)

	if paths.Logs != "" {
		if err := report.WriteLedgers(r.fs, paths.Logs, rep); err != nil {
			logger.Error().Err(err).Msg("write ledgers")
			if runErr == nil {
				runErr = fmt.Errorf("write ledgers: %w", err)
			}
		}
	}

	stats := rep.Counts()
	ev := logger.Info()
	if stats.Failed > 0 || runErr != nil {
		ev = logger.Warn()
	}
	if runErr != nil {
		ev = ev.Err(runErr)
	}
	ev.Int("total", stats.Total).
		Int("succeeded", stats.Succeeded).
		Int("failed", stats.Failed).
		Int("skipped", stats.Skipped).
		Dur("duration", rep.Duration()).
		Msg("run complete")

	return rep, runErr
}

// ExitCode maps a run result to the process exit code: 2 for configuration
// errors, 1 when any file failed or the run stopped early, 0 otherwise.
// A run where every file was skipped is clean.
func ExitCode(rep *report.Report, err error) int {
	switch {
	case errors.Is(err, ErrConfig):
		return ExitConfigError
	case err != nil:
		return ExitFailures
	case rep != nil && rep.HasFailures():
		return ExitFailures
	}
	return ExitOK
}

func checkRoots(input, output string) error {
	for _, root := range []struct{ name, path string }{{"input", input}, {"output", output}} {
		if root.path == "" {
			return fmt.Errorf("%w: %s directory not set", ErrConfig, root.name)
		}
		info, err := os.Stat(root.path)
		if err != nil {
			return fmt.Errorf("%w: %s directory: %v", ErrConfig, root.name, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%w: %s %s is not a directory", ErrConfig, root.name, root.path)
		}
	}

	in, err := filepath.Abs(input)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	out, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if in == out {
		return fmt.Errorf("%w: input and output are the same directory", ErrConfig)
	}
	return nil
}

func tagNames(tags []classify.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, string(t))
	}
	return names
}
