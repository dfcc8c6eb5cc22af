package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/docsift/internal/classify"
	"github.com/mvp-joe/docsift/internal/config"
	"github.com/mvp-joe/docsift/internal/logging"
	"github.com/mvp-joe/docsift/internal/pipeline"
	"github.com/mvp-joe/docsift/internal/runner"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract every supported file in the input directory",
	Long: `Run processes the whole input tree once.

Examples:
  # Extract everything using ./docsift.yaml
  docsift run

  # Explicit directories, PDFs and Word documents only
  docsift run -i ./docs -o ./extracted --logs ./logs --only pdf,doc

  # Using the legacy environment variables
  LOCAL_FILE_INPUT_DIR=./in LOCAL_FILE_OUTPUT_DIR=./out LOG_DIR=./logs docsift run
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtraction(cmd, classify.Unsupported)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringSliceVar(&flags.only, "only", nil, "comma separated formats to process (see 'docsift formats')")

	for _, tag := range classify.All() {
		rootCmd.AddCommand(formatCommand(tag))
	}
}

// formatCommand is the per-format entry point: a run restricted to tag.
func formatCommand(tag classify.Tag) *cobra.Command {
	return &cobra.Command{
		Use:   string(tag),
		Short: fmt.Sprintf("Extract only %s files (%s)", tag, strings.Join(tag.Extensions(), " ")),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtraction(cmd, tag)
		},
	}
}

func runExtraction(cmd *cobra.Command, only classify.Tag) error {
	// Set up context with cancellation for Ctrl+C
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(cmd.ErrOrStderr(), "\nInterrupted! Stopping after the current file...")
			cancel()
		case <-ctx.Done():
		}
	}()

	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	return exitWith(executeRun(ctx, rootDir, flags, only, cmd.OutOrStdout(), cmd.ErrOrStderr()))
}

// executeRun loads the configuration, runs once and returns the exit code.
// A tag other than Unsupported restricts the run to that format.
func executeRun(ctx context.Context, rootDir string, f globalFlags, only classify.Tag, stdout, stderr io.Writer) int {
	cfg, err := config.NewLoader(rootDir, f.loaderOptions()...).Load()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return runner.ExitCode(nil, err)
	}

	if err := config.EnsureDirs(cfg); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return runner.ExitCode(nil, err)
	}

	runLog, err := logging.Open(cfg.Logging, cfg.Paths.Logs, stderr, time.Now())
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return runner.ExitCode(nil, err)
	}
	defer runLog.Close()

	var progress pipeline.ProgressReporter = &pipeline.NoOpProgressReporter{}
	if !f.quiet {
		progress = NewCLIProgressReporter(stdout)
	}

	opts := []runner.Option{
		runner.WithLogger(runLog.Logger),
		runner.WithProgress(progress),
	}
	if only != classify.Unsupported {
		opts = append(opts, runner.WithOnly(only))
	}

	r, err := runner.New(cfg, opts...)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return runner.ExitCode(nil, err)
	}

	rep, err := r.Run(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
	}
	if rep != nil && rep.HasFailures() {
		fmt.Fprintf(stderr, "%d file(s) failed, see %s\n", rep.Counts().Failed, runLog.Path)
	}
	return runner.ExitCode(rep, err)
}
