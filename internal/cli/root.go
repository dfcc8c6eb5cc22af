package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/docsift/internal/config"
	"github.com/mvp-joe/docsift/internal/runner"
)

// globalFlags holds the persistent flags. Empty values leave the
// configuration untouched.
type globalFlags struct {
	configFile string
	input      string
	output     string
	logs       string
	logLevel   string
	quiet      bool
	only       []string
}

var flags globalFlags

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "docsift",
	Short: "docsift - extract text and structure from document trees",
	Long: `docsift walks an input directory, detects each file's format by extension,
extracts its content as typed elements and writes three artifacts per file
into a mirrored output tree:

  <name>.txt            plain text, one element per line
  <name>.json           elements with kind, text and metadata
  <name>_annotated.txt  "[Kind] text" per element

Files that cannot be read or parsed are logged and skipped; the rest of the
run continues. The exit code is 0 for a clean run, 1 when any file failed
and 2 for configuration errors.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func exitWith(code int) error {
	if code == runner.ExitOK {
		return nil
	}
	return &exitError{code: code}
}

// Execute runs the root command and returns the process exit code.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return runner.ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return runner.ExitConfigError
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "config file (default is ./docsift.yaml)")
	pf.StringVarP(&flags.input, "input", "i", "", "input directory (env DOCSIFT_PATHS_INPUT or LOCAL_FILE_INPUT_DIR)")
	pf.StringVarP(&flags.output, "output", "o", "", "output directory (env DOCSIFT_PATHS_OUTPUT or LOCAL_FILE_OUTPUT_DIR)")
	pf.StringVar(&flags.logs, "logs", "", "log directory (env DOCSIFT_PATHS_LOGS or LOG_DIR)")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "disable the progress bar and console logging")
}

// loaderOptions turns the flags into highest-priority config overrides.
func (f globalFlags) loaderOptions() []config.LoaderOption {
	var opts []config.LoaderOption
	if f.configFile != "" {
		opts = append(opts, config.WithConfigFile(f.configFile))
	}
	for key, value := range map[string]string{
		"paths.input":   f.input,
		"paths.output":  f.output,
		"paths.logs":    f.logs,
		"logging.level": f.logLevel,
	} {
		if value != "" {
			opts = append(opts, config.WithOverride(key, value))
		}
	}
	if f.quiet {
		opts = append(opts, config.WithOverride("logging.console", false))
	}
	if len(f.only) > 0 {
		opts = append(opts, config.WithOverride("discovery.only", f.only))
	}
	return opts
}
