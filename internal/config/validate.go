package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gobwas/glob"
	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"

	"github.com/mvp-joe/docsift/internal/classify"
)

var (
	// ErrInvalidConfig is returned for any configuration problem. A run
	// never starts with an invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMissingPath indicates a required directory was not configured
	ErrMissingPath = errors.New("missing path")

	// ErrInvalidLogLevel indicates an unknown log level
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrUnknownFormat indicates an unknown tag in discovery.only
	ErrUnknownFormat = errors.New("unknown format")

	// ErrInvalidPattern indicates an ignore glob that does not compile
	ErrInvalidPattern = errors.New("invalid ignore pattern")

	// ErrInvalidExtraction indicates invalid extraction settings
	ErrInvalidExtraction = errors.New("invalid extraction settings")
)

// Validate checks that the configuration is valid and complete. Every
// problem is reported; the result matches ErrInvalidConfig.
func Validate(cfg *Config) error {
	var errs []error

	if err := validatePaths(&cfg.Paths); err != nil {
		errs = append(errs, err)
	}

	if err := validateLogging(&cfg.Logging); err != nil {
		errs = append(errs, err)
	}

	if err := validateDiscovery(&cfg.Discovery); err != nil {
		errs = append(errs, err)
	}

	if err := validateExtraction(&cfg.Extraction); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, joinErrors(errs))
	}

	return nil
}

func validatePaths(cfg *PathsConfig) error {
	var errs []error

	for _, p := range []struct{ name, value string }{
		{"input", cfg.Input},
		{"output", cfg.Output},
		{"logs", cfg.Logs},
	} {
		if strings.TrimSpace(p.value) == "" {
			errs = append(errs, fmt.Errorf("%w: paths.%s is required", ErrMissingPath, p.name))
		}
	}

	return joinErrors(errs)
}

// ParseLevel maps a configured level name to a zerolog level.
func ParseLevel(name string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	}
	return zerolog.NoLevel, fmt.Errorf("%w: must be debug, info, warn or error, got '%s'", ErrInvalidLogLevel, name)
}

func validateLogging(cfg *LoggingConfig) error {
	var errs []error

	if _, err := ParseLevel(cfg.Level); err != nil {
		errs = append(errs, err)
	}

	format := strings.ToLower(cfg.Format)
	if format != "" && format != "console" && format != "json" {
		errs = append(errs, fmt.Errorf("unknown log format: %s (valid: console, json)", cfg.Format))
	}

	return joinErrors(errs)
}

func validateDiscovery(cfg *DiscoveryConfig) error {
	var errs []error

	for _, name := range cfg.Only {
		if _, err := classify.ParseTag(name); err != nil {
			errs = append(errs, fmt.Errorf("%w: '%s'", ErrUnknownFormat, name))
		}
	}

	for _, pattern := range cfg.Ignore {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: '%s': %v", ErrInvalidPattern, pattern, err))
		}
	}

	return joinErrors(errs)
}

func validateExtraction(cfg *ExtractionConfig) error {
	var errs []error

	if cfg.MaxFileSizeMB < 0 {
		errs = append(errs, fmt.Errorf("%w: max_file_size_mb cannot be negative, got %d", ErrInvalidExtraction, cfg.MaxFileSizeMB))
	}

	if cfg.Encoding != "" && !knownEncoding(cfg.Encoding) {
		errs = append(errs, fmt.Errorf("%w: unknown encoding '%s'", ErrInvalidExtraction, cfg.Encoding))
	}

	if len(cfg.OCR.Languages) == 0 {
		errs = append(errs, fmt.Errorf("%w: ocr.languages needs at least one language", ErrInvalidExtraction))
	}

	if strings.TrimSpace(cfg.OCR.Binary) == "" {
		errs = append(errs, fmt.Errorf("%w: ocr.binary is required", ErrInvalidExtraction))
	}

	if strings.TrimSpace(cfg.Office.Binary) == "" {
		errs = append(errs, fmt.Errorf("%w: office.binary is required", ErrInvalidExtraction))
	}

	return joinErrors(errs)
}

func knownEncoding(name string) bool {
	enc, _ := charset.Lookup(name)
	return enc != nil
}

// EnsureDirs creates the output and log directories. The input directory
// must already exist.
func EnsureDirs(cfg *Config) error {
	info, err := os.Stat(cfg.Paths.Input)
	if err != nil {
		return fmt.Errorf("%w: input directory: %v", ErrInvalidConfig, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: input %s is not a directory", ErrInvalidConfig, cfg.Paths.Input)
	}

	for _, dir := range []string{cfg.Paths.Output, cfg.Paths.Logs} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: create %s: %v", ErrInvalidConfig, dir, err)
		}
	}
	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
