package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable docsift reads.
const EnvPrefix = "DOCSIFT"

// Legacy environment variable names accepted next to DOCSIFT_*.
var envAliases = map[string]string{
	"paths.input":   "LOCAL_FILE_INPUT_DIR",
	"paths.output":  "LOCAL_FILE_OUTPUT_DIR",
	"paths.logs":    "LOG_DIR",
	"logging.level": "LOG_LEVEL",
}

// Loader provides configuration loading capabilities.
type Loader interface {
	// Read merges defaults, config file, environment and overrides without
	// validating the result.
	Read() (*Config, error)

	// Load reads the configuration and validates it.
	// Priority: defaults → config file → environment variables → overrides
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
	overrides  map[string]any
}

// LoaderOption configures a Loader.
type LoaderOption func(*loader)

// WithConfigFile reads an explicit config file instead of searching rootDir.
// A missing explicit file is an error.
func WithConfigFile(path string) LoaderOption {
	return func(l *loader) { l.configFile = path }
}

// WithOverride sets a key (e.g. "paths.input") with the highest priority.
// Command line flags are applied this way.
func WithOverride(key string, value any) LoaderOption {
	return func(l *loader) { l.overrides[key] = value }
}

// NewLoader creates a new configuration loader that searches rootDir for
// docsift.yaml or docsift.yml.
func NewLoader(rootDir string, opts ...LoaderOption) Loader {
	l := &loader{
		rootDir:   rootDir,
		overrides: map[string]any{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Read loads configuration with the following priority (highest to lowest):
// 1. Overrides (command line flags)
// 2. Environment variables (DOCSIFT_*, then the legacy aliases)
// 3. Config file (docsift.yaml in rootDir, or the explicit file)
// 4. Default values
func (l *loader) Read() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("docsift")
		v.SetConfigType("yaml")
		v.AddConfigPath(l.rootDir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., DOCSIFT_PATHS_INPUT)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range envKeys {
		names := []string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}
		if alias, ok := envAliases[key]; ok {
			names = append(names, alias)
		}
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable when searching
		var notFound viper.ConfigFileNotFoundError
		if l.configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: failed to read config file: %v", ErrInvalidConfig, err)
		}
	}

	for key, value := range l.overrides {
		v.Set(key, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal config: %v", ErrInvalidConfig, err)
	}

	return cfg, nil
}

func (l *loader) Load() (*Config, error) {
	cfg, err := l.Read()
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKeys are the config keys that can be set from the environment.
var envKeys = []string{
	"paths.input",
	"paths.output",
	"paths.logs",
	"logging.level",
	"logging.console",
	"logging.format",
	"discovery.include_hidden",
	"discovery.ignore",
	"discovery.only",
	"extraction.max_file_size_mb",
	"extraction.encoding",
	"extraction.include_table_header",
	"extraction.xml_keep_tags",
	"extraction.ocr.binary",
	"extraction.ocr.languages",
	"extraction.office.binary",
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("paths.input", defaults.Paths.Input)
	v.SetDefault("paths.output", defaults.Paths.Output)
	v.SetDefault("paths.logs", defaults.Paths.Logs)

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.console", defaults.Logging.Console)
	v.SetDefault("logging.format", defaults.Logging.Format)

	v.SetDefault("discovery.include_hidden", defaults.Discovery.IncludeHidden)
	v.SetDefault("discovery.ignore", defaults.Discovery.Ignore)
	v.SetDefault("discovery.only", defaults.Discovery.Only)

	v.SetDefault("extraction.max_file_size_mb", defaults.Extraction.MaxFileSizeMB)
	v.SetDefault("extraction.encoding", defaults.Extraction.Encoding)
	v.SetDefault("extraction.include_table_header", defaults.Extraction.IncludeTableHeader)
	v.SetDefault("extraction.xml_keep_tags", defaults.Extraction.XMLKeepTags)
	v.SetDefault("extraction.ocr.binary", defaults.Extraction.OCR.Binary)
	v.SetDefault("extraction.ocr.languages", defaults.Extraction.OCR.Languages)
	v.SetDefault("extraction.office.binary", defaults.Extraction.Office.Binary)
}
