package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/docsift/internal/classify"
)

// Test Plan for Config System:
// - Default() carries the documented defaults and only lacks paths
// - Load() uses defaults when no config file exists
// - Load() loads from docsift.yaml / docsift.yml and merges with defaults
// - An explicit config file that is missing is an error
// - DOCSIFT_* environment variables override the config file
// - The legacy LOCAL_FILE_INPUT_DIR / LOCAL_FILE_OUTPUT_DIR / LOG_DIR / LOG_LEVEL
//   variables are honoured, and DOCSIFT_* wins over them
// - Overrides (flags) win over everything
// - Comma separated env lists become slices
// - Malformed YAML and invalid values match ErrInvalidConfig
// - Validate() reports every problem at once
// - ExtractOptions() converts megabytes and copies settings
// - EnsureDirs() creates output/logs and rejects a missing input

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := Default()
	dir := t.TempDir()
	cfg.Paths = PathsConfig{
		Input:  filepath.Join(dir, "in"),
		Output: filepath.Join(dir, "out"),
		Logs:   filepath.Join(dir, "logs"),
	}
	return cfg
}

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault_ReturnsExpectedValues(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Console)
	assert.Equal(t, "console", cfg.Logging.Format)

	assert.False(t, cfg.Discovery.IncludeHidden)
	assert.Contains(t, cfg.Discovery.Ignore, "**/.git/**")
	assert.Empty(t, cfg.Discovery.Only)

	assert.Equal(t, 100, cfg.Extraction.MaxFileSizeMB)
	assert.True(t, cfg.Extraction.IncludeTableHeader)
	assert.False(t, cfg.Extraction.XMLKeepTags)
	assert.Equal(t, "tesseract", cfg.Extraction.OCR.Binary)
	assert.Equal(t, []string{"eng"}, cfg.Extraction.OCR.Languages)
	assert.Equal(t, "soffice", cfg.Extraction.Office.Binary)

	// Paths have no defaults
	err := Validate(cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorContains(t, err, "paths.input is required")
}

func TestLoad_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := NewLoader(dir,
		WithOverride("paths.input", "/in"),
		WithOverride("paths.output", "/out"),
		WithOverride("paths.logs", "/logs"),
	).Load()
	require.NoError(t, err)

	expected := Default()
	assert.Equal(t, expected.Extraction, cfg.Extraction)
	assert.Equal(t, expected.Discovery.Ignore, cfg.Discovery.Ignore)
	assert.Equal(t, "/in", cfg.Paths.Input)
}

func TestLoad_FromConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "docsift.yaml", `
paths:
  input: /data/in
  output: /data/out
  logs: /data/logs
logging:
  level: debug
discovery:
  include_hidden: true
  ignore: ["**/drafts/**"]
  only: [pdf, csv]
extraction:
  max_file_size_mb: 5
  include_table_header: false
  ocr:
    languages: [eng, deu]
`)

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, PathsConfig{Input: "/data/in", Output: "/data/out", Logs: "/data/logs"}, cfg.Paths)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Console, "unset keys keep defaults")
	assert.True(t, cfg.Discovery.IncludeHidden)
	assert.Equal(t, []string{"**/drafts/**"}, cfg.Discovery.Ignore)
	assert.Equal(t, []classify.Tag{classify.TagPDF, classify.TagCSV}, cfg.OnlyTags())
	assert.Equal(t, 5, cfg.Extraction.MaxFileSizeMB)
	assert.False(t, cfg.Extraction.IncludeTableHeader)
	assert.Equal(t, []string{"eng", "deu"}, cfg.Extraction.OCR.Languages)
	assert.Equal(t, "tesseract", cfg.Extraction.OCR.Binary)
}

func TestLoad_FromYmlExtension(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "docsift.yml", `
paths: {input: /a, output: /b, logs: /c}
`)

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, "/a", cfg.Paths.Input)
}

func TestLoad_ExplicitConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "custom.yaml", `
paths: {input: /x, output: /y, logs: /z}
extraction: {xml_keep_tags: true}
`)

	cfg, err := NewLoader(t.TempDir(), WithConfigFile(path)).Load()
	require.NoError(t, err)
	assert.Equal(t, "/x", cfg.Paths.Input)
	assert.True(t, cfg.Extraction.XMLKeepTags)

	_, err = NewLoader(dir, WithConfigFile(filepath.Join(dir, "missing.yaml"))).Load()
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_EnvironmentOverridesConfigFile(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	dir := t.TempDir()
	writeConfig(t, dir, "docsift.yaml", `
paths: {input: /file/in, output: /file/out, logs: /file/logs}
logging: {level: error}
`)

	t.Setenv("DOCSIFT_PATHS_INPUT", "/env/in")
	t.Setenv("DOCSIFT_LOGGING_LEVEL", "warn")
	t.Setenv("DOCSIFT_EXTRACTION_MAX_FILE_SIZE_MB", "7")
	t.Setenv("DOCSIFT_DISCOVERY_ONLY", "pdf,doc")

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, "/env/in", cfg.Paths.Input)
	assert.Equal(t, "/file/out", cfg.Paths.Output)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 7, cfg.Extraction.MaxFileSizeMB)
	assert.Equal(t, []string{"pdf", "doc"}, cfg.Discovery.Only)
}

func TestLoad_LegacyEnvironmentAliases(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	t.Setenv("LOCAL_FILE_INPUT_DIR", "/legacy/in")
	t.Setenv("LOCAL_FILE_OUTPUT_DIR", "/legacy/out")
	t.Setenv("LOG_DIR", "/legacy/logs")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("DOCSIFT_PATHS_OUTPUT", "/new/out")

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)

	assert.Equal(t, "/legacy/in", cfg.Paths.Input)
	assert.Equal(t, "/new/out", cfg.Paths.Output, "DOCSIFT_* wins over the alias")
	assert.Equal(t, "/legacy/logs", cfg.Paths.Logs)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
}

func TestLoad_OverridesWinOverEnvironment(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	t.Setenv("DOCSIFT_PATHS_INPUT", "/env/in")
	t.Setenv("DOCSIFT_PATHS_OUTPUT", "/env/out")
	t.Setenv("DOCSIFT_PATHS_LOGS", "/env/logs")

	cfg, err := NewLoader(t.TempDir(), WithOverride("paths.input", "/flag/in")).Load()
	require.NoError(t, err)
	assert.Equal(t, "/flag/in", cfg.Paths.Input)
	assert.Equal(t, "/env/out", cfg.Paths.Output)
}

func TestLoad_ReturnsErrorForMalformedYaml(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "docsift.yaml", "paths: [unclosed\n  input: :")

	_, err := NewLoader(dir).Load()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoad_ReturnsErrorForInvalidValues(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "docsift.yaml", `
paths: {input: /a, output: /b, logs: /c}
logging: {level: chatty}
`)

	_, err := NewLoader(dir).Load()
	require.ErrorIs(t, err, ErrInvalidConfig)
	require.ErrorIs(t, err, ErrInvalidLogLevel)

	// Read does not validate
	cfg, err := NewLoader(dir).Read()
	require.NoError(t, err)
	assert.Equal(t, "chatty", cfg.Logging.Level)
}

func TestValidate_AcceptsValidConfiguration(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Validate(validConfig(t)))
}

func TestValidate_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		target error
		msg    string
	}{
		{"missing output", func(c *Config) { c.Paths.Output = "  " }, ErrMissingPath, "paths.output"},
		{"unknown level", func(c *Config) { c.Logging.Level = "trace" }, ErrInvalidLogLevel, "trace"},
		{"unknown format tag", func(c *Config) { c.Discovery.Only = []string{"pdf", "pages"} }, ErrUnknownFormat, "pages"},
		{"bad glob", func(c *Config) { c.Discovery.Ignore = []string{"[unclosed"} }, ErrInvalidPattern, "[unclosed"},
		{"negative size", func(c *Config) { c.Extraction.MaxFileSizeMB = -1 }, ErrInvalidExtraction, "max_file_size_mb"},
		{"unknown encoding", func(c *Config) { c.Extraction.Encoding = "klingon-8" }, ErrInvalidExtraction, "klingon-8"},
		{"no ocr languages", func(c *Config) { c.Extraction.OCR.Languages = nil }, ErrInvalidExtraction, "ocr.languages"},
		{"no office binary", func(c *Config) { c.Extraction.Office.Binary = "" }, ErrInvalidExtraction, "office.binary"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := Validate(cfg)
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.ErrorIs(t, err, tt.target)
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestValidate_ReturnsMultipleErrorsForMultipleInvalidFields(t *testing.T) {
	t.Parallel()

	cfg := validConfig(t)
	cfg.Paths.Input = ""
	cfg.Logging.Level = "loud"
	cfg.Extraction.MaxFileSizeMB = -5

	err := Validate(cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorContains(t, err, "validation failed")
	assert.ErrorContains(t, err, "paths.input is required")
	assert.ErrorContains(t, err, "loud")
	assert.ErrorContains(t, err, "max_file_size_mb")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
		"Warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
	} {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("fatal")
	assert.ErrorIs(t, err, ErrInvalidLogLevel)
}

func TestExtractOptions(t *testing.T) {
	t.Parallel()

	cfg := validConfig(t)
	cfg.Extraction.MaxFileSizeMB = 3
	cfg.Extraction.Encoding = "latin1"
	cfg.Extraction.OCR.Languages = []string{"eng", "fra"}

	opts := cfg.ExtractOptions()
	assert.Equal(t, int64(3*1024*1024), opts.MaxFileSize)
	assert.Equal(t, "latin1", opts.Encoding)
	assert.True(t, opts.IncludeTableHeader)
	assert.Equal(t, []string{"eng", "fra"}, opts.OCRLanguages)
	assert.Equal(t, "soffice", opts.OfficeBinary)

	opts.OCRLanguages[0] = "changed"
	assert.Equal(t, "eng", cfg.Extraction.OCR.Languages[0])
}

func TestEnsureDirs(t *testing.T) {
	t.Parallel()

	cfg := validConfig(t)
	require.ErrorIs(t, EnsureDirs(cfg), ErrInvalidConfig, "input must exist")

	require.NoError(t, os.MkdirAll(cfg.Paths.Input, 0755))
	require.NoError(t, EnsureDirs(cfg))
	assert.DirExists(t, cfg.Paths.Output)
	assert.DirExists(t, cfg.Paths.Logs)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	cfg.Paths.Input = file
	assert.ErrorIs(t, EnsureDirs(cfg), ErrInvalidConfig)
}
