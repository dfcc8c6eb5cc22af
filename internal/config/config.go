package config

import (
	"github.com/mvp-joe/docsift/internal/classify"
	"github.com/mvp-joe/docsift/internal/extract"
)

// Config represents the complete docsift configuration.
// It can be loaded from docsift.yaml with environment variable overrides.
type Config struct {
	Paths      PathsConfig      `yaml:"paths" mapstructure:"paths"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
	Discovery  DiscoveryConfig  `yaml:"discovery" mapstructure:"discovery"`
	Extraction ExtractionConfig `yaml:"extraction" mapstructure:"extraction"`
}

// PathsConfig locates the input tree and the output and log directories.
type PathsConfig struct {
	Input  string `yaml:"input" mapstructure:"input"`   // tree to extract, must exist
	Output string `yaml:"output" mapstructure:"output"` // mirrored artifact tree
	Logs   string `yaml:"logs" mapstructure:"logs"`     // run log and ledgers
}

// LoggingConfig configures the run logger.
type LoggingConfig struct {
	Level   string `yaml:"level" mapstructure:"level"`     // debug, info, warn or error
	Console bool   `yaml:"console" mapstructure:"console"` // also log to stderr
	Format  string `yaml:"format" mapstructure:"format"`   // "console" or "json" on stderr
}

// DiscoveryConfig controls which files the walk yields.
type DiscoveryConfig struct {
	IncludeHidden bool     `yaml:"include_hidden" mapstructure:"include_hidden"`
	Ignore        []string `yaml:"ignore" mapstructure:"ignore"` // glob patterns relative to input
	Only          []string `yaml:"only" mapstructure:"only"`     // format tags; empty means all
}

// ExtractionConfig tunes the format capabilities.
type ExtractionConfig struct {
	MaxFileSizeMB      int          `yaml:"max_file_size_mb" mapstructure:"max_file_size_mb"`
	Encoding           string       `yaml:"encoding" mapstructure:"encoding"` // empty means detect
	IncludeTableHeader bool         `yaml:"include_table_header" mapstructure:"include_table_header"`
	XMLKeepTags        bool         `yaml:"xml_keep_tags" mapstructure:"xml_keep_tags"`
	OCR                OCRConfig    `yaml:"ocr" mapstructure:"ocr"`
	Office             OfficeConfig `yaml:"office" mapstructure:"office"`
}

// OCRConfig configures the tesseract engine used for images.
type OCRConfig struct {
	Binary    string   `yaml:"binary" mapstructure:"binary"`
	Languages []string `yaml:"languages" mapstructure:"languages"`
}

// OfficeConfig configures the converter for legacy Office formats.
type OfficeConfig struct {
	Binary string `yaml:"binary" mapstructure:"binary"`
}

// Default returns a configuration with sensible defaults. Paths have no
// default and must be supplied.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			Format:  "console",
		},
		Discovery: DiscoveryConfig{
			Ignore: []string{
				"**/.git/**",
				"**/__pycache__/**",
				"**/*.tmp",
			},
		},
		Extraction: ExtractionConfig{
			MaxFileSizeMB:      100,
			IncludeTableHeader: true,
			OCR: OCRConfig{
				Binary:    "tesseract",
				Languages: []string{"eng"},
			},
			Office: OfficeConfig{
				Binary: "soffice",
			},
		},
	}
}

// OnlyTags returns the format filter. Unknown names are dropped; Validate
// reports them.
func (c *Config) OnlyTags() []classify.Tag {
	var tags []classify.Tag
	for _, name := range c.Discovery.Only {
		if tag, err := classify.ParseTag(name); err == nil {
			tags = append(tags, tag)
		}
	}
	return tags
}

// ExtractOptions converts the extraction section into capability options.
func (c *Config) ExtractOptions() extract.Options {
	e := c.Extraction
	return extract.Options{
		MaxFileSize:        int64(e.MaxFileSizeMB) * 1024 * 1024,
		Encoding:           e.Encoding,
		IncludeTableHeader: e.IncludeTableHeader,
		XMLKeepTags:        e.XMLKeepTags,
		OCRBinary:          e.OCR.Binary,
		OCRLanguages:       append([]string(nil), e.OCR.Languages...),
		OfficeBinary:       e.Office.Binary,
	}
}
