// Package logging builds the run logger: a console writer on stderr and a
// per-run file in the log directory.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mvp-joe/docsift/internal/config"
)

// FileLayout is the timestamp layout of the per-run log file name.
const FileLayout = "2006-01-02_15-04-05"

// FileName returns the log file name for a run started at t.
func FileName(t time.Time) string {
	return "processing_" + t.Format(FileLayout) + ".log"
}

// RunLog is a logger that also owns its log file.
type RunLog struct {
	zerolog.Logger
	Path string
	file *os.File
}

// Open creates <dir>/processing_<timestamp>.log and returns a logger writing
// JSON lines to it. When cfg.Console is set, lines also go to stderr, as a
// console writer unless cfg.Format is "json". Errors match
// config.ErrInvalidConfig.
func Open(cfg config.LoggingConfig, dir string, stderr io.Writer, started time.Time) (*RunLog, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	path := filepath.Join(dir, FileName(started))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: open log file: %v", config.ErrInvalidConfig, err)
	}

	writers := []io.Writer{f}
	if cfg.Console && stderr != nil {
		if strings.EqualFold(cfg.Format, "json") {
			writers = append(writers, stderr)
		} else {
			writers = append(writers, zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339})
		}
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().Logger()

	return &RunLog{Logger: logger, Path: path, file: f}, nil
}

// Close closes the log file.
func (l *RunLog) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
