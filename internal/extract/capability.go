// Package extract converts files into ordered element sequences.
//
// Each supported format has one Capability. Capabilities are thin wrappers
// around a parsing library or an external tool; they return either the full
// element sequence for a file or an error, never a partial sequence.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mvp-joe/docsift/internal/classify"
	"github.com/mvp-joe/docsift/internal/element"
	"github.com/mvp-joe/docsift/internal/fault"
)

// Capability extracts the elements of a single file.
type Capability interface {
	Extract(ctx context.Context, path string) ([]element.Element, error)
}

// Func adapts a function to the Capability interface.
type Func func(ctx context.Context, path string) ([]element.Element, error)

// Extract calls f.
func (f Func) Extract(ctx context.Context, path string) ([]element.Element, error) {
	return f(ctx, path)
}

// ErrExtraction is the sentinel every extraction failure matches.
var ErrExtraction = fault.ErrExtraction

// Error describes why a capability could not extract a file.
type Error struct {
	Tag    classify.Tag
	Path   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s extraction of %s: %s: %v", e.Tag, e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s extraction of %s: %s", e.Tag, e.Path, e.Reason)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrExtraction}
	}
	return []error{ErrExtraction, e.Err}
}

// failf builds an *Error for tag with a formatted reason.
func failf(tag classify.Tag, path string, err error, format string, args ...any) error {
	return &Error{Tag: tag, Path: path, Reason: fmt.Sprintf(format, args...), Err: err}
}

// Reason returns the short human-readable reason recorded for err.
func Reason(err error) string {
	var xe *Error
	if errors.As(err, &xe) {
		return xe.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// readFile reads path, enforcing the configured size cap. Read failures are
// IO errors, oversize files are extraction failures.
func readFile(tag classify.Tag, path string, maxSize int64) ([]byte, error) {
	if err := checkSize(tag, path, maxSize); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.IO("read", path, err)
	}
	return data, nil
}

func checkSize(tag classify.Tag, path string, maxSize int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return fault.IO("stat", path, err)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return failf(tag, path, nil, "file too large: %d bytes (max %d)", info.Size(), maxSize)
	}
	return nil
}
