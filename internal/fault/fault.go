// Package fault defines the per-file error kinds the dispatcher records.
//
// Only two kinds are recorded against a file: ErrIO for filesystem failures
// (reading a source file, writing an artifact) and ErrExtraction for a
// capability that could not produce elements. Configuration errors are fatal
// and live in the config package.
package fault

import (
	"errors"
	"fmt"
)

var (
	// ErrIO indicates a filesystem failure reading a source or writing an artifact.
	ErrIO = errors.New("io error")

	// ErrExtraction indicates an extraction capability could not produce elements.
	ErrExtraction = errors.New("extraction error")
)

// Cause names the kind of a per-file failure.
type Cause string

const (
	CauseNone       Cause = ""
	CauseIO         Cause = "io"
	CauseExtraction Cause = "extraction"
)

// CauseOf classifies err. Anything that is not an IO error is reported as an
// extraction failure, because every other fault surfaces from a capability.
func CauseOf(err error) Cause {
	switch {
	case err == nil:
		return CauseNone
	case errors.Is(err, ErrIO):
		return CauseIO
	default:
		return CauseExtraction
	}
}

// IO wraps err as an ErrIO with the operation and path that failed.
func IO(op, path string, err error) error {
	return &ioError{op: op, path: path, err: err}
}

type ioError struct {
	op   string
	path string
	err  error
}

func (e *ioError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.op, e.path, e.err)
}

func (e *ioError) Unwrap() []error { return []error{ErrIO, e.err} }
