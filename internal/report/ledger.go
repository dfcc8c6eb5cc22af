package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/mvp-joe/docsift/internal/fault"
)

// Ledger file names in the log directory.
const (
	UnsupportedLedger = "unsupported_files.log"
	FailedLedger      = "failed_files.log"
)

// WriteLedgers records the run in the log directory: unsupported_files.log
// is rewritten with one unsupported path per line (files left out by a
// format filter are not listed), failed_files.log gets one
// "path: reason" line appended per failure.
func WriteLedgers(fs afero.Fs, logDir string, r *Report) error {
	if err := fs.MkdirAll(logDir, 0755); err != nil {
		return fault.IO("mkdir", logDir, err)
	}

	var unsupported strings.Builder
	for _, e := range r.Unsupported() {
		unsupported.WriteString(e.Path)
		unsupported.WriteByte('\n')
	}
	path := filepath.Join(logDir, UnsupportedLedger)
	if err := afero.WriteFile(fs, path, []byte(unsupported.String()), 0644); err != nil {
		return fault.IO("write", path, err)
	}

	failures := r.Failures()
	if len(failures) == 0 {
		return nil
	}
	path = filepath.Join(logDir, FailedLedger)
	f, err := fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fault.IO("open", path, err)
	}
	defer f.Close()

	var buf strings.Builder
	stamp := r.StartedAt.Format(time.RFC3339)
	for _, e := range failures {
		fmt.Fprintf(&buf, "%s %s %s: %s\n", stamp, r.RunID, e.Path, oneLine(e.Reason))
	}
	if _, err := f.Write([]byte(buf.String())); err != nil {
		return fault.IO("append", path, err)
	}
	return nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
