package extract

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// converter turns a legacy office file into a modern package.
type converter interface {
	Convert(ctx context.Context, path, format string) (string, func(), error)
}

// officeConverter shells out to LibreOffice in headless mode.
type officeConverter struct {
	binary string
}

// Convert writes path converted to format into a temporary directory and
// returns the new file plus a cleanup func.
func (c *officeConverter) Convert(ctx context.Context, path, format string) (string, func(), error) {
	bin, err := exec.LookPath(c.binary)
	if err != nil {
		return "", nil, fmt.Errorf("office converter %q not available: %w", c.binary, err)
	}

	outDir, err := os.MkdirTemp("", "docsift-convert-*")
	if err != nil {
		return "", nil, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(outDir) }

	cmd := exec.CommandContext(ctx, bin, "--headless", "--convert-to", format, "--outdir", outDir, path)
	if output, err := cmd.CombinedOutput(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("%s failed: %w (output: %s)", c.binary, err, strings.TrimSpace(string(output)))
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	converted := filepath.Join(outDir, stem+"."+format)
	if _, err := os.Stat(converted); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("%s produced no %s output", c.binary, format)
	}
	return converted, cleanup, nil
}
