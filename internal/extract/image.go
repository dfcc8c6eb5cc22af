package extract

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mvp-joe/docsift/internal/classify"
	"github.com/mvp-joe/docsift/internal/element"
)

// ImageExtractor runs tesseract over raster images.
type ImageExtractor struct {
	opts Options
}

// Extract OCRs path and splits the recognised text into elements. Every
// element records the OCR languages.
func (x *ImageExtractor) Extract(ctx context.Context, path string) ([]element.Element, error) {
	if err := checkSize(classify.TagImage, path, x.opts.MaxFileSize); err != nil {
		return nil, err
	}
	bin, err := exec.LookPath(x.opts.OCRBinary)
	if err != nil {
		return nil, failf(classify.TagImage, path, err, "ocr engine %q not available", x.opts.OCRBinary)
	}

	langs := x.opts.OCRLanguages
	args := []string{path, "stdout", "-l", strings.Join(langs, "+")}
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, failf(classify.TagImage, path, err, "ocr failed: %s", firstLine(stderr.String()))
		}
		return nil, failf(classify.TagImage, path, err, "ocr failed")
	}

	els := textElements(string(out))
	for i := range els {
		els[i] = els[i].WithMeta(element.MetaLanguages, append([]string(nil), langs...))
	}
	return els, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return "no diagnostic output"
	}
	return fmt.Sprintf("%.200s", s)
}
