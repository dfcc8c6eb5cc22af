package extract

import (
	"context"

	"github.com/mvp-joe/docsift/internal/classify"
	"github.com/mvp-joe/docsift/internal/element"
)

// TextExtractor handles plain text files of any common encoding.
type TextExtractor struct {
	opts Options
}

// Extract decodes the file and splits it into paragraphs and list items.
func (x *TextExtractor) Extract(ctx context.Context, path string) ([]element.Element, error) {
	data, err := readFile(classify.TagText, path, x.opts.MaxFileSize)
	if err != nil {
		return nil, err
	}
	text, _, err := decodeText(data, x.opts.Encoding, "text/plain")
	if err != nil {
		return nil, failf(classify.TagText, path, err, "unknown encoding")
	}
	return textElements(text), nil
}
