package extract

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/mvp-joe/docsift/internal/classify"
	"github.com/mvp-joe/docsift/internal/element"
)

// DelimitedExtractor handles CSV and TSV files. The whole file becomes a
// single Table element whose text has one tab-separated line per row.
type DelimitedExtractor struct {
	tag   classify.Tag
	comma rune
	opts  Options
}

// NewDelimitedExtractor returns an extractor for tag using comma as the
// field separator.
func NewDelimitedExtractor(tag classify.Tag, comma rune, opts Options) *DelimitedExtractor {
	return &DelimitedExtractor{tag: tag, comma: comma, opts: opts}
}

// Extract parses every record. Rows may have differing field counts.
func (x *DelimitedExtractor) Extract(ctx context.Context, path string) ([]element.Element, error) {
	data, err := readFile(x.tag, path, x.opts.MaxFileSize)
	if err != nil {
		return nil, err
	}
	text, _, err := decodeText(data, x.opts.Encoding, "text/csv")
	if err != nil {
		return nil, failf(x.tag, path, err, "unknown encoding")
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = x.comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, failf(x.tag, path, err, "malformed %s", x.tag)
		}
		rows = append(rows, rec)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	body := rows
	if !x.opts.IncludeTableHeader {
		body = rows[1:]
	}

	columns := 0
	lines := make([]string, 0, len(body))
	for _, rec := range body {
		if len(rec) > columns {
			columns = len(rec)
		}
		lines = append(lines, strings.Join(rec, "\t"))
	}

	el := element.New(element.KindTable, strings.Join(lines, "\n")).
		WithMeta("rows", len(body)).
		WithMeta("columns", columns).
		WithMeta("header", header)
	return []element.Element{el}, nil
}
