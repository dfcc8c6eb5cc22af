package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/mvp-joe/docsift/internal/classify"
	"github.com/mvp-joe/docsift/internal/element"
)

// ODTExtractor handles OpenDocument text files via content.xml.
type ODTExtractor struct {
	opts Options
}

// Extract returns headings, paragraphs, list items and tables in body order.
func (x *ODTExtractor) Extract(ctx context.Context, path string) ([]element.Element, error) {
	if err := checkSize(classify.TagODT, path, x.opts.MaxFileSize); err != nil {
		return nil, err
	}
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, failf(classify.TagODT, path, err, "not a valid odt archive")
	}
	defer r.Close()

	els, err := parseODTContent(&r.Reader)
	if err != nil {
		return nil, failf(classify.TagODT, path, err, "parse content.xml")
	}
	return els, nil
}

func parseODTContent(r *zip.Reader) ([]element.Element, error) {
	dec, closer, err := openPart(r, "content.xml")
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var (
		out       []element.Element
		buf       strings.Builder
		depth     int // nesting of h/p being collected
		heading   int
		listDepth int
		tblDepth  int
		tbl       *table
	)
	emit := func(kind element.Kind, text string, level int) {
		text = collapseSpace(text)
		if text == "" {
			return
		}
		e := element.New(kind, text)
		if kind == element.KindTitle {
			e = e.WithMeta(element.MetaCategoryDepth, level-1)
		}
		out = append(out, e)
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "h":
				if tblDepth == 0 {
					depth++
					buf.Reset()
					heading = 1
					if n, err := strconv.Atoi(attr(t, "outline-level")); err == nil && n > 0 {
						heading = n
					}
				}
			case "p":
				if tblDepth == 0 {
					if depth == 0 {
						buf.Reset()
					}
					depth++
				}
			case "list":
				listDepth++
			case "table":
				tblDepth++
				if tblDepth == 1 {
					tbl = &table{}
				}
			case "s":
				writeRun(tblDepth, tbl, &buf, " ")
			case "tab":
				writeRun(tblDepth, tbl, &buf, "\t")
			case "line-break":
				writeRun(tblDepth, tbl, &buf, " ")
			}
		case xml.CharData:
			if depth > 0 || tblDepth > 0 {
				writeRun(tblDepth, tbl, &buf, string(t))
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "h":
				if tblDepth == 0 {
					depth--
					emit(element.KindTitle, buf.String(), heading)
					buf.Reset()
					heading = 0
				}
			case "p":
				if tblDepth > 0 {
					writeRun(tblDepth, tbl, &buf, " ")
					continue
				}
				depth--
				if depth > 0 {
					continue
				}
				kind := element.KindListItem
				if listDepth == 0 {
					kind = kindOfParagraph(collapseSpace(buf.String()))
				}
				emit(kind, buf.String(), 0)
				buf.Reset()
			case "list":
				listDepth--
			case "table-cell":
				if tblDepth == 1 {
					tbl.endCell()
				}
			case "table-row":
				if tblDepth == 1 {
					tbl.endRow()
				}
			case "table":
				if tblDepth == 1 && len(tbl.rows) > 0 {
					out = append(out, element.New(element.KindTable, tbl.text()).WithMeta("rows", len(tbl.rows)))
				}
				tblDepth--
			}
		}
	}
	return out, nil
}
