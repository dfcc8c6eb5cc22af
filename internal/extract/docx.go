package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/mvp-joe/docsift/internal/classify"
	"github.com/mvp-joe/docsift/internal/element"
)

// WordExtractor handles .docx directly and .doc through the office converter.
type WordExtractor struct {
	opts      Options
	converter converter
}

// Extract returns headings, paragraphs, list items and tables in body order.
func (x *WordExtractor) Extract(ctx context.Context, path string) ([]element.Element, error) {
	if err := checkSize(classify.TagDoc, path, x.opts.MaxFileSize); err != nil {
		return nil, err
	}

	src := path
	if strings.EqualFold(filepath.Ext(path), ".doc") {
		converted, cleanup, err := x.converter.Convert(ctx, path, "docx")
		if err != nil {
			return nil, failf(classify.TagDoc, path, err, "convert .doc to .docx")
		}
		defer cleanup()
		src = converted
	}

	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, failf(classify.TagDoc, path, err, "not a valid docx archive")
	}
	defer r.Close()

	els, err := parseDocxBody(&r.Reader)
	if err != nil {
		return nil, failf(classify.TagDoc, path, err, "parse document.xml")
	}
	return els, nil
}

func parseDocxBody(r *zip.Reader) ([]element.Element, error) {
	dec, closer, err := openPart(r, "word/document.xml")
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var (
		out      []element.Element
		para     strings.Builder
		style    string
		listItem bool
		inPara   bool
		tblDepth int
		tbl      *table
		inText   bool
	)

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
			case "tbl":
				tblDepth++
				if tblDepth == 1 {
					tbl = &table{}
				}
			case "tr":
				if tblDepth == 1 {
					tbl.row = nil
				}
			case "p":
				if tblDepth == 0 {
					inPara = true
					para.Reset()
					style = ""
					listItem = false
				}
			case "pStyle":
				style = attr(t, "val")
			case "numPr":
				listItem = true
			case "t":
				inText = true
			case "tab":
				writeRun(tblDepth, tbl, &para, "\t")
			case "br", "cr":
				writeRun(tblDepth, tbl, &para, " ")
			}

		case xml.CharData:
			if inText {
				writeRun(tblDepth, tbl, &para, string(t))
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if tblDepth > 0 {
					writeRun(tblDepth, tbl, &para, " ")
					continue
				}
				if !inPara {
					continue
				}
				inPara = false
				text := strings.TrimSpace(para.String())
				if text == "" {
					continue
				}
				out = append(out, docxParagraph(text, style, listItem))
			case "tc":
				if tblDepth == 1 {
					tbl.endCell()
				}
			case "tr":
				if tblDepth == 1 {
					tbl.endRow()
				}
			case "tbl":
				if tblDepth == 1 && len(tbl.rows) > 0 {
					out = append(out, element.New(element.KindTable, tbl.text()).WithMeta("rows", len(tbl.rows)))
				}
				tblDepth--
			}
		}
	}
	return out, nil
}

func writeRun(tblDepth int, tbl *table, para *strings.Builder, s string) {
	if tblDepth > 0 && tbl != nil {
		tbl.cell.WriteString(s)
		return
	}
	para.WriteString(s)
}

func docxParagraph(text, style string, listItem bool) element.Element {
	if level := headingLevel(style); level > 0 {
		return element.New(element.KindTitle, text).WithMeta(element.MetaCategoryDepth, level-1)
	}
	lower := strings.ToLower(style)
	switch {
	case listItem || strings.HasPrefix(lower, "list"):
		return element.New(element.KindListItem, text)
	case strings.Contains(lower, "header"):
		return element.New(element.KindHeader, text)
	case strings.Contains(lower, "footer"):
		return element.New(element.KindFooter, text)
	case strings.Contains(lower, "caption"):
		return element.New(element.KindFigureCaption, text)
	}
	return element.New(kindOfParagraph(text), text)
}

// headingLevel maps a paragraph style name to a heading level, 0 for body
// text. "Heading1" → 1, "Title" → 1, "Subtitle" → 2.
func headingLevel(style string) int {
	lower := strings.ToLower(strings.ReplaceAll(style, " ", ""))

	switch lower {
	case "title":
		return 1
	case "subtitle":
		return 2
	}
	for _, prefix := range []string{"heading", "titre", "überschrift"} {
		if strings.HasPrefix(lower, prefix) {
			rest := lower[len(prefix):]
			if len(rest) == 1 && rest[0] >= '1' && rest[0] <= '9' {
				return int(rest[0] - '0')
			}
		}
	}
	return 0
}
