package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mvp-joe/docsift/internal/classify"
	"github.com/mvp-joe/docsift/internal/element"
)

// XLSXExtractor emits one Table element per worksheet, in workbook order.
type XLSXExtractor struct {
	opts Options
}

// Extract reads shared strings and every sheet. Empty sheets are skipped.
func (x *XLSXExtractor) Extract(ctx context.Context, path string) ([]element.Element, error) {
	if err := checkSize(classify.TagXLSX, path, x.opts.MaxFileSize); err != nil {
		return nil, err
	}
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, failf(classify.TagXLSX, path, err, "not a valid xlsx archive")
	}
	defer r.Close()

	shared, err := sharedStrings(&r.Reader)
	if err != nil {
		return nil, failf(classify.TagXLSX, path, err, "parse shared strings")
	}
	sheets, err := workbookSheets(&r.Reader)
	if err != nil {
		return nil, failf(classify.TagXLSX, path, err, "parse workbook")
	}

	var out []element.Element
	for i, sh := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := sheetRows(&r.Reader, sh.part, shared)
		if err != nil {
			return nil, failf(classify.TagXLSX, path, err, "parse sheet %q", sh.name)
		}
		if len(rows) == 0 {
			continue
		}
		t := &table{rows: rows}
		out = append(out, element.New(element.KindTable, t.text()).
			WithMeta(element.MetaPageName, sh.name).
			WithMeta(element.MetaPageNumber, i+1))
	}
	return out, nil
}

type sheetRef struct {
	name string
	part string
}

func workbookSheets(r *zip.Reader) ([]sheetRef, error) {
	const wb = "xl/workbook.xml"
	if zipPart(r, wb) == nil {
		var out []sheetRef
		for i, p := range numberedParts(r, "xl/worksheets/sheet") {
			out = append(out, sheetRef{name: fmt.Sprintf("Sheet%d", i+1), part: p})
		}
		return out, nil
	}

	rels, err := partRels(r, wb)
	if err != nil {
		return nil, err
	}
	dec, closer, err := openPart(r, wb)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var out []sheetRef
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		part := rels[attr(se, "id")]
		if part == "" {
			part = fmt.Sprintf("xl/worksheets/sheet%d.xml", len(out)+1)
		}
		out = append(out, sheetRef{name: attr(se, "name"), part: part})
	}
	return out, nil
}

func sharedStrings(r *zip.Reader) ([]string, error) {
	const name = "xl/sharedStrings.xml"
	if zipPart(r, name) == nil {
		return nil, nil
	}
	dec, closer, err := openPart(r, name)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var (
		out    []string
		cur    strings.Builder
		inText bool
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
			case "si":
				cur.Reset()
			case "t":
				inText = true
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "si":
				out = append(out, cur.String())
			}
		}
	}
	return out, nil
}

// sheetRows returns the non-empty rows of a worksheet. Cells are placed by
// their column reference so gaps become empty fields.
func sheetRows(r *zip.Reader, part string, shared []string) ([][]string, error) {
	dec, closer, err := openPart(r, part)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var (
		rows     [][]string
		row      []string
		cellType string
		cellCol  int
		value    strings.Builder
		inValue  bool
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
			case "row":
				row = nil
			case "c":
				cellType = attr(t, "t")
				cellCol = columnIndex(attr(t, "r"), len(row))
				value.Reset()
			case "v", "t":
				inValue = true
			}
		case xml.CharData:
			if inValue {
				value.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "v", "t":
				inValue = false
			case "c":
				v := value.String()
				switch cellType {
				case "s":
					if idx, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && idx >= 0 && idx < len(shared) {
						v = shared[idx]
					}
				case "b":
					v = map[string]string{"0": "FALSE", "1": "TRUE"}[v]
				}
				for len(row) < cellCol {
					row = append(row, "")
				}
				row = append(row, collapseSpace(v))
			case "row":
				if strings.TrimSpace(strings.Join(row, "")) != "" {
					rows = append(rows, row)
				}
			}
		}
	}
	return rows, nil
}

// columnIndex converts the letters of a cell reference ("C7") to a zero-based
// column. Without a reference the cell follows the previous one.
func columnIndex(ref string, next int) int {
	col := 0
	n := 0
	for _, ch := range ref {
		if ch < 'A' || ch > 'Z' {
			break
		}
		col = col*26 + int(ch-'A'+1)
		n++
	}
	if n == 0 {
		return next
	}
	return col - 1
}
