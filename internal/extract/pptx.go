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

// SlidesExtractor handles .pptx directly and .ppt through the office converter.
type SlidesExtractor struct {
	opts      Options
	converter converter
}

// Extract walks slides in presentation order, separated by PageBreak elements.
func (x *SlidesExtractor) Extract(ctx context.Context, path string) ([]element.Element, error) {
	if err := checkSize(classify.TagPPT, path, x.opts.MaxFileSize); err != nil {
		return nil, err
	}

	src := path
	if strings.EqualFold(filepath.Ext(path), ".ppt") {
		converted, cleanup, err := x.converter.Convert(ctx, path, "pptx")
		if err != nil {
			return nil, failf(classify.TagPPT, path, err, "convert .ppt to .pptx")
		}
		defer cleanup()
		src = converted
	}

	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, failf(classify.TagPPT, path, err, "not a valid pptx archive")
	}
	defer r.Close()

	slides, err := slideParts(&r.Reader)
	if err != nil {
		return nil, failf(classify.TagPPT, path, err, "parse presentation")
	}

	var out []element.Element
	for i, part := range slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		els, err := parseSlide(&r.Reader, part)
		if err != nil {
			return nil, failf(classify.TagPPT, path, err, "parse slide %d", i+1)
		}
		if i > 0 {
			out = append(out, element.New(element.KindPageBreak, "").WithMeta(element.MetaPageNumber, i))
		}
		for _, e := range els {
			out = append(out, e.WithMeta(element.MetaPageNumber, i+1))
		}
	}
	return out, nil
}

func slideParts(r *zip.Reader) ([]string, error) {
	const pres = "ppt/presentation.xml"
	if zipPart(r, pres) == nil {
		return numberedParts(r, "ppt/slides/slide"), nil
	}
	rels, err := partRels(r, pres)
	if err != nil {
		return nil, err
	}
	dec, closer, err := openPart(r, pres)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var out []string
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "sldId" {
			if part := rels[attr(se, "id")]; part != "" {
				out = append(out, part)
			}
		}
	}
	if len(out) == 0 {
		return numberedParts(r, "ppt/slides/slide"), nil
	}
	return out, nil
}

// parseSlide returns the text of one slide. Title placeholders become Title,
// bulleted or indented paragraphs ListItem, tables Table.
func parseSlide(r *zip.Reader, part string) ([]element.Element, error) {
	dec, closer, err := openPart(r, part)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var (
		out      []element.Element
		isTitle  bool
		inPara   bool
		bullet   bool
		para     strings.Builder
		inText   bool
		tbl      *table
		tblDepth int
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
			case "sp":
				isTitle = false
			case "ph":
				typ := attr(t, "type")
				isTitle = typ == "title" || typ == "ctrTitle"
			case "tbl":
				tblDepth++
				if tblDepth == 1 {
					tbl = &table{}
				}
			case "p":
				if tblDepth == 0 {
					inPara = true
					bullet = false
					para.Reset()
				}
			case "pPr":
				if lvl := attr(t, "lvl"); lvl != "" && lvl != "0" {
					bullet = true
				}
			case "buChar", "buAutoNum":
				bullet = true
			case "t":
				inText = true
			case "br":
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
				text := collapseSpace(para.String())
				if text == "" {
					continue
				}
				switch {
				case isTitle:
					out = append(out, element.New(element.KindTitle, text))
				case bullet:
					out = append(out, element.New(element.KindListItem, text))
				default:
					out = append(out, element.New(kindOfParagraph(text), text))
				}
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
					out = append(out, element.New(element.KindTable, tbl.text()))
				}
				tblDepth--
			}
		}
	}
	return out, nil
}
