package extract

import (
	"context"
	"io"

	"github.com/PuerkitoBio/goquery"
	"github.com/taylorskalyo/goreader/epub"
	"golang.org/x/net/html"

	"github.com/mvp-joe/docsift/internal/classify"
	"github.com/mvp-joe/docsift/internal/element"
)

// EPUBExtractor reads the chapters of an EPUB book in spine order.
type EPUBExtractor struct {
	opts Options
}

// Extract parses every spine document as XHTML. Elements carry the
// 1-based spine position as page_number.
func (x *EPUBExtractor) Extract(ctx context.Context, path string) ([]element.Element, error) {
	if err := checkSize(classify.TagEPUB, path, x.opts.MaxFileSize); err != nil {
		return nil, err
	}
	rc, err := epub.OpenReader(path)
	if err != nil {
		return nil, failf(classify.TagEPUB, path, err, "open epub")
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, failf(classify.TagEPUB, path, nil, "no rootfiles found in epub")
	}

	var out []element.Element
	for i, ref := range rc.Rootfiles[0].Spine.Itemrefs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if ref.Item == nil {
			continue
		}
		els, err := epubChapter(ref.Item)
		if err != nil {
			return nil, failf(classify.TagEPUB, path, err, "read chapter %s", ref.Item.HREF)
		}
		for _, el := range els {
			out = append(out, el.WithMeta(element.MetaPageNumber, i+1))
		}
	}
	return out, nil
}

func epubChapter(item *epub.Item) ([]element.Element, error) {
	r, err := item.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	root, err := html.Parse(io.Reader(r))
	if err != nil {
		return nil, err
	}
	return htmlElements(goquery.NewDocumentFromNode(root)), nil
}
