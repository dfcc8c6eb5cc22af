package extract

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/mvp-joe/docsift/internal/classify"
	"github.com/mvp-joe/docsift/internal/element"
)

// HTMLExtractor handles .html/.htm documents.
type HTMLExtractor struct {
	opts Options
}

// Extract decodes the document using its declared or sniffed charset and
// walks the body in document order.
func (x *HTMLExtractor) Extract(ctx context.Context, path string) ([]element.Element, error) {
	data, err := readFile(classify.TagHTML, path, x.opts.MaxFileSize)
	if err != nil {
		return nil, err
	}
	text, _, err := decodeText(data, x.opts.Encoding, "text/html")
	if err != nil {
		return nil, failf(classify.TagHTML, path, err, "unknown encoding")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, failf(classify.TagHTML, path, err, "parse html")
	}
	return htmlElements(doc), nil
}

// parseHTML is htmlElements over raw markup.
func parseHTML(data []byte) ([]element.Element, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return htmlElements(doc), nil
}

var htmlDropped = "script, style, noscript, template, head, svg, iframe"

// htmlElements maps block-level markup to elements: headings become
// titles, list items list items, pre code snippets, tables tables. Loose
// inline text between blocks becomes a paragraph.
func htmlElements(doc *goquery.Document) []element.Element {
	doc.Find(htmlDropped).Remove()

	w := &htmlWalker{}
	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	w.walk(root)
	w.flush()
	return w.out
}

type htmlWalker struct {
	out    []element.Element
	inline strings.Builder
}

func (w *htmlWalker) emit(kind element.Kind, text string) {
	if text == "" {
		return
	}
	w.out = append(w.out, element.New(kind, text))
}

// flush turns pending inline text into a paragraph.
func (w *htmlWalker) flush() {
	text := collapseSpace(w.inline.String())
	w.inline.Reset()
	if text != "" {
		w.emit(kindOfParagraph(text), text)
	}
}

func (w *htmlWalker) walk(s *goquery.Selection) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		node := c.Get(0)
		switch node.Type {
		case html.TextNode:
			w.inline.WriteString(node.Data)
			return
		case html.ElementNode:
		default:
			return
		}

		switch name := goquery.NodeName(c); name {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			w.flush()
			if text := collapseSpace(c.Text()); text != "" {
				level := int(name[1] - '1')
				w.out = append(w.out, element.New(element.KindTitle, text).WithMeta(element.MetaCategoryDepth, level))
			}
		case "p":
			w.flush()
			if text := collapseSpace(c.Text()); text != "" {
				w.emit(narrativeKind(text), text)
			}
		case "li", "dt", "dd":
			w.flush()
			item := c.Clone()
			item.Find("ul, ol, dl").Remove()
			w.emit(element.KindListItem, collapseSpace(item.Text()))
			c.ChildrenFiltered("ul, ol, dl").Each(func(_ int, nested *goquery.Selection) {
				w.walk(nested)
			})
		case "pre":
			w.flush()
			w.emit(element.KindCodeSnippet, strings.Trim(c.Text(), "\n"))
		case "table":
			w.flush()
			w.emit(element.KindTable, htmlTable(c))
		case "figcaption", "caption":
			w.flush()
			w.emit(element.KindFigureCaption, collapseSpace(c.Text()))
		case "address":
			w.flush()
			w.emit(element.KindAddress, collapseSpace(c.Text()))
		case "img":
			if alt, ok := c.Attr("alt"); ok && strings.TrimSpace(alt) != "" {
				w.flush()
				w.emit(element.KindImage, collapseSpace(alt))
			}
		case "br":
			w.inline.WriteByte(' ')
		case "a", "span", "b", "strong", "i", "em", "u", "code", "small", "sub", "sup", "mark", "abbr", "cite", "q", "s", "font", "label":
			w.walk(c)
		default:
			w.flush()
			w.walk(c)
			w.flush()
		}
	})
}

func htmlTable(s *goquery.Selection) string {
	t := &table{}
	s.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			t.cell.WriteString(cell.Text())
			t.endCell()
		})
		t.endRow()
	})
	return t.text()
}
