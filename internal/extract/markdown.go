package extract

import (
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/mvp-joe/docsift/internal/classify"
	"github.com/mvp-joe/docsift/internal/element"
)

// MarkdownExtractor parses CommonMark with the GFM extensions.
type MarkdownExtractor struct {
	opts Options
}

// Extract walks the block tree produced by goldmark.
func (x *MarkdownExtractor) Extract(ctx context.Context, path string) ([]element.Element, error) {
	data, err := readFile(classify.TagMarkdown, path, x.opts.MaxFileSize)
	if err != nil {
		return nil, err
	}
	src, _, err := decodeText(data, x.opts.Encoding, "text/plain")
	if err != nil {
		return nil, failf(classify.TagMarkdown, path, err, "unknown encoding")
	}
	return markdownElements([]byte(src)), nil
}

func markdownElements(src []byte) []element.Element {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(src))

	var out []element.Element
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch b := c.(type) {
			case *ast.Heading:
				if t := collapseSpace(inlineText(b, src)); t != "" {
					out = append(out, element.New(element.KindTitle, t).WithMeta(element.MetaCategoryDepth, b.Level-1))
				}
			case *ast.Paragraph, *ast.TextBlock:
				if t := collapseSpace(inlineText(b, src)); t != "" {
					out = append(out, element.New(kindOfParagraph(t), t))
				}
			case *ast.ListItem:
				var item strings.Builder
				for ic := b.FirstChild(); ic != nil; ic = ic.NextSibling() {
					if _, nested := ic.(*ast.List); nested {
						continue
					}
					item.WriteString(inlineText(ic, src))
					item.WriteByte(' ')
				}
				if t := collapseSpace(item.String()); t != "" {
					out = append(out, element.New(element.KindListItem, t))
				}
				for ic := b.FirstChild(); ic != nil; ic = ic.NextSibling() {
					if l, nested := ic.(*ast.List); nested {
						walk(l)
					}
				}
			case *ast.FencedCodeBlock, *ast.CodeBlock:
				if t := strings.TrimRight(blockLines(c, src), "\n"); t != "" {
					out = append(out, element.New(element.KindCodeSnippet, t))
				}
			case *east.Table:
				out = append(out, element.New(element.KindTable, markdownTable(b, src)))
			case *ast.HTMLBlock, *ast.ThematicBreak:
			default:
				walk(c)
			}
		}
	}
	walk(doc)
	return out
}

// inlineText concatenates the text segments under n.
func inlineText(n ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		case *ast.AutoLink:
			sb.Write(t.URL(src))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

func blockLines(n ast.Node, src []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(src))
	}
	return sb.String()
}

func markdownTable(tbl *east.Table, src []byte) string {
	t := &table{}
	for row := tbl.FirstChild(); row != nil; row = row.NextSibling() {
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			t.cell.WriteString(inlineText(cell, src))
			t.endCell()
		}
		t.endRow()
	}
	return t.text()
}
