package extract

import (
	"context"
	"strings"

	"github.com/mvp-joe/docsift/internal/classify"
	"github.com/mvp-joe/docsift/internal/element"
)

// OrgExtractor handles Emacs Org-mode files.
type OrgExtractor struct {
	opts Options
}

// Extract decodes the file and parses its outline.
func (x *OrgExtractor) Extract(ctx context.Context, path string) ([]element.Element, error) {
	data, err := readFile(classify.TagOrg, path, x.opts.MaxFileSize)
	if err != nil {
		return nil, err
	}
	text, _, err := decodeText(data, x.opts.Encoding, "text/plain")
	if err != nil {
		return nil, failf(classify.TagOrg, path, err, "unknown encoding")
	}
	return orgElements(text), nil
}

var orgTodoKeywords = []string{"TODO ", "DONE "}

func orgElements(text string) []element.Element {
	var (
		out   []element.Element
		para  []string
		item  []string
		tbl   *table
		code  []string
		inSrc bool
	)
	flushPara := func() {
		if t := collapseSpace(strings.Join(para, " ")); t != "" {
			out = append(out, element.New(narrativeKind(t), t))
		}
		para = nil
	}
	flushItem := func() {
		if t := collapseSpace(strings.Join(item, " ")); t != "" {
			out = append(out, element.New(element.KindListItem, t))
		}
		item = nil
	}
	flushTable := func() {
		if tbl != nil {
			if t := tbl.text(); t != "" {
				out = append(out, element.New(element.KindTable, t))
			}
			tbl = nil
		}
	}
	flushAll := func() {
		flushPara()
		flushItem()
		flushTable()
	}

	for _, line := range splitLines(text) {
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)

		if inSrc {
			if strings.HasPrefix(upper, "#+END_") {
				if t := strings.Trim(strings.Join(code, "\n"), "\n"); t != "" {
					out = append(out, element.New(element.KindCodeSnippet, t))
				}
				code, inSrc = nil, false
				continue
			}
			code = append(code, line)
			continue
		}

		switch {
		case strings.HasPrefix(upper, "#+BEGIN_SRC") || strings.HasPrefix(upper, "#+BEGIN_EXAMPLE"):
			flushAll()
			inSrc = true
		case strings.HasPrefix(upper, "#+TITLE:"):
			flushAll()
			if t := strings.TrimSpace(trimmed[len("#+TITLE:"):]); t != "" {
				out = append(out, element.New(element.KindTitle, t).WithMeta(element.MetaCategoryDepth, 0))
			}
		case strings.HasPrefix(trimmed, "#"):
			// Keywords and comments.
			flushAll()
		case strings.HasPrefix(line, "*"):
			stars := len(line) - len(strings.TrimLeft(line, "*"))
			if stars < len(line) && line[stars] == ' ' {
				flushAll()
				title := strings.TrimSpace(line[stars:])
				for _, kw := range orgTodoKeywords {
					title = strings.TrimPrefix(title, kw)
				}
				out = append(out, element.New(element.KindTitle, title).WithMeta(element.MetaCategoryDepth, stars-1))
				continue
			}
			flushItem()
			flushTable()
			para = append(para, trimmed)
		case strings.HasPrefix(trimmed, "|"):
			flushPara()
			flushItem()
			if tbl == nil {
				tbl = &table{}
			}
			if strings.HasPrefix(trimmed, "|-") {
				continue
			}
			for _, cell := range strings.Split(strings.Trim(trimmed, "|"), "|") {
				tbl.cell.WriteString(cell)
				tbl.endCell()
			}
			tbl.endRow()
		case trimmed == "":
			flushAll()
		default:
			if rest, ok := trimBullet(trimmed); ok {
				flushPara()
				flushItem()
				flushTable()
				item = []string{rest}
				continue
			}
			if item != nil && indentOf(line) > 0 {
				item = append(item, trimmed)
				continue
			}
			flushItem()
			flushTable()
			para = append(para, trimmed)
		}
	}
	if inSrc {
		if t := strings.Trim(strings.Join(code, "\n"), "\n"); t != "" {
			out = append(out, element.New(element.KindCodeSnippet, t))
		}
	}
	flushAll()
	return out
}
