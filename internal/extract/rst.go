package extract

import (
	"context"
	"strings"

	"github.com/mvp-joe/docsift/internal/classify"
	"github.com/mvp-joe/docsift/internal/element"
)

// RSTExtractor handles reStructuredText documents.
type RSTExtractor struct {
	opts Options
}

// Extract decodes the file and parses its block structure.
func (x *RSTExtractor) Extract(ctx context.Context, path string) ([]element.Element, error) {
	data, err := readFile(classify.TagRST, path, x.opts.MaxFileSize)
	if err != nil {
		return nil, err
	}
	text, _, err := decodeText(data, x.opts.Encoding, "text/plain")
	if err != nil {
		return nil, failf(classify.TagRST, path, err, "unknown encoding")
	}
	return rstElements(text), nil
}

const rstAdornmentChars = "=-~^\"'`#*+:._"

// rstAdornment reports whether line is a section underline/overline and
// returns its character.
func rstAdornment(line string) (byte, bool) {
	line = strings.TrimRight(line, " \t")
	if len(line) < 2 || !strings.ContainsRune(rstAdornmentChars, rune(line[0])) {
		return 0, false
	}
	for i := 1; i < len(line); i++ {
		if line[i] != line[0] {
			return 0, false
		}
	}
	return line[0], true
}

var rstCodeDirectives = []string{".. code-block::", ".. code::", ".. sourcecode::"}

func rstElements(text string) []element.Element {
	lines := splitLines(text)
	var (
		out    []element.Element
		para   []string
		styles []string
	)
	depth := func(style string) int {
		for i, s := range styles {
			if s == style {
				return i
			}
		}
		styles = append(styles, style)
		return len(styles) - 1
	}
	blank := func(i int) bool { return i >= len(lines) || strings.TrimSpace(lines[i]) == "" }

	// literal consumes the indented block after line i-1 and returns the
	// index of the first line after it.
	literal := func(i, base int) int {
		var block []string
		for ; i < len(lines); i++ {
			if !blank(i) && indentOf(lines[i]) <= base {
				break
			}
			block = append(block, lines[i])
		}
		if code := dedent(block); code != "" {
			out = append(out, element.New(element.KindCodeSnippet, code))
		}
		return i
	}

	flushPara := func(i int) int {
		if len(para) == 0 {
			return i
		}
		joined := collapseSpace(strings.Join(para, " "))
		para = nil
		if !strings.HasSuffix(joined, "::") {
			out = append(out, element.New(narrativeKind(joined), joined))
			return i
		}
		joined = strings.TrimSpace(strings.TrimSuffix(joined, ":"))
		if joined == ":" {
			joined = ""
		}
		if joined != "" {
			out = append(out, element.New(narrativeKind(joined), joined))
		}
		return literal(i, 0)
	}

	for i := 0; i < len(lines); {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			i = flushPara(i + 1)
			continue
		}

		// Overlined title.
		if c, ok := rstAdornment(line); ok && len(para) == 0 && !blank(i+1) && i+2 < len(lines) {
			if c2, ok2 := rstAdornment(lines[i+2]); ok2 && c2 == c {
				title := strings.TrimSpace(lines[i+1])
				out = append(out, element.New(element.KindTitle, title).WithMeta(element.MetaCategoryDepth, depth(string([]byte{c, c}))))
				i += 3
				continue
			}
		}
		// Transition.
		if _, ok := rstAdornment(line); ok && len(para) == 0 && len(trimmed) >= 4 {
			i++
			continue
		}
		// Underlined title.
		if len(para) == 0 && indentOf(line) == 0 && i+1 < len(lines) {
			if c, ok := rstAdornment(lines[i+1]); ok && len(strings.TrimSpace(lines[i+1])) >= len([]rune(trimmed)) {
				out = append(out, element.New(element.KindTitle, trimmed).WithMeta(element.MetaCategoryDepth, depth(string(c))))
				i += 2
				continue
			}
		}

		if strings.HasPrefix(trimmed, "..") {
			i = flushPara(i)
			base := indentOf(line)
			isCode := false
			for _, d := range rstCodeDirectives {
				if strings.HasPrefix(trimmed, d) {
					isCode = true
				}
			}
			i++
			if isCode {
				// Skip directive options.
				for i < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[i]), ":") {
					i++
				}
				i = literal(i, base)
				continue
			}
			for i < len(lines) && (blank(i) || indentOf(lines[i]) > base) {
				if blank(i) && (i+1 >= len(lines) || indentOf(lines[i+1]) <= base && !blank(i+1)) {
					break
				}
				i++
			}
			continue
		}

		if item, ok := rstBullet(trimmed); ok {
			i = flushPara(i)
			base := indentOf(line)
			parts := []string{item}
			i++
			for i < len(lines) && !blank(i) && indentOf(lines[i]) > base {
				if _, nested := rstBullet(strings.TrimSpace(lines[i])); nested {
					break
				}
				parts = append(parts, strings.TrimSpace(lines[i]))
				i++
			}
			out = append(out, element.New(element.KindListItem, collapseSpace(strings.Join(parts, " "))))
			continue
		}

		para = append(para, trimmed)
		i++
	}
	flushPara(len(lines))
	return out
}

func rstBullet(line string) (string, bool) {
	if strings.HasPrefix(line, "#. ") {
		return strings.TrimSpace(line[3:]), true
	}
	return trimBullet(line)
}

// dedent removes the common leading indentation and surrounding blank lines.
func dedent(block []string) string {
	minIndent := -1
	for _, l := range block {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if n := indentOf(l); minIndent < 0 || n < minIndent {
			minIndent = n
		}
	}
	out := make([]string, 0, len(block))
	for _, l := range block {
		l = strings.ReplaceAll(l, "\t", "        ")
		if len(l) >= minIndent && minIndent > 0 {
			l = l[minIndent:]
		}
		out = append(out, strings.TrimRight(l, " "))
	}
	return strings.Trim(strings.Join(out, "\n"), "\n")
}
