package extract

import (
	"strings"
	"unicode"

	"github.com/mvp-joe/docsift/internal/element"
)

var bulletPrefixes = []string{"- ", "* ", "+ ", "• ", "· ", "‣ ", "◦ "}

// trimBullet reports whether line starts with a bullet or an enumerator
// such as "1." or "a)" and returns the text after it.
func trimBullet(line string) (string, bool) {
	for _, p := range bulletPrefixes {
		if strings.HasPrefix(line, p) {
			return strings.TrimSpace(line[len(p):]), true
		}
	}

	i := 0
	for i < len(line) && i < 3 && (line[i] >= '0' && line[i] <= '9' || line[i] >= 'a' && line[i] <= 'z' && i == 0) {
		i++
	}
	if i > 0 && i+1 < len(line) && (line[i] == '.' || line[i] == ')') && line[i+1] == ' ' {
		return strings.TrimSpace(line[i+2:]), true
	}
	return line, false
}

// kindOfParagraph applies the heuristics used for unstyled text: short
// unpunctuated lines are titles, anything without letters is uncategorized,
// the rest is narrative.
func kindOfParagraph(text string) element.Kind {
	hasLetter := false
	for _, r := range text {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return element.KindUncategorizedText
	}

	words := strings.Fields(text)
	last, _ := lastRune(text)
	if len(words) <= 12 && !strings.ContainsRune(".!?:;,", last) {
		first, _ := firstRune(text)
		if unicode.IsUpper(first) || unicode.IsDigit(first) {
			return element.KindTitle
		}
	}
	return element.KindNarrativeText
}

// textElements turns free text into elements: blank-line separated blocks
// become paragraphs, and blocks whose every line is a bullet become one
// ListItem per line.
func textElements(text string) []element.Element {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var out []element.Element
	for _, block := range splitBlocks(text) {
		lines := strings.Split(block, "\n")
		items := make([]string, 0, len(lines))
		for _, l := range lines {
			item, ok := trimBullet(strings.TrimSpace(l))
			if !ok {
				items = nil
				break
			}
			items = append(items, item)
		}
		if items != nil {
			for _, item := range items {
				out = append(out, element.New(element.KindListItem, item))
			}
			continue
		}

		para := strings.Join(strings.Fields(block), " ")
		out = append(out, element.New(kindOfParagraph(para), para))
	}
	return out
}

// splitBlocks splits on blank lines, keeping line breaks inside a block.
func splitBlocks(text string) []string {
	var out []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.Join(cur, "\n"))
			cur = nil
		}
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		cur = append(cur, strings.TrimRightFunc(line, unicode.IsSpace))
	}
	flush()
	return out
}

func firstRune(s string) (rune, bool) {
	for _, r := range s {
		return r, true
	}
	return 0, false
}

func lastRune(s string) (rune, bool) {
	rs := []rune(s)
	if len(rs) == 0 {
		return 0, false
	}
	return rs[len(rs)-1], true
}

// collapseSpace folds every whitespace run to a single space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// narrativeKind is the kind of an explicitly marked-up paragraph.
func narrativeKind(text string) element.Kind {
	if kindOfParagraph(text) == element.KindUncategorizedText {
		return element.KindUncategorizedText
	}
	return element.KindNarrativeText
}

// splitLines normalises line endings and splits text into lines.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// indentOf counts leading spaces, with tabs as eight.
func indentOf(line string) int {
	n := 0
	for _, r := range line {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 8
		default:
			return n
		}
	}
	return n
}
