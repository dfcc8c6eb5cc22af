package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/mvp-joe/docsift/internal/classify"
	"github.com/mvp-joe/docsift/internal/element"
	"github.com/mvp-joe/docsift/internal/fault"
)

// PDFExtractor reads the text-showing operators of every page content stream.
// Scanned PDFs without a text layer fail; OCR is only applied to images.
type PDFExtractor struct {
	opts Options
}

// Extract returns one element per text line, tagged with its page number,
// with a PageBreak between pages.
func (x *PDFExtractor) Extract(ctx context.Context, path string) ([]element.Element, error) {
	if err := checkSize(classify.TagPDF, path, x.opts.MaxFileSize); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fault.IO("open", path, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	pctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "encrypt") || strings.Contains(msg, "password") {
			return nil, failf(classify.TagPDF, path, err, "encrypted")
		}
		return nil, failf(classify.TagPDF, path, err, "unreadable pdf")
	}

	var out []element.Element
	found := false
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines, err := pageLines(pctx, pageNr)
		if err != nil {
			return nil, failf(classify.TagPDF, path, err, "read page %d", pageNr)
		}
		if pageNr > 1 {
			out = append(out, element.New(element.KindPageBreak, "").WithMeta(element.MetaPageNumber, pageNr-1))
		}
		for _, line := range lines {
			found = true
			kind := kindOfParagraph(line)
			if item, ok := trimBullet(line); ok {
				kind, line = element.KindListItem, item
			}
			out = append(out, element.New(kind, line).WithMeta(element.MetaPageNumber, pageNr))
		}
	}
	if !found {
		return nil, failf(classify.TagPDF, path, nil, "no text layer found (scanned pdf?)")
	}
	return out, nil
}

func pageLines(pctx *model.Context, pageNr int) ([]string, error) {
	r, err := pdfcpu.ExtractPageContent(pctx, pageNr)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read content stream: %w", err)
	}
	return contentStreamLines(data), nil
}

// contentStreamLines interprets the text operators of a PDF content stream
// (Tj, TJ, ', ", Td, TD, T*, Tm) and returns the shown text as lines.
func contentStreamLines(data []byte) []string {
	var (
		lines    []string
		line     strings.Builder
		operands []pdfOperand
	)
	newline := func() {
		if s := collapseSpace(line.String()); s != "" {
			lines = append(lines, s)
		}
		line.Reset()
	}

	s := &pdfScanner{data: data}
	for {
		op, ok := s.next()
		if !ok {
			break
		}
		if !op.isOperator {
			operands = append(operands, op)
			continue
		}

		switch op.text {
		case "Tj":
			if str, ok := lastString(operands); ok {
				line.WriteString(str)
			}
		case "'", `"`:
			newline()
			if str, ok := lastString(operands); ok {
				line.WriteString(str)
			}
		case "TJ":
			if n := len(operands); n > 0 {
				for _, item := range operands[n-1].array {
					if item.isString {
						line.WriteString(item.text)
					} else if item.num < -250 {
						line.WriteByte(' ')
					}
				}
			}
		case "Td", "TD":
			if n := len(operands); n >= 2 && operands[n-1].num != 0 {
				newline()
			} else if line.Len() > 0 {
				line.WriteByte(' ')
			}
		case "T*", "Tm", "ET":
			newline()
		case "ID":
			s.skipInlineImage()
		}
		operands = operands[:0]
	}
	newline()
	return lines
}

func lastString(ops []pdfOperand) (string, bool) {
	for i := len(ops) - 1; i >= 0; i-- {
		if ops[i].isString {
			return ops[i].text, true
		}
	}
	return "", false
}

type pdfOperand struct {
	isOperator bool
	isString   bool
	text       string
	num        float64
	array      []pdfOperand
}

type pdfScanner struct {
	data []byte
	pos  int
}

func isPDFSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isPDFDelim(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func (s *pdfScanner) next() (pdfOperand, bool) {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		switch {
		case isPDFSpace(c):
			s.pos++
		case c == '%':
			for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
		case c == '(':
			s.pos++
			return pdfOperand{isString: true, text: s.literal()}, true
		case c == '<':
			if s.pos+1 < len(s.data) && s.data[s.pos+1] == '<' {
				s.pos += 2
				continue
			}
			s.pos++
			return pdfOperand{isString: true, text: s.hex()}, true
		case c == '>':
			s.pos++
		case c == '[':
			s.pos++
			var arr []pdfOperand
			for {
				if s.peekByte() == ']' {
					s.pos++
					break
				}
				item, ok := s.next()
				if !ok {
					break
				}
				arr = append(arr, item)
			}
			return pdfOperand{array: arr}, true
		case c == ']':
			s.pos++
			return pdfOperand{}, true
		case c == '/':
			s.pos++
			s.word()
			return pdfOperand{}, true
		case c == '{' || c == '}':
			s.pos++
		default:
			w := s.word()
			if w == "" {
				s.pos++
				continue
			}
			var f float64
			if _, err := fmt.Sscan(w, &f); err == nil && (w[0] == '-' || w[0] == '+' || w[0] == '.' || (w[0] >= '0' && w[0] <= '9')) {
				return pdfOperand{num: f}, true
			}
			return pdfOperand{isOperator: true, text: w}, true
		}
	}
	return pdfOperand{}, false
}

// peekByte returns the next non-space byte without consuming it.
func (s *pdfScanner) peekByte() byte {
	for s.pos < len(s.data) && isPDFSpace(s.data[s.pos]) {
		s.pos++
	}
	if s.pos >= len(s.data) {
		return ']'
	}
	return s.data[s.pos]
}

func (s *pdfScanner) word() string {
	start := s.pos
	for s.pos < len(s.data) && !isPDFSpace(s.data[s.pos]) && !isPDFDelim(s.data[s.pos]) {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

// literal reads a (string) body after the opening paren, honouring nesting
// and escapes.
func (s *pdfScanner) literal() string {
	var sb strings.Builder
	depth := 1
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '\\':
			if s.pos >= len(s.data) {
				return sb.String()
			}
			e := s.data[s.pos]
			s.pos++
			switch e {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'b', 'f':
			case '\r', '\n':
				if e == '\r' && s.pos < len(s.data) && s.data[s.pos] == '\n' {
					s.pos++
				}
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && s.pos < len(s.data) && s.data[s.pos] >= '0' && s.data[s.pos] <= '7'; i++ {
						v = v*8 + int(s.data[s.pos]-'0')
						s.pos++
					}
					sb.WriteRune(rune(byte(v)))
				} else {
					sb.WriteByte(e)
				}
			}
		case '(':
			depth++
			sb.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				return sb.String()
			}
			sb.WriteByte(c)
		default:
			sb.WriteRune(rune(c))
		}
	}
	return sb.String()
}

// hex reads a <hex> string. Strings that do not decode to printable text
// (glyph ids of composite fonts) are dropped.
func (s *pdfScanner) hex() string {
	var digits []byte
	for s.pos < len(s.data) && s.data[s.pos] != '>' {
		if c := s.data[s.pos]; !isPDFSpace(c) {
			digits = append(digits, c)
		}
		s.pos++
	}
	s.pos++
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	var sb strings.Builder
	for i := 0; i+1 < len(digits); i += 2 {
		var b byte
		if _, err := fmt.Sscanf(string(digits[i:i+2]), "%02x", &b); err != nil {
			return ""
		}
		if b < 0x20 || b > 0x7e {
			return ""
		}
		sb.WriteByte(b)
	}
	return sb.String()
}

// skipInlineImage advances past binary inline image data up to EI.
func (s *pdfScanner) skipInlineImage() {
	for s.pos+2 < len(s.data) {
		if isPDFSpace(s.data[s.pos]) && s.data[s.pos+1] == 'E' && s.data[s.pos+2] == 'I' &&
			(s.pos+3 == len(s.data) || isPDFSpace(s.data[s.pos+3])) {
			s.pos += 3
			return
		}
		s.pos++
	}
	s.pos = len(s.data)
}
