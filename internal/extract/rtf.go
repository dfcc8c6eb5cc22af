package extract

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/mvp-joe/docsift/internal/classify"
	"github.com/mvp-joe/docsift/internal/element"
)

// RTFExtractor strips RTF control words and keeps the document text.
type RTFExtractor struct {
	opts Options
}

// Extract converts the RTF body to plain text and splits it on \par.
func (x *RTFExtractor) Extract(ctx context.Context, path string) ([]element.Element, error) {
	data, err := readFile(classify.TagRTF, path, x.opts.MaxFileSize)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(strings.TrimSpace(string(data[:min(len(data), 16)])), `{\rtf`) {
		return nil, failf(classify.TagRTF, path, nil, "missing {\\rtf header")
	}
	text, err := rtfText(data)
	if err != nil {
		return nil, failf(classify.TagRTF, path, err, "malformed rtf")
	}
	return textElements(text), nil
}

// Destinations whose content is never document text.
var rtfSkipped = map[string]bool{
	"fonttbl": true, "colortbl": true, "stylesheet": true, "info": true,
	"pict": true, "object": true, "themedata": true, "datastore": true,
	"latentstyles": true, "listtable": true, "listoverridetable": true,
	"rsidtbl": true, "generator": true, "xmlnstbl": true, "header": true,
	"footer": true, "headerl": true, "headerr": true, "footerl": true,
	"footerr": true, "fldinst": true, "filetbl": true, "revtbl": true,
}

type rtfState struct {
	skip   bool
	ucSkip int
}

func rtfText(data []byte) (string, error) {
	dec := charmap.Windows1252.NewDecoder()
	var (
		out      strings.Builder
		stack    []rtfState
		state    = rtfState{ucSkip: 1}
		pending  int // bytes still to skip after a \u escape
		hexBytes []byte
	)
	flushHex := func() {
		if len(hexBytes) == 0 {
			return
		}
		if !state.skip {
			if s, err := dec.Bytes(hexBytes); err == nil {
				out.Write(s)
			}
		}
		hexBytes = hexBytes[:0]
	}
	write := func(s string) {
		flushHex()
		if !state.skip {
			out.WriteString(s)
		}
	}

	for i := 0; i < len(data); i++ {
		c := data[i]
		switch c {
		case '{':
			flushHex()
			stack = append(stack, state)
			pending = 0
		case '}':
			flushHex()
			if len(stack) == 0 {
				continue
			}
			state = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			pending = 0
		case '\\':
			if i+1 >= len(data) {
				continue
			}
			n := data[i+1]
			switch {
			case n == '\\' || n == '{' || n == '}':
				i++
				if pending > 0 {
					pending--
					continue
				}
				write(string(n))
			case n == '\'':
				if i+3 >= len(data) {
					i = len(data)
					continue
				}
				v, err := strconv.ParseUint(string(data[i+2:i+4]), 16, 8)
				i += 3
				if pending > 0 {
					pending--
					continue
				}
				if err == nil {
					hexBytes = append(hexBytes, byte(v))
				}
			case n == '*':
				i++
				state.skip = true
			case n == '~':
				i++
				write(" ")
			case n == '-' || n == '_':
				i++
			case n == '\n' || n == '\r':
				i++
				write("\n\n")
			case isASCIILetter(n):
				j := i + 1
				for j < len(data) && isASCIILetter(data[j]) {
					j++
				}
				word := string(data[i+1 : j])
				k := j
				if k < len(data) && (data[k] == '-' || data[k] >= '0' && data[k] <= '9') {
					k++
					for k < len(data) && data[k] >= '0' && data[k] <= '9' {
						k++
					}
				}
				param, hasParam := 0, k > j
				if hasParam {
					param, _ = strconv.Atoi(string(data[j:k]))
				}
				if k < len(data) && data[k] == ' ' {
					k++
				}
				i = k - 1

				switch {
				case rtfSkipped[word]:
					state.skip = true
				case word == "par" || word == "sect" || word == "page":
					write("\n\n")
				case word == "line" || word == "row":
					write("\n")
				case word == "tab" || word == "cell":
					write("\t")
				case word == "emdash":
					write("—")
				case word == "endash":
					write("–")
				case word == "bullet":
					write("•")
				case word == "lquote":
					write("‘")
				case word == "rquote":
					write("’")
				case word == "ldblquote":
					write("“")
				case word == "rdblquote":
					write("”")
				case word == "uc" && hasParam:
					state.ucSkip = param
				case word == "u" && hasParam:
					if param < 0 {
						param += 65536
					}
					write(string(rune(param)))
					pending = state.ucSkip
				}
			default:
				i++
			}
		case '\r', '\n':
		default:
			if pending > 0 {
				pending--
				continue
			}
			if c < 0x80 {
				write(string(c))
			} else {
				hexBytes = append(hexBytes, c)
			}
		}
	}
	flushHex()
	if len(stack) > 0 {
		return out.String(), errUnbalancedGroups
	}
	return out.String(), nil
}

var errUnbalancedGroups = errors.New("unbalanced groups")

func isASCIILetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
