package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/mvp-joe/docsift/internal/classify"
	"github.com/mvp-joe/docsift/internal/element"
)

// XMLExtractor emits one element per XML element that carries character data.
type XMLExtractor struct {
	opts Options
}

// Extract streams the document tokens. With XMLKeepTags the element text is
// wrapped in its tag.
func (x *XMLExtractor) Extract(ctx context.Context, path string) ([]element.Element, error) {
	data, err := readFile(classify.TagXML, path, x.opts.MaxFileSize)
	if err != nil {
		return nil, err
	}

	var r io.Reader = bytes.NewReader(data)
	if x.opts.Encoding != "" {
		text, _, err := decodeText(data, x.opts.Encoding, "")
		if err != nil {
			return nil, failf(classify.TagXML, path, err, "unknown encoding")
		}
		r = strings.NewReader(text)
	}

	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	if x.opts.Encoding != "" {
		// Already UTF-8; ignore the prolog's encoding attribute.
		dec.CharsetReader = func(_ string, in io.Reader) (io.Reader, error) { return in, nil }
	}

	type open struct {
		name string
		text strings.Builder
	}
	var (
		out   []element.Element
		stack []*open
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, failf(classify.TagXML, path, err, "malformed xml")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, &open{name: t.Name.Local})
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			text := collapseSpace(top.text.String())
			if text == "" {
				continue
			}
			if x.opts.XMLKeepTags {
				text = fmt.Sprintf("<%s>%s</%s>", top.name, text, top.name)
			}
			out = append(out, element.New(element.KindUncategorizedText, text))
		}
	}
	if len(stack) > 0 {
		return nil, failf(classify.TagXML, path, nil, "malformed xml: unclosed <%s>", stack[len(stack)-1].name)
	}
	return out, nil
}
