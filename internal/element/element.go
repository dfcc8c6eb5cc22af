package element

import (
	"encoding/json"
	"strings"
)

// Kind is the category of an extracted element.
type Kind string

const (
	KindTitle             Kind = "Title"
	KindNarrativeText     Kind = "NarrativeText"
	KindListItem          Kind = "ListItem"
	KindTable             Kind = "Table"
	KindImage             Kind = "Image"
	KindUncategorizedText Kind = "UncategorizedText"
	KindHeader            Kind = "Header"
	KindFooter            Kind = "Footer"
	KindPageBreak         Kind = "PageBreak"
	KindCodeSnippet       Kind = "CodeSnippet"
	KindFigureCaption     Kind = "FigureCaption"
	KindEmailAddress      Kind = "EmailAddress"
	KindAddress           Kind = "Address"
	KindFormula           Kind = "Formula"
)

// Common metadata keys set by extractors.
const (
	MetaPageNumber    = "page_number"
	MetaPageName      = "page_name"
	MetaCategoryDepth = "category_depth"
	MetaLanguages     = "languages"
)

// Element is one unit of extracted content. A file yields an ordered
// sequence of elements in document reading order.
type Element struct {
	Kind     Kind           `json:"kind"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// New creates an element with empty metadata.
func New(kind Kind, text string) Element {
	return Element{Kind: kind, Text: text, Metadata: map[string]any{}}
}

// WithMeta returns a copy of e with key set to value. The receiver's
// metadata map is not modified.
func (e Element) WithMeta(key string, value any) Element {
	md := make(map[string]any, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		md[k] = v
	}
	md[key] = value
	e.Metadata = md
	return e
}

// MarshalJSON keeps the kind/text/metadata field order and never emits a
// null metadata object.
func (e Element) MarshalJSON() ([]byte, error) {
	md := e.Metadata
	if md == nil {
		md = map[string]any{}
	}
	return json.Marshal(struct {
		Kind     Kind           `json:"kind"`
		Text     string         `json:"text"`
		Metadata map[string]any `json:"metadata"`
	}{e.Kind, e.Text, md})
}

// Annotated renders the element as "[<kind>] <text>".
func (e Element) Annotated() string {
	return "[" + string(e.Kind) + "] " + e.Text
}

// Texts returns the text of every element, in order.
func Texts(elements []Element) []string {
	out := make([]string, len(elements))
	for i, e := range elements {
		out[i] = e.Text
	}
	return out
}

// Paragraphs splits text on blank lines and returns the trimmed, non-empty
// blocks with internal line breaks folded to single spaces.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var out []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.Join(cur, " "))
			cur = cur[:0]
		}
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return out
}
