package extract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mvp-joe/docsift/internal/classify"
)

// Registry resolves tags to capabilities. The mapping is fixed at
// construction and total over classify.All().
type Registry struct {
	caps map[classify.Tag]Capability
}

// NewRegistry builds a registry from caps. It fails if any supported tag is
// missing, if Unsupported is mapped, or if a capability is nil.
func NewRegistry(caps map[classify.Tag]Capability) (*Registry, error) {
	var missing []string
	for _, tag := range classify.All() {
		if caps[tag] == nil {
			missing = append(missing, string(tag))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("no extraction capability for: %s", strings.Join(missing, ", "))
	}
	if _, ok := caps[classify.Unsupported]; ok {
		return nil, fmt.Errorf("unsupported files cannot have a capability")
	}

	r := &Registry{caps: make(map[classify.Tag]Capability, len(caps))}
	for tag, c := range caps {
		if _, err := classify.ParseTag(string(tag)); err != nil {
			return nil, fmt.Errorf("capability registered for %w", err)
		}
		r.caps[tag] = c
	}
	return r, nil
}

// Resolve returns the capability for tag. Tags produced by the classifier
// always resolve; anything else is a programming error.
func (r *Registry) Resolve(tag classify.Tag) (Capability, error) {
	c, ok := r.caps[tag]
	if !ok {
		return nil, fmt.Errorf("no extraction capability for tag %s", tag)
	}
	return c, nil
}

// Default returns the production registry.
func Default(opts Options) (*Registry, error) {
	opts.defaults()

	office := &officeConverter{binary: opts.OfficeBinary}
	return NewRegistry(map[classify.Tag]Capability{
		classify.TagText:     &TextExtractor{opts: opts},
		classify.TagCSV:      NewDelimitedExtractor(classify.TagCSV, ',', opts),
		classify.TagTSV:      NewDelimitedExtractor(classify.TagTSV, '\t', opts),
		classify.TagXLSX:     &XLSXExtractor{opts: opts},
		classify.TagXML:      &XMLExtractor{opts: opts},
		classify.TagDoc:      &WordExtractor{opts: opts, converter: office},
		classify.TagPPT:      &SlidesExtractor{opts: opts, converter: office},
		classify.TagRST:      &RSTExtractor{opts: opts},
		classify.TagRTF:      &RTFExtractor{opts: opts},
		classify.TagEmail:    &EmailExtractor{opts: opts},
		classify.TagMSG:      &MSGExtractor{opts: opts},
		classify.TagEPUB:     &EPUBExtractor{opts: opts},
		classify.TagImage:    &ImageExtractor{opts: opts},
		classify.TagMarkdown: &MarkdownExtractor{opts: opts},
		classify.TagODT:      &ODTExtractor{opts: opts},
		classify.TagOrg:      &OrgExtractor{opts: opts},
		classify.TagHTML:     &HTMLExtractor{opts: opts},
		classify.TagPDF:      &PDFExtractor{opts: opts},
	})
}
