package classify

import (
	"fmt"
	"sort"
	"strings"
)

// Tag identifies the extraction capability a file is routed to.
// The zero value is Unsupported.
type Tag string

const (
	Unsupported Tag = ""

	TagText     Tag = "text"
	TagCSV      Tag = "csv"
	TagTSV      Tag = "tsv"
	TagXLSX     Tag = "xlsx"
	TagXML      Tag = "xml"
	TagDoc      Tag = "doc"
	TagPPT      Tag = "ppt"
	TagRST      Tag = "rst"
	TagRTF      Tag = "rtf"
	TagEmail    Tag = "email"
	TagMSG      Tag = "msg"
	TagEPUB     Tag = "epub"
	TagImage    Tag = "image"
	TagMarkdown Tag = "markdown"
	TagODT      Tag = "odt"
	TagOrg      Tag = "org"
	TagHTML     Tag = "html"
	TagPDF      Tag = "pdf"
)

// allTags is the closed set, in the order formats are listed to users.
var allTags = []Tag{
	TagCSV, TagTSV, TagXLSX, TagXML, TagDoc, TagPPT, TagRST, TagRTF, TagText,
	TagEmail, TagEPUB, TagImage, TagMarkdown, TagMSG, TagODT, TagOrg, TagHTML, TagPDF,
}

// extensions maps lower-case extensions (with leading dot) to tags.
var extensions = map[string]Tag{
	".txt":      TagText,
	".text":     TagText,
	".log":      TagText,
	".csv":      TagCSV,
	".tsv":      TagTSV,
	".tab":      TagTSV,
	".xlsx":     TagXLSX,
	".xml":      TagXML,
	".doc":      TagDoc,
	".docx":     TagDoc,
	".ppt":      TagPPT,
	".pptx":     TagPPT,
	".rst":      TagRST,
	".rtf":      TagRTF,
	".eml":      TagEmail,
	".msg":      TagMSG,
	".epub":     TagEPUB,
	".png":      TagImage,
	".jpg":      TagImage,
	".jpeg":     TagImage,
	".tif":      TagImage,
	".tiff":     TagImage,
	".bmp":      TagImage,
	".heic":     TagImage,
	".md":       TagMarkdown,
	".markdown": TagMarkdown,
	".odt":      TagODT,
	".org":      TagOrg,
	".html":     TagHTML,
	".htm":      TagHTML,
	".pdf":      TagPDF,
}

// All returns every supported tag in a stable order.
func All() []Tag {
	out := make([]Tag, len(allTags))
	copy(out, allTags)
	return out
}

// ParseTag converts a user-supplied name into a Tag.
func ParseTag(s string) (Tag, error) {
	name := Tag(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range allTags {
		if t == name {
			return t, nil
		}
	}
	return Unsupported, fmt.Errorf("unknown format %q", s)
}

// Extensions returns the sorted extensions routed to t.
func (t Tag) Extensions() []string {
	var out []string
	for ext, tag := range extensions {
		if tag == t {
			out = append(out, ext)
		}
	}
	sort.Strings(out)
	return out
}

// String returns the tag name, or "unsupported" for the zero value.
func (t Tag) String() string {
	if t == Unsupported {
		return "unsupported"
	}
	return string(t)
}
