package extract

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/mvp-joe/docsift/internal/classify"
	"github.com/mvp-joe/docsift/internal/element"
	"github.com/mvp-joe/docsift/internal/fault"
)

// MAPI property ids of the top-level message streams.
const (
	propSubject     = "0037"
	propBody        = "1000"
	propSenderName  = "0C1A"
	propSenderEmail = "0C1F"
	propDisplayTo   = "0E04"
)

// MSGExtractor reads Outlook .msg compound files.
type MSGExtractor struct {
	opts Options
}

// Extract returns the plain-text body as elements with the sender,
// recipients and subject as metadata.
func (x *MSGExtractor) Extract(ctx context.Context, path string) ([]element.Element, error) {
	if err := checkSize(classify.TagMSG, path, x.opts.MaxFileSize); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fault.IO("open", path, err)
	}
	defer f.Close()

	doc, err := mscfb.New(f)
	if err != nil {
		return nil, failf(classify.TagMSG, path, err, "not an outlook message")
	}

	props := map[string]string{}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if len(entry.Path) > 0 || !strings.HasPrefix(entry.Name, "__substg1.0_") {
			continue
		}
		tag := strings.TrimPrefix(entry.Name, "__substg1.0_")
		if len(tag) != 8 {
			continue
		}
		id, typ := strings.ToUpper(tag[:4]), strings.ToUpper(tag[4:])
		if typ != "001F" && typ != "001E" {
			continue
		}
		buf := make([]byte, entry.Size)
		if _, err := io.ReadFull(entry, buf); err != nil {
			return nil, failf(classify.TagMSG, path, err, "read property %s", id)
		}
		props[id] = decodeMAPIString(buf, typ == "001F")
	}
	if len(props) == 0 {
		return nil, failf(classify.TagMSG, path, nil, "no message properties found")
	}

	meta := map[string]any{}
	if s := props[propSubject]; s != "" {
		meta[MetaSubject] = s
	}
	sender := props[propSenderEmail]
	if name := props[propSenderName]; name != "" {
		if sender != "" && sender != name {
			sender = name + " <" + sender + ">"
		} else {
			sender = name
		}
	}
	if sender != "" {
		meta[MetaSentFrom] = []string{sender}
	}
	if to := props[propDisplayTo]; to != "" {
		var list []string
		for _, r := range strings.Split(to, ";") {
			if r = strings.TrimSpace(r); r != "" {
				list = append(list, r)
			}
		}
		meta[MetaSentTo] = list
	}

	els := textElements(props[propBody])
	for i := range els {
		for k, v := range meta {
			els[i] = els[i].WithMeta(k, v)
		}
	}
	return els, nil
}

func decodeMAPIString(b []byte, utf16 bool) string {
	var out []byte
	var err error
	if utf16 {
		out, err = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
	} else {
		out, err = charmap.Windows1252.NewDecoder().Bytes(b)
	}
	if err != nil {
		out = b
	}
	return strings.TrimRight(string(out), "\x00")
}
