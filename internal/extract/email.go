package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html/charset"

	"github.com/mvp-joe/docsift/internal/classify"
	"github.com/mvp-joe/docsift/internal/element"
)

// Email metadata keys.
const (
	MetaSentFrom = "sent_from"
	MetaSentTo   = "sent_to"
	MetaSubject  = "subject"
	MetaDate     = "date"
)

// EmailExtractor handles RFC 5322 messages (.eml).
type EmailExtractor struct {
	opts Options
}

// Extract walks the MIME tree. For multipart/alternative the plain text part
// wins over HTML; attachments are ignored. Header fields are attached to every
// element as metadata.
func (x *EmailExtractor) Extract(ctx context.Context, path string) ([]element.Element, error) {
	data, err := readFile(classify.TagEmail, path, x.opts.MaxFileSize)
	if err != nil {
		return nil, err
	}
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return nil, failf(classify.TagEmail, path, err, "malformed message")
	}

	els, err := mimeElements(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if err != nil {
		return nil, failf(classify.TagEmail, path, err, "read body")
	}

	meta := emailMeta(msg.Header)
	for i := range els {
		for k, v := range meta {
			els[i] = els[i].WithMeta(k, v)
		}
	}
	return els, nil
}

var headerDecoder = &mime.WordDecoder{CharsetReader: charset.NewReaderLabel}

func emailMeta(h mail.Header) map[string]any {
	meta := map[string]any{}
	if from := addressList(h, "From"); len(from) > 0 {
		meta[MetaSentFrom] = from
	}
	if to := addressList(h, "To"); len(to) > 0 {
		meta[MetaSentTo] = to
	}
	if subj := h.Get("Subject"); subj != "" {
		if decoded, err := headerDecoder.DecodeHeader(subj); err == nil {
			subj = decoded
		}
		meta[MetaSubject] = subj
	}
	if date, err := h.Date(); err == nil {
		meta[MetaDate] = date.UTC().Format(time.RFC3339)
	}
	return meta
}

func addressList(h mail.Header, key string) []string {
	raw := h.Get(key)
	if raw == "" {
		return nil
	}
	parser := mail.AddressParser{WordDecoder: headerDecoder}
	addrs, err := parser.ParseList(raw)
	if err != nil {
		return []string{strings.TrimSpace(raw)}
	}
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.String())
	}
	return out
}

func mimeElements(contentType, transferEncoding string, body io.Reader) ([]element.Element, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || contentType == "" {
		mediaType, params = "text/plain", map[string]string{}
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		mr := multipart.NewReader(body, params["boundary"])
		var parts [][]element.Element
		var plainIdx, htmlIdx = -1, -1
		for {
			p, err := mr.NextRawPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("multipart: %w", err)
			}
			if disp, _, _ := mime.ParseMediaType(p.Header.Get("Content-Disposition")); disp == "attachment" {
				continue
			}
			els, err := mimeElements(p.Header.Get("Content-Type"), p.Header.Get("Content-Transfer-Encoding"), p)
			if err != nil {
				return nil, err
			}
			pt, _, _ := mime.ParseMediaType(p.Header.Get("Content-Type"))
			switch {
			case pt == "text/plain" || pt == "" && plainIdx < 0:
				plainIdx = len(parts)
			case pt == "text/html":
				htmlIdx = len(parts)
			}
			parts = append(parts, els)
		}

		if mediaType == "multipart/alternative" {
			switch {
			case plainIdx >= 0 && len(parts[plainIdx]) > 0:
				return parts[plainIdx], nil
			case htmlIdx >= 0:
				return parts[htmlIdx], nil
			case len(parts) > 0:
				return parts[len(parts)-1], nil
			}
			return nil, nil
		}
		var out []element.Element
		for _, els := range parts {
			out = append(out, els...)
		}
		return out, nil
	}

	if !strings.HasPrefix(mediaType, "text/") {
		return nil, nil
	}
	raw, err := io.ReadAll(transferDecoder(transferEncoding, body))
	if err != nil {
		return nil, fmt.Errorf("decode %s body: %w", transferEncoding, err)
	}
	text, _, err := decodeText(raw, params["charset"], "")
	if err != nil {
		// Unknown declared charset; sniff instead.
		if text, _, err = decodeText(raw, "", ""); err != nil {
			return nil, err
		}
	}

	if mediaType == "text/html" {
		clean := bluemonday.UGCPolicy().SanitizeBytes([]byte(text))
		return parseHTML(clean)
	}
	return textElements(text), nil
}

func transferDecoder(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	}
	return r
}
