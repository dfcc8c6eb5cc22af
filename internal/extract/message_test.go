package extract

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/docsift/internal/element"
)

// Test Plan for messages and books:
// - eml multipart/alternative prefers the plain part and decodes quoted-printable
// - eml headers (encoded words included) become metadata on every element
// - HTML-only eml bodies are sanitised and parsed as HTML
// - a file that is not a compound document fails as msg
// - epub chapters follow spine order, not manifest order

const alternativeEML = "From: Alice Example <alice@example.com>\r\n" +
	"To: bob@example.com, Carol <carol@example.com>\r\n" +
	"Subject: =?UTF-8?Q?Quarterly_r=C3=A9sum=C3=A9?=\r\n" +
	"Date: Mon, 02 Jan 2006 15:04:05 -0700\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=\"XYZ\"\r\n" +
	"\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"Content-Transfer-Encoding: quoted-printable\r\n" +
	"\r\n" +
	"Hello Bob,\r\n" +
	"\r\n" +
	"The numbers are in=2E\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>Hello Bob, from HTML.</p>\r\n" +
	"--XYZ--\r\n"

func TestEmailExtractor_Alternative(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "update.eml")
	writeFile(t, path, alternativeEML)

	els, err := (&EmailExtractor{opts: testOptions()}).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []kt{
		{element.KindNarrativeText, "Hello Bob,"},
		{element.KindNarrativeText, "The numbers are in."},
	}, summarize(els))

	for _, e := range els {
		assert.Equal(t, []string{`"Alice Example" <alice@example.com>`}, e.Metadata[MetaSentFrom])
		assert.Equal(t, []string{"<bob@example.com>", `"Carol" <carol@example.com>`}, e.Metadata[MetaSentTo])
		assert.Equal(t, "Quarterly résumé", e.Metadata[MetaSubject])
		assert.Equal(t, "2006-01-02T22:04:05Z", e.Metadata[MetaDate])
	}
}

func TestEmailExtractor_HTMLOnly(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "notice.eml")
	writeFile(t, path, strings.Join([]string{
		"From: ops@example.com",
		"Subject: Maintenance",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<h1>Notice</h1><p>Server maintenance tonight.</p><script>alert(1)</script>",
	}, "\r\n"))

	els, err := (&EmailExtractor{opts: testOptions()}).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []kt{
		{element.KindTitle, "Notice"},
		{element.KindNarrativeText, "Server maintenance tonight."},
	}, summarize(els))
	assert.Equal(t, "Maintenance", els[0].Metadata[MetaSubject])
}

func TestMSGExtractor_NotCompoundFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mail.msg")
	writeFile(t, path, "definitely not an outlook message")

	_, err := (&MSGExtractor{opts: testOptions()}).Extract(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtraction))
	assert.Equal(t, "not an outlook message", Reason(err))
}

func TestDecodeMAPIString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Hi", decodeMAPIString([]byte{'H', 0, 'i', 0, 0, 0}, true))
	assert.Equal(t, "café", decodeMAPIString([]byte("caf\xe9\x00"), false))
}

func TestEPUBExtractor_SpineOrder(t *testing.T) {
	t.Parallel()

	chapter := func(title, body string) string {
		return `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>x</title></head><body><h1>` + title + `</h1><p>` + body + `</p></body></html>`
	}

	path := filepath.Join(t.TempDir(), "book.epub")
	writeZip(t, path, map[string]string{
		"mimetype": "application/epub+zip",
		"META-INF/container.xml": `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container"><rootfiles><rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/></rootfiles></container>`,
		"OEBPS/content.opf": `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="id">
<metadata xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>Book</dc:title></metadata>
<manifest><item id="c1" href="ch1.xhtml" media-type="application/xhtml+xml"/><item id="c2" href="ch2.xhtml" media-type="application/xhtml+xml"/></manifest>
<spine><itemref idref="c2"/><itemref idref="c1"/></spine></package>`,
		"OEBPS/ch1.xhtml": chapter("Later Chapter", "Written second."),
		"OEBPS/ch2.xhtml": chapter("Opening Chapter", "Written first."),
	})

	els, err := (&EPUBExtractor{opts: testOptions()}).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []kt{
		{element.KindTitle, "Opening Chapter"},
		{element.KindNarrativeText, "Written first."},
		{element.KindTitle, "Later Chapter"},
		{element.KindNarrativeText, "Written second."},
	}, summarize(els))
	assert.Equal(t, 1, els[0].Metadata[element.MetaPageNumber])
	assert.Equal(t, 2, els[2].Metadata[element.MetaPageNumber])
}
