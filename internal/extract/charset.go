package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
)

// decodeText converts raw bytes to UTF-8. With an override the named
// encoding is used as-is; otherwise the encoding is sniffed from a BOM or,
// failing that, from whether the bytes are valid UTF-8.
func decodeText(data []byte, override, contentType string) (string, string, error) {
	var enc encoding.Encoding
	var name string

	if override != "" {
		enc, name = charset.Lookup(override)
		if enc == nil {
			return "", "", fmt.Errorf("unknown encoding %q", override)
		}
	} else {
		enc, name, _ = charset.DetermineEncoding(data, contentType)
		if name == "windows-1252" && utf8.Valid(data) {
			enc, name = encoding.Nop, "utf-8"
		}
	}

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", name, fmt.Errorf("decode %s: %w", name, err)
	}
	return strings.TrimPrefix(string(out), "\ufeff"), name, nil
}
