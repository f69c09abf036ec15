package parser

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// decodeReader wraps r so it yields UTF-8. A declared encoding wins; with
// none the HTML sniffing rules pick one from the first bytes. The name of
// the encoding in effect is returned.
func decodeReader(r io.Reader, declared, mimeType string) (io.Reader, string, error) {
	if declared != "" && !isUTF8Label(declared) {
		if enc, name := charset.Lookup(declared); enc != nil {
			return transform.NewReader(r, enc.NewDecoder()), strings.ToUpper(name), nil
		}
	}
	if declared != "" {
		return r, DefaultEncoding, nil
	}
	ct := mimeType
	if ct == "" {
		ct = "text/html"
	}
	peek := make([]byte, 1024)
	n, err := io.ReadFull(r, peek)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, "", err
	}
	peek = peek[:n]
	rest := io.MultiReader(bytes.NewReader(peek), r)
	enc, name, certain := charset.DetermineEncoding(peek, ct)
	if isUTF8Label(name) || (!certain && name == "windows-1252" && validUTF8Prefix(peek)) {
		return rest, DefaultEncoding, nil
	}
	return transform.NewReader(rest, enc.NewDecoder()), strings.ToUpper(name), nil
}

// decodeText returns body as UTF-8. Invalid UTF-8 without a declared
// encoding is read as ISO-8859-1.
func decodeText(body []byte, declared string) ([]byte, string, bool, error) {
	if declared != "" && !isUTF8Label(declared) {
		if enc, name := charset.Lookup(declared); enc != nil {
			out, _, err := transform.Bytes(enc.NewDecoder(), body)
			return out, strings.ToUpper(name), false, err
		}
	}
	if utf8.Valid(body) {
		return body, DefaultEncoding, false, nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(body)
	return out, "ISO-8859-1", true, err
}

// validUTF8Prefix reports whether p is UTF-8, allowing one rune cut off at
// the end.
func validUTF8Prefix(p []byte) bool {
	for i := 0; i < utf8.UTFMax && len(p) > 0; i++ {
		if utf8.Valid(p) {
			return true
		}
		p = p[:len(p)-1]
	}
	return utf8.Valid(p)
}

func isUTF8Label(label string) bool {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "utf-8", "utf8", "unicode-1-1-utf-8":
		return true
	}
	return false
}
