package tokenizer

import "unicode"

// Marker is the boundary byte written between text runs that must not be
// treated as adjacent. The tokenizer treats it as a word break that also
// consumes one word position.
const Marker byte = 0x03

var (
	asciiIgnoreWord [128]bool
	asciiIgnoreEdge [128]bool
)

func init() {
	for c := 0; c < 128; c++ {
		ignore := c == 0 || isASCIISpace(c) || c < 0x20 || c == 0x7f || isASCIIPunct(c)
		asciiIgnoreEdge[c] = ignore
		asciiIgnoreWord[c] = ignore && c != '\''
	}
}

func isASCIISpace(c int) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// isASCIIPunct matches C ispunct: printable, not space, not alphanumeric.
func isASCIIPunct(c int) bool {
	if c <= ' ' || c >= 0x7f {
		return false
	}
	switch {
	case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return false
	}
	return true
}

// IsIgnoreWord reports whether r ends a token. The apostrophe does not, so
// contractions stay whole.
func IsIgnoreWord(r rune) bool {
	if r < 0x80 {
		return asciiIgnoreWord[r]
	}
	return isIgnoreWide(r)
}

// IsIgnoreEdge reports whether r is stripped from either end of a token.
func IsIgnoreEdge(r rune) bool {
	if r < 0x80 {
		return asciiIgnoreEdge[r]
	}
	return isIgnoreWide(r)
}

func isIgnoreWide(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsControl(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}
