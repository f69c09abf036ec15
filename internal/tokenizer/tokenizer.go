// Package tokenizer splits accumulated field text into position-tracked
// tokens. Pure ASCII input takes a byte-table path; anything else is decoded
// as UTF-8. Both paths produce the same tokens for ASCII text.
package tokenizer

import (
	"bytes"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/fields"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/tokenstore"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/errors"
)

const (
	DefaultMinWordLen = 1
	DefaultMaxWordLen = 256
)

// Analyzer carries the word-length bounds and case handling. Lengths are in
// bytes of the (lowercased) token text.
type Analyzer struct {
	MinWordLen int
	MaxWordLen int
	Lowercase  bool
	// Enabled is false when text is collected but never tokenized.
	Enabled    bool
}

// NewAnalyzer fills zero bounds with the defaults.
func NewAnalyzer(cfg config.AnalyzerConfig) Analyzer {
	a := Analyzer{
		MinWordLen: cfg.MinWordLen,
		MaxWordLen: cfg.MaxWordLen,
		Lowercase:  cfg.Lowercase,
		Enabled:    cfg.Tokenize,
	}
	if a.MinWordLen <= 0 {
		a.MinWordLen = DefaultMinWordLen
	}
	if a.MaxWordLen <= 0 {
		a.MaxWordLen = DefaultMaxWordLen
	}
	return a
}

// Request names the field and context new tokens belong to and the store
// they are added to.
type Request struct {
	Meta    *fields.MetaName
	Context string
	Store   *tokenstore.Store
}

// Tokenize appends the tokens found in buf to req.Store and returns how many
// were added.
func (a Analyzer) Tokenize(buf []byte, req Request) (int, error) {
	if isASCII(buf) {
		return a.ScanASCII(buf, req), nil
	}
	return a.ScanUTF8(buf, req)
}

// ScanASCII tokenizes buf one byte per character. Bytes at or above 0x80
// are treated as word breaks; callers should route such input to ScanUTF8.
func (a Analyzer) ScanASCII(buf []byte, req Request) int {
	n := 0
	tok := make([]byte, 0, min(a.MaxWordLen, len(buf)))
	req.Store.Grow(len(buf))
	for _, c := range buf {
		if a.Lowercase && 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c >= utf8.RuneSelf || asciiIgnoreWord[c] {
			if len(tok) > 0 {
				n += a.emit(tok, req)
				tok = tok[:0]
			}
			if c == Marker {
				req.Store.Skip(1)
			}
			continue
		}
		tok = append(tok, c)
		if len(tok) >= a.MaxWordLen {
			n += a.emit(tok, req)
			tok = tok[:0]
		}
	}
	if len(tok) > 0 {
		n += a.emit(tok, req)
	}
	return n
}

// ScanUTF8 tokenizes buf by code point. A multi-byte character that would
// push a token past MaxWordLen closes the token and starts the next one. A
// sequence cut short by the end of buf is ErrScanOverrun; tokens found
// before it stay in the store.
func (a Analyzer) ScanUTF8(buf []byte, req Request) (int, error) {
	n := 0
	tok := make([]byte, 0, min(a.MaxWordLen, len(buf)))
	req.Store.Grow(len(buf))
	for i := 0; i < len(buf); {
		r, size := utf8.DecodeRune(buf[i:])
		if r == utf8.RuneError && size <= 1 && !utf8.FullRune(buf[i:]) {
			return n, fmt.Errorf("%w: truncated UTF-8 sequence at byte %d of %d", apperrors.ErrScanOverrun, i, len(buf))
		}
		i += size
		if a.Lowercase {
			r = unicode.ToLower(r)
		}
		if IsIgnoreWord(r) {
			if len(tok) > 0 {
				n += a.emit(tok, req)
				tok = tok[:0]
			}
			if r == rune(Marker) {
				req.Store.Skip(1)
			}
			continue
		}
		width := utf8.RuneLen(r)
		if width > a.MaxWordLen {
			continue
		}
		if len(tok)+width > a.MaxWordLen {
			n += a.emit(tok, req)
			tok = tok[:0]
		}
		tok = utf8.AppendRune(tok, r)
		if len(tok) >= a.MaxWordLen {
			n += a.emit(tok, req)
			tok = tok[:0]
		}
	}
	if len(tok) > 0 {
		n += a.emit(tok, req)
	}
	return n, nil
}

// emit strips ignorable edges and stores the token when it fits the bounds.
func (a Analyzer) emit(tok []byte, req Request) int {
	word := bytes.TrimFunc(tok, IsIgnoreEdge)
	if len(word) < a.MinWordLen || len(word) > a.MaxWordLen {
		return 0
	}
	req.Store.Add(word, req.Meta, req.Context)
	return 1
}

func isASCII(buf []byte) bool {
	for _, c := range buf {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
