// Package namedbuffer accumulates document text per field name.
package namedbuffer

import (
	"bytes"
	"fmt"
	"sort"
	"unicode/utf8"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/errors"
)

// Set maps field names to growable byte buffers.
type Set struct {
	bufs map[string][]byte
}

// New allocates one empty buffer per name.
func New(names []string) *Set {
	s := &Set{bufs: make(map[string][]byte, len(names))}
	for _, n := range names {
		s.bufs[n] = nil
	}
	return s
}

// Append adds data to the buffer for name. Whitespace-only data is ignored.
// joiner is written first when the buffer already has content. With
// normalizeWS the data is trimmed of surrounding whitespace; otherwise it is
// stored verbatim. An unknown name is ErrConfigMismatch unless autovivify
// is set.
func (s *Set) Append(name string, data, joiner []byte, normalizeWS, autovivify bool) error {
	buf, ok := s.bufs[name]
	if !ok && !autovivify {
		return fmt.Errorf("%w: no buffer for field %q", apperrors.ErrConfigMismatch, name)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		if !ok {
			s.bufs[name] = nil
		}
		return nil
	}
	if normalizeWS {
		data = trimmed
	}
	if len(buf) > 0 {
		buf = append(buf, joiner...)
	}
	s.bufs[name] = append(buf, data...)
	return nil
}

// Get returns the accumulated bytes for name, or nil.
func (s *Set) Get(name string) []byte {
	return s.bufs[name]
}

// Truncate cuts the buffer for name to at most limit bytes without splitting
// a UTF-8 sequence.
func (s *Set) Truncate(name string, limit int) {
	buf := s.bufs[name]
	if limit < 0 || len(buf) <= limit {
		return
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(buf[cut]) {
		cut--
	}
	s.bufs[name] = buf[:cut]
}

// Has reports whether a buffer exists for name.
func (s *Set) Has(name string) bool {
	_, ok := s.bufs[name]
	return ok
}

// Names lists buffer names in sorted order.
func (s *Set) Names() []string {
	out := make([]string, 0, len(s.bufs))
	for n := range s.bufs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Len sums the lengths of all buffers.
func (s *Set) Len() int {
	total := 0
	for _, b := range s.bufs {
		total += len(b)
	}
	return total
}

// Strings copies every non-empty buffer into a map.
func (s *Set) Strings() map[string]string {
	out := make(map[string]string, len(s.bufs))
	for n, b := range s.bufs {
		if len(b) > 0 {
			out[n] = string(b)
		}
	}
	return out
}
