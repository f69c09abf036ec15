// Package tokenstore keeps the tokens produced for one document. Token text
// lives in a single shared arena and context strings are interned, so each
// token costs one fixed-size record.
package tokenstore

import (
	"iter"

	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/fields"
)

// Token is one indexed word occurrence. Text aliases the store's arena and
// must not be modified.
type Token struct {
	Position int
	Offset   int
	Length   int
	Text     []byte
	Meta     *fields.MetaName
	Context  *string
}

func (t Token) String() string { return string(t.Text) }

type record struct {
	pos  int
	off  int
	len  int
	meta *fields.MetaName
	ctx  *string
}

// Store is not safe for concurrent use.
type Store struct {
	arena    []byte
	recs     []record
	contexts map[string]*string
	pos      int
}

func New() *Store {
	return &Store{contexts: make(map[string]*string)}
}

// Grow reserves room for about n more bytes of text.
func (s *Store) Grow(n int) {
	if cap(s.arena)-len(s.arena) >= n {
		return
	}
	next := make([]byte, len(s.arena), 2*cap(s.arena)+n)
	copy(next, s.arena)
	s.arena = next
}

// Add copies text into the arena and records a token at the next word
// position.
func (s *Store) Add(text []byte, meta *fields.MetaName, context string) Token {
	s.pos++
	off := len(s.arena)
	s.arena = append(s.arena, text...)
	r := record{
		pos:  s.pos,
		off:  off,
		len:  len(text),
		meta: meta,
		ctx:  s.Intern(context),
	}
	s.recs = append(s.recs, r)
	return s.token(r)
}

// Intern returns the shared copy of ctx.
func (s *Store) Intern(ctx string) *string {
	if p, ok := s.contexts[ctx]; ok {
		return p
	}
	p := new(string)
	*p = ctx
	s.contexts[ctx] = p
	return p
}

// Position is the word position of the most recent token or skip.
func (s *Store) Position() int { return s.pos }

// Skip advances the word position by n without emitting a token.
func (s *Store) Skip(n int) {
	if n > 0 {
		s.pos += n
	}
}

func (s *Store) Len() int { return len(s.recs) }

// ArenaLen is the number of text bytes stored.
func (s *Store) ArenaLen() int { return len(s.arena) }

// Contexts is the number of distinct interned contexts.
func (s *Store) Contexts() int { return len(s.contexts) }

func (s *Store) At(i int) Token {
	return s.token(s.recs[i])
}

// All yields tokens in emission order. It may be ranged over repeatedly.
func (s *Store) All() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for _, r := range s.recs {
			if !yield(s.token(r)) {
				return
			}
		}
	}
}

// Reset empties the store for reuse, keeping allocated capacity.
func (s *Store) Reset() {
	s.arena = s.arena[:0]
	s.recs = s.recs[:0]
	clear(s.contexts)
	s.pos = 0
}

func (s *Store) token(r record) Token {
	end := r.off + r.len
	return Token{
		Position: r.pos,
		Offset:   r.off,
		Length:   r.len,
		Text:     s.arena[r.off:end:end],
		Meta:     r.meta,
		Context:  r.ctx,
	}
}
