package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/fields"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/tokenstore"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/errors"
)

func defaultAnalyzer() Analyzer {
	return NewAnalyzer(config.AnalyzerConfig{Lowercase: true, Tokenize: true})
}

type tok struct {
	Text string
	Pos  int
}

func run(t *testing.T, a Analyzer, input string) ([]tok, int) {
	t.Helper()
	store := tokenstore.New()
	n, err := a.Tokenize([]byte(input), Request{Context: "swishdefault", Store: store})
	require.NoError(t, err)
	var out []tok
	for tk := range store.All() {
		out = append(out, tok{Text: tk.String(), Pos: tk.Position})
	}
	return out, n
}

func TestHelloWorld(t *testing.T) {
	meta := &fields.MetaName{ID: 7, Name: "meta2"}
	store := tokenstore.New()

	n, err := defaultAnalyzer().Tokenize([]byte("hello world"), Request{Meta: meta, Context: "meta2", Store: store})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	first, second := store.At(0), store.At(1)
	assert.Equal(t, "hello", first.String())
	assert.Equal(t, 1, first.Position)
	assert.Equal(t, "world", second.String())
	assert.Equal(t, 2, second.Position)
	assert.Equal(t, 7, first.Meta.ID)
	assert.Equal(t, 7, second.Meta.ID)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []tok
	}{
		{"punctuation only", "...", nil},
		{"empty", "", nil},
		{"lowercases", "Hello WORLD", []tok{{"hello", 1}, {"world", 2}}},
		{"contraction kept", "don't stop", []tok{{"don't", 1}, {"stop", 2}}},
		{"edge apostrophes stripped", "'quoted' word", []tok{{"quoted", 1}, {"word", 2}}},
		{"lone apostrophe dropped", "a ' b", []tok{{"a", 1}, {"b", 2}}},
		{"symbols break", "foo+bar=baz", []tok{{"foo", 1}, {"bar", 2}, {"baz", 3}}},
		{"marker consumes a position", "alpha\x03beta", []tok{{"alpha", 1}, {"beta", 3}}},
		{"leading marker", "\x03alpha", []tok{{"alpha", 2}}},
		{"single character at end", "x", []tok{{"x", 1}}},
		{"digits are word characters", "route 66", []tok{{"route", 1}, {"66", 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n := run(t, defaultAnalyzer(), tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want), n)
		})
	}
}

func TestMaxWordLenForcesSplit(t *testing.T) {
	a := defaultAnalyzer()
	a.MaxWordLen = 3

	got, _ := run(t, a, "abcdef")
	assert.Equal(t, []tok{{"abc", 1}, {"def", 2}}, got)

	got, _ = run(t, a, "abcdefg hi")
	assert.Equal(t, []tok{{"abc", 1}, {"def", 2}, {"g", 3}, {"hi", 4}}, got)
}

func TestMinWordLenDiscards(t *testing.T) {
	a := defaultAnalyzer()
	a.MinWordLen = 3

	got, _ := run(t, a, "a an the they")
	assert.Equal(t, []tok{{"the", 1}, {"they", 2}}, got)
}

func TestNoLowercase(t *testing.T) {
	a := defaultAnalyzer()
	a.Lowercase = false

	got, _ := run(t, a, "MiXeD Ünïcode")
	assert.Equal(t, []tok{{"MiXeD", 1}, {"Ünïcode", 2}}, got)
}

func TestUTF8(t *testing.T) {
	got, _ := run(t, defaultAnalyzer(), "Ça va? Très «bien» — merci…")
	assert.Equal(t, []tok{{"ça", 1}, {"va", 2}, {"très", 3}, {"bien", 4}, {"merci", 5}}, got)
}

func TestUTF8WideCharacterClosesToken(t *testing.T) {
	a := defaultAnalyzer()
	a.MaxWordLen = 4

	got, _ := run(t, a, "abcé")
	assert.Equal(t, []tok{{"abc", 1}, {"é", 2}}, got)
}

func TestUTF8TruncatedSequence(t *testing.T) {
	store := tokenstore.New()
	buf := append([]byte("good é"), 0xc3)

	n, err := defaultAnalyzer().Tokenize(buf, Request{Context: "c", Store: store})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrScanOverrun)
	assert.Equal(t, 1, n, "tokens before the overrun are kept")
}

func TestUTF8InvalidByteIsBreak(t *testing.T) {
	got, _ := run(t, defaultAnalyzer(), "foo\xffbar é")
	assert.Equal(t, []tok{{"foo", 1}, {"bar", 2}, {"é", 3}}, got)
}

func TestASCIIAndUTF8PathsAgree(t *testing.T) {
	inputs := []string{
		"The quick brown fox jumps over the lazy dog.",
		"it's 'quoted', isn't it?\x03next   \tline\n",
		"a-b_c.d/e:f;g",
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa bb",
	}
	a := defaultAnalyzer()
	a.MaxWordLen = 8
	for _, in := range inputs {
		asciiStore := tokenstore.New()
		utf8Store := tokenstore.New()
		na := a.ScanASCII([]byte(in), Request{Context: "c", Store: asciiStore})
		nu, err := a.ScanUTF8([]byte(in), Request{Context: "c", Store: utf8Store})
		require.NoError(t, err)
		require.Equal(t, na, nu, in)
		for i := 0; i < na; i++ {
			x, y := asciiStore.At(i), utf8Store.At(i)
			assert.Equal(t, x.String(), y.String())
			assert.Equal(t, x.Position, y.Position)
			assert.Equal(t, x.Offset, y.Offset)
		}
	}
}

func TestIdempotent(t *testing.T) {
	a := defaultAnalyzer()
	first, _ := run(t, a, "same input, same tokens\x03every time")
	second, _ := run(t, a, "same input, same tokens\x03every time")
	assert.Equal(t, first, second)
}

func TestBoundsAndMonotonicPositions(t *testing.T) {
	a := defaultAnalyzer()
	a.MinWordLen = 2
	a.MaxWordLen = 5
	store := tokenstore.New()
	_, err := a.Tokenize([]byte("x yy zzzzzzzzzzz wörter \x03 ab\x03\x03cd"), Request{Context: "c", Store: store})
	require.NoError(t, err)

	prev := 0
	for tk := range store.All() {
		assert.GreaterOrEqual(t, tk.Length, 2)
		assert.LessOrEqual(t, tk.Length, 5)
		assert.GreaterOrEqual(t, tk.Position, prev)
		prev = tk.Position
	}
}

func TestCharacterClasses(t *testing.T) {
	assert.True(t, IsIgnoreWord(' '))
	assert.True(t, IsIgnoreWord('$'))
	assert.True(t, IsIgnoreWord(rune(Marker)))
	assert.False(t, IsIgnoreWord('\''))
	assert.True(t, IsIgnoreEdge('\''))
	assert.False(t, IsIgnoreWord('é'))
	assert.True(t, IsIgnoreWord('€'))
	assert.True(t, IsIgnoreWord(' '))
}
