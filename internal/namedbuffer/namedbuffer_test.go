package namedbuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/errors"
)

var marker = []byte{0x03}

func TestNewAllocatesEmptyBuffers(t *testing.T) {
	s := New([]string{"swishdefault", "title"})

	assert.True(t, s.Has("title"))
	assert.Empty(t, s.Get("title"))
	assert.Equal(t, []string{"swishdefault", "title"}, s.Names())
	assert.Zero(t, s.Len())
}

func TestAppendJoinsWithMarker(t *testing.T) {
	s := New([]string{"kw"})

	require.NoError(t, s.Append("kw", []byte("alpha"), marker, false, false))
	require.NoError(t, s.Append("kw", []byte("beta"), marker, false, false))

	assert.Equal(t, "alpha\x03beta", string(s.Get("kw")))
}

func TestAppendSkipsWhitespace(t *testing.T) {
	s := New([]string{"kw"})

	require.NoError(t, s.Append("kw", []byte(" \n\t "), marker, false, false))
	assert.Empty(t, s.Get("kw"))

	require.NoError(t, s.Append("kw", []byte("x"), marker, false, false))
	require.NoError(t, s.Append("kw", []byte("   "), marker, false, false))
	assert.Equal(t, "x", string(s.Get("kw")), "no dangling joiner")
}

func TestAppendNormalizeWhitespace(t *testing.T) {
	s := New([]string{"verbatim", "clean"})

	require.NoError(t, s.Append("verbatim", []byte("  a  b  "), marker, false, false))
	require.NoError(t, s.Append("clean", []byte("  a  b  "), marker, true, false))

	assert.Equal(t, "  a  b  ", string(s.Get("verbatim")))
	assert.Equal(t, "a  b", string(s.Get("clean")))
}

func TestAppendUnknownField(t *testing.T) {
	s := New(nil)

	err := s.Append("missing", []byte("x"), marker, false, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConfigMismatch)

	require.NoError(t, s.Append("missing", []byte("x"), marker, false, true))
	assert.Equal(t, "x", string(s.Get("missing")))
	assert.Equal(t, map[string]string{"missing": "x"}, s.Strings())
}

func TestTruncate(t *testing.T) {
	s := New([]string{"p"})
	require.NoError(t, s.Append("p", []byte("héllo"), marker, true, false))

	s.Truncate("p", 2)
	assert.Equal(t, "h", string(s.Get("p")), "does not split é")

	s.Truncate("p", 10)
	assert.Equal(t, "h", string(s.Get("p")))
}
