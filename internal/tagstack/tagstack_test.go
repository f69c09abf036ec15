package tagstack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHoldsSentinel(t *testing.T) {
	s := New("meta", "swishdefault")

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, "swishdefault", s.Head().Baked)
	assert.Equal(t, "swishdefault", s.Flatten())
	assert.Equal(t, "meta", s.Name())
}

func TestPushComputesContext(t *testing.T) {
	s := New("meta", "swishdefault")

	a := s.Push("Doc", "doc")
	assert.Equal(t, "doc swishdefault", a.Context)
	assert.Equal(t, 1, a.Seq)

	b := s.Push("Title", "title")
	assert.Equal(t, "title doc swishdefault", b.Context)
	assert.Equal(t, 2, b.Seq)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, b, s.Head())
}

func TestPopNeverRemovesSentinel(t *testing.T) {
	s := New("prop", "_")
	s.Push("a", "a")

	top, ok := s.Pop()
	require.True(t, ok)
	assert.Equal(t, "a", top.Raw)

	sentinel, ok := s.Pop()
	assert.False(t, ok)
	assert.Equal(t, "_", sentinel.Raw)
	assert.Equal(t, 1, s.Len())
}

func TestPopIfMatches(t *testing.T) {
	s := New("meta", "swishdefault")
	s.Push("outer", "outer")
	s.Push("inner", "inner")

	_, ok := s.PopIfMatches("outer")
	assert.False(t, ok, "only the head may be popped")
	assert.Equal(t, 3, s.Len())

	got, ok := s.PopIfMatches("inner")
	require.True(t, ok)
	assert.Equal(t, "inner outer swishdefault", got.Context)
	assert.Equal(t, "outer swishdefault", s.Flatten())

	_, ok = s.PopIfMatches("swishdefault")
	_, ok2 := s.PopIfMatches("outer")
	assert.False(t, ok)
	assert.True(t, ok2)
	_, ok = s.PopIfMatches("swishdefault")
	assert.False(t, ok, "sentinel does not match even by name")
}

func TestEachAndDrain(t *testing.T) {
	s := New("meta", "swishdefault")
	s.Push("a", "a")
	s.Push("b", "b")

	var seen []string
	s.Each(func(a Activation) bool {
		seen = append(seen, a.Baked)
		return true
	})
	assert.Equal(t, []string{"b", "a", "swishdefault"}, seen)

	seen = nil
	s.Each(func(a Activation) bool {
		seen = append(seen, a.Baked)
		return false
	})
	assert.Equal(t, []string{"b"}, seen)

	assert.Equal(t, 2, s.Drain())
	assert.Equal(t, 0, s.Len())

	s.Reset("swishdefault")
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, s.Push("c", "c").Seq)
}
