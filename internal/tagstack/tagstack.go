// Package tagstack tracks the currently open tags that map to configured
// fields. The stack is seeded with a sentinel activation bound to the default
// field, so Head never fails while a document is being parsed.
package tagstack

import "strings"

// Activation is one open tag.
type Activation struct {
	Raw   string
	Baked string
	// Context is the flattened stack at the time this activation was pushed,
	// innermost tag first.
	Context string
	Seq     int
}

// Stack is a slice-backed stack. Index 0 holds the sentinel.
type Stack struct {
	name  string
	items []Activation
	seq   int
}

// New returns a stack holding only the sentinel activation.
func New(name, sentinel string) *Stack {
	s := &Stack{name: name}
	s.Reset(sentinel)
	return s
}

// Reset drops every activation and installs a fresh sentinel.
func (s *Stack) Reset(sentinel string) {
	s.items = s.items[:0]
	s.seq = 0
	s.items = append(s.items, Activation{
		Raw:     sentinel,
		Baked:   sentinel,
		Context: sentinel,
	})
}

func (s *Stack) Name() string { return s.name }

// Len counts live activations including the sentinel.
func (s *Stack) Len() int { return len(s.items) }

// Head returns the innermost activation.
func (s *Stack) Head() Activation {
	return s.items[len(s.items)-1]
}

// Push adds an activation and returns it. Its context is the flattened
// stack including itself.
func (s *Stack) Push(raw, baked string) Activation {
	s.seq++
	s.items = append(s.items, Activation{Raw: raw, Baked: baked, Seq: s.seq})
	top := len(s.items) - 1
	s.items[top].Context = s.Flatten()
	return s.items[top]
}

// Pop removes the head. The sentinel is never removed; popping a stack that
// holds only the sentinel returns it with ok set to false.
func (s *Stack) Pop() (Activation, bool) {
	if len(s.items) <= 1 {
		return s.items[0], false
	}
	top := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return top, true
}

// PopIfMatches pops the head only when its raw tag equals raw.
func (s *Stack) PopIfMatches(raw string) (Activation, bool) {
	if len(s.items) <= 1 || s.items[len(s.items)-1].Raw != raw {
		return Activation{}, false
	}
	return s.Pop()
}

// Flatten joins baked names from head down to the sentinel with spaces.
func (s *Stack) Flatten() string {
	if len(s.items) == 1 {
		return s.items[0].Baked
	}
	var b strings.Builder
	for i := len(s.items) - 1; i >= 0; i-- {
		if i != len(s.items)-1 {
			b.WriteByte(' ')
		}
		b.WriteString(s.items[i].Baked)
	}
	return b.String()
}

// Each calls fn for every activation from head to sentinel, stopping early
// when fn returns false.
func (s *Stack) Each(fn func(Activation) bool) {
	for i := len(s.items) - 1; i >= 0; i-- {
		if !fn(s.items[i]) {
			return
		}
	}
}

// Drain empties the stack, sentinel included. It is only used at document
// teardown and returns the number of activations that were still open
// above the sentinel.
func (s *Stack) Drain() int {
	if len(s.items) == 0 {
		return 0
	}
	open := len(s.items) - 1
	s.items = s.items[:0]
	return open
}
