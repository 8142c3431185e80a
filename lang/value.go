package lang

import (
	"fmt"
	"iter"
	"math"
	"reflect"
	"slices"
	"strings"
)

// Char is a single character value. It behaves as an integral number in
// arithmetic and as one-character text in comparisons with strings.
type Char rune

// String returns the character as text.
func (c Char) String() string { return string(rune(c)) }

// Pair is a key/value entry, produced by the ":" operator and used to build
// map literals.
type Pair struct {
	Key   any
	Value any
}

// String returns the pair in "key: value" form.
func (p Pair) String() string {
	return Format(p.Key) + ": " + Format(p.Value)
}

// Set is an insertion-ordered collection of distinct values.
//
// Membership is numeric-aware: Int32(1), Int64(1) and Float(1.0) are the
// same member.
type Set struct {
	items []any
	index map[any]int
}

// NewSet returns a set holding the distinct values of items in order.
func NewSet(items ...any) *Set {
	s := &Set{index: make(map[any]int, len(items))}
	for _, v := range items {
		s.Add(v)
	}

	return s
}

// Add inserts v, reporting whether it was not already a member.
func (s *Set) Add(v any) bool {
	if s.index == nil {
		s.index = make(map[any]int)
	}

	k := memberKey(v)
	if _, ok := s.index[k]; ok {
		return false
	}

	s.index[k] = len(s.items)
	s.items = append(s.items, v)

	return true
}

// Remove deletes v, reporting whether it was a member.
func (s *Set) Remove(v any) bool {
	k := memberKey(v)

	i, ok := s.index[k]
	if !ok {
		return false
	}

	s.items = slices.Delete(s.items, i, i+1)
	delete(s.index, k)

	for j := i; j < len(s.items); j++ {
		s.index[memberKey(s.items[j])] = j
	}

	return true
}

// Contains reports whether v is a member.
func (s *Set) Contains(v any) bool {
	if s == nil {
		return false
	}

	_, ok := s.index[memberKey(v)]

	return ok
}

// Len returns the number of members.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}

	return len(s.items)
}

// Items returns a copy of the members in insertion order.
func (s *Set) Items() []any {
	if s == nil {
		return nil
	}

	return slices.Clone(s.items)
}

// All returns an iterator over the members in insertion order.
func (s *Set) All() iter.Seq[any] {
	return func(yield func(any) bool) {
		if s == nil {
			return
		}

		for _, v := range s.items {
			if !yield(v) {
				return
			}
		}
	}
}

// Clone returns a shallow copy of s.
func (s *Set) Clone() *Set {
	return NewSet(s.Items()...)
}

// Equal reports whether s and o have the same members, ignoring order.
func (s *Set) Equal(o *Set) bool {
	if s.Len() != o.Len() {
		return false
	}

	for v := range s.All() {
		if !o.Contains(v) {
			return false
		}
	}

	return true
}

// String returns the set in "{a, b}" form.
func (s *Set) String() string {
	var sb strings.Builder

	sb.WriteByte('{')

	for i, v := range s.Items() {
		if i > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(Format(v))
	}

	sb.WriteByte('}')

	return sb.String()
}

// memberKey normalizes v into a comparable key such that values equal under
// [Equal] produce the same key.
func memberKey(v any) any {
	if n, ok := numberOf(v); ok {
		if n.kind == floatKind {
			if n.f == math.Trunc(n.f) && !math.IsInf(n.f, 0) &&
				math.Abs(n.f) < 1<<63 {
				return int64(n.f)
			}

			return n.f
		}

		return n.i
	}

	if v == nil {
		return nil
	}

	type opaque struct{ text string }

	switch t := reflect.TypeOf(v); {
	case t == pairType:
		return opaque{"pair:" + memberText(v.(Pair).Key) + ":" + memberText(v.(Pair).Value)}
	case t.Comparable() && t.Kind() != reflect.Interface:
		return v
	}

	return opaque{fmt.Sprintf("%T:%s", v, Format(v))}
}

func memberText(v any) string {
	return fmt.Sprintf("%v", memberKey(v))
}

var pairType = reflect.TypeFor[Pair]()
