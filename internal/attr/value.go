package attr

import (
	"errors"
	"fmt"
	"slices"
)

// ErrEmptySet is returned when a StringSet with no members is encoded or decoded.
var ErrEmptySet = errors.New("string set must not be empty")

// ErrInvalidUTF8 is returned when a string value is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("string is not valid UTF-8")

// Value is a sealed interface over the attribute kinds the store accepts.
// Only Null, String, Int, Bool and StringSet implement it.
type Value interface {
	attrValue() // Sealed - only these types implement it
}

// Null is an explicitly absent value. It is distinct from a missing attribute.
type Null struct{}

func (Null) attrValue() {}

// String is a string attribute.
type String string

func (String) attrValue() {}

// Int is an integer attribute. Encoded as a decimal string under the "N" tag.
type Int int64

func (Int) attrValue() {}

// Bool is a boolean attribute.
type Bool bool

func (Bool) attrValue() {}

// StringSet is a sorted, de-duplicated set of strings.
// Build it with NewStringSet so the ordering invariant holds.
type StringSet []string

func (StringSet) attrValue() {}

// NewStringSet returns the sorted, de-duplicated set of members.
func NewStringSet(members ...string) StringSet {
	set := slices.Clone(members)
	slices.Sort(set)
	return StringSet(slices.Compact(set))
}

// Contains reports whether s is a member of the set.
func (ss StringSet) Contains(s string) bool {
	_, found := slices.BinarySearch(ss, s)
	return found
}

// Union returns a new set holding the members of both sets.
func (ss StringSet) Union(other StringSet) StringSet {
	return NewStringSet(append(slices.Clone(ss), other...)...)
}

// OptString returns String(*s), or Null when s is nil.
func OptString(s *string) Value {
	if s == nil {
		return Null{}
	}
	return String(*s)
}

// OptStringSet returns the set of members, or Null when there are none.
func OptStringSet(members []string) Value {
	if len(members) == 0 {
		return Null{}
	}
	return NewStringSet(members...)
}

// Equal reports whether two values have the same kind and content.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case StringSet:
		bv, ok := b.(StringSet)
		return ok && slices.Equal(NewStringSet(av...), NewStringSet(bv...))
	default:
		return false
	}
}

// Kind returns the wire tag of the value ("NULL", "S", "N", "BOOL", "SS").
func Kind(v Value) string {
	switch v.(type) {
	case Null:
		return tagNull
	case String:
		return tagString
	case Int:
		return tagNumber
	case Bool:
		return tagBool
	case StringSet:
		return tagStringSet
	default:
		return fmt.Sprintf("%T", v)
	}
}
