package attr

import (
	"fmt"
	"maps"
	"slices"
)

// Item is one stored record: attribute name to value.
type Item map[string]Value

// SortedNames returns attribute names in byte order for deterministic output.
func (it Item) SortedNames() []string {
	return slices.Sorted(maps.Keys(it))
}

// Has reports whether the attribute is present (a Null value counts as present).
func (it Item) Has(name string) bool {
	_, ok := it[name]
	return ok
}

// Clone returns a shallow copy of the item. Values are immutable so this is safe.
func (it Item) Clone() Item {
	return maps.Clone(it)
}

// Equal reports whether both items hold the same attributes and values.
func (it Item) Equal(other Item) bool {
	if len(it) != len(other) {
		return false
	}
	for name, v := range it {
		ov, ok := other[name]
		if !ok || !Equal(v, ov) {
			return false
		}
	}
	return true
}

// String returns a required string attribute.
func (it Item) String(name string) (string, error) {
	v, ok := it[name]
	if !ok {
		return "", fmt.Errorf("attribute %q: missing", name)
	}
	s, ok := v.(String)
	if !ok {
		return "", fmt.Errorf("attribute %q: expected S, got %s", name, Kind(v))
	}
	return string(s), nil
}

// OptString returns a nullable string attribute. Missing and Null both yield nil.
func (it Item) OptString(name string) (*string, error) {
	v, ok := it[name]
	if !ok {
		return nil, nil
	}
	switch val := v.(type) {
	case Null:
		return nil, nil
	case String:
		s := string(val)
		return &s, nil
	default:
		return nil, fmt.Errorf("attribute %q: expected S or NULL, got %s", name, Kind(v))
	}
}

// Int returns a required integer attribute.
func (it Item) Int(name string) (int64, error) {
	v, ok := it[name]
	if !ok {
		return 0, fmt.Errorf("attribute %q: missing", name)
	}
	n, ok := v.(Int)
	if !ok {
		return 0, fmt.Errorf("attribute %q: expected N, got %s", name, Kind(v))
	}
	return int64(n), nil
}

// OptStringSet returns a nullable string set. Missing and Null both yield nil.
func (it Item) OptStringSet(name string) ([]string, error) {
	v, ok := it[name]
	if !ok {
		return nil, nil
	}
	switch val := v.(type) {
	case Null:
		return nil, nil
	case StringSet:
		return slices.Clone([]string(val)), nil
	default:
		return nil, fmt.Errorf("attribute %q: expected SS or NULL, got %s", name, Kind(v))
	}
}
