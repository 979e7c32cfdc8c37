package store

import (
	"fmt"
	"strings"

	"github.com/roach88/filmclub/internal/attr"
)

// Condition is a predicate over the current state of one item.
// The item is nil when no item exists under the key.
type Condition interface {
	Eval(item attr.Item) bool
	String() string
}

type notExists struct{}

// NotExists holds when no item is stored under the key.
func NotExists() Condition { return notExists{} }

func (notExists) Eval(item attr.Item) bool { return item == nil }
func (notExists) String() string           { return "attribute_not_exists(SK)" }

type exists struct{}

// Exists holds when an item is stored under the key.
func Exists() Condition { return exists{} }

func (exists) Eval(item attr.Item) bool { return item != nil }
func (exists) String() string           { return "attribute_exists(SK)" }

type equals struct {
	name  string
	value attr.Value
}

// Equals holds when the item exists and the attribute equals value.
// Comparing against attr.Null also matches an attribute that is missing.
func Equals(name string, value attr.Value) Condition {
	return equals{name: name, value: value}
}

func (c equals) Eval(item attr.Item) bool {
	if item == nil {
		return false
	}
	v, ok := item[c.name]
	if !ok {
		_, isNull := c.value.(attr.Null)
		return isNull
	}
	return attr.Equal(v, c.value)
}

func (c equals) String() string {
	data, err := attr.MarshalValue(c.value)
	if err != nil {
		return fmt.Sprintf("%s = <%v>", c.name, err)
	}
	return fmt.Sprintf("%s = %s", c.name, data)
}

type or []Condition

// Or holds when any of the conditions holds.
func Or(conds ...Condition) Condition { return or(conds) }

func (c or) Eval(item attr.Item) bool {
	for _, cond := range c {
		if cond.Eval(item) {
			return true
		}
	}
	return false
}

func (c or) String() string { return join(c, " OR ") }

type and []Condition

// And holds when every condition holds.
func And(conds ...Condition) Condition { return and(conds) }

func (c and) Eval(item attr.Item) bool {
	for _, cond := range c {
		if !cond.Eval(item) {
			return false
		}
	}
	return true
}

func (c and) String() string { return join(c, " AND ") }

func join(conds []Condition, sep string) string {
	parts := make([]string, len(conds))
	for i, cond := range conds {
		parts[i] = cond.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}
