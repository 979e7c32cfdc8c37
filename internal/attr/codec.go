package attr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// Wire tags, one per value kind.
const (
	tagNull      = "NULL"
	tagString    = "S"
	tagNumber    = "N"
	tagBool      = "BOOL"
	tagStringSet = "SS"
)

// MarshalValue encodes a single value in its tagged wire form.
func MarshalValue(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalValue decodes a single tagged wire value.
func UnmarshalValue(data []byte) (Value, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	if len(raw) != 1 {
		return nil, fmt.Errorf("decode value: expected exactly one type tag, got %d", len(raw))
	}

	for tag, body := range raw {
		switch tag {
		case tagNull:
			var b bool
			if err := json.Unmarshal(body, &b); err != nil || !b {
				return nil, fmt.Errorf("decode value: NULL tag must be true")
			}
			return Null{}, nil

		case tagString:
			var s string
			if err := json.Unmarshal(body, &s); err != nil {
				return nil, fmt.Errorf("decode S: %w", err)
			}
			return String(s), nil

		case tagNumber:
			var s string
			if err := json.Unmarshal(body, &s); err != nil {
				return nil, fmt.Errorf("decode N: %w", err)
			}
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("decode N: %w", err)
			}
			return Int(n), nil

		case tagBool:
			var b bool
			if err := json.Unmarshal(body, &b); err != nil {
				return nil, fmt.Errorf("decode BOOL: %w", err)
			}
			return Bool(b), nil

		case tagStringSet:
			var members []string
			if err := json.Unmarshal(body, &members); err != nil {
				return nil, fmt.Errorf("decode SS: %w", err)
			}
			if len(members) == 0 {
				return nil, fmt.Errorf("decode SS: %w", ErrEmptySet)
			}
			return NewStringSet(members...), nil

		default:
			return nil, fmt.Errorf("decode value: unknown type tag %q", tag)
		}
	}
	panic("unreachable")
}

// MarshalJSON encodes the item with sorted attribute names.
func (it Item) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, name := range it.SortedNames() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(&buf, name); err != nil {
			return nil, fmt.Errorf("attribute name %q: %w", name, err)
		}
		buf.WriteByte(':')
		if err := writeValue(&buf, it[name]); err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a tagged item.
func (it *Item) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*it = make(Item, len(raw))
	for name, body := range raw {
		v, err := UnmarshalValue(body)
		if err != nil {
			return fmt.Errorf("attribute %q: %w", name, err)
		}
		(*it)[name] = v
	}
	return nil
}

func writeValue(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case Null:
		buf.WriteString(`{"NULL":true}`)
	case String:
		buf.WriteString(`{"S":`)
		if err := writeString(buf, string(val)); err != nil {
			return err
		}
		buf.WriteByte('}')
	case Int:
		buf.WriteString(`{"N":"`)
		buf.WriteString(strconv.FormatInt(int64(val), 10))
		buf.WriteString(`"}`)
	case Bool:
		if val {
			buf.WriteString(`{"BOOL":true}`)
		} else {
			buf.WriteString(`{"BOOL":false}`)
		}
	case StringSet:
		if len(val) == 0 {
			return fmt.Errorf("encode SS: %w", ErrEmptySet)
		}
		buf.WriteString(`{"SS":[`)
		for i, m := range NewStringSet(val...) {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, m); err != nil {
				return err
			}
		}
		buf.WriteString(`]}`)
	case nil:
		return fmt.Errorf("encode value: nil is not a value, use attr.Null")
	default:
		return fmt.Errorf("encode value: unknown value type %T", v)
	}
	return nil
}

// writeString writes s as a JSON string without HTML escaping. Strings are
// stored byte for byte; invalid UTF-8 is rejected rather than replaced.
func writeString(buf *bytes.Buffer, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("encode S %q: %w", s, ErrInvalidUTF8)
	}
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}
