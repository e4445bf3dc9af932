// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ValueKind tells which shape a raw answer value has.
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueText
	ValueList
)

// Value is a raw answer as collected by a client: nothing, a single piece of
// text, or an ordered list of selections.
type Value struct {
	Kind  ValueKind
	Text  string
	Items []string
}

// TextValue returns a scalar value.
func TextValue(s string) Value {
	return Value{Kind: ValueText, Text: s}
}

// ListValue returns a list value. The items are copied.
func ListValue(items ...string) Value {
	return Value{Kind: ValueList, Items: append([]string{}, items...)}
}

// Empty reports whether the value counts as unanswered: null, blank text or
// an empty list.
func (v Value) Empty() bool {
	switch v.Kind {
	case ValueText:
		return strings.TrimSpace(v.Text) == ""
	case ValueList:
		return len(v.Items) == 0
	default:
		return true
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueText:
		return json.Marshal(v.Text)
	case ValueList:
		if v.Items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Items)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TextValue(s)
		return nil
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for _, item := range raw {
			s, err := scalarText(item)
			if err != nil {
				return fmt.Errorf("invalid list item: %w", err)
			}
			items = append(items, s)
		}
		*v = Value{Kind: ValueList, Items: items}
		return nil
	case '{':
		return fmt.Errorf("answer value must be a string, number, boolean or list")
	}

	s, err := scalarText(data)
	if err != nil {
		return err
	}
	*v = TextValue(s)
	return nil
}

// scalarText renders a JSON string, number or boolean as text.
func scalarText(data []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var x interface{}
	if err := dec.Decode(&x); err != nil {
		return "", err
	}
	switch t := x.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		if t {
			return "true", nil
		}
		return "false", nil
	default:
		return "", fmt.Errorf("unsupported value %s", string(data))
	}
}
