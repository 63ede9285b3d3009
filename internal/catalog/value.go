package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

type valueKind uint8

const (
	valueNull valueKind = iota
	valueBool
	valueString
	valueSet
)

// Value is the tagged union of property value shapes:
// boolean properties carry true/false, select properties an option id,
// checkbox properties a set of option ids, text/number properties a string.
// The zero Value is "unset" and serializes as JSON null, which is how the
// host page and the persisted store both represent absence.
type Value struct {
	kind valueKind
	b    bool
	s    string
	set  []string
}

// Null returns the unset value.
func Null() Value {
	return Value{}
}

// Bool wraps a boolean property value.
func Bool(b bool) Value {
	return Value{kind: valueBool, b: b}
}

// String wraps a select/text/number property value.
func String(s string) Value {
	return Value{kind: valueString, s: s}
}

// Set wraps a checkbox property value (a set of option ids).
func Set(ids []string) Value {
	cp := make([]string, len(ids))
	copy(cp, ids)
	return Value{kind: valueSet, set: cp}
}

// IsNull reports whether the value is unset.
func (v Value) IsNull() bool {
	return v.kind == valueNull
}

// IsEmpty reports whether the value is unset, an empty string, or an
// empty set. Empty values are skipped by fill operations, never written.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case valueNull:
		return true
	case valueString:
		return v.s == ""
	case valueSet:
		return len(v.set) == 0
	}
	return false
}

// AsBool returns the boolean payload and whether the value holds one.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == valueBool
}

// AsString returns the string payload and whether the value holds one.
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == valueString
}

// AsSet returns the option-id set and whether the value holds one.
func (v Value) AsSet() ([]string, bool) {
	if v.kind != valueSet {
		return nil, false
	}
	cp := make([]string, len(v.set))
	copy(cp, v.set)
	return cp, true
}

// Equal reports deep equality of two values. Checkbox sets compare by
// element order as stored, matching the host form's stable DOM order.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case valueBool:
		return v.b == o.b
	case valueString:
		return v.s == o.s
	case valueSet:
		if len(v.set) != len(o.set) {
			return false
		}
		for i := range v.set {
			if v.set[i] != o.set[i] {
				return false
			}
		}
	}
	return true
}

// NormalizeDecimal returns a copy with "," replaced by "." in a string
// payload. Used when saving number/text properties.
func (v Value) NormalizeDecimal() Value {
	if v.kind != valueString {
		return v
	}
	return String(strings.ReplaceAll(v.s, ",", "."))
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case valueBool:
		return json.Marshal(v.b)
	case valueString:
		return json.Marshal(v.s)
	case valueSet:
		return json.Marshal(v.set)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler. The shape is inferred from
// the JSON token, which is lossless for all four union members.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := FromRaw(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// FromRaw converts a decoded JSON value (as produced by a page scrape or a
// persisted document) into a Value. This is the boundary where raw data
// enters the typed domain; unsupported shapes are rejected here.
func FromRaw(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case []any:
		ids := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return Value{}, fmt.Errorf("catalog: checkbox value element is %T, want string", item)
			}
			ids = append(ids, s)
		}
		return Set(ids), nil
	case []string:
		return Set(t), nil
	case float64:
		// Numbers arrive as strings from the form; a bare JSON number shows
		// up only in hand-written documents. Keep it as its string form.
		return String(trimFloat(t)), nil
	default:
		return Value{}, fmt.Errorf("catalog: unsupported value shape %T", raw)
	}
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%v", f)
	return s
}

// Display renders the value for humans using the catalog definition:
// booleans as yes/no, option ids as their texts, everything else verbatim.
// A nil definition (unknown id) falls back to the raw representation.
func Display(def *Definition, v Value) string {
	if v.IsEmpty() {
		return ""
	}
	if def == nil {
		return v.rawString()
	}
	switch def.Kind {
	case KindBoolean:
		if b, ok := v.AsBool(); ok && b {
			return "да"
		}
		return "нет"
	case KindSelect:
		if s, ok := v.AsString(); ok {
			return def.OptionText(s)
		}
	case KindCheckbox:
		if ids, ok := v.AsSet(); ok {
			texts := make([]string, len(ids))
			for i, id := range ids {
				texts[i] = def.OptionText(id)
			}
			return strings.Join(texts, ", ")
		}
	}
	return v.rawString()
}

func (v Value) rawString() string {
	switch v.kind {
	case valueBool:
		if v.b {
			return "true"
		}
		return "false"
	case valueString:
		return v.s
	case valueSet:
		return strings.Join(v.set, ", ")
	}
	return ""
}
