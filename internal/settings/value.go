// Package settings models the loosely-typed per-owner configuration
// blobs. Stored shapes are never trusted: every read goes through a
// runtime type guard that returns (value, ok) instead of panicking,
// the same discipline the OCR normalizer applies to model output.
package settings

import "encoding/json"

// Kind identifies the runtime shape of a Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindMap
)

// Value is a tagged union over the JSON value shapes a settings blob
// may hold.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	list []Value
	m    map[string]Value
}

// String builds a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number builds a numeric Value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool builds a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// List builds a list Value.
func List(items ...Value) Value { return Value{kind: KindList, list: items} }

// Map builds a map Value.
func Map(m map[string]Value) Value { return Value{kind: KindMap, m: m} }

// Kind returns the runtime shape of the value.
func (v Value) Kind() Kind { return v.kind }

// AsString returns the string payload when the value is a string.
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// AsNumber returns the numeric payload when the value is a number.
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// AsBool returns the boolean payload when the value is a bool.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsList returns the list payload when the value is a list.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// AsMap returns the map payload when the value is a map.
func (v Value) AsMap() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m, true
}

// StringsOf extracts the string elements of a list value, skipping
// anything that is not a string. A non-list yields nil.
func (v Value) StringsOf() []string {
	items, ok := v.AsList()
	if !ok {
		return nil
	}
	var out []string
	for _, it := range items {
		if s, ok := it.AsString(); ok {
			out = append(out, s)
		}
	}
	return out
}

// Get looks up a key in a map value.
func (v Value) Get(key string) (Value, bool) {
	m, ok := v.AsMap()
	if !ok {
		return Value{}, false
	}
	val, ok := m[key]
	return val, ok
}

// MarshalJSON serializes the value as its plain JSON shape.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.toInterface())
}

func (v Value) toInterface() interface{} {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindList:
		out := make([]interface{}, 0, len(v.list))
		for _, it := range v.list {
			out = append(out, it.toInterface())
		}
		return out
	case KindMap:
		out := make(map[string]interface{}, len(v.m))
		for k, it := range v.m {
			out[k] = it.toInterface()
		}
		return out
	default:
		return nil
	}
}

// UnmarshalJSON parses any JSON shape into a tagged value. Unknown or
// null shapes produce an invalid Value, which every guard rejects.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = fromInterface(raw)
	return nil
}

func fromInterface(raw interface{}) Value {
	switch t := raw.(type) {
	case string:
		return String(t)
	case float64:
		return Number(t)
	case bool:
		return Bool(t)
	case []interface{}:
		items := make([]Value, 0, len(t))
		for _, it := range t {
			items = append(items, fromInterface(it))
		}
		return Value{kind: KindList, list: items}
	case map[string]interface{}:
		m := make(map[string]Value, len(t))
		for k, it := range t {
			m[k] = fromInterface(it)
		}
		return Value{kind: KindMap, m: m}
	default:
		return Value{}
	}
}
