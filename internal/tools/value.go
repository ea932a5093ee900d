package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind is the runtime type of a parameter value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBoolean
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// Value is a decoded JSON value carrying an explicit type tag.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	arr  []Value
	obj  map[string]Value
}

func Null() Value { return Value{} }

func String(s string) Value { return Value{kind: KindString, str: s} }

func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

func Bool(b bool) Value { return Value{kind: KindBoolean, b: b} }

func Array(items ...Value) Value {
	return Value{kind: KindArray, arr: items}
}

// Object wraps fields without copying them.
func Object(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: KindObject, obj: fields}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string payload when v is a string.
func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindString
}

// Num returns the numeric payload when v is a number.
func (v Value) Num() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Boolean returns the boolean payload when v is a boolean.
func (v Value) Boolean() (bool, bool) {
	return v.b, v.kind == KindBoolean
}

func (v Value) Items() []Value { return v.arr }

func (v Value) Fields() map[string]Value { return v.obj }

// String renders v for humans: strings verbatim, numbers without
// exponent noise, everything else as JSON.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return formatNumber(v.num)
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindNull:
		return "null"
	}
	data, err := json.Marshal(v.Interface())
	if err != nil {
		return ""
	}
	return string(data)
}

// Interface converts v back into plain Go values (map[string]any, []any, ...).
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBoolean:
		return v.b
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for key, item := range v.obj {
			out[key] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var raw any
	if err := decoder.Decode(&raw); err != nil {
		return err
	}
	converted, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = converted
	return nil
}

// FromAny converts a decoded JSON tree into a Value.
func FromAny(raw any) (Value, error) {
	switch typed := raw.(type) {
	case nil:
		return Null(), nil
	case Value:
		return typed, nil
	case string:
		return String(typed), nil
	case bool:
		return Bool(typed), nil
	case json.Number:
		f, err := typed.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", typed.String(), err)
		}
		return Number(f), nil
	case float64:
		return Number(typed), nil
	case float32:
		return Number(float64(typed)), nil
	case int:
		return Number(float64(typed)), nil
	case int64:
		return Number(float64(typed)), nil
	case []any:
		items := make([]Value, 0, len(typed))
		for _, item := range typed {
			converted, err := FromAny(item)
			if err != nil {
				return Value{}, err
			}
			items = append(items, converted)
		}
		return Array(items...), nil
	case map[string]any:
		fields := make(map[string]Value, len(typed))
		for key, item := range typed {
			converted, err := FromAny(item)
			if err != nil {
				return Value{}, err
			}
			fields[key] = converted
		}
		return Object(fields), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}

// Params is the parameter bag of a tool call.
type Params map[string]Value

// ParamsFromMap converts a decoded JSON object into Params.
func ParamsFromMap(raw map[string]any) (Params, error) {
	params := make(Params, len(raw))
	for key, item := range raw {
		converted, err := FromAny(item)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", key, err)
		}
		params[key] = converted
	}
	return params, nil
}

// Str returns the named string parameter, or "" when absent or not a string.
func (p Params) Str(name string) string {
	s, _ := p[name].Str()
	return s
}

// Int returns the named numeric parameter truncated to an int.
func (p Params) Int(name string) (int, bool) {
	n, ok := p[name].Num()
	if !ok {
		return 0, false
	}
	return int(n), true
}

// Clone returns a shallow copy.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for key, value := range p {
		out[key] = value
	}
	return out
}

// Canonical renders p as JSON with sorted keys at every depth.
func (p Params) Canonical() string {
	if len(p) == 0 {
		return "{}"
	}
	data, err := json.Marshal(map[string]Value(p))
	if err != nil {
		return "{}"
	}
	return string(data)
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
