// Package value implements the dynamically-typed field value used
// throughout the rule engine: facts, condition literals, and action
// results all carry values of this type.
package value

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bingo-rules/bingo/internal/bingoerr"
)

// Kind discriminates the Value variant.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInteger
	KindFloat
	KindBoolean
	KindDate
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a tagged union over the field types facts can carry.
// The zero Value is Null.
type Value struct {
	kind Kind
	str  string
	i64  int64
	f64  float64
	b    bool
	t    time.Time
	arr  []Value
	obj  map[string]Value
}

// Null returns the Null value.
func Null() Value { return Value{kind: KindNull} }

// String returns a String value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int returns an Integer value.
func Int(i int64) Value { return Value{kind: KindInteger, i64: i} }

// Float returns a Float value.
func Float(f float64) Value { return Value{kind: KindFloat, f64: f} }

// Bool returns a Boolean value.
func Bool(b bool) Value { return Value{kind: KindBoolean, b: b} }

// Date returns a Date value. The instant is normalized to UTC.
func Date(t time.Time) Value { return Value{kind: KindDate, t: t.UTC()} }

// Array returns an Array value.
func Array(items []Value) Value { return Value{kind: KindArray, arr: items} }

// Object returns an Object value. The map is not copied; callers must
// not mutate it afterward.
func Object(fields map[string]Value) Value { return Value{kind: KindObject, obj: fields} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInteger {
		return 0, false
	}
	return v.i64, true
}

func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f64, true
	case KindInteger:
		return float64(v.i64), true
	default:
		return 0, false
	}
}

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBoolean {
		return false, false
	}
	return v.b, true
}

func (v Value) AsDate() (time.Time, bool) {
	if v.kind != KindDate {
		return time.Time{}, false
	}
	return v.t, true
}

func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

func (v Value) AsObject() (map[string]Value, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

// IsNumeric reports whether the value is an Integer or Float.
func (v Value) IsNumeric() bool { return v.kind == KindInteger || v.kind == KindFloat }

// Truthy implements the engine's truthiness rule: Null, false, the empty
// string, and empty arrays and objects are falsy; everything else is
// truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBoolean:
		return v.b
	case KindArray:
		return len(v.arr) > 0
	case KindObject:
		return len(v.obj) > 0
	case KindString:
		return v.str != ""
	default:
		return true
	}
}

// Equal implements structural equality, with integer/float coercion.
func (v Value) Equal(other Value) bool {
	if v.kind == KindNull || other.kind == KindNull {
		return v.kind == other.kind
	}
	if v.IsNumeric() && other.IsNumeric() {
		a, _ := v.AsFloat()
		b, _ := other.AsFloat()
		return a == b
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindBoolean:
		return v.b == other.b
	case KindDate:
		return v.t.Equal(other.t)
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.obj) != len(other.obj) {
			return false
		}
		for k, a := range v.obj {
			b, ok := other.obj[k]
			if !ok || !a.Equal(b) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ErrNotComparable is returned by Compare when the two values have no
// well-defined ordering (mismatched non-numeric kinds).
var ErrNotComparable = fmt.Errorf("value: not comparable")

// Compare orders two values, coercing integer/float as needed. Returns
// -1, 0, or 1. Strings compare lexically, dates chronologically, booleans
// false<true. Arrays, objects, and Null have no ordering.
func (v Value) Compare(other Value) (int, error) {
	if v.IsNumeric() && other.IsNumeric() {
		a, _ := v.AsFloat()
		b, _ := other.AsFloat()
		switch {
		case a < b:
			return -1, nil
		case a > b:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if v.kind != other.kind {
		return 0, ErrNotComparable
	}
	switch v.kind {
	case KindString:
		return strings.Compare(v.str, other.str), nil
	case KindBoolean:
		if v.b == other.b {
			return 0, nil
		}
		if !v.b {
			return -1, nil
		}
		return 1, nil
	case KindDate:
		switch {
		case v.t.Before(other.t):
			return -1, nil
		case v.t.After(other.t):
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, ErrNotComparable
	}
}

// HashKey returns a comparable representation suitable for use as a Go
// map key, so the fact store and alpha network can index on Value
// equality in O(1). Floats hash by bit pattern, matching the spec's
// "floats compare by bit pattern for hashing" rule; arrays and objects
// (rarely indexed) fall back to a canonical string encoding.
func (v Value) HashKey() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindString:
		return "s:" + v.str
	case KindInteger:
		return v.i64
	case KindFloat:
		return math.Float64bits(v.f64)
	case KindBoolean:
		return v.b
	case KindDate:
		return v.t.UnixNano()
	default:
		return v.canonicalString()
	}
}

func (v Value) canonicalString() string {
	switch v.kind {
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.canonicalString()
		}
		return "[" + strings.Join(parts, ",") + "]"
	case KindObject:
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ":" + v.obj[k].canonicalString()
		}
		return "{" + strings.Join(parts, ",") + "}"
	default:
		b, _ := v.MarshalJSON()
		return string(b)
	}
}

// String renders a human-readable form, used in log messages and errors.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindString:
		return v.str
	case KindInteger:
		return strconv.FormatInt(v.i64, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f64, 'g', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindDate:
		return v.t.Format(time.RFC3339Nano)
	case KindArray:
		return v.canonicalString()
	case KindObject:
		return v.canonicalString()
	default:
		return "?"
	}
}

// MarshalJSON renders the value using the wire shapes documented in
// spec.md §6: plain JSON scalars, RFC-3339 strings for dates.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindInteger:
		return json.Marshal(v.i64)
	case KindFloat:
		return json.Marshal(v.f64)
	case KindBoolean:
		return json.Marshal(v.b)
	case KindDate:
		return json.Marshal(v.t.Format(time.RFC3339Nano))
	case KindArray:
		out := make([]json.RawMessage, len(v.arr))
		for i, e := range v.arr {
			b, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			out[i] = b
		}
		return json.Marshal(out)
	case KindObject:
		out := make(map[string]json.RawMessage, len(v.obj))
		for k, e := range v.obj {
			b, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			out[k] = b
		}
		return json.Marshal(out)
	default:
		return nil, fmt.Errorf("value: unknown kind %v", v.kind)
	}
}

// UnmarshalJSON infers a Value's kind from the JSON token. Strings that
// parse as RFC-3339 are NOT automatically promoted to Date — callers that
// expect a date field should convert explicitly via ParseDate, since a
// bare JSON string is ambiguous between String and Date.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	out, err := fromAny(raw)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

func fromAny(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i), nil
		}
		if !strings.ContainsAny(x.String(), ".eE") {
			return Value{}, fmt.Errorf("value: integer %q out of 64-bit range: %w", x.String(), bingoerr.ErrValidation)
		}
		f, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("value: invalid number %q: %w", x.String(), err)
		}
		return Float(f), nil
	case []any:
		items := make([]Value, len(x))
		for i, e := range x {
			v, err := fromAny(e)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return Array(items), nil
	case map[string]any:
		fields := make(map[string]Value, len(x))
		for k, e := range x {
			v, err := fromAny(e)
			if err != nil {
				return Value{}, err
			}
			fields[k] = v
		}
		return Object(fields), nil
	default:
		return Value{}, fmt.Errorf("value: unsupported JSON token %T", raw)
	}
}

// ParseDate parses an RFC-3339 string into a Date value.
func ParseDate(s string) (Value, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Value{}, fmt.Errorf("value: parse date %q: %w", s, err)
	}
	return Date(t), nil
}

// Add performs numeric addition with int/float promotion: integer+integer
// stays integer, any float operand promotes the result to float. Returns
// an error for non-numeric operands.
func Add(a, b Value) (Value, error) {
	if ai, ok := a.AsInt(); ok {
		if bi, ok := b.AsInt(); ok {
			return Int(ai + bi), nil
		}
	}
	af, aok := a.AsFloat()
	bf, bok := b.AsFloat()
	if !aok || !bok {
		return Value{}, fmt.Errorf("value: add: non-numeric operand (%s, %s)", a.Kind(), b.Kind())
	}
	return Float(af + bf), nil
}
