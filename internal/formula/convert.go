package formula

import (
	"fmt"
	"time"

	"github.com/bingo-rules/bingo/internal/value"
)

// toNative converts a Value into the plain Go type expr-lang's VM
// operates over. Dates become time.Time (expr-lang understands it
// natively for comparisons via its reflect-based operators).
func toNative(v value.Value) any {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindString:
		s, _ := v.AsString()
		return s
	case value.KindInteger:
		i, _ := v.AsInt()
		return i
	case value.KindFloat:
		f, _ := v.AsFloat()
		return f
	case value.KindBoolean:
		b, _ := v.AsBool()
		return b
	case value.KindDate:
		t, _ := v.AsDate()
		return t
	case value.KindArray:
		arr, _ := v.AsArray()
		out := make([]any, len(arr))
		for i, e := range arr {
			out[i] = toNative(e)
		}
		return out
	case value.KindObject:
		obj, _ := v.AsObject()
		out := make(map[string]any, len(obj))
		for k, e := range obj {
			out[k] = toNative(e)
		}
		return out
	default:
		return nil
	}
}

// fieldsToEnv builds the expr-lang evaluation environment from a fact's
// fields.
func fieldsToEnv(fields map[string]value.Value) map[string]any {
	env := make(map[string]any, len(fields))
	for k, v := range fields {
		env[k] = toNative(v)
	}
	return env
}

// fromNative converts an expr-lang result back into a Value. This is the
// inverse of toNative, covering every type the VM, and the custom
// functions registered alongside it, can produce.
func fromNative(x any) (value.Value, error) {
	switch t := x.(type) {
	case nil:
		return value.Null(), nil
	case bool:
		return value.Bool(t), nil
	case string:
		return value.String(t), nil
	case int:
		return value.Int(int64(t)), nil
	case int64:
		return value.Int(t), nil
	case float64:
		return value.Float(t), nil
	case time.Time:
		return value.Date(t), nil
	case []any:
		items := make([]value.Value, len(t))
		for i, e := range t {
			v, err := fromNative(e)
			if err != nil {
				return value.Value{}, err
			}
			items[i] = v
		}
		return value.Array(items), nil
	case map[string]any:
		fields := make(map[string]value.Value, len(t))
		for k, e := range t {
			v, err := fromNative(e)
			if err != nil {
				return value.Value{}, err
			}
			fields[k] = v
		}
		return value.Object(fields), nil
	default:
		return value.Value{}, fmt.Errorf("formula: expression produced unsupported type %T", x)
	}
}
