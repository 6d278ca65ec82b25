package contextstore

import (
	"fmt"

	"github.com/vinayprograms/recipeflow/internal/exprlang"
)

// FromInterface converts a generic YAML/JSON-decoded value (the shapes
// produced by yaml.v3 and encoding/json: nil, bool, string, int, int64,
// float64, []interface{}, map[string]interface{}) into a Value. Any
// other concrete type is rendered as its fmt.Sprint string form rather
// than rejected, since recipe context defaults and user-supplied
// context are both free-form YAML/JSON.
func FromInterface(v interface{}) Value {
	switch val := v.(type) {
	case nil:
		return exprlang.Null()
	case bool:
		return exprlang.Bool(val)
	case int:
		return exprlang.Int(int64(val))
	case int64:
		return exprlang.Int(val)
	case float64:
		return exprlang.Float(val)
	case string:
		return exprlang.Str(val)
	case []interface{}:
		items := make([]Value, len(val))
		for i, item := range val {
			items[i] = FromInterface(item)
		}
		return exprlang.List(items)
	case map[string]interface{}:
		m := make(map[string]Value, len(val))
		for k, item := range val {
			m[k] = FromInterface(item)
		}
		return exprlang.Map(m)
	case map[interface{}]interface{}:
		// Older YAML decoders can produce this shape; yaml.v3 normally
		// yields map[string]interface{}, but converting defensively
		// keeps FromInterface total rather than panicking on input it
		// cannot otherwise anticipate.
		m := make(map[string]Value, len(val))
		for k, item := range val {
			if ks, ok := k.(string); ok {
				m[ks] = FromInterface(item)
			}
		}
		return exprlang.Map(m)
	default:
		return exprlang.Str(fmt.Sprint(val))
	}
}

// FromInterfaceMap converts a flat map[string]interface{} (e.g. recipe
// context defaults, or user-supplied context) into map[string]Value.
func FromInterfaceMap(m map[string]interface{}) map[string]Value {
	out := make(map[string]Value, len(m))
	for k, v := range m {
		out[k] = FromInterface(v)
	}
	return out
}

// ToInterface converts a Value back into a generic interface{} tree,
// for serialization (e.g. a RecipeResult's final_context).
func ToInterface(v Value) interface{} {
	switch v.Kind {
	case exprlang.KindNull:
		return nil
	case exprlang.KindBool:
		return v.B
	case exprlang.KindInt:
		return v.I
	case exprlang.KindFloat:
		return v.F
	case exprlang.KindString:
		return v.S
	case exprlang.KindList:
		out := make([]interface{}, len(v.L))
		for i, item := range v.L {
			out[i] = ToInterface(item)
		}
		return out
	case exprlang.KindMap:
		out := make(map[string]interface{}, len(v.M))
		for k, item := range v.M {
			out[k] = ToInterface(item)
		}
		return out
	default:
		return nil
	}
}

// ToInterfaceMap converts a flat map[string]Value back to map[string]interface{}.
func ToInterfaceMap(m map[string]Value) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = ToInterface(v)
	}
	return out
}
