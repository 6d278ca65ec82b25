package exprlang

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind tags a Value's active representation. Value is a tagged-sum
// type (Scalar | List | Map) — no runtime reflection is used anywhere
// a Value is inspected or produced.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
)

// Value is a single context/expression value: exactly one of the Kind
// variants is meaningful at a time.
type Value struct {
	Kind Kind
	B    bool
	I    int64
	F    float64
	S    string
	L    []Value
	M    map[string]Value
}

func Null() Value                 { return Value{Kind: KindNull} }
func Bool(b bool) Value           { return Value{Kind: KindBool, B: b} }
func Int(i int64) Value           { return Value{Kind: KindInt, I: i} }
func Float(f float64) Value       { return Value{Kind: KindFloat, F: f} }
func Str(s string) Value          { return Value{Kind: KindString, S: s} }
func List(items []Value) Value    { return Value{Kind: KindList, L: items} }
func Map(m map[string]Value) Value { return Value{Kind: KindMap, M: m} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

// Truthy follows common scripting-language conventions: null, false,
// zero, empty string, empty list/map are falsy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindBool:
		return v.B
	case KindInt:
		return v.I != 0
	case KindFloat:
		return v.F != 0
	case KindString:
		return v.S != ""
	case KindList:
		return len(v.L) > 0
	case KindMap:
		return len(v.M) > 0
	default:
		return false
	}
}

// AsString renders v for template substitution and for shell quoting.
// Lists and maps render as a compact, order-stable textual form; this is
// display formatting, not a serialization format callers should parse.
func (v Value) AsString() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindBool:
		if v.B {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.I, 10)
	case KindFloat:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case KindString:
		return v.S
	case KindList:
		parts := make([]string, len(v.L))
		for i, item := range v.L {
			parts[i] = item.AsString()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.M))
		for k := range v.M {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, v.M[k].AsString()))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return ""
	}
}

// Equal compares two values for == / != and `in` membership testing.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		// Allow numeric cross-kind equality (1 == 1.0).
		if (a.Kind == KindInt || a.Kind == KindFloat) && (b.Kind == KindInt || b.Kind == KindFloat) {
			return numeric(a) == numeric(b)
		}
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindBool:
		return a.B == b.B
	case KindInt:
		return a.I == b.I
	case KindFloat:
		return a.F == b.F
	case KindString:
		return a.S == b.S
	case KindList:
		if len(a.L) != len(b.L) {
			return false
		}
		for i := range a.L {
			if !Equal(a.L[i], b.L[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.M) != len(b.M) {
			return false
		}
		for k, av := range a.M {
			bv, ok := b.M[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func numeric(v Value) float64 {
	switch v.Kind {
	case KindInt:
		return float64(v.I)
	case KindFloat:
		return v.F
	default:
		return 0
	}
}

func isNumeric(v Value) bool {
	return v.Kind == KindInt || v.Kind == KindFloat
}
