// Package contextstore implements the Recipe Runner's value store: the
// RecipeContext mapping, dotted-key lookup, and the merge semantics used
// when building a run's initial context from recipe defaults and
// user-supplied overrides.
package contextstore

import (
	"fmt"
	"strings"

	"github.com/vinayprograms/recipeflow/internal/exprlang"
)

// Value re-exports the expression language's tagged-sum value type so
// callers only need to import one package for both context and
// expression concerns.
type Value = exprlang.Value

// Value constructors and kind tags, re-exported for the same reason.
var (
	Null, Bool, Int, Float = exprlang.Null, exprlang.Bool, exprlang.Int, exprlang.Float
	Str, List, Map         = exprlang.Str, exprlang.List, exprlang.Map
)

const (
	KindNull, KindBool, KindInt, KindFloat = exprlang.KindNull, exprlang.KindBool, exprlang.KindInt, exprlang.KindFloat
	KindString, KindList, KindMap          = exprlang.KindString, exprlang.KindList, exprlang.KindMap
)

// Context is the mutable key→value store available during a recipe run.
// Flat keys may themselves contain dots ("user" and "user.role" can
// coexist as distinct flat keys); dotted-path *lookup* only ever walks
// into map values, it never splits a flat key on '.'.
type Context struct {
	vars map[string]Value
}

// New creates an empty context.
func New() *Context {
	return &Context{vars: make(map[string]Value)}
}

// FromMap creates a context seeded from flat key/value pairs.
func FromMap(m map[string]Value) *Context {
	c := New()
	for k, v := range m {
		c.vars[k] = v
	}
	return c
}

// Set assigns a flat top-level key.
func (c *Context) Set(key string, v Value) {
	c.vars[key] = v
}

// Lookup implements exprlang.Resolver: dotted names are resolved by
// walking nested maps; a non-map intermediate never silently shadows a
// sibling key — it is a lookup failure instead.
func (c *Context) Lookup(name string) (Value, bool) {
	if v, ok := c.vars[name]; ok {
		return v, true
	}
	if !strings.Contains(name, ".") {
		return Value{}, false
	}
	parts := strings.Split(name, ".")
	root, ok := c.vars[parts[0]]
	if !ok {
		return Value{}, false
	}
	cur := root
	for _, part := range parts[1:] {
		if cur.Kind != exprlang.KindMap {
			return Value{}, false
		}
		next, ok := cur.M[part]
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// Keys returns the set of flat top-level keys, for diagnostics/serialization.
func (c *Context) Keys() []string {
	keys := make([]string, 0, len(c.vars))
	for k := range c.vars {
		keys = append(keys, k)
	}
	return keys
}

// Snapshot returns a shallow copy of the flat key/value map, used when a
// StepResult or error needs to carry the context state at a point in
// time without aliasing the live store.
func (c *Context) Snapshot() map[string]Value {
	out := make(map[string]Value, len(c.vars))
	for k, v := range c.vars {
		out[k] = v
	}
	return out
}

// Merge layers overrides onto base as a per-top-level-key replace.
// Nested maps replace whole — this is not a deep merge, and that is
// documented behavior, not an oversight.
func Merge(base, overrides map[string]Value) *Context {
	c := New()
	for k, v := range base {
		c.vars[k] = v
	}
	for k, v := range overrides {
		c.vars[k] = v
	}
	return c
}

// ValidateKey enforces the RecipeContext key surface:
// `[a-zA-Z_][a-zA-Z0-9_.]*`.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("context key must not be empty")
	}
	for i, r := range key {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		isDigit := r >= '0' && r <= '9'
		isDot := r == '.'
		if i == 0 {
			if !isAlpha {
				log.SecurityWarning("rejected context key", map[string]interface{}{"key": key, "reason": "must start with a letter or underscore"})
				return fmt.Errorf("context key %q must start with a letter or underscore", key)
			}
			continue
		}
		if !isAlpha && !isDigit && !isDot {
			log.SecurityWarning("rejected context key", map[string]interface{}{"key": key, "reason": "invalid character"})
			return fmt.Errorf("context key %q contains an invalid character %q", key, string(r))
		}
	}
	return nil
}
