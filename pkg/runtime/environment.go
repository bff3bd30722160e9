package runtime

import "sort"

// Environment is one lexical scope of Aurora bindings. Function values keep a
// pointer to the scope they were defined in, so a scope lives as long as any
// closure that captured it.
type Environment struct {
	values map[string]Value
	parent *Environment
}

// NewEnvironment creates an empty root scope.
func NewEnvironment() *Environment {
	return NewEnclosedEnvironment(nil)
}

// NewEnclosedEnvironment creates a scope nested under outer.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	return &Environment{
		values: make(map[string]Value),
		parent: outer,
	}
}

// Parent exposes the lexical parent (nil when root).
func (e *Environment) Parent() *Environment {
	return e.parent
}

// Get retrieves a binding, searching outward through the scope chain.
func (e *Environment) Get(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.values[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set binds name in this scope, shadowing any binding in an ancestor.
func (e *Environment) Set(name string, value Value) Value {
	e.values[name] = value
	return value
}

// Snapshot returns a copy of the bindings of this scope only.
func (e *Environment) Snapshot() map[string]Value {
	out := make(map[string]Value, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out
}

// Keys returns the names bound in this scope in sorted order.
func (e *Environment) Keys() []string {
	keys := make([]string, 0, len(e.values))
	for k := range e.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Extend opens a new child scope.
func (e *Environment) Extend() *Environment {
	return NewEnclosedEnvironment(e)
}
