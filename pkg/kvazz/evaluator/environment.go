package evaluator

import "sort"

// Environment is one frame of bindings plus a link to its enclosing frame.
// The global frame has no outer frame.
type Environment struct {
	store map[string]Object
	outer *Environment
}

// NewEnvironment creates a new outermost (global) frame
func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]Object)}
}

// NewEnclosedEnvironment creates a new frame with outer reference
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.outer = outer
	return env
}

// Get retrieves a value, walking outward through enclosing frames
func (e *Environment) Get(name string) (Object, bool) {
	if frame := e.Owner(name); frame != nil {
		return frame.store[name], true
	}
	return nil, false
}

// Owner returns the nearest frame, starting at e, that binds name
func (e *Environment) Owner(name string) *Environment {
	for env := e; env != nil; env = env.outer {
		if _, ok := env.store[name]; ok {
			return env
		}
	}
	return nil
}

// Has reports whether name is bound in this frame itself
func (e *Environment) Has(name string) bool {
	_, ok := e.store[name]
	return ok
}

// Set stores a value in this frame
func (e *Environment) Set(name string, val Object) Object {
	e.store[name] = val
	return val
}

// Names returns the names bound in this frame, sorted
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.store))
	for name := range e.store {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllIdentifiers returns every name visible from this frame.
// This is used for fuzzy matching in error messages.
func (e *Environment) AllIdentifiers() []string {
	seen := make(map[string]bool)
	var result []string

	for env := e; env != nil; env = env.outer {
		for name := range env.store {
			if !seen[name] {
				seen[name] = true
				result = append(result, name)
			}
		}
	}

	for name := range builtins {
		if !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}

	return result
}
