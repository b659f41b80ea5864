package evaluator

// Environment maps names to mutable cells. Environments are shared between
// closures and captured continuations, so assignment through one reference
// is visible through all of them; a resumed continuation therefore observes
// writes made after capture, which is the intended store semantics.
type Environment struct {
	outer *Environment
	store map[string]*cell
}

type cell struct{ v Value }

func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]*cell)}
}

func NewEnclosedEnvironment(outer *Environment) *Environment {
	return &Environment{outer: outer, store: make(map[string]*cell)}
}

// Define binds a name in the current scope, shadowing outer bindings.
func (e *Environment) Define(name string, v Value) {
	e.store[name] = &cell{v: v}
}

// Get looks a name up through enclosing scopes.
func (e *Environment) Get(name string) (Value, bool) {
	for env := e; env != nil; env = env.outer {
		if c, ok := env.store[name]; ok {
			return c.v, true
		}
	}
	return nil, false
}

// Set updates the innermost binding of name. It reports false when the name
// is unbound; the type checker rejects such programs before they get here.
func (e *Environment) Set(name string, v Value) bool {
	for env := e; env != nil; env = env.outer {
		if c, ok := env.store[name]; ok {
			c.v = v
			return true
		}
	}
	return false
}
