package symbols

import (
	"github.com/rowan-lang/rowan/internal/typesystem"
)

// Symbol is a value binding: a name with its (possibly quantified) type.
type Symbol struct {
	Name string
	Type typesystem.Type
}

// OperationInfo is the elaborated signature of one effect operation.
type OperationInfo struct {
	Name    string
	Params  []typesystem.Type
	Return  typesystem.Type
	Control bool
	Effect  *EffectInfo
}

// EffectInfo is an elaborated effect interface: the label, its operations,
// and the single-shot restriction if the source declares one.
type EffectInfo struct {
	Label      string
	SingleShot bool
	Operations map[string]*OperationInfo
}

// Operation returns the named operation, if declared.
func (e *EffectInfo) Operation(name string) (*OperationInfo, bool) {
	op, ok := e.Operations[name]
	return op, ok
}

// SymbolTable maps names to declared types. Effect interfaces live in the
// root table: handlers may be installed anywhere, but effects are declared
// at the top level of a unit.
type SymbolTable struct {
	outer   *SymbolTable
	store   map[string]Symbol
	effects map[string]*EffectInfo
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		store:   make(map[string]Symbol),
		effects: make(map[string]*EffectInfo),
	}
}

// NewEnclosed creates a child scope.
func NewEnclosed(outer *SymbolTable) *SymbolTable {
	return &SymbolTable{
		outer: outer,
		store: make(map[string]Symbol),
	}
}

// Define binds a name in the current scope, shadowing outer bindings.
func (st *SymbolTable) Define(name string, t typesystem.Type) Symbol {
	sym := Symbol{Name: name, Type: t}
	st.store[name] = sym
	return sym
}

// Resolve looks a name up through enclosing scopes.
func (st *SymbolTable) Resolve(name string) (Symbol, bool) {
	for s := st; s != nil; s = s.outer {
		if sym, ok := s.store[name]; ok {
			return sym, true
		}
	}
	return Symbol{}, false
}

// DefineEffect registers an effect interface in the root table.
func (st *SymbolTable) DefineEffect(info *EffectInfo) {
	root := st
	for root.outer != nil {
		root = root.outer
	}
	for _, op := range info.Operations {
		op.Effect = info
	}
	root.effects[info.Label] = info
}

// ResolveEffect looks an effect label up in the root table.
func (st *SymbolTable) ResolveEffect(label string) (*EffectInfo, bool) {
	root := st
	for root.outer != nil {
		root = root.outer
	}
	info, ok := root.effects[label]
	return info, ok
}

// FreeTypeVariables collects the variables free in any binding reachable
// from this scope, under the given substitution. Generalization must call
// this fresh each time: the set depends on the current substitution and is
// never cached.
func (st *SymbolTable) FreeTypeVariables(s typesystem.Subst) []typesystem.TVar {
	vars := []typesystem.TVar{}
	seen := map[string]bool{}
	for scope := st; scope != nil; scope = scope.outer {
		for _, sym := range scope.store {
			applied := sym.Type.Apply(s)
			for _, v := range applied.FreeTypeVariables() {
				if !seen[v.Name] {
					seen[v.Name] = true
					vars = append(vars, v)
				}
			}
		}
	}
	return vars
}
