package analyzer

import (
	"github.com/rowan-lang/rowan/internal/symbols"
	"github.com/rowan-lang/rowan/internal/typesystem"
)

// DefineBuiltins registers the primitive operations every unit sees. The
// schemes are effect-polymorphic over a single row variable so a primitive
// call unifies with any ambient row. The runtime counterparts live in
// evaluator.DefaultGlobals; the two lists must stay in sync.
func DefineBuiltins(table *symbols.SymbolTable) {
	prim := func(name string, params []typesystem.Type, ret typesystem.Type) {
		row := typesystem.TVar{Name: "e", KindVal: typesystem.Eff}
		table.Define(name, typesystem.TForall{
			Vars: []typesystem.TVar{row},
			Type: typesystem.TFunc{
				Params:     params,
				Effects:    typesystem.Row{Tail: row},
				ReturnType: ret,
			},
		})
	}

	prim("add", []typesystem.Type{IntType, IntType}, IntType)
	prim("sub", []typesystem.Type{IntType, IntType}, IntType)
	prim("mul", []typesystem.Type{IntType, IntType}, IntType)
	prim("eq", []typesystem.Type{IntType, IntType}, BoolType)
	prim("lt", []typesystem.Type{IntType, IntType}, BoolType)
	prim("not", []typesystem.Type{BoolType}, BoolType)
	prim("concat", []typesystem.Type{StringType, StringType}, StringType)
	prim("show", []typesystem.Type{IntType}, StringType)
}
