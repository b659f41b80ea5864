package analyzer

import (
	"github.com/rowan-lang/rowan/internal/ast"
	"github.com/rowan-lang/rowan/internal/diagnostics"
	"github.com/rowan-lang/rowan/internal/symbols"
	"github.com/rowan-lang/rowan/internal/typesystem"
)

// infer implements the Algorithm-W-style bottom-up pass, extended with the
// handle/perform/mask rules (inference_handlers.go). It returns the
// expression's type and effect row; every inferred node is also annotated
// in the context's TypeMap/EffectMap.
func (w *walker) infer(env *symbols.SymbolTable, expr ast.Expression) (typesystem.Type, typesystem.Row, *diagnostics.DiagnosticError) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		row := w.pureRow()
		w.record(e, IntType, row)
		return IntType, row, nil

	case *ast.BooleanLiteral:
		row := w.pureRow()
		w.record(e, BoolType, row)
		return BoolType, row, nil

	case *ast.StringLiteral:
		row := w.pureRow()
		w.record(e, StringType, row)
		return StringType, row, nil

	case *ast.UnitLiteral:
		row := w.pureRow()
		w.record(e, UnitType, row)
		return UnitType, row, nil

	case *ast.Identifier:
		sym, ok := env.Resolve(e.Value)
		if !ok {
			return nil, typesystem.Row{}, diagnostics.NewError(diagnostics.ErrT001, e.Token,
				"unbound variable: %s", e.Value)
		}
		t := w.instantiate(w.apply(sym.Type))
		row := w.pureRow()
		w.record(e, t, row)
		return t, row, nil

	case *ast.FunctionLiteral:
		scope := symbols.NewEnclosed(env)
		paramTypes := make([]typesystem.Type, len(e.Params))
		for i, p := range e.Params {
			tv := w.ctx.Supply.FreshType()
			paramTypes[i] = tv
			scope.Define(p.Value, tv)
		}
		bodyT, bodyRow, err := w.infer(scope, e.Body)
		if err != nil {
			return nil, typesystem.Row{}, err
		}
		applied := make([]typesystem.Type, len(paramTypes))
		for i, pt := range paramTypes {
			applied[i] = w.apply(pt)
		}
		fnT := typesystem.TFunc{
			Params:     applied,
			Effects:    w.resolveRow(bodyRow),
			ReturnType: w.apply(bodyT),
		}
		// Building a closure performs nothing; the latent row sits in the type.
		row := w.pureRow()
		w.record(e, fnT, row)
		return fnT, row, nil

	case *ast.CallExpression:
		fnT, fnRow, err := w.infer(env, e.Function)
		if err != nil {
			return nil, typesystem.Row{}, err
		}
		argTypes := make([]typesystem.Type, len(e.Args))
		argRows := make([]typesystem.Row, len(e.Args))
		for i, arg := range e.Args {
			t, r, err := w.infer(env, arg)
			if err != nil {
				return nil, typesystem.Row{}, err
			}
			argTypes[i] = t
			argRows[i] = r
		}
		result := w.ctx.Supply.FreshType()
		latent := typesystem.Row{Tail: w.ctx.Supply.FreshRow()}
		expected := typesystem.TFunc{
			Params:     argTypes,
			Effects:    latent,
			ReturnType: result,
		}
		if derr := w.unify(fnT, expected, e.Token); derr != nil {
			return nil, typesystem.Row{}, derr
		}
		// The call's row is the union of evaluating the callee expression,
		// each argument left to right, and the callee's latent row.
		rows := append([]typesystem.Row{fnRow}, argRows...)
		rows = append(rows, latent)
		callRow, derr := w.combineRows(e.Token, rows...)
		if derr != nil {
			return nil, typesystem.Row{}, derr
		}
		resT := w.apply(result)
		w.record(e, resT, callRow)
		return resT, callRow, nil

	case *ast.LetExpression:
		valT, valRow, err := w.infer(env, e.Value)
		if err != nil {
			return nil, typesystem.Row{}, err
		}
		scope := symbols.NewEnclosed(env)
		if e.Mutable {
			// Mutable bindings stay monomorphic (value restriction).
			scope.Define(e.Name.Value, w.apply(valT))
		} else {
			scope.Define(e.Name.Value, w.generalize(env, valT))
		}
		bodyT, bodyRow, err := w.infer(scope, e.Body)
		if err != nil {
			return nil, typesystem.Row{}, err
		}
		row, derr := w.combineRows(e.Token, valRow, bodyRow)
		if derr != nil {
			return nil, typesystem.Row{}, derr
		}
		resT := w.apply(bodyT)
		w.record(e, resT, row)
		return resT, row, nil

	case *ast.AssignExpression:
		sym, ok := env.Resolve(e.Name.Value)
		if !ok {
			return nil, typesystem.Row{}, diagnostics.NewError(diagnostics.ErrT001, e.Token,
				"unbound variable: %s", e.Name.Value)
		}
		valT, valRow, err := w.infer(env, e.Value)
		if err != nil {
			return nil, typesystem.Row{}, err
		}
		if derr := w.unify(valT, w.instantiate(w.apply(sym.Type)), e.Token); derr != nil {
			return nil, typesystem.Row{}, derr
		}
		w.record(e, UnitType, valRow)
		return UnitType, valRow, nil

	case *ast.IfExpression:
		condT, condRow, err := w.infer(env, e.Condition)
		if err != nil {
			return nil, typesystem.Row{}, err
		}
		if derr := w.unify(condT, BoolType, e.Token); derr != nil {
			return nil, typesystem.Row{}, derr
		}
		thenT, thenRow, err := w.infer(env, e.Consequence)
		if err != nil {
			return nil, typesystem.Row{}, err
		}
		// A missing else branch produces Unit, so the then branch must too.
		var elseT typesystem.Type = UnitType
		elseRow := w.pureRow()
		if e.Alternative != nil {
			elseT, elseRow, err = w.infer(env, e.Alternative)
			if err != nil {
				return nil, typesystem.Row{}, err
			}
		}
		if derr := w.unify(thenT, elseT, e.Token); derr != nil {
			return nil, typesystem.Row{}, derr
		}
		row, derr := w.combineRows(e.Token, condRow, thenRow, elseRow)
		if derr != nil {
			return nil, typesystem.Row{}, derr
		}
		resT := w.apply(thenT)
		w.record(e, resT, row)
		return resT, row, nil

	case *ast.BlockExpression:
		if len(e.Exprs) == 0 {
			row := w.pureRow()
			w.record(e, UnitType, row)
			return UnitType, row, nil
		}
		rows := make([]typesystem.Row, 0, len(e.Exprs))
		var lastT typesystem.Type
		for _, sub := range e.Exprs {
			t, r, err := w.infer(env, sub)
			if err != nil {
				return nil, typesystem.Row{}, err
			}
			lastT = t
			rows = append(rows, r)
		}
		row, derr := w.combineRows(e.Token, rows...)
		if derr != nil {
			return nil, typesystem.Row{}, derr
		}
		resT := w.apply(lastT)
		w.record(e, resT, row)
		return resT, row, nil

	case *ast.HandleExpression:
		return w.inferHandle(env, e)

	case *ast.PerformExpression:
		return w.inferPerform(env, e)

	case *ast.MaskExpression:
		return w.inferMask(env, e)

	default:
		return nil, typesystem.Row{}, diagnostics.NewError(diagnostics.ErrT001, expr.GetToken(),
			"unsupported expression form %T", expr)
	}
}
