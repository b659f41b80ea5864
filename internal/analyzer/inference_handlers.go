package analyzer

import (
	"sort"

	"github.com/rowan-lang/rowan/internal/ast"
	"github.com/rowan-lang/rowan/internal/config"
	"github.com/rowan-lang/rowan/internal/diagnostics"
	"github.com/rowan-lang/rowan/internal/symbols"
	"github.com/rowan-lang/rowan/internal/typesystem"
)

// inferHandle types a handler installation.
//
// The handled body is inferred with the handler's label available in its
// row; the result row is the body's row with exactly one occurrence of the
// label removed (a single handler discharges one textual occurrence, so
// duplicates remain visible to outer handlers). Operation clause bodies see
// the ambient row of the handle site, which does not include the
// handler's own label, and must produce the handler's answer type.
func (w *walker) inferHandle(env *symbols.SymbolTable, e *ast.HandleExpression) (typesystem.Type, typesystem.Row, *diagnostics.DiagnosticError) {
	info, ok := env.ResolveEffect(e.Effect)
	if !ok {
		return nil, typesystem.Row{}, diagnostics.NewError(diagnostics.ErrT002, e.Token,
			"unknown effect: %s", e.Effect)
	}

	bodyT, bodyRow, err := w.infer(env, e.Body)
	if err != nil {
		return nil, typesystem.Row{}, err
	}

	// Discharge one occurrence of the label: <label|rest> ~ bodyRow.
	rest := w.ctx.Supply.FreshRow()
	if derr := w.unifyRows(bodyRow, typesystem.SingletonRow(info.Label, rest), e.Token); derr != nil {
		return nil, typesystem.Row{}, derr
	}
	outerRow := w.resolveRow(typesystem.Row{Tail: rest})

	// The answer type: the body's type, transformed by the return clause
	// when one is present. The return clause runs in the outer context.
	var answerT typesystem.Type = w.apply(bodyT)
	if e.Return != nil {
		scope := symbols.NewEnclosed(env)
		scope.Define(e.Return.Param.Value, answerT)
		retT, retRow, err := w.infer(scope, e.Return.Body)
		if err != nil {
			return nil, typesystem.Row{}, err
		}
		answerT = retT
		row, derr := w.combineRows(e.Return.Token, outerRow, retRow)
		if derr != nil {
			return nil, typesystem.Row{}, derr
		}
		outerRow = row
	}

	seen := map[string]bool{}
	for _, clause := range e.Operations {
		op, ok := info.Operation(clause.Name)
		if !ok {
			return nil, typesystem.Row{}, diagnostics.NewError(diagnostics.ErrT002, clause.Token,
				"effect %s has no operation %s", info.Label, clause.Name)
		}
		if seen[clause.Name] {
			return nil, typesystem.Row{}, diagnostics.NewError(diagnostics.ErrT002, clause.Token,
				"operation %s handled twice", clause.Name)
		}
		seen[clause.Name] = true

		if len(clause.Params) != len(op.Params) {
			return nil, typesystem.Row{}, diagnostics.NewError(diagnostics.ErrT002, clause.Token,
				"operation %s takes %d parameters, clause binds %d",
				op.Name, len(op.Params), len(clause.Params))
		}

		scope := symbols.NewEnclosed(env)
		for i, p := range clause.Params {
			scope.Define(p.Value, op.Params[i])
		}
		// resume : (opReturn) -> <outer> answer. Resuming re-enters the
		// handled computation, so its latent row is the outer row and its
		// result is the handler's answer.
		scope.Define(config.ResumeName, typesystem.TFunc{
			Params:     []typesystem.Type{op.Return},
			Effects:    outerRow,
			ReturnType: answerT,
		})

		clauseT, clauseRow, err := w.infer(scope, clause.Body)
		if err != nil {
			return nil, typesystem.Row{}, err
		}
		if derr := w.unify(clauseT, answerT, clause.Token); derr != nil {
			return nil, typesystem.Row{}, derr
		}
		row, derr := w.combineRows(clause.Token, outerRow, clauseRow)
		if derr != nil {
			return nil, typesystem.Row{}, derr
		}
		outerRow = row
	}

	missing := []string{}
	for name := range info.Operations {
		if !seen[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, typesystem.Row{}, diagnostics.NewError(diagnostics.ErrT002, e.Token,
			"handler for %s does not handle %v", info.Label, missing)
	}

	answerT = w.apply(answerT)
	outerRow = w.resolveRow(outerRow)
	w.record(e, answerT, outerRow)
	return answerT, outerRow, nil
}

// inferPerform types an operation call: argument types unify with the
// interface's declared parameters, the result is the declared return type,
// and the label joins the call's effect row.
func (w *walker) inferPerform(env *symbols.SymbolTable, e *ast.PerformExpression) (typesystem.Type, typesystem.Row, *diagnostics.DiagnosticError) {
	info, ok := env.ResolveEffect(e.Effect)
	if !ok {
		return nil, typesystem.Row{}, diagnostics.NewError(diagnostics.ErrT002, e.Token,
			"unknown effect: %s", e.Effect)
	}
	op, ok := info.Operation(e.Op)
	if !ok {
		return nil, typesystem.Row{}, diagnostics.NewError(diagnostics.ErrT002, e.Token,
			"effect %s has no operation %s", info.Label, e.Op)
	}
	if len(e.Args) != len(op.Params) {
		return nil, typesystem.Row{}, diagnostics.NewError(diagnostics.ErrT002, e.Token,
			"operation %s takes %d arguments, got %d", op.Name, len(op.Params), len(e.Args))
	}

	rows := make([]typesystem.Row, 0, len(e.Args)+1)
	for i, arg := range e.Args {
		t, r, err := w.infer(env, arg)
		if err != nil {
			return nil, typesystem.Row{}, err
		}
		if derr := w.unify(t, op.Params[i], arg.GetToken()); derr != nil {
			return nil, typesystem.Row{}, derr
		}
		rows = append(rows, r)
	}
	rows = append(rows, typesystem.SingletonRow(info.Label, w.ctx.Supply.FreshRow()))

	row, derr := w.combineRows(e.Token, rows...)
	if derr != nil {
		return nil, typesystem.Row{}, derr
	}
	resT := w.apply(op.Return)
	w.record(e, resT, row)
	return resT, row, nil
}

// inferMask types the forwarding construct: if the body has row r, the
// masked expression has row <label|r>: the surrounding context must
// provide an extra occurrence of the label, which the body cannot see.
func (w *walker) inferMask(env *symbols.SymbolTable, e *ast.MaskExpression) (typesystem.Type, typesystem.Row, *diagnostics.DiagnosticError) {
	info, ok := env.ResolveEffect(e.Effect)
	if !ok {
		return nil, typesystem.Row{}, diagnostics.NewError(diagnostics.ErrT002, e.Token,
			"unknown effect: %s", e.Effect)
	}
	bodyT, bodyRow, err := w.infer(env, e.Body)
	if err != nil {
		return nil, typesystem.Row{}, err
	}
	row := w.resolveRow(bodyRow).Prepend(info.Label)
	resT := w.apply(bodyT)
	w.record(e, resT, row)
	return resT, row, nil
}
