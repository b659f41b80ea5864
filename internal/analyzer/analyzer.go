package analyzer

import (
	"sort"

	"github.com/rowan-lang/rowan/internal/ast"
	"github.com/rowan-lang/rowan/internal/config"
	"github.com/rowan-lang/rowan/internal/diagnostics"
	"github.com/rowan-lang/rowan/internal/symbols"
	"github.com/rowan-lang/rowan/internal/token"
	"github.com/rowan-lang/rowan/internal/typesystem"
)

// InferenceContext holds the state for one type-and-effect inference pass.
// Using a context instead of global state keeps type variable naming
// predictable and lets compilation units run isolated (one context each).
type InferenceContext struct {
	Supply    *typesystem.VarSupply
	TypeMap   map[ast.Node]typesystem.Type
	EffectMap map[ast.Node]typesystem.Row
	// GlobalSubst accumulates every binding of the pass. Unification
	// returns deltas; the walker composes them in here.
	GlobalSubst typesystem.Subst
}

// NewInferenceContext creates a fresh context with its own variable supply.
func NewInferenceContext(supply *typesystem.VarSupply) *InferenceContext {
	if supply == nil {
		supply = typesystem.NewVarSupply()
	}
	return &InferenceContext{
		Supply:      supply,
		TypeMap:     make(map[ast.Node]typesystem.Type),
		EffectMap:   make(map[ast.Node]typesystem.Row),
		GlobalSubst: typesystem.Subst{},
	}
}

// Analyzer performs type-and-effect inference on a compilation unit.
type Analyzer struct {
	symbolTable *symbols.SymbolTable
	ctx         *InferenceContext

	// StrictEffects makes labels surviving to the top level an error.
	StrictEffects bool

	MainType    typesystem.Type
	MainEffects typesystem.Row
}

// New creates an Analyzer with a given root symbol table.
func New(symbolTable *symbols.SymbolTable, ctx *InferenceContext) *Analyzer {
	if ctx == nil {
		ctx = NewInferenceContext(nil)
	}
	return &Analyzer{symbolTable: symbolTable, ctx: ctx}
}

func (a *Analyzer) Context() *InferenceContext { return a.ctx }

// Builtin type constants.
var (
	IntType    = typesystem.TCon{Name: config.IntTypeName, KindVal: typesystem.Star}
	BoolType   = typesystem.TCon{Name: config.BoolTypeName, KindVal: typesystem.Star}
	StringType = typesystem.TCon{Name: config.StringTypeName, KindVal: typesystem.Star}
	UnitType   = typesystem.TCon{Name: config.UnitTypeName, KindVal: typesystem.Star}
)

// Analyze runs inference over the whole unit. Inference errors terminate
// the unit: the first error is returned and no partial typed AST should be
// handed downstream.
func (a *Analyzer) Analyze(prog *ast.Program) *diagnostics.DiagnosticError {
	w := &walker{table: a.symbolTable, ctx: a.ctx}

	if err := a.registerEffects(prog); err != nil {
		return err
	}

	for _, decl := range prog.Decls {
		if err := w.inferDeclaration(decl); err != nil {
			return err
		}
	}

	if prog.Main != nil {
		mainT, mainRow, err := w.infer(a.symbolTable, prog.Main)
		if err != nil {
			return err
		}
		mainT, mainRow, derr := a.finalizeTopLevel(prog, mainT, mainRow)
		if derr != nil {
			return derr
		}
		a.MainType = mainT
		a.MainEffects = mainRow
	}
	return nil
}

// registerEffects elaborates the unit's effect declarations into the root
// symbol table. Operation names must be unique within an effect.
func (a *Analyzer) registerEffects(prog *ast.Program) *diagnostics.DiagnosticError {
	for _, decl := range prog.Effects {
		if _, exists := a.symbolTable.ResolveEffect(decl.Name); exists {
			return diagnostics.NewError(diagnostics.ErrT002, decl.Token,
				"effect %s declared twice", decl.Name)
		}
		info := &symbols.EffectInfo{
			Label:      decl.Name,
			SingleShot: decl.SingleShot,
			Operations: make(map[string]*symbols.OperationInfo),
		}
		for _, op := range decl.Operations {
			if _, dup := info.Operations[op.Name]; dup {
				return diagnostics.NewError(diagnostics.ErrT002, decl.Token,
					"operation %s declared twice in effect %s", op.Name, decl.Name)
			}
			ret := op.Return
			if ret == nil {
				ret = UnitType
			}
			info.Operations[op.Name] = &symbols.OperationInfo{
				Name:    op.Name,
				Params:  op.Params,
				Return:  ret,
				Control: op.Control,
			}
		}
		a.symbolTable.DefineEffect(info)
	}
	return nil
}

// finalizeTopLevel defaults the main expression's open row tail to the
// empty row. A tail that also occurs in the main type cannot be defaulted
// without changing the program's meaning: that is AmbiguousEffect. Labels
// that survive defaulting are an error only in strict mode; otherwise they
// surface at run time as UnhandledEffect.
func (a *Analyzer) finalizeTopLevel(prog *ast.Program, mainT typesystem.Type, mainRow typesystem.Row) (typesystem.Type, typesystem.Row, *diagnostics.DiagnosticError) {
	resolved := typesystem.NormalizeRow(mainRow, a.ctx.GlobalSubst)
	if tv, ok := resolved.Tail.(typesystem.TVar); ok {
		appliedT := mainT.Apply(a.ctx.GlobalSubst)
		if typesystem.OccursCheck(tv, appliedT) {
			return nil, typesystem.Row{}, diagnostics.NewError(diagnostics.ErrT003, tok(prog.Main),
				"effect row variable %s cannot be resolved at the top level", tv.Name)
		}
		a.ctx.GlobalSubst = a.ctx.GlobalSubst.Compose(typesystem.Subst{tv.Name: typesystem.EmptyRow})
		resolved = typesystem.NormalizeRow(resolved, a.ctx.GlobalSubst)
	}
	if a.StrictEffects && len(resolved.Labels) > 0 {
		labels := append([]string{}, resolved.Labels...)
		sort.Strings(labels)
		return nil, typesystem.Row{}, diagnostics.NewError(diagnostics.ErrT004, tok(prog.Main),
			"effects %v are not handled at the top level", labels)
	}
	return mainT.Apply(a.ctx.GlobalSubst), resolved, nil
}

func tok(e ast.Expression) token.Token {
	if e == nil {
		return token.Token{}
	}
	return e.GetToken()
}

// walker carries inference state through one unit.
type walker struct {
	table *symbols.SymbolTable
	ctx   *InferenceContext
}

// record annotates a node with its inferred type and effect row.
func (w *walker) record(node ast.Node, t typesystem.Type, r typesystem.Row) {
	w.ctx.TypeMap[node] = t
	w.ctx.EffectMap[node] = r
}

// apply resolves a type under the accumulated substitution.
func (w *walker) apply(t typesystem.Type) typesystem.Type {
	return t.Apply(w.ctx.GlobalSubst)
}

// resolveRow canonicalizes a row under the accumulated substitution.
func (w *walker) resolveRow(r typesystem.Row) typesystem.Row {
	return typesystem.NormalizeRow(r, w.ctx.GlobalSubst)
}

// pureRow is the effect row of an expression that performs nothing itself:
// open and empty, so it unifies with whatever its context requires.
func (w *walker) pureRow() typesystem.Row {
	return typesystem.Row{Tail: w.ctx.Supply.FreshRow()}
}

// unify applies the accumulated substitution to both sides, unifies, and
// composes the resulting delta back in. Failures become diagnostics
// carrying the two conflicting terms.
func (w *walker) unify(t1, t2 typesystem.Type, at token.Token) *diagnostics.DiagnosticError {
	s, err := typesystem.Unify(w.apply(t1), w.apply(t2), w.ctx.Supply)
	if err != nil {
		return unifyDiagnostic(err, at)
	}
	w.ctx.GlobalSubst = w.ctx.GlobalSubst.Compose(s)
	return nil
}

// unifyRows is unify specialized to effect rows.
func (w *walker) unifyRows(r1, r2 typesystem.Row, at token.Token) *diagnostics.DiagnosticError {
	s, err := typesystem.UnifyRow(w.resolveRow(r1), w.resolveRow(r2), w.ctx.Supply)
	if err != nil {
		return unifyDiagnostic(err, at)
	}
	w.ctx.GlobalSubst = w.ctx.GlobalSubst.Compose(s)
	return nil
}

// unifyDiagnostic maps a structured unification failure onto its code.
func unifyDiagnostic(err error, at token.Token) *diagnostics.DiagnosticError {
	code := diagnostics.ErrU001
	if ue, ok := err.(*typesystem.UnifyError); ok {
		switch ue.ErrKind {
		case typesystem.KindMismatch:
			code = diagnostics.ErrU002
		case typesystem.OccursCheckFailure:
			code = diagnostics.ErrU003
		case typesystem.RowLabelMismatch:
			code = diagnostics.ErrU004
		}
	}
	return diagnostics.NewError(code, at, "%s", err.Error())
}

// combineRows is the left-to-right union of effect rows for sequenced
// sub-computations. Closed rows are opened with a fresh tail first (a
// function declared with a closed row may be called in a larger context),
// then all rows are unified into one shared open row.
func (w *walker) combineRows(at token.Token, rows ...typesystem.Row) (typesystem.Row, *diagnostics.DiagnosticError) {
	acc := w.pureRow()
	for _, r := range rows {
		r = w.resolveRow(r)
		if !r.IsOpen() {
			r = typesystem.Row{Labels: r.Labels, Tail: w.ctx.Supply.FreshRow()}
		}
		if err := w.unifyRows(acc, r, at); err != nil {
			return typesystem.Row{}, err
		}
		acc = w.resolveRow(acc)
	}
	return acc, nil
}

// instantiate replaces a polytype's quantified variables with fresh ones.
func (w *walker) instantiate(t typesystem.Type) typesystem.Type {
	forall, ok := t.(typesystem.TForall)
	if !ok {
		return t
	}
	subst := typesystem.Subst{}
	for _, v := range forall.Vars {
		if v.Kind().Equal(typesystem.Eff) {
			subst[v.Name] = w.ctx.Supply.FreshRow()
		} else {
			subst[v.Name] = w.ctx.Supply.FreshNamed(config.TypeVarPrefix, v.Kind())
		}
	}
	return forall.Type.Apply(subst)
}

// generalize quantifies the variables of t that are not free in the
// environment. The environment's free-variable set is recomputed from the
// current substitution on every call, never cached: variables shared with
// live obligations from an enclosing scope must not be quantified.
func (w *walker) generalize(env *symbols.SymbolTable, t typesystem.Type) typesystem.Type {
	applied := w.apply(t)
	envFree := map[string]bool{}
	for _, v := range env.FreeTypeVariables(w.ctx.GlobalSubst) {
		envFree[v.Name] = true
	}
	quantified := []typesystem.TVar{}
	for _, v := range applied.FreeTypeVariables() {
		if !envFree[v.Name] {
			quantified = append(quantified, v)
		}
	}
	if len(quantified) == 0 {
		return applied
	}
	return typesystem.TForall{Vars: quantified, Type: applied}
}

// inferDeclaration infers a top-level function, allowing self-recursion
// through a provisional monotype, then generalizes against the enclosing
// environment.
func (w *walker) inferDeclaration(decl *ast.FunctionDeclaration) *diagnostics.DiagnosticError {
	provisional := w.ctx.Supply.FreshType()

	scope := symbols.NewEnclosed(w.table)
	scope.Define(decl.Name.Value, provisional)

	paramTypes := make([]typesystem.Type, len(decl.Params))
	body := symbols.NewEnclosed(scope)
	for i, p := range decl.Params {
		tv := w.ctx.Supply.FreshType()
		paramTypes[i] = tv
		body.Define(p.Value, tv)
	}

	retT, retRow, err := w.infer(body, decl.Body)
	if err != nil {
		return err
	}

	fnType := typesystem.TFunc{
		Params:     paramTypes,
		Effects:    w.resolveRow(retRow),
		ReturnType: retT,
	}
	if derr := w.unify(provisional, fnType, decl.Token); derr != nil {
		return derr
	}

	scheme := w.generalize(w.table, fnType)
	w.table.Define(decl.Name.Value, scheme)
	w.record(decl, scheme, typesystem.EmptyRow)
	return nil
}
