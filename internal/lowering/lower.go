// Package lowering rewrites the typed, classified AST into the
// evidence-passing IR. The rewrite is structural: handler installation
// becomes explicit evidence construction, operation calls become evidence
// lookup + dispatch, and each operation closure carries the resumption mode
// the classifier assigned.
package lowering

import (
	"github.com/rowan-lang/rowan/internal/ast"
	"github.com/rowan-lang/rowan/internal/ir"
	"github.com/rowan-lang/rowan/internal/project"
	"github.com/rowan-lang/rowan/internal/symbols"
)

// Options tune the rewrite.
type Options struct {
	// ForceGeneral lowers every operation with continuation capture,
	// ignoring the classifier. Observable behavior must not change; the
	// differential tests rely on this switch.
	ForceGeneral bool
}

// Lowerer rewrites one unit.
type Lowerer struct {
	table *symbols.SymbolTable
	cfg   *project.Config
	opts  Options
}

func New(table *symbols.SymbolTable, cfg *project.Config, opts Options) *Lowerer {
	if cfg == nil {
		cfg = project.Default()
	}
	return &Lowerer{table: table, cfg: cfg, opts: opts}
}

// Lower rewrites a whole unit.
func (l *Lowerer) Lower(prog *ast.Program) *ir.Program {
	out := &ir.Program{}
	for _, decl := range prog.Decls {
		params := make([]string, len(decl.Params))
		for i, p := range decl.Params {
			params[i] = p.Value
		}
		out.Decls = append(out.Decls, &ir.FuncDecl{
			Name:   decl.Name.Value,
			Params: params,
			Body:   l.lower(decl.Body),
		})
	}
	if prog.Main != nil {
		out.Main = l.lower(prog.Main)
	}
	return out
}

func (l *Lowerer) lower(e ast.Expression) ir.Expr {
	switch e := e.(type) {
	case *ast.IntegerLiteral:
		return &ir.IntLit{Value: e.Value}
	case *ast.BooleanLiteral:
		return &ir.BoolLit{Value: e.Value}
	case *ast.StringLiteral:
		return &ir.StrLit{Value: e.Value}
	case *ast.UnitLiteral:
		return &ir.UnitLit{}
	case *ast.Identifier:
		return &ir.Var{Name: e.Value}
	case *ast.FunctionLiteral:
		params := make([]string, len(e.Params))
		for i, p := range e.Params {
			params[i] = p.Value
		}
		return &ir.Lambda{Params: params, Body: l.lower(e.Body)}
	case *ast.CallExpression:
		args := make([]ir.Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = l.lower(a)
		}
		return &ir.Call{Fn: l.lower(e.Function), Args: args}
	case *ast.LetExpression:
		return &ir.Let{
			Name:    e.Name.Value,
			Mutable: e.Mutable,
			Value:   l.lower(e.Value),
			Body:    l.lower(e.Body),
		}
	case *ast.AssignExpression:
		return &ir.Assign{Name: e.Name.Value, Value: l.lower(e.Value)}
	case *ast.IfExpression:
		var alt ir.Expr = &ir.UnitLit{}
		if e.Alternative != nil {
			alt = l.lower(e.Alternative)
		}
		return &ir.If{Cond: l.lower(e.Condition), Then: l.lower(e.Consequence), Else: alt}
	case *ast.BlockExpression:
		exprs := make([]ir.Expr, len(e.Exprs))
		for i, sub := range e.Exprs {
			exprs[i] = l.lower(sub)
		}
		return &ir.Seq{Exprs: exprs}
	case *ast.HandleExpression:
		return l.lowerHandle(e)
	case *ast.PerformExpression:
		args := make([]ir.Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = l.lower(a)
		}
		return &ir.Perform{Label: e.Effect, Op: e.Op, Args: args}
	case *ast.MaskExpression:
		return &ir.Mask{Label: e.Effect, Body: l.lower(e.Body)}
	default:
		return &ir.UnitLit{}
	}
}

// lowerHandle turns one handle expression into evidence construction. The
// single-shot restriction comes from the effect declaration or from the
// project configuration; either source marks the evidence record.
func (l *Lowerer) lowerHandle(e *ast.HandleExpression) ir.Expr {
	singleShot := l.cfg.IsSingleShot(e.Effect)
	if info, ok := l.table.ResolveEffect(e.Effect); ok && info.SingleShot {
		singleShot = true
	}

	inst := &ir.Install{
		Label:      e.Effect,
		SingleShot: singleShot,
		Body:       l.lower(e.Body),
	}
	for _, clause := range e.Operations {
		mode := ir.GeneralOp
		if !l.opts.ForceGeneral && e.Mode(clause.Name) == ast.ModeTail {
			mode = ir.TailOp
		}
		params := make([]string, len(clause.Params))
		for i, p := range clause.Params {
			params[i] = p.Value
		}
		inst.Ops = append(inst.Ops, &ir.OpImpl{
			Name:   clause.Name,
			Params: params,
			Mode:   mode,
			Body:   l.lower(clause.Body),
		})
	}
	if e.Return != nil {
		inst.Ret = &ir.RetImpl{Param: e.Return.Param.Value, Body: l.lower(e.Return.Body)}
	}
	return inst
}
