// Package effects implements the handler classifier: a purely static pass
// over the typed AST that marks every handler operation as tail-resumptive
// or general. It never rewrites the tree; it annotates handle nodes. The
// analysis is total and deterministic over well-typed input; the worst
// case is an over-classification as general, which is always safe.
package effects

import (
	"github.com/rowan-lang/rowan/internal/ast"
	"github.com/rowan-lang/rowan/internal/config"
	"github.com/rowan-lang/rowan/internal/symbols"
)

// Classify walks the unit and annotates every handle node. Each operation
// is classified independently: a handler may mix tail-resumptive and
// general operations.
func Classify(prog *ast.Program, table *symbols.SymbolTable) {
	c := &classifier{table: table}
	for _, decl := range prog.Decls {
		c.walk(decl.Body)
	}
	if prog.Main != nil {
		c.walk(prog.Main)
	}
}

type classifier struct {
	table *symbols.SymbolTable
}

func (c *classifier) walk(e ast.Expression) {
	switch e := e.(type) {
	case *ast.FunctionLiteral:
		c.walk(e.Body)
	case *ast.CallExpression:
		c.walk(e.Function)
		for _, a := range e.Args {
			c.walk(a)
		}
	case *ast.LetExpression:
		c.walk(e.Value)
		c.walk(e.Body)
	case *ast.AssignExpression:
		c.walk(e.Value)
	case *ast.IfExpression:
		c.walk(e.Condition)
		c.walk(e.Consequence)
		c.walk(e.Alternative)
	case *ast.BlockExpression:
		for _, sub := range e.Exprs {
			c.walk(sub)
		}
	case *ast.PerformExpression:
		for _, a := range e.Args {
			c.walk(a)
		}
	case *ast.MaskExpression:
		c.walk(e.Body)
	case *ast.HandleExpression:
		c.classifyHandle(e)
		c.walk(e.Body)
		if e.Return != nil {
			c.walk(e.Return.Body)
		}
		for _, clause := range e.Operations {
			c.walk(clause.Body)
		}
	}
}

func (c *classifier) classifyHandle(h *ast.HandleExpression) {
	info, _ := c.table.ResolveEffect(h.Effect)
	for _, clause := range h.Operations {
		mode := ast.ModeGeneral
		if !c.declaredControl(info, clause.Name) && allTailsResume(clause.Body) {
			mode = ast.ModeTail
		}
		h.SetMode(clause.Name, mode)
	}
}

// declaredControl honors the author's eligibility hint: an operation
// declared as a control operation is never tail-resumptive.
func (c *classifier) declaredControl(info *symbols.EffectInfo, op string) bool {
	if info == nil {
		return false
	}
	if sig, ok := info.Operation(op); ok {
		return sig.Control
	}
	return false
}

// allTailsResume reports whether every control path through the clause
// body ends in exactly one call to resume in tail position (its result
// becomes the body's own result with no further computation afterward)
// and resume is referenced nowhere else. Calls to other operations of the
// same handler and nested handle blocks are independent resumption
// boundaries: resume occurring under either is a non-tail use.
func allTailsResume(e ast.Expression) bool {
	switch e := e.(type) {
	case *ast.CallExpression:
		if !isResumeRef(e.Function) {
			return false
		}
		for _, a := range e.Args {
			if containsResume(a) {
				return false
			}
		}
		return true
	case *ast.IfExpression:
		if containsResume(e.Condition) {
			return false
		}
		if e.Alternative == nil {
			// A missing branch reaches the end without resuming.
			return false
		}
		return allTailsResume(e.Consequence) && allTailsResume(e.Alternative)
	case *ast.BlockExpression:
		if len(e.Exprs) == 0 {
			return false
		}
		for _, sub := range e.Exprs[:len(e.Exprs)-1] {
			if containsResume(sub) {
				return false
			}
		}
		return allTailsResume(e.Exprs[len(e.Exprs)-1])
	case *ast.LetExpression:
		if containsResume(e.Value) {
			return false
		}
		return allTailsResume(e.Body)
	default:
		return false
	}
}

func isResumeRef(e ast.Expression) bool {
	id, ok := e.(*ast.Identifier)
	return ok && id.Value == config.ResumeName
}

// containsResume reports whether the current clause's resume is referenced
// anywhere in e. Operation clauses of nested handle blocks bind their own
// resume and are skipped; a nested handler's body and return clause still
// see ours. Lambdas count: capturing resume escapes tail position.
func containsResume(e ast.Expression) bool {
	switch e := e.(type) {
	case *ast.Identifier:
		return e.Value == config.ResumeName
	case *ast.FunctionLiteral:
		return containsResume(e.Body)
	case *ast.CallExpression:
		if containsResume(e.Function) {
			return true
		}
		for _, a := range e.Args {
			if containsResume(a) {
				return true
			}
		}
		return false
	case *ast.LetExpression:
		return containsResume(e.Value) || containsResume(e.Body)
	case *ast.AssignExpression:
		return containsResume(e.Value)
	case *ast.IfExpression:
		return containsResume(e.Condition) || containsResume(e.Consequence) ||
			(e.Alternative != nil && containsResume(e.Alternative))
	case *ast.BlockExpression:
		for _, sub := range e.Exprs {
			if containsResume(sub) {
				return true
			}
		}
		return false
	case *ast.PerformExpression:
		for _, a := range e.Args {
			if containsResume(a) {
				return true
			}
		}
		return false
	case *ast.MaskExpression:
		return containsResume(e.Body)
	case *ast.HandleExpression:
		if containsResume(e.Body) {
			return true
		}
		if e.Return != nil && containsResume(e.Return.Body) {
			return true
		}
		// Nested operation clauses rebind resume.
		return false
	default:
		return false
	}
}
