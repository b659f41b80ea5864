// Package ir defines the evidence-passing intermediate representation.
// Handler installation is explicit evidence construction, operation calls
// are evidence lookup + dispatch, and each operation carries the resumption
// mode the classifier assigned. The IR is handed to an external code
// generator; the in-tree consumer is the reference interpreter.
package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// OpMode is the lowering strategy for one handler operation.
type OpMode int

const (
	// GeneralOp captures a first-class resumable continuation.
	GeneralOp OpMode = iota
	// TailOp dispatches directly: resume is a plain function value that
	// returns from the operation closure.
	TailOp
)

func (m OpMode) String() string {
	if m == TailOp {
		return "tail"
	}
	return "general"
}

// Expr is an IR expression.
type Expr interface {
	String() string
	irExpr()
}

// Program is a lowered compilation unit.
type Program struct {
	Decls []*FuncDecl
	Main  Expr
}

func (p *Program) String() string {
	var b strings.Builder
	for _, d := range p.Decls {
		b.WriteString(d.String())
		b.WriteString("\n")
	}
	if p.Main != nil {
		b.WriteString("main = ")
		b.WriteString(p.Main.String())
		b.WriteString("\n")
	}
	return b.String()
}

// FuncDecl is a top-level function definition.
type FuncDecl struct {
	Name   string
	Params []string
	Body   Expr
}

func (d *FuncDecl) String() string {
	return fmt.Sprintf("fn %s(%s) = %s", d.Name, strings.Join(d.Params, ", "), d.Body)
}

type IntLit struct{ Value int64 }

func (e *IntLit) irExpr()        {}
func (e *IntLit) String() string { return strconv.FormatInt(e.Value, 10) }

type BoolLit struct{ Value bool }

func (e *BoolLit) irExpr()        {}
func (e *BoolLit) String() string { return strconv.FormatBool(e.Value) }

type StrLit struct{ Value string }

func (e *StrLit) irExpr()        {}
func (e *StrLit) String() string { return strconv.Quote(e.Value) }

type UnitLit struct{}

func (e *UnitLit) irExpr()        {}
func (e *UnitLit) String() string { return "()" }

type Var struct{ Name string }

func (e *Var) irExpr()        {}
func (e *Var) String() string { return e.Name }

type Lambda struct {
	Params []string
	Body   Expr
}

func (e *Lambda) irExpr() {}
func (e *Lambda) String() string {
	return fmt.Sprintf("fn(%s) %s", strings.Join(e.Params, ", "), e.Body)
}

type Call struct {
	Fn   Expr
	Args []Expr
}

func (e *Call) irExpr() {}
func (e *Call) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", e.Fn, strings.Join(args, ", "))
}

type Let struct {
	Name    string
	Mutable bool
	Value   Expr
	Body    Expr
}

func (e *Let) irExpr() {}
func (e *Let) String() string {
	kw := "let"
	if e.Mutable {
		kw = "let mut"
	}
	return fmt.Sprintf("%s %s = %s in %s", kw, e.Name, e.Value, e.Body)
}

type Assign struct {
	Name  string
	Value Expr
}

func (e *Assign) irExpr()        {}
func (e *Assign) String() string { return fmt.Sprintf("%s := %s", e.Name, e.Value) }

type If struct {
	Cond Expr
	Then Expr
	Else Expr
}

func (e *If) irExpr() {}
func (e *If) String() string {
	return fmt.Sprintf("if %s then %s else %s", e.Cond, e.Then, e.Else)
}

type Seq struct{ Exprs []Expr }

func (e *Seq) irExpr() {}
func (e *Seq) String() string {
	parts := make([]string, len(e.Exprs))
	for i, x := range e.Exprs {
		parts[i] = x.String()
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}

// Install constructs an evidence record for Label (one closure per
// operation plus a reference to the evidence stack current outside the
// handler), pushes it for the dynamic extent of Body, and pops it on every
// exit path.
type Install struct {
	Label      string
	SingleShot bool
	Ops        []*OpImpl
	Ret        *RetImpl
	Body       Expr
}

func (e *Install) irExpr() {}
func (e *Install) String() string {
	var b strings.Builder
	b.WriteString("handle ")
	b.WriteString(e.Label)
	if e.SingleShot {
		b.WriteString(" once")
	}
	b.WriteString(" {")
	for i, op := range e.Ops {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(" ")
		b.WriteString(op.String())
	}
	if e.Ret != nil {
		b.WriteString(", ")
		b.WriteString(e.Ret.String())
	}
	b.WriteString(" } in ")
	b.WriteString(e.Body.String())
	return b.String()
}

// OpImpl is one operation closure of an evidence record.
type OpImpl struct {
	Name   string
	Params []string
	Mode   OpMode
	Body   Expr
}

func (o *OpImpl) String() string {
	return fmt.Sprintf("%s %s(%s) -> %s", o.Mode, o.Name, strings.Join(o.Params, ", "), o.Body)
}

// RetImpl transforms the handled body's result value.
type RetImpl struct {
	Param string
	Body  Expr
}

func (r *RetImpl) String() string {
	return fmt.Sprintf("return %s -> %s", r.Param, r.Body)
}

// Perform looks up the innermost evidence entry for Label and dispatches Op.
type Perform struct {
	Label string
	Op    string
	Args  []Expr
}

func (e *Perform) irExpr() {}
func (e *Perform) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("perform %s.%s(%s)", e.Label, e.Op, strings.Join(args, ", "))
}

// Mask hides the innermost evidence entry for Label within Body, so lookups
// resolve to the next entry past the current handler's own.
type Mask struct {
	Label string
	Body  Expr
}

func (e *Mask) irExpr()        {}
func (e *Mask) String() string { return fmt.Sprintf("mask<%s> %s", e.Label, e.Body) }
