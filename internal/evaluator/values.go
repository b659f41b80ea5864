// Package evaluator is the reference interpreter for the evidence-passing
// IR: a small-step abstract machine over immutable continuation frames and
// a persistent evidence stack. Continuation capture slices the frame list;
// resuming copies the captured segment, so a resumption may run any number
// of times unless its effect is declared single-shot.
package evaluator

import (
	"fmt"
	"strconv"

	"github.com/rowan-lang/rowan/internal/ir"
)

// Value is a runtime value.
type Value interface {
	String() string
	valueNode()
}

type Integer struct{ Value int64 }

func (v *Integer) valueNode()     {}
func (v *Integer) String() string { return strconv.FormatInt(v.Value, 10) }

type Boolean struct{ Value bool }

func (v *Boolean) valueNode()     {}
func (v *Boolean) String() string { return strconv.FormatBool(v.Value) }

type Str struct{ Value string }

func (v *Str) valueNode()     {}
func (v *Str) String() string { return strconv.Quote(v.Value) }

type Unit struct{}

func (v *Unit) valueNode()     {}
func (v *Unit) String() string { return "()" }

// UnitValue is the single unit value; the machine never allocates another.
var UnitValue = &Unit{}

// Closure is a function value together with its defining environment.
type Closure struct {
	Params []string
	Body   ir.Expr
	Env    *Environment
}

func (v *Closure) valueNode()     {}
func (v *Closure) String() string { return "<closure>" }

// Native is a built-in function implemented in the host.
type Native struct {
	Name  string
	Arity int
	Fn    func(args []Value) (Value, error)
}

func (v *Native) valueNode()     {}
func (v *Native) String() string { return "<native " + v.Name + ">" }

// TailResume is the resume binding inside a tail-dispatched operation
// clause. The clause body runs in place of the operation call, so resuming
// is the identity: the argument flows on as the call's result.
type TailResume struct{}

func (v *TailResume) valueNode()     {}
func (v *TailResume) String() string { return "<resume>" }

// Resumption is a captured delimited continuation: the frame segment from
// the operation call site through the handler's prompt, plus the evidence
// stack in force at capture. The segment is never mutated; each resume
// copies it, so one capture supports any number of resumes. used is shared
// across the value so the single-shot restriction survives copies of the
// Resumption itself.
type Resumption struct {
	top        *frameNode
	prompt     *frameNode
	ev         *EvidenceList
	singleShot bool
	used       *bool
}

func (v *Resumption) valueNode()     {}
func (v *Resumption) String() string { return "<resumption>" }

func truthy(v Value) (bool, bool) {
	b, ok := v.(*Boolean)
	if !ok {
		return false, false
	}
	return b.Value, true
}

func typeName(v Value) string {
	switch v.(type) {
	case *Integer:
		return "Int"
	case *Boolean:
		return "Bool"
	case *Str:
		return "String"
	case *Unit:
		return "Unit"
	case *Closure, *Native, *TailResume, *Resumption:
		return "Function"
	default:
		return fmt.Sprintf("%T", v)
	}
}
