package evaluator

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/rowan-lang/rowan/internal/config"
	"github.com/rowan-lang/rowan/internal/diagnostics"
	"github.com/rowan-lang/rowan/internal/ir"
)

// RuntimeError is a fatal evaluation failure. Code is set for the contract
// violations the language defines (unhandled effect, reused single-shot
// resumption) and empty for invariant breaks that well-typed input cannot
// reach.
type RuntimeError struct {
	Code    diagnostics.Code
	Message string
}

func (e *RuntimeError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func fail(code diagnostics.Code, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Machine evaluates lowered units. One Machine serves one unit at a time;
// run compilations in parallel with one Machine each.
type Machine struct {
	globals *Environment

	// Trace, when set, receives one line per handler install, operation
	// dispatch, and resume.
	Trace io.Writer
}

// NewMachine creates a machine over the given global environment. A nil
// environment gets the default built-ins.
func NewMachine(globals *Environment) *Machine {
	if globals == nil {
		globals = DefaultGlobals()
	}
	return &Machine{globals: globals}
}

// Run evaluates a unit: top-level functions become mutually recursive
// closures, then the main expression runs to a value.
func (m *Machine) Run(prog *ir.Program) (Value, *RuntimeError) {
	env := NewEnclosedEnvironment(m.globals)
	for _, decl := range prog.Decls {
		env.Define(decl.Name, &Closure{Params: decl.Params, Body: decl.Body, Env: env})
	}
	if prog.Main == nil {
		return UnitValue, nil
	}
	return m.Eval(prog.Main, env)
}

// state is the machine configuration: the control (an expression to
// evaluate, or a value being returned through the continuation), the
// environment, the frame list, and the evidence stack.
type state struct {
	ctrl      ir.Expr
	val       Value
	env       *Environment
	k         *frameNode
	ev        *EvidenceList
	returning bool
}

// Eval runs one expression to a value in the given environment.
func (m *Machine) Eval(expr ir.Expr, env *Environment) (Value, *RuntimeError) {
	st := state{ctrl: expr, env: env}
	for {
		if st.returning {
			if st.k == nil {
				return st.val, nil
			}
			if err := m.applyFrame(&st); err != nil {
				return nil, err
			}
			continue
		}
		if err := m.evalExpr(&st); err != nil {
			return nil, err
		}
	}
}

func (m *Machine) evalExpr(st *state) *RuntimeError {
	switch e := st.ctrl.(type) {
	case *ir.IntLit:
		st.val, st.returning = &Integer{Value: e.Value}, true
	case *ir.BoolLit:
		st.val, st.returning = &Boolean{Value: e.Value}, true
	case *ir.StrLit:
		st.val, st.returning = &Str{Value: e.Value}, true
	case *ir.UnitLit:
		st.val, st.returning = UnitValue, true
	case *ir.Var:
		v, ok := st.env.Get(e.Name)
		if !ok {
			return fail("", "unbound variable at run time: %s", e.Name)
		}
		st.val, st.returning = v, true
	case *ir.Lambda:
		st.val, st.returning = &Closure{Params: e.Params, Body: e.Body, Env: st.env}, true
	case *ir.Call:
		st.k = push(st.k, callFnFrame{args: e.Args, env: st.env})
		st.ctrl = e.Fn
	case *ir.Let:
		st.k = push(st.k, letFrame{name: e.Name, body: e.Body, env: st.env})
		st.ctrl = e.Value
	case *ir.Assign:
		st.k = push(st.k, assignFrame{name: e.Name, env: st.env})
		st.ctrl = e.Value
	case *ir.If:
		st.k = push(st.k, ifFrame{then: e.Then, els: e.Else, env: st.env})
		st.ctrl = e.Cond
	case *ir.Seq:
		if len(e.Exprs) == 0 {
			st.val, st.returning = UnitValue, true
			return nil
		}
		if len(e.Exprs) > 1 {
			st.k = push(st.k, seqFrame{rest: e.Exprs[1:], env: st.env})
		}
		st.ctrl = e.Exprs[0]
	case *ir.Install:
		ops := make(map[string]*ir.OpImpl, len(e.Ops))
		for _, op := range e.Ops {
			ops[op.Name] = op
		}
		evd := &Evidence{
			Label:      e.Label,
			Marker:     uuid.New(),
			SingleShot: e.SingleShot,
			Ops:        ops,
			Ret:        e.Ret,
			Env:        st.env,
			Outer:      st.ev,
		}
		m.trace("install %s marker=%s", e.Label, evd.Marker)
		st.k = push(st.k, promptFrame{
			label:   e.Label,
			marker:  evd.Marker,
			savedEv: st.ev,
			ret:     e.Ret,
			retEnv:  st.env,
		})
		st.ev = st.ev.Push(evd)
		st.ctrl = e.Body
	case *ir.Perform:
		if len(e.Args) == 0 {
			return m.dispatch(st, e.Label, e.Op, nil)
		}
		st.k = push(st.k, performFrame{label: e.Label, op: e.Op, pending: e.Args[1:], env: st.env})
		st.ctrl = e.Args[0]
	case *ir.Mask:
		st.k = push(st.k, maskFrame{savedEv: st.ev})
		st.ev = st.ev.RemoveInnermost(e.Label)
		st.ctrl = e.Body
	default:
		return fail("", "unknown IR node %T", st.ctrl)
	}
	return nil
}

func (m *Machine) applyFrame(st *state) *RuntimeError {
	node := st.k
	st.k = node.next
	switch f := node.f.(type) {
	case callFnFrame:
		fn := st.val
		if len(f.args) == 0 {
			return m.applyFn(st, fn, nil)
		}
		st.k = push(st.k, callArgsFrame{fn: fn, pending: f.args[1:], env: f.env})
		st.ctrl, st.env, st.returning = f.args[0], f.env, false
	case callArgsFrame:
		done := appendValue(f.done, st.val)
		if len(f.pending) == 0 {
			return m.applyFn(st, f.fn, done)
		}
		st.k = push(st.k, callArgsFrame{fn: f.fn, pending: f.pending[1:], done: done, env: f.env})
		st.ctrl, st.env, st.returning = f.pending[0], f.env, false
	case letFrame:
		env := NewEnclosedEnvironment(f.env)
		env.Define(f.name, st.val)
		st.ctrl, st.env, st.returning = f.body, env, false
	case assignFrame:
		if !f.env.Set(f.name, st.val) {
			return fail("", "assignment to unbound variable: %s", f.name)
		}
		st.val = UnitValue
	case ifFrame:
		b, ok := truthy(st.val)
		if !ok {
			return fail("", "condition evaluated to %s, want Bool", typeName(st.val))
		}
		if b {
			st.ctrl = f.then
		} else {
			st.ctrl = f.els
		}
		st.env, st.returning = f.env, false
	case seqFrame:
		if len(f.rest) > 1 {
			st.k = push(st.k, seqFrame{rest: f.rest[1:], env: f.env})
		}
		st.ctrl, st.env, st.returning = f.rest[0], f.env, false
	case performFrame:
		done := appendValue(f.done, st.val)
		if len(f.pending) == 0 {
			return m.dispatch(st, f.label, f.op, done)
		}
		st.k = push(st.k, performFrame{label: f.label, op: f.op, pending: f.pending[1:], done: done, env: f.env})
		st.ctrl, st.env, st.returning = f.pending[0], f.env, false
	case promptFrame:
		st.ev = f.savedEv
		if f.ret != nil {
			env := NewEnclosedEnvironment(f.retEnv)
			env.Define(f.ret.Param, st.val)
			st.ctrl, st.env, st.returning = f.ret.Body, env, false
		}
	case tailFrame:
		st.ev = f.savedEv
	case maskFrame:
		st.ev = f.savedEv
	default:
		return fail("", "unknown frame %T", node.f)
	}
	return nil
}

// dispatch resolves an operation call against the innermost evidence for
// its label and enters the matching clause.
func (m *Machine) dispatch(st *state, label, op string, args []Value) *RuntimeError {
	evd := st.ev.Lookup(label)
	if evd == nil {
		return fail(diagnostics.ErrL001, "no handler for effect %s (operation %s)", label, op)
	}
	impl, ok := evd.Ops[op]
	if !ok {
		return fail("", "evidence for %s has no operation %s", label, op)
	}
	if len(args) != len(impl.Params) {
		return fail("", "operation %s.%s takes %d arguments, got %d", label, op, len(impl.Params), len(args))
	}

	env := NewEnclosedEnvironment(evd.Env)
	for i, p := range impl.Params {
		env.Define(p, args[i])
	}
	m.trace("dispatch %s.%s mode=%s", label, op, impl.Mode)

	if impl.Mode == ir.TailOp {
		// The clause body runs in place of the operation call; resume is
		// the identity and the tail frame restores the evidence stack.
		env.Define(config.ResumeName, &TailResume{})
		st.k = push(st.k, tailFrame{savedEv: st.ev})
		st.ev = evd.Outer
		st.ctrl, st.env, st.returning = impl.Body, env, false
		return nil
	}

	// General dispatch: capture the frame segment from here through the
	// handler's prompt, then run the clause with the continuation unwound
	// past the prompt.
	var prompt *frameNode
	for n := st.k; n != nil; n = n.next {
		if pf, ok := n.f.(promptFrame); ok && pf.marker == evd.Marker {
			prompt = n
			break
		}
	}
	if prompt == nil {
		return fail("", "evidence for %s has no live prompt", label)
	}
	env.Define(config.ResumeName, &Resumption{
		top:        st.k,
		prompt:     prompt,
		ev:         st.ev,
		singleShot: evd.SingleShot,
		used:       new(bool),
	})
	st.k = prompt.next
	st.ev = evd.Outer
	st.ctrl, st.env, st.returning = impl.Body, env, false
	return nil
}

func (m *Machine) applyFn(st *state, fn Value, args []Value) *RuntimeError {
	switch fn := fn.(type) {
	case *Closure:
		if len(args) != len(fn.Params) {
			return fail("", "function takes %d arguments, got %d", len(fn.Params), len(args))
		}
		env := NewEnclosedEnvironment(fn.Env)
		for i, p := range fn.Params {
			env.Define(p, args[i])
		}
		st.ctrl, st.env, st.returning = fn.Body, env, false
	case *Native:
		if len(args) != fn.Arity {
			return fail("", "%s takes %d arguments, got %d", fn.Name, fn.Arity, len(args))
		}
		v, err := fn.Fn(args)
		if err != nil {
			return fail("", "%s: %s", fn.Name, err)
		}
		st.val, st.returning = v, true
	case *TailResume:
		if len(args) != 1 {
			return fail("", "resume takes 1 argument, got %d", len(args))
		}
		st.val, st.returning = args[0], true
	case *Resumption:
		if len(args) != 1 {
			return fail("", "resume takes 1 argument, got %d", len(args))
		}
		return m.resume(st, fn, args[0])
	default:
		return fail("", "%s is not callable", typeName(fn))
	}
	return nil
}

// resume re-enters a captured continuation with a value. The captured
// segment is copied so the original capture stays intact for further
// resumes; the copied prompt's saved evidence is rebound to the evidence in
// force here, so completing the body lands back in the resume site's
// context.
func (m *Machine) resume(st *state, r *Resumption, v Value) *RuntimeError {
	if r.singleShot {
		if *r.used {
			return fail(diagnostics.ErrL002, "single-shot resumption invoked twice")
		}
		*r.used = true
	}
	m.trace("resume singleShot=%t", r.singleShot)

	head, promptCopy := copySegment(r.top, r.prompt)
	pf := promptCopy.f.(promptFrame)
	pf.savedEv = st.ev
	promptCopy.f = pf
	promptCopy.next = st.k

	st.k = head
	st.ev = r.ev
	st.val, st.returning = v, true
	return nil
}

func (m *Machine) trace(format string, args ...interface{}) {
	if m.Trace == nil {
		return
	}
	fmt.Fprintf(m.Trace, format+"\n", args...)
}
