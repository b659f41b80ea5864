package evaluator

import (
	"github.com/google/uuid"

	"github.com/rowan-lang/rowan/internal/ir"
)

// frame is one pending continuation step. Frames are immutable after
// construction: the machine replaces frames instead of updating them, so a
// captured segment can be shared by any number of resumptions. Slices held
// by frames are treated as read-only for the same reason.
type frame interface{ frameTag() }

// frameNode is a persistent list node. next pointers are never reassigned;
// splicing a resumed segment in front of a continuation builds new nodes.
type frameNode struct {
	f    frame
	next *frameNode
}

func push(k *frameNode, f frame) *frameNode {
	return &frameNode{f: f, next: k}
}

// callFnFrame awaits the callee value.
type callFnFrame struct {
	args []ir.Expr
	env  *Environment
}

// callArgsFrame awaits the next argument value. done holds the values
// collected so far and is copied, never appended in place.
type callArgsFrame struct {
	fn      Value
	pending []ir.Expr
	done    []Value
	env     *Environment
}

// letFrame awaits the bound value.
type letFrame struct {
	name string
	body ir.Expr
	env  *Environment
}

// assignFrame awaits the assigned value.
type assignFrame struct {
	name string
	env  *Environment
}

// ifFrame awaits the condition value.
type ifFrame struct {
	then ir.Expr
	els  ir.Expr
	env  *Environment
}

// seqFrame discards the incoming value and continues with the rest.
type seqFrame struct {
	rest []ir.Expr
	env  *Environment
}

// performFrame awaits the next operation argument before dispatch.
type performFrame struct {
	label   string
	op      string
	pending []ir.Expr
	done    []Value
	env     *Environment
}

// promptFrame delimits a handler's dynamic extent. A value reaching it means
// the handled body finished: evidence reverts to savedEv and the return
// clause (if any) transforms the value. Continuation capture for this
// handler's operations extends through this frame, marker-matched.
type promptFrame struct {
	label   string
	marker  uuid.UUID
	savedEv *EvidenceList
	ret     *ir.RetImpl
	retEnv  *Environment
}

// tailFrame restores the evidence stack after a tail-dispatched operation
// clause returns.
type tailFrame struct {
	savedEv *EvidenceList
}

// maskFrame restores the evidence stack after a masked body returns.
type maskFrame struct {
	savedEv *EvidenceList
}

func (callFnFrame) frameTag()   {}
func (callArgsFrame) frameTag() {}
func (letFrame) frameTag()      {}
func (assignFrame) frameTag()   {}
func (ifFrame) frameTag()       {}
func (seqFrame) frameTag()      {}
func (performFrame) frameTag()  {}
func (promptFrame) frameTag()   {}
func (tailFrame) frameTag()     {}
func (maskFrame) frameTag()     {}

// appendValue returns done + v as a fresh slice. Shared captured frames must
// never see an in-place append.
func appendValue(done []Value, v Value) []Value {
	out := make([]Value, len(done)+1)
	copy(out, done)
	out[len(done)] = v
	return out
}

// copySegment duplicates the frame nodes from top through stop inclusive and
// returns the new head and the copy of stop. The copies keep the original
// frames (immutable), except that the caller rebinds the copied prompt.
func copySegment(top, stop *frameNode) (*frameNode, *frameNode) {
	var head, tail *frameNode
	for n := top; ; n = n.next {
		c := &frameNode{f: n.f}
		if head == nil {
			head = c
		} else {
			tail.next = c
		}
		tail = c
		if n == stop {
			return head, c
		}
	}
}
