package evaluator

import (
	"github.com/google/uuid"

	"github.com/rowan-lang/rowan/internal/ir"
)

// Evidence is one installed handler: the label it serves, a unique marker
// tying operation calls back to the matching prompt frame, the operation
// closures, and the evidence stack that was current outside the handler.
// Operation clause bodies run under Outer, so a handler performing its own
// effect reaches the next enclosing handler instead of itself.
type Evidence struct {
	Label      string
	Marker     uuid.UUID
	SingleShot bool
	Ops        map[string]*ir.OpImpl
	Ret        *ir.RetImpl
	Env        *Environment
	Outer      *EvidenceList
}

// EvidenceList is a persistent stack of evidence records. Push never
// mutates; captured continuations and resumptions keep whatever list was
// current when they were made.
type EvidenceList struct {
	Ev   *Evidence
	Next *EvidenceList
}

// Push returns the list with e on top.
func (l *EvidenceList) Push(e *Evidence) *EvidenceList {
	return &EvidenceList{Ev: e, Next: l}
}

// Lookup returns the innermost evidence for label, or nil.
func (l *EvidenceList) Lookup(label string) *Evidence {
	for n := l; n != nil; n = n.Next {
		if n.Ev.Label == label {
			return n.Ev
		}
	}
	return nil
}

// RemoveInnermost returns the list with the innermost entry for label
// removed, copying the prefix above it. When label is absent the receiver
// is returned unchanged.
func (l *EvidenceList) RemoveInnermost(label string) *EvidenceList {
	var prefix []*Evidence
	for n := l; n != nil; n = n.Next {
		if n.Ev.Label == label {
			rest := n.Next
			for i := len(prefix) - 1; i >= 0; i-- {
				rest = rest.Push(prefix[i])
			}
			return rest
		}
		prefix = append(prefix, n.Ev)
	}
	return l
}
