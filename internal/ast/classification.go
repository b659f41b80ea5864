package ast

import "sort"

// ResumeMode is the classification of one handler operation.
type ResumeMode int

const (
	// ModeGeneral: resume is called zero times, more than once, or not in
	// tail position; the lowering captures a first-class resumption.
	// Over-classifying as general is always semantically safe.
	ModeGeneral ResumeMode = iota
	// ModeTail: every control path ends in exactly one tail call to resume;
	// the lowering dispatches the operation as a direct call.
	ModeTail
)

func (m ResumeMode) String() string {
	if m == ModeTail {
		return "tail"
	}
	return "general"
}

// SetMode records the classifier's verdict for one operation.
func (he *HandleExpression) SetMode(op string, mode ResumeMode) {
	if he.Modes == nil {
		he.Modes = make(map[string]ResumeMode)
	}
	he.Modes[op] = mode
}

// Mode returns the recorded classification, defaulting to general for
// unclassified operations (the safe direction).
func (he *HandleExpression) Mode(op string) ResumeMode {
	if he.Modes == nil {
		return ModeGeneral
	}
	mode, ok := he.Modes[op]
	if !ok {
		return ModeGeneral
	}
	return mode
}

// NeedsCapture lists the operations that require continuation capture,
// sorted. It can be a strict subset: a handler may mix tail-resumptive and
// general operations.
func (he *HandleExpression) NeedsCapture() []string {
	ops := []string{}
	for _, clause := range he.Operations {
		if he.Mode(clause.Name) == ModeGeneral {
			ops = append(ops, clause.Name)
		}
	}
	sort.Strings(ops)
	return ops
}
