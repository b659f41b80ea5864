package typesystem

import (
	"fmt"
	"reflect"
)

// UnifyErrorKind classifies a unification failure.
type UnifyErrorKind int

const (
	ShapeMismatch UnifyErrorKind = iota
	KindMismatch
	OccursCheckFailure
	RowLabelMismatch
)

func (k UnifyErrorKind) String() string {
	switch k {
	case ShapeMismatch:
		return "shape mismatch"
	case KindMismatch:
		return "kind mismatch"
	case OccursCheckFailure:
		return "occurs check failure"
	case RowLabelMismatch:
		return "row label mismatch"
	}
	return "unification failure"
}

// UnifyError carries the two conflicting terms so a caller can render them.
// Unification never formats user-facing messages beyond Reason.
type UnifyError struct {
	ErrKind UnifyErrorKind
	Left    Type
	Right   Type
	Reason  string
}

func (e *UnifyError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s vs %s (%s)", e.ErrKind, e.Left, e.Right, e.Reason)
	}
	return fmt.Sprintf("%s: %s vs %s", e.ErrKind, e.Left, e.Right)
}

func errUnify(kind UnifyErrorKind, t1, t2 Type, reason string) error {
	return &UnifyError{ErrKind: kind, Left: t1, Right: t2, Reason: reason}
}

// Unify attempts to find a substitution that makes t1 and t2 equal.
// The returned substitution is a delta: unification never mutates shared
// state, the caller composes deltas into its own substitution. The supply
// provides fresh row tails for row unification.
func Unify(t1, t2 Type, fresh *VarSupply) (Subst, error) {
	if reflect.DeepEqual(t1, t2) {
		return Subst{}, nil
	}

	// The unifier never unifies types of mismatched kind.
	if !t1.Kind().Equal(t2.Kind()) {
		return nil, errUnify(KindMismatch, t1, t2,
			fmt.Sprintf("kind %s vs kind %s", t1.Kind(), t2.Kind()))
	}

	switch t1 := t1.(type) {
	case TVar:
		return Bind(t1, t2)

	case TCon:
		switch t2 := t2.(type) {
		case TVar:
			return Bind(t2, t1)
		case TCon:
			if t1.Name == t2.Name {
				return Subst{}, nil
			}
			return nil, errUnify(ShapeMismatch, t1, t2, "type constant mismatch")
		default:
			return nil, errUnify(ShapeMismatch, t1, t2, "")
		}

	case TApp:
		switch t2 := t2.(type) {
		case TVar:
			return Bind(t2, t1)
		case TApp:
			s1, err := Unify(t1.Constructor, t2.Constructor, fresh)
			if err != nil {
				return nil, err
			}
			if len(t1.Args) != len(t2.Args) {
				return nil, errUnify(ShapeMismatch, t1, t2,
					fmt.Sprintf("type arguments length mismatch: %d vs %d", len(t1.Args), len(t2.Args)))
			}
			for i := 0; i < len(t1.Args); i++ {
				arg1 := t1.Args[i].Apply(s1)
				arg2 := t2.Args[i].Apply(s1)
				s2, err := Unify(arg1, arg2, fresh)
				if err != nil {
					return nil, err
				}
				s1 = s1.Compose(s2)
			}
			return s1, nil
		default:
			return nil, errUnify(ShapeMismatch, t1, t2, "")
		}

	case TFunc:
		switch t2 := t2.(type) {
		case TVar:
			return Bind(t2, t1)
		case TFunc:
			if len(t1.Params) != len(t2.Params) {
				return nil, errUnify(ShapeMismatch, t1, t2,
					fmt.Sprintf("function parameter count mismatch: %d vs %d", len(t1.Params), len(t2.Params)))
			}
			s1 := Subst{}
			for i := 0; i < len(t1.Params); i++ {
				p1 := t1.Params[i].Apply(s1)
				p2 := t2.Params[i].Apply(s1)
				s2, err := Unify(p1, p2, fresh)
				if err != nil {
					return nil, err
				}
				s1 = s1.Compose(s2)
			}
			// Function types require their effect rows to unify.
			e1 := applyRow(t1.Effects, s1, make(map[string]bool))
			e2 := applyRow(t2.Effects, s1, make(map[string]bool))
			s2, err := UnifyRow(e1, e2, fresh)
			if err != nil {
				return nil, err
			}
			s1 = s1.Compose(s2)

			ret1 := t1.ReturnType.Apply(s1)
			ret2 := t2.ReturnType.Apply(s1)
			s3, err := Unify(ret1, ret2, fresh)
			if err != nil {
				return nil, err
			}
			return s1.Compose(s3), nil
		default:
			return nil, errUnify(ShapeMismatch, t1, t2, "")
		}

	case Row:
		switch t2 := t2.(type) {
		case TVar:
			return Bind(t2, t1)
		case Row:
			return UnifyRow(t1, t2, fresh)
		default:
			return nil, errUnify(ShapeMismatch, t1, t2, "")
		}

	case TForall:
		switch t2 := t2.(type) {
		case TVar:
			return Bind(t2, t1)
		case TForall:
			// Alpha-equivalence via skolemization: substitute both sides'
			// quantified variables with the same rigid constants so body
			// unification matches structure without binding them.
			if len(t1.Vars) != len(t2.Vars) {
				return nil, errUnify(ShapeMismatch, t1, t2, "polytype variable count mismatch")
			}
			subst := make(Subst)
			for i, v1 := range t1.Vars {
				if !v1.Kind().Equal(t2.Vars[i].Kind()) {
					return nil, errUnify(KindMismatch, t1, t2, "quantified variable kind mismatch")
				}
				skolem := TCon{Name: fmt.Sprintf("$skolem_%s", v1.Name), KindVal: v1.Kind()}
				subst[v1.Name] = skolem
				subst[t2.Vars[i].Name] = skolem
			}
			return Unify(t1.Type.Apply(subst), t2.Type.Apply(subst), fresh)
		default:
			return nil, errUnify(ShapeMismatch, t1, t2, "cannot unify polytype with monotype")
		}

	default:
		return nil, errUnify(ShapeMismatch, t1, t2, fmt.Sprintf("unknown type kind: %T", t1))
	}
}

// UnifyRow unifies two effect rows. Labels match position-insensitively as
// multisets; unmatched labels are deferred to the other side's tail. Two
// closed rows unify only when they are equal as canonical multisets.
func UnifyRow(r1, r2 Row, fresh *VarSupply) (Subst, error) {
	n1 := NormalizeRow(r1, nil)
	n2 := NormalizeRow(r2, nil)

	leftover1, leftover2 := multisetDiff(n1.Labels, n2.Labels)

	// Closed rows absorb nothing: any unmatched label is a mismatch.
	if len(leftover1) > 0 && n2.Tail == nil {
		return nil, errUnify(RowLabelMismatch, r1, r2,
			fmt.Sprintf("labels %v not present in closed row", leftover1))
	}
	if len(leftover2) > 0 && n1.Tail == nil {
		return nil, errUnify(RowLabelMismatch, r1, r2,
			fmt.Sprintf("labels %v not present in closed row", leftover2))
	}

	tail1, open1 := tailVar(n1)
	tail2, open2 := tailVar(n2)

	if len(leftover1) == 0 && len(leftover2) == 0 {
		switch {
		case !open1 && !open2:
			return Subst{}, nil
		case open1 && !open2:
			return Bind(tail1, EmptyRow)
		case !open1 && open2:
			return Bind(tail2, EmptyRow)
		default:
			if tail1.Name == tail2.Name {
				return Subst{}, nil
			}
			return Bind(tail1, tail2)
		}
	}

	// At this point every side with leftovers faces an open opposite row.
	if open1 && open2 && tail1.Name == tail2.Name {
		// <l1|e> ~ <l2|e> with disjoint non-empty leftovers is unsolvable:
		// e would need to contain both remainders simultaneously.
		return nil, errUnify(RowLabelMismatch, r1, r2, "shared tail cannot absorb both remainders")
	}

	subst := Subst{}

	if !open1 {
		// r1 is closed, so r2's tail is exactly the remainder, closed.
		s, err := Bind(tail2, Row{Labels: leftover1})
		if err != nil {
			return nil, err
		}
		return subst.Compose(s), nil
	}
	if !open2 {
		s, err := Bind(tail1, Row{Labels: leftover2})
		if err != nil {
			return nil, err
		}
		return subst.Compose(s), nil
	}

	// Both open: bind each tail to the other side's remainder plus a fresh
	// shared tail, so both parties' constraints remain satisfiable.
	shared := fresh.FreshRow()
	s1, err := Bind(tail1, Row{Labels: leftover2, Tail: shared})
	if err != nil {
		return nil, err
	}
	subst = subst.Compose(s1)
	s2, err := Bind(tail2, Row{Labels: leftover1, Tail: shared})
	if err != nil {
		return nil, err
	}
	return subst.Compose(s2), nil
}

// multisetDiff returns the labels of a not matched in b and vice versa,
// duplicate-count-sensitively. Inputs are sorted (canonical form).
func multisetDiff(a, b []string) (onlyA, onlyB []string) {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			i++
			j++
		case a[i] < b[j]:
			onlyA = append(onlyA, a[i])
			i++
		default:
			onlyB = append(onlyB, b[j])
			j++
		}
	}
	onlyA = append(onlyA, a[i:]...)
	onlyB = append(onlyB, b[j:]...)
	return onlyA, onlyB
}

func tailVar(r Row) (TVar, bool) {
	if r.Tail == nil {
		return TVar{}, false
	}
	tv, ok := r.Tail.(TVar)
	return tv, ok
}

// Bind binds a type variable to a type, performing kind and occurs checks.
func Bind(tv TVar, t Type) (Subst, error) {
	if tVal, ok := t.(TVar); ok && tVal.Name == tv.Name {
		return Subst{}, nil
	}

	if !tv.Kind().Equal(t.Kind()) {
		return nil, errUnify(KindMismatch, tv, t,
			fmt.Sprintf("variable %s has kind %s, type has kind %s", tv.Name, tv.Kind(), t.Kind()))
	}

	// Occurs check: avoid infinite types like a = List a, e = <State|e>.
	if OccursCheck(tv, t) {
		return nil, errUnify(OccursCheckFailure, tv, t, "infinite type")
	}

	return Subst{tv.Name: t}, nil
}

// OccursCheck returns true if tv appears free in t.
func OccursCheck(tv TVar, t Type) bool {
	for _, v := range t.FreeTypeVariables() {
		if v.Name == tv.Name {
			return true
		}
	}
	return false
}
