package typesystem

import (
	"sort"
	"strings"
)

// Row is an effect row: an ordered multiset of effect labels terminated by
// either the empty row (Tail == nil) or a row-kinded variable. Labels are a
// multiset, not a set: the same label may appear more than once (nested
// handlers for the same effect). Rows are immutable; every operation
// returns a fresh value with a fresh label slice.
type Row struct {
	Labels []string
	Tail   Type // nil when closed, otherwise a TVar of kind E
}

// EmptyRow is the closed row with no labels.
var EmptyRow = Row{}

// NewRow builds a row from labels and an optional tail, copying the slice.
func NewRow(labels []string, tail Type) Row {
	copied := make([]string, len(labels))
	copy(copied, labels)
	return Row{Labels: copied, Tail: tail}
}

// SingletonRow builds <label|tail>.
func SingletonRow(label string, tail Type) Row {
	return Row{Labels: []string{label}, Tail: tail}
}

func (r Row) Kind() Kind { return Eff }

// IsEmpty reports whether the row is closed with no labels.
func (r Row) IsEmpty() bool {
	return len(r.Labels) == 0 && r.Tail == nil
}

// IsOpen reports whether the row ends in a row variable.
func (r Row) IsOpen() bool {
	return r.Tail != nil
}

func (r Row) String() string {
	inner := strings.Join(r.Labels, ",")
	if r.Tail != nil {
		return "<" + inner + "|" + r.Tail.String() + ">"
	}
	return "<" + inner + ">"
}

func (r Row) Apply(s Subst) Type {
	return applyRow(r, s, make(map[string]bool))
}

func (r Row) FreeTypeVariables() []TVar {
	if r.Tail == nil {
		return []TVar{}
	}
	return r.Tail.FreeTypeVariables()
}

// applyRow applies a substitution to a row, splicing rows bound to the tail
// variable into the label sequence. The result's tail is always either nil
// or an unbound variable under s.
func applyRow(r Row, s Subst, visited map[string]bool) Row {
	labels := make([]string, len(r.Labels))
	copy(labels, r.Labels)

	tail := r.Tail
	for tail != nil {
		tv, ok := tail.(TVar)
		if !ok {
			break
		}
		if visited[tv.Name] {
			break
		}
		replacement, bound := s[tv.Name]
		if !bound {
			break
		}
		visited = copyVisited(visited)
		visited[tv.Name] = true
		switch rep := replacement.(type) {
		case Row:
			labels = append(labels, rep.Labels...)
			tail = rep.Tail
		case TVar:
			if rep.Name == tv.Name {
				tail = tv
				return Row{Labels: labels, Tail: tail}
			}
			tail = rep
		default:
			// A row tail bound to a non-row term is a precondition violation
			// in the caller; keep the variable rather than corrupt the row.
			return Row{Labels: labels, Tail: tv}
		}
	}
	return Row{Labels: labels, Tail: tail}
}

// NormalizeRow returns the canonical form of a row: tails reachable through
// the substitution are merged into the label sequence, labels are sorted by
// their total (lexicographic) order with duplicates kept. The operation is
// idempotent: NormalizeRow(NormalizeRow(r, s), s) == NormalizeRow(r, s).
// Two rows are equal iff their canonical forms are syntactically identical.
func NormalizeRow(r Row, s Subst) Row {
	if s == nil {
		s = Subst{}
	}
	merged := applyRow(r, s, make(map[string]bool))
	sort.Strings(merged.Labels)
	return merged
}

// RowsEqual compares two rows by canonical form under a substitution.
func RowsEqual(a, b Row, s Subst) bool {
	na := NormalizeRow(a, s)
	nb := NormalizeRow(b, s)
	if len(na.Labels) != len(nb.Labels) {
		return false
	}
	for i := range na.Labels {
		if na.Labels[i] != nb.Labels[i] {
			return false
		}
	}
	if (na.Tail == nil) != (nb.Tail == nil) {
		return false
	}
	if na.Tail != nil {
		ta, aok := na.Tail.(TVar)
		tb, bok := nb.Tail.(TVar)
		if !aok || !bok {
			return false
		}
		return ta.Name == tb.Name
	}
	return true
}

// ContainsLabel reports whether the row's explicit labels include l.
func (r Row) ContainsLabel(l string) bool {
	for _, label := range r.Labels {
		if label == l {
			return true
		}
	}
	return false
}

// WithoutOneLabel returns the row with exactly one occurrence of l removed.
// Duplicate occurrences remain visible: a single handler discharges one
// textual occurrence only. The second result is false when l is absent.
func (r Row) WithoutOneLabel(l string) (Row, bool) {
	for i, label := range r.Labels {
		if label == l {
			labels := make([]string, 0, len(r.Labels)-1)
			labels = append(labels, r.Labels[:i]...)
			labels = append(labels, r.Labels[i+1:]...)
			return Row{Labels: labels, Tail: r.Tail}, true
		}
	}
	return r, false
}

// Prepend returns the row with one occurrence of l added.
func (r Row) Prepend(l string) Row {
	labels := make([]string, 0, len(r.Labels)+1)
	labels = append(labels, l)
	labels = append(labels, r.Labels...)
	return Row{Labels: labels, Tail: r.Tail}
}
