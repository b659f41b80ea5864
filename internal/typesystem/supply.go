package typesystem

import (
	"strconv"

	"github.com/rowan-lang/rowan/internal/config"
)

// VarSupply is an explicit fresh-variable source. It is threaded through
// unification and inference instead of living in global state, so repeated
// or parallel compilation runs stay isolated (one supply per unit).
type VarSupply struct {
	counter int
}

func NewVarSupply() *VarSupply {
	return &VarSupply{}
}

// FreshType returns a fresh value-kinded type variable (t1, t2, ...).
func (s *VarSupply) FreshType() TVar {
	s.counter++
	return TVar{Name: config.TypeVarPrefix + strconv.Itoa(s.counter), KindVal: Star}
}

// FreshRow returns a fresh row-kinded variable (e1, e2, ...).
func (s *VarSupply) FreshRow() TVar {
	s.counter++
	return TVar{Name: config.RowVarPrefix + strconv.Itoa(s.counter), KindVal: Eff}
}

// FreshNamed returns a fresh variable with an explicit prefix and kind.
// Used by generalization to rename quantified variables apart.
func (s *VarSupply) FreshNamed(prefix string, k Kind) TVar {
	s.counter++
	return TVar{Name: prefix + strconv.Itoa(s.counter), KindVal: k}
}

// Counter exposes the current counter value for snapshotting in tests.
func (s *VarSupply) Counter() int { return s.counter }
