package typesystem

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/rowan-lang/rowan/internal/config"
)

// Type is the interface for all types in our system.
// Effect rows are types of kind E (see rows.go), so substitutions map
// type variables and row variables uniformly.
type Type interface {
	String() string
	Apply(Subst) Type
	FreeTypeVariables() []TVar
	Kind() Kind
}

// TVar represents a type or row variable (e.g. 'a', 't1', 'e3').
type TVar struct {
	Name    string
	KindVal Kind // KindVal avoids a collision with the Kind method
}

func (t TVar) String() string {
	// Normalize auto-generated variables (t1, e14, ...) to t?/e? so tests
	// stay deterministic across fresh-counter runs.
	if config.IsTestMode {
		for _, prefix := range []string{config.TypeVarPrefix, config.RowVarPrefix} {
			if strings.HasPrefix(t.Name, prefix) {
				rest := t.Name[len(prefix):]
				if _, err := strconv.Atoi(rest); err == nil {
					return prefix + "?"
				}
			}
		}
		if strings.HasPrefix(t.Name, config.GenVarPrefix) {
			rest := t.Name[len(config.GenVarPrefix):]
			if _, err := strconv.Atoi(rest); err == nil {
				return "t" + rest
			}
		}
	}
	return t.Name
}

func (t TVar) Kind() Kind {
	if t.KindVal == nil {
		return Star
	}
	return t.KindVal
}

func (t TVar) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TVar) FreeTypeVariables() []TVar {
	return []TVar{t}
}

// TCon represents a type constant/constructor (e.g. Int, Bool, List).
type TCon struct {
	Name    string
	KindVal Kind
}

func (t TCon) Kind() Kind {
	if t.KindVal == nil {
		return Star
	}
	return t.KindVal
}

func (t TCon) String() string { return t.Name }

func (t TCon) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TCon) FreeTypeVariables() []TVar {
	return []TVar{}
}

// TApp represents a type application (e.g. List Int).
type TApp struct {
	Constructor Type
	Args        []Type
}

func (t TApp) Kind() Kind {
	k := t.Constructor.Kind()
	for range t.Args {
		if arrow, ok := k.(KArrow); ok {
			k = arrow.Right
		} else {
			return Star
		}
	}
	return k
}

func (t TApp) String() string {
	args := []string{}
	for _, arg := range t.Args {
		args = append(args, arg.String())
	}
	if len(args) == 0 {
		return t.Constructor.String()
	}
	return fmt.Sprintf("(%s %s)", t.Constructor.String(), strings.Join(args, " "))
}

func (t TApp) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TApp) FreeTypeVariables() []TVar {
	vars := []TVar{}
	vars = append(vars, t.Constructor.FreeTypeVariables()...)
	for _, arg := range t.Args {
		vars = append(vars, arg.FreeTypeVariables()...)
	}
	return uniqueTVars(vars)
}

// TFunc represents a function type. Every function type carries exactly one
// effect row describing the effects it may perform when called.
// e.g. (Int) -> <State|e> Int
type TFunc struct {
	Params     []Type
	Effects    Row
	ReturnType Type
}

func (t TFunc) Kind() Kind { return Star }

func (t TFunc) String() string {
	params := []string{}
	for _, p := range t.Params {
		params = append(params, p.String())
	}
	eff := ""
	if !t.Effects.IsEmpty() {
		eff = t.Effects.String() + " "
	}
	return fmt.Sprintf("(%s) -> %s%s", strings.Join(params, ", "), eff, t.ReturnType.String())
}

func (t TFunc) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TFunc) FreeTypeVariables() []TVar {
	vars := []TVar{}
	for _, p := range t.Params {
		vars = append(vars, p.FreeTypeVariables()...)
	}
	vars = append(vars, t.Effects.FreeTypeVariables()...)
	vars = append(vars, t.ReturnType.FreeTypeVariables()...)
	return uniqueTVars(vars)
}

// TForall represents a universally quantified type.
// e.g. forall t1 e1. (t1) -> <|e1> t1
type TForall struct {
	Vars []TVar
	Type Type
}

func (t TForall) Kind() Kind { return Star }

func (t TForall) String() string {
	vars := []string{}
	for _, v := range t.Vars {
		vars = append(vars, v.String())
	}
	return fmt.Sprintf("forall %s. %s", strings.Join(vars, " "), t.Type.String())
}

func (t TForall) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TForall) FreeTypeVariables() []TVar {
	bound := make(map[string]bool)
	for _, v := range t.Vars {
		bound[v.Name] = true
	}
	result := []TVar{}
	for _, v := range t.Type.FreeTypeVariables() {
		if !bound[v.Name] {
			result = append(result, v)
		}
	}
	return uniqueTVars(result)
}

// ApplyWithCycleCheck applies a substitution with cycle detection.
// This is the main entry point for substitution application.
func ApplyWithCycleCheck(t Type, s Subst, visited map[string]bool) Type {
	if t == nil {
		return nil
	}

	switch typ := t.(type) {
	case TVar:
		if visited[typ.Name] {
			return typ // break the cycle, return the variable as-is
		}
		if replacement, ok := s[typ.Name]; ok {
			if tv, ok := replacement.(TVar); ok && tv.Name == typ.Name {
				return typ
			}
			newVisited := copyVisited(visited)
			newVisited[typ.Name] = true
			return ApplyWithCycleCheck(replacement, s, newVisited)
		}
		return typ

	case TCon:
		return typ

	case TApp:
		newArgs := make([]Type, len(typ.Args))
		for i, arg := range typ.Args {
			newArgs[i] = ApplyWithCycleCheck(arg, s, visited)
		}
		return TApp{
			Constructor: ApplyWithCycleCheck(typ.Constructor, s, visited),
			Args:        newArgs,
		}

	case TFunc:
		newParams := make([]Type, len(typ.Params))
		for i, p := range typ.Params {
			newParams[i] = ApplyWithCycleCheck(p, s, visited)
		}
		return TFunc{
			Params:     newParams,
			Effects:    applyRow(typ.Effects, s, visited),
			ReturnType: ApplyWithCycleCheck(typ.ReturnType, s, visited),
		}

	case Row:
		return applyRow(typ, s, visited)

	case TForall:
		// Filter the substitution to exclude quantified variables.
		newSubst := make(Subst)
		bound := make(map[string]bool)
		for _, v := range typ.Vars {
			bound[v.Name] = true
		}
		for k, v := range s {
			if !bound[k] {
				newSubst[k] = v
			}
		}
		return TForall{
			Vars: typ.Vars,
			Type: ApplyWithCycleCheck(typ.Type, newSubst, visited),
		}

	default:
		return t.Apply(s)
	}
}

func copyVisited(m map[string]bool) map[string]bool {
	newMap := make(map[string]bool, len(m))
	for k, v := range m {
		newMap[k] = v
	}
	return newMap
}

// Subst is a mapping from type/row variables to types.
type Subst map[string]Type

// Compose combines two substitutions: (s1.Compose(s2)) applies s2 first.
func (s1 Subst) Compose(s2 Subst) Subst {
	subst := Subst{}
	for k, v := range s2 {
		subst[k] = v
	}
	for k, v := range s1 {
		subst[k] = v.Apply(s2)
	}
	return subst
}

// HashType returns a structural hash of a type via its canonical rendering.
func HashType(t Type) uint64 {
	h := fnv.New64a()
	if r, ok := t.(Row); ok {
		t = NormalizeRow(r, nil)
	}
	_, _ = h.Write([]byte(t.String()))
	return h.Sum64()
}

func uniqueTVars(vars []TVar) []TVar {
	unique := []TVar{}
	seen := map[string]bool{}
	for _, v := range vars {
		if !seen[v.Name] {
			seen[v.Name] = true
			unique = append(unique, v)
		}
	}
	return unique
}
