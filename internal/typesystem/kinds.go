package typesystem

import "fmt"

// Kind represents the "type of a type".
// * (Star) is the kind of proper value types (Int, Bool).
// L is the kind of effect labels, E the kind of effect rows.
// k1 -> k2 is the kind of type constructors.
type Kind interface {
	String() string
	Equal(Kind) bool
}

// KStar represents the kind of a value type (*).
type KStar struct{}

func (k KStar) String() string { return "*" }
func (k KStar) Equal(other Kind) bool {
	_, ok := other.(KStar)
	return ok
}

// KLabel represents the kind of a single effect label.
type KLabel struct{}

func (k KLabel) String() string { return "L" }
func (k KLabel) Equal(other Kind) bool {
	_, ok := other.(KLabel)
	return ok
}

// KRow represents the kind of an effect row.
type KRow struct{}

func (k KRow) String() string { return "E" }
func (k KRow) Equal(other Kind) bool {
	_, ok := other.(KRow)
	return ok
}

// KArrow represents a constructor kind (k1 -> k2).
type KArrow struct {
	Left  Kind
	Right Kind
}

func (k KArrow) String() string {
	return fmt.Sprintf("(%s -> %s)", k.Left.String(), k.Right.String())
}

func (k KArrow) Equal(other Kind) bool {
	o, ok := other.(KArrow)
	if !ok {
		return false
	}
	return k.Left.Equal(o.Left) && k.Right.Equal(o.Right)
}

var (
	Star Kind = KStar{}
	Lab  Kind = KLabel{}
	Eff  Kind = KRow{}
)

// MakeArrow builds an N-ary constructor kind.
// e.g. MakeArrow(Star, Star, Star) is * -> * -> *.
func MakeArrow(args ...Kind) Kind {
	if len(args) == 0 {
		return Star
	}
	if len(args) == 1 {
		return args[0]
	}
	return KArrow{Left: args[0], Right: MakeArrow(args[1:]...)}
}
