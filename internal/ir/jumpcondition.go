package ir

import "fmt"

// CompareOp enumerates the comparison operators a Jump can branch on.
type CompareOp int

const (
	CompareEq CompareOp = iota
	CompareNe
	CompareLt
	CompareLe
	CompareGt
	CompareGe
)

func (c CompareOp) String() string {
	switch c {
	case CompareEq:
		return "=="
	case CompareNe:
		return "!="
	case CompareLt:
		return "<"
	case CompareLe:
		return "<="
	case CompareGt:
		return ">"
	case CompareGe:
		return ">="
	default:
		return fmt.Sprintf("cmp(%d)", int(c))
	}
}

// JumpConditionKind discriminates JumpCondition's variants.
type JumpConditionKind int

const (
	JumpUnconditional JumpConditionKind = iota
	JumpZero
	JumpNotZero
	JumpCompare
)

// JumpCondition is the predicate attached to a Jump instruction: always, a
// single slot tested against zero, or a two-slot comparison.
type JumpCondition struct {
	Kind    JumpConditionKind
	Slot    Slot      // used by JumpZero / JumpNotZero
	LHS, RHS Slot      // used by JumpCompare
	Op      CompareOp // used by JumpCompare
}

// Unconditional builds a JumpCondition that always branches.
func Unconditional() JumpCondition { return JumpCondition{Kind: JumpUnconditional} }

// Zero builds a JumpCondition that branches when slot's runtime value is zero.
func Zero(slot Slot) JumpCondition { return JumpCondition{Kind: JumpZero, Slot: slot} }

// NotZero builds a JumpCondition that branches when slot's runtime value is non-zero.
func NotZero(slot Slot) JumpCondition { return JumpCondition{Kind: JumpNotZero, Slot: slot} }

// Compare builds a JumpCondition that branches when lhs op rhs holds.
func Compare(lhs Slot, op CompareOp, rhs Slot) JumpCondition {
	return JumpCondition{Kind: JumpCompare, LHS: lhs, Op: op, RHS: rhs}
}

func (c JumpCondition) String() string {
	switch c.Kind {
	case JumpUnconditional:
		return "always"
	case JumpZero:
		return fmt.Sprintf("%s == 0", c.Slot)
	case JumpNotZero:
		return fmt.Sprintf("%s != 0", c.Slot)
	case JumpCompare:
		return fmt.Sprintf("%s %s %s", c.LHS, c.Op, c.RHS)
	default:
		return "invalid jump condition"
	}
}
