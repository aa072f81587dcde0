package ir

import "fmt"

// Instruction is one entry in a Block's linear instruction list: binding a
// Label to the current position, computing an Opcode into a destination
// Slot, or writing a Slot's value back into a stack variable or argument
// register (used to implement let-bindings and reassignment).
type Instruction interface {
	isInstruction()
	String() string
}

// SetLabel binds L to the position immediately following it in the
// instruction list. It produces no destination slot.
type SetLabel struct {
	L Label
}

func (SetLabel) isInstruction() {}
func (s SetLabel) String() string { return fmt.Sprintf("%s:", s.L) }

// Op computes Code, writing its result to Dest.
type Op struct {
	Dest Slot
	Code Opcode
}

func (Op) isInstruction() {}
func (o Op) String() string { return fmt.Sprintf("%s = %s", o.Dest, o.Code) }

// AssignTargetKind discriminates AssignTarget's two storage locations.
type AssignTargetKind int

const (
	AssignStackVariable AssignTargetKind = iota
	AssignFunctionArgument
)

// AssignTarget names a storage location an Assign writes back to: a stack
// slot at Offset (8-byte units from rbp) or the Offset-th System V argument
// register. It is a location descriptor, not an IR Slot — the destination
// doesn't hold an SSA value of its own.
type AssignTarget struct {
	Kind   AssignTargetKind
	Offset int
}

func (t AssignTarget) String() string {
	switch t.Kind {
	case AssignStackVariable:
		return fmt.Sprintf("stackvar[%d]", t.Offset)
	case AssignFunctionArgument:
		return fmt.Sprintf("argument[%d]", t.Offset)
	default:
		return "invalid assign target"
	}
}

// Assign writes Src back into Target. Unlike Op it allocates no new Slot.
type Assign struct {
	Target AssignTarget
	Src    Slot
}

func (Assign) isInstruction() {}
func (a Assign) String() string { return fmt.Sprintf("%s := %s", a.Target, a.Src) }
