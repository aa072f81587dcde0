package regalloc

import "fmt"

// NotImplementedError reports an allocation this compiler deliberately
// refuses rather than spilling to the stack: a call with more than six
// arguments, or a free-list exhausted by genuinely concurrent live values.
type NotImplementedError struct {
	Reason string
}

func (e *NotImplementedError) Error() string { return "not yet implemented: " + e.Reason }

// InternalError reports an ir.Block this allocator cannot make sense of —
// an opcode or instruction kind it doesn't know how to walk. Reaching this
// means the lowerer and the allocator have drifted out of sync.
type InternalError struct {
	Reason string
}

func (e *InternalError) Error() string { return fmt.Sprintf("regalloc: internal error: %s", e.Reason) }
