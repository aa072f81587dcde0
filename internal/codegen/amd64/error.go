package amd64

import "fmt"

// InternalError reports an ir.Block the emitter cannot make sense of — an
// instruction or opcode kind it never expected to see, a jump to a label
// that is never bound, or a SetReturnValue not immediately followed by a
// Return. Reaching this means the lowerer, allocator, and emitter have
// drifted out of sync. A slot the register allocator never assigned is not
// reported here: regalloc.Allocation.RegisterOf panics on it.
type InternalError struct {
	Reason string
}

func (e *InternalError) Error() string { return fmt.Sprintf("amd64: internal error: %s", e.Reason) }

// NotImplementedError reports a construct the emitter deliberately refuses:
// division (parsed but never lowered to a runtime instruction) or a call
// with more than six arguments slipping past the allocator's own check.
type NotImplementedError struct {
	Reason string
}

func (e *NotImplementedError) Error() string { return "not yet implemented: " + e.Reason }

// ValueEncodeError wraps a failure from internal/value.Encode while
// materializing a Literal — e.g. an integer constant whose magnitude
// collides with the tag bits.
type ValueEncodeError struct {
	Err error
}

func (e *ValueEncodeError) Error() string { return fmt.Sprintf("amd64: encode literal: %s", e.Err) }
func (e *ValueEncodeError) Unwrap() error { return e.Err }
