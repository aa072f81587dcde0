// Package ir implements the linear intermediate representation the AST is
// lowered into: a flat instruction list operating over SSA-like Slots and
// named Labels, consumed first by the register allocator (backward) and
// then by the x86-64 emitter (forward).
package ir

import (
	"fmt"
	"sync/atomic"
)

// Slot is a globally unique SSA value identifier produced by the IR
// builder. Each Op gets a fresh destination Slot (Label and Assign
// instructions produce none); the one exception is a phi join, whose
// PhiStart and PhiEnd ops share a single Slot via Block.PushWithDest.
type Slot uint64

var nextSlotID uint64

// NewSlot allocates a fresh, globally unique Slot.
func NewSlot() Slot {
	return Slot(atomic.AddUint64(&nextSlotID, 1))
}

func (s Slot) String() string {
	return fmt.Sprintf("%%%d", uint64(s))
}
