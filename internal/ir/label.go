package ir

import (
	"fmt"
	"sync/atomic"
)

// Label is a control-flow target identifier with an optional human-readable
// tag, created by the lowerer and bound to exactly one position in the
// instruction list by a SetLabel instruction.
type Label struct {
	id  uint64
	tag string
}

var nextLabelID uint64

// NewLabel allocates a fresh Label. tag is purely cosmetic — it shows up in
// debug dumps of the instruction stream and has no effect on codegen.
func NewLabel(tag string) Label {
	return Label{id: atomic.AddUint64(&nextLabelID, 1), tag: tag}
}

func (l Label) String() string {
	if l.tag == "" {
		return fmt.Sprintf("L%d", l.id)
	}
	return fmt.Sprintf("L%d(%s)", l.id, l.tag)
}

// ID distinguishes two Labels independent of their tag; Labels compare
// equal (via ==) only when their ids match, since tag is decorative.
func (l Label) ID() uint64 { return l.id }
