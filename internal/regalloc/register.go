// Package regalloc implements the single backward pass over an ir.Block
// that assigns a caller-save x86-64 general-purpose register to every slot,
// honoring the System V argument registers and the return register.
package regalloc

import "fmt"

// Register identifies one of the physical x86-64 general-purpose registers
// this compiler ever touches. rbp/rbx/r12..r15 are callee-saved and never
// appear here — the allocator only ever hands out caller-saves.
type Register int

const (
	RAX Register = iota
	RDI
	RSI
	RDX
	RCX
	R8
	R9
	R10
	R11
)

func (r Register) String() string {
	switch r {
	case RAX:
		return "rax"
	case RDI:
		return "rdi"
	case RSI:
		return "rsi"
	case RDX:
		return "rdx"
	case RCX:
		return "rcx"
	case R8:
		return "r8"
	case R9:
		return "r9"
	case R10:
		return "r10"
	case R11:
		return "r11"
	default:
		return fmt.Sprintf("reg(%d)", int(r))
	}
}

// ArgumentRegisters is the System V AMD64 integer argument sequence, in
// order. A call with more than len(ArgumentRegisters) arguments is rejected
// with NotImplementedError before this slice is ever indexed past its end.
var ArgumentRegisters = []Register{RDI, RSI, RDX, RCX, R8, R9}

// scratchPool is the free-list of caller-save registers available for
// general allocation. Deliberately four registers, no more: the lowerer's
// output is small enough that this compiler never needs to spill.
func scratchPool() []Register {
	return []Register{R8, R9, R10, R11}
}

// freeList is a small FIFO pool: Take pops the head (the tie-break
// order the spec calls for), Release pushes back onto the tail.
type freeList struct {
	regs []Register
}

// newFreeList builds the scratch pool for one Allocate pass, omitting any
// register in reserved. A function argument bound to r8 or r9 (indices 4
// and 5) occupies that register from entry onward, well before its
// FunctionArgument opcode is reached walking backward — reserved keeps the
// free list from ever handing that register to an unrelated slot in the
// meantime.
func newFreeList(reserved map[Register]bool) *freeList {
	pool := scratchPool()
	regs := make([]Register, 0, len(pool))
	for _, r := range pool {
		if !reserved[r] {
			regs = append(regs, r)
		}
	}
	return &freeList{regs: regs}
}

func (f *freeList) Take() (Register, bool) {
	if len(f.regs) == 0 {
		return 0, false
	}
	reg := f.regs[0]
	f.regs = f.regs[1:]
	return reg, true
}

// Release returns reg to the pool. Registers forced onto a fixed ABI
// position (rax, or an argument register) never came from this pool and
// must not be fed back into it — isScratch guards against that.
func (f *freeList) Release(reg Register) {
	if !isScratch(reg) {
		return
	}
	f.regs = append(f.regs, reg)
}

// isScratch reports whether reg is one of the four registers this
// allocator's free list actually owns.
func isScratch(reg Register) bool {
	switch reg {
	case R8, R9, R10, R11:
		return true
	default:
		return false
	}
}
