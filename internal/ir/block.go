package ir

import "github.com/emberlang/ember/internal/frame"

// Block is the flat instruction stream the lowerer builds for a single
// function body. Instructions accumulate in source order; Frame is the
// lexical symbol table active while the block was built, carried alongside
// the instructions so the register allocator and emitter can recover each
// StackVariable's binding without re-walking the AST.
type Block struct {
	Frame        *frame.StackFrame
	Instructions []Instruction

	// argCache remembers the handle slot already realized for each System
	// V argument index, so repeated reads of the same argument don't
	// re-emit FunctionArgument opcodes. StackVariable reads are
	// deliberately NOT cached — each one gets a fresh opcode, per
	// SPEC_FULL.md §4.2.
	argCache map[int]Slot
}

// NewBlock starts an empty Block rooted at the given lexical frame.
func NewBlock(f *frame.StackFrame) *Block {
	return &Block{Frame: f, argCache: make(map[int]Slot)}
}

// Push appends an Op computing code into a fresh Slot and returns that
// Slot.
func (b *Block) Push(code Opcode) Slot {
	dest := NewSlot()
	b.Instructions = append(b.Instructions, Op{Dest: dest, Code: code})
	return dest
}

// PushWithDest appends an Op computing code whose destination is an
// already-existing slot, used to coalesce PhiStart/PhiEnd pairs onto one
// register without the allocator needing an explicit move.
func (b *Block) PushWithDest(dest Slot, code Opcode) {
	b.Instructions = append(b.Instructions, Op{Dest: dest, Code: code})
}

// PushAssign appends an Assign writing src back into target.
func (b *Block) PushAssign(target AssignTarget, src Slot) {
	b.Instructions = append(b.Instructions, Assign{Target: target, Src: src})
}

// PushJump appends a Jump to target under condition.
func (b *Block) PushJump(target Label, condition JumpCondition) {
	b.Instructions = append(b.Instructions, Op{Dest: NewSlot(), Code: Jump{Target: target, Condition: condition}})
}

// SetLabel binds l to the current end of the instruction list.
func (b *Block) SetLabel(l Label) {
	b.Instructions = append(b.Instructions, SetLabel{L: l})
}

// Len reports how many instructions have been pushed so far.
func (b *Block) Len() int { return len(b.Instructions) }

// CachedArgumentSlot returns the previously realized slot for the idx-th
// argument, if any read has already emitted it.
func (b *Block) CachedArgumentSlot(idx int) (Slot, bool) {
	slot, ok := b.argCache[idx]
	return slot, ok
}

// CacheArgumentSlot remembers slot as the realized value of the idx-th
// argument for subsequent reads.
func (b *Block) CacheArgumentSlot(idx int, slot Slot) {
	b.argCache[idx] = slot
}
