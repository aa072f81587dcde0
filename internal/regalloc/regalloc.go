package regalloc

import (
	"fmt"

	"github.com/emberlang/ember/internal/ir"
)

// Allocation is the result of walking a Block: a register for every slot the
// emitter will need to read or write machine code against.
type Allocation struct {
	Registers map[ir.Slot]Register
}

// RegisterOf looks up the register assigned to s. It panics if s was never
// visited by Allocate — a sign the emitter is walking instructions Allocate
// didn't, which would mean the two have drifted out of sync.
func (a *Allocation) RegisterOf(s ir.Slot) Register {
	reg, ok := a.Registers[s]
	if !ok {
		panic(fmt.Sprintf("regalloc: slot %s was never allocated a register", s))
	}
	return reg
}

// Allocate walks block backward exactly once, per spec.md §4.4's
// opcode-action table, and assigns every slot one of the four caller-save
// scratch registers — or one of the System V argument/return registers when
// the opcode forces that binding. There is no spilling: a free-list
// exhausted by genuinely live values fails with NotImplementedError rather
// than reaching for the stack.
func Allocate(block *ir.Block) (*Allocation, error) {
	a := &Allocation{Registers: make(map[ir.Slot]Register)}
	reserved := reservedArgumentRegisters(block)
	free := newFreeList(reserved)

	release := func(s ir.Slot) {
		reg, ok := a.Registers[s]
		if !ok || reserved[reg] {
			return
		}
		free.Release(reg)
	}
	ensure := func(s ir.Slot) (Register, error) {
		if reg, ok := a.Registers[s]; ok {
			return reg, nil
		}
		reg, ok := free.Take()
		if !ok {
			return 0, &NotImplementedError{Reason: "register spilling"}
		}
		a.Registers[s] = reg
		return reg, nil
	}
	force := func(s ir.Slot, reg Register) {
		a.Registers[s] = reg
	}

	for i := len(block.Instructions) - 1; i >= 0; i-- {
		switch instr := block.Instructions[i].(type) {
		case ir.SetLabel:
			// No operands, no destination: nothing to allocate.

		case ir.Assign:
			// The target is a stack offset or argument index, not a slot —
			// only the source value needs a register.
			if _, err := ensure(instr.Src); err != nil {
				return nil, err
			}

		case ir.Op:
			if err := allocateOp(instr, a.Registers, ensure, release, force); err != nil {
				return nil, err
			}

		default:
			return nil, &InternalError{Reason: fmt.Sprintf("unknown instruction %T", instr)}
		}
	}
	return a, nil
}

// reservedArgumentRegisters finds every FunctionArgument opcode in block
// whose System V register coincides with a scratch register (only
// arguments 4 and 5, bound to r8/r9, ever do) and returns the set to
// exclude from the free list for the whole pass.
func reservedArgumentRegisters(block *ir.Block) map[Register]bool {
	reserved := make(map[Register]bool)
	for _, instr := range block.Instructions {
		op, ok := instr.(ir.Op)
		if !ok {
			continue
		}
		arg, ok := op.Code.(ir.FunctionArgument)
		if !ok {
			continue
		}
		reg := ArgumentRegisters[arg.Index]
		if isScratch(reg) {
			reserved[reg] = true
		}
	}
	return reserved
}

func allocateOp(
	op ir.Op,
	assigned map[ir.Slot]Register,
	ensure func(ir.Slot) (Register, error),
	release func(ir.Slot),
	force func(ir.Slot, Register),
) error {
	switch code := op.Code.(type) {
	case ir.Literal, ir.StackVariable:
		// The one and only write to this slot. ensure gives it a register
		// even when nothing downstream ever reads it (a declared-but-unused
		// stack variable still has to land somewhere for the emitter to
		// write to), then release frees it for the code further back.
		if _, err := ensure(op.Dest); err != nil {
			return err
		}
		release(op.Dest)

	case ir.FunctionArgument:
		// This opcode emits no code at all — the value already sits in the
		// System V argument register the caller placed it in. Whatever
		// scratch register a downstream consumer's ensure may have picked
		// for Dest is irrelevant; pin it to the real register instead, and
		// reclaim the scratch one (release is a no-op if there wasn't one).
		release(op.Dest)
		force(op.Dest, ArgumentRegisters[code.Index])

	case ir.BinaryOp:
		destReg, err := ensure(op.Dest)
		if err != nil {
			return err
		}
		// Destructive two-operand form: prefer LHS and the result sharing a
		// register, so the emitter needs no move in the common case. This is
		// only a preference, not a guarantee — if LHS's own defining opcode
		// (e.g. FunctionArgument) later forces it onto a different register,
		// that later force wins, and the emitter copies LHS into dest's
		// register before the op instead of assuming they coincide.
		force(code.LHS, destReg)
		if _, err := ensure(code.RHS); err != nil {
			return err
		}

	case ir.CallFunction:
		if len(code.Args) > len(ArgumentRegisters) {
			return &NotImplementedError{Reason: "function call with more than six arguments"}
		}
		for idx, arg := range code.Args {
			force(arg, ArgumentRegisters[idx])
		}
		// The result always lands in rax at the hardware level; dest may
		// already be bound to something else by a later consumer (e.g. the
		// other operand of a BinaryOp). Allocate dest normally — the
		// emitter inserts a `mov reg(dest), rax` after the call whenever
		// they differ, the same way SetReturnValue moves the other way.
		if _, err := ensure(op.Dest); err != nil {
			return err
		}

	case ir.SetReturnValue:
		force(code.Src, RAX)

	case ir.Return:
		// No operands.

	case ir.PhiStart:
		// op.Dest is the join slot shared with the terminal PhiEnd, which —
		// walked backward — is always visited before any of its PhiStarts,
		// so it already has a register by the time we get here.
		destReg, err := ensure(op.Dest)
		if err != nil {
			return err
		}
		force(code.Src, destReg)

	case ir.PhiEnd:
		destReg, err := ensure(op.Dest)
		if err != nil {
			return err
		}
		for _, src := range code.Sources {
			force(src, destReg)
		}

	case ir.Jump:
		switch code.Condition.Kind {
		case ir.JumpUnconditional:
			// No operands.
		case ir.JumpZero, ir.JumpNotZero:
			if _, err := ensure(code.Condition.Slot); err != nil {
				return err
			}
		case ir.JumpCompare:
			if _, err := ensure(code.Condition.LHS); err != nil {
				return err
			}
			if _, err := ensure(code.Condition.RHS); err != nil {
				return err
			}
		default:
			return &InternalError{Reason: fmt.Sprintf("unknown jump condition kind %v", code.Condition.Kind)}
		}

	default:
		return &InternalError{Reason: fmt.Sprintf("unknown opcode %T", code)}
	}
	return nil
}
