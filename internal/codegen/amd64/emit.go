// Package amd64 implements the second, forward compilation pass: consuming
// an ir.Block plus a regalloc.Allocation and emitting System V AMD64
// machine code into an executable memory mapping. Byte encoding is done by
// hand (REX prefixes, ModRM bytes) rather than through an assembler
// library, mirroring the teacher's own instr_encoding.go.
package amd64

import (
	"fmt"

	"github.com/emberlang/ember/internal/ir"
	"github.com/emberlang/ember/internal/platform"
	"github.com/emberlang/ember/internal/regalloc"
	"github.com/emberlang/ember/internal/value"
)

const pageSize = 4096

// fixup records a not-yet-resolved jump displacement: the byte offset of
// its 4-byte rel32 field, and the Label it should end up pointing at.
type fixup struct {
	at     int
	target ir.Label
}

type emitter struct {
	asm       assembler
	alloc     *regalloc.Allocation
	labelPos  map[ir.Label]int
	fixups    []fixup
	epilogue  ir.Label
	hasFrame  bool
	frameSize int
}

// Emit runs the forward pass over block using alloc's register assignments,
// producing an executable Mapping whose base address is the compiled
// function's entry point.
func Emit(block *ir.Block, alloc *regalloc.Allocation) (*platform.Mapping, error) {
	e := &emitter{
		alloc:     alloc,
		labelPos:  make(map[ir.Label]int),
		epilogue:  ir.NewLabel("epilogue"),
		frameSize: block.Frame.StackSlots(),
	}
	e.hasFrame = e.frameSize > 0

	e.emitPrelude()
	for i, instr := range block.Instructions {
		if op, ok := instr.(ir.Op); ok {
			if _, ok := op.Code.(ir.SetReturnValue); ok {
				var next ir.Opcode
				if i+1 < len(block.Instructions) {
					if nextOp, ok := block.Instructions[i+1].(ir.Op); ok {
						next = nextOp.Code
					}
				}
				if _, ok := next.(ir.Return); !ok {
					return nil, &InternalError{Reason: "set_return not followed by return"}
				}
			}
		}
		if err := e.emitInstruction(instr); err != nil {
			return nil, err
		}
	}
	e.labelPos[e.epilogue] = e.asm.len()
	e.emitEpilogue()

	for _, fx := range e.fixups {
		target, ok := e.labelPos[fx.target]
		if !ok {
			return nil, &InternalError{Reason: fmt.Sprintf("label %s referenced but never bound", fx.target)}
		}
		e.asm.patchRel32(fx.at, target)
	}

	code := e.pad()
	mapping, err := platform.MmapCodeSegment(code, len(code))
	if err != nil {
		return nil, err
	}
	if err := mapping.MakeExecutable(); err != nil {
		return nil, err
	}
	return mapping, nil
}

// pad rounds the emitted code up to a page boundary, filling the unused
// tail with int3 so stray execution past the real function body traps
// instead of running whatever garbage the kernel left in the page.
func (e *emitter) pad() []byte {
	padded := ((e.asm.len() + pageSize - 1) / pageSize) * pageSize
	if padded == 0 {
		padded = pageSize
	}
	for e.asm.len() < padded {
		e.asm.int3()
	}
	return e.asm.buf
}

func (e *emitter) emitPrelude() {
	if !e.hasFrame {
		return
	}
	e.asm.pushReg(regRBP)
	e.asm.movRegReg(regRBP, regRSP)
	e.asm.subRegImm32(regRSP, uint32(8*e.frameSize))
}

func (e *emitter) emitEpilogue() {
	if e.hasFrame {
		e.asm.movRegReg(regRSP, regRBP)
		e.asm.popReg(regRBP)
	}
	e.asm.ret()
}

func (e *emitter) reg(s ir.Slot) reg { return encode(e.alloc.RegisterOf(s)) }

// stackDisp computes the rbp-relative displacement for the offset-th
// 8-byte frame slot, per spec.md §4.5: [rbp - (8 + offset*8)].
func stackDisp(offset int) int32 { return -int32(8 + offset*8) }

func (e *emitter) emitInstruction(instr ir.Instruction) error {
	switch i := instr.(type) {
	case ir.SetLabel:
		e.labelPos[i.L] = e.asm.len()
		return nil
	case ir.Assign:
		return e.emitAssign(i)
	case ir.Op:
		return e.emitOp(i)
	default:
		return &InternalError{Reason: fmt.Sprintf("unknown instruction %T", instr)}
	}
}

func (e *emitter) emitAssign(a ir.Assign) error {
	src := e.reg(a.Src)
	switch a.Target.Kind {
	case ir.AssignStackVariable:
		e.asm.movMemReg(regRBP, stackDisp(a.Target.Offset), src)
	case ir.AssignFunctionArgument:
		dst := encode(regalloc.ArgumentRegisters[a.Target.Offset])
		if dst != src {
			e.asm.movRegReg(dst, src)
		}
	default:
		return &InternalError{Reason: "unknown assign target kind"}
	}
	return nil
}

func (e *emitter) emitOp(op ir.Op) error {
	switch code := op.Code.(type) {
	case ir.Literal:
		return e.emitLiteral(op.Dest, code)
	case ir.FunctionArgument:
		// No code: the allocator already forced Dest onto the System V
		// argument register itself.
		return nil
	case ir.StackVariable:
		e.asm.movRegMem(e.reg(op.Dest), regRBP, stackDisp(code.Offset))
		return nil
	case ir.BinaryOp:
		return e.emitBinaryOp(op.Dest, code)
	case ir.CallFunction:
		return e.emitCall(op.Dest, code)
	case ir.SetReturnValue:
		src := e.reg(code.Src)
		if src != regRAX {
			e.asm.movRegReg(regRAX, src)
		}
		return nil
	case ir.Return:
		pos := e.asm.jmpRel32()
		e.fixups = append(e.fixups, fixup{at: pos, target: e.epilogue})
		return nil
	case ir.Jump:
		return e.emitJump(code)
	case ir.PhiStart, ir.PhiEnd:
		// No code: existence only constrains the register allocator.
		return nil
	default:
		return &InternalError{Reason: fmt.Sprintf("unknown opcode %T", op.Code)}
	}
}

func (e *emitter) emitLiteral(dest ir.Slot, lit ir.Literal) error {
	destReg := e.reg(dest)
	switch lit.Value.Kind {
	case ir.LiteralInteger:
		encoded, err := value.Encode(value.Int(lit.Value.Integer))
		if err != nil {
			return &ValueEncodeError{Err: err}
		}
		e.asm.movRegImm64(destReg, uint64(encoded))
	case ir.LiteralString:
		encoded, err := value.Encode(value.Str(lit.Value.String))
		if err != nil {
			return &ValueEncodeError{Err: err}
		}
		e.asm.movRegImm64(destReg, uint64(encoded))
	case ir.LiteralBoolean:
		encoded, err := value.Encode(value.Bool(lit.Value.Boolean))
		if err != nil {
			return &ValueEncodeError{Err: err}
		}
		e.asm.movRegImm64(destReg, uint64(encoded))
	default:
		return &InternalError{Reason: "unknown literal kind"}
	}
	return nil
}

func (e *emitter) emitBinaryOp(dest ir.Slot, b ir.BinaryOp) error {
	destReg := e.reg(dest)
	lhsReg := e.reg(b.LHS)
	rhsReg := e.reg(b.RHS)
	// The allocator forces LHS onto dest's register, but a later-defining
	// opcode for the same slot can override that (a FunctionArgument pins
	// its slot to its own System V register regardless of what a downstream
	// BinaryOp asked for). Don't assume the coalesce held — move LHS into
	// destReg whenever it didn't.
	if lhsReg != destReg {
		e.asm.movRegReg(destReg, lhsReg)
	}
	switch b.Operator {
	case ir.OpAdd:
		e.asm.addRegReg(destReg, rhsReg)
	case ir.OpSub:
		e.asm.subRegReg(destReg, rhsReg)
	case ir.OpMul:
		e.asm.imulRegReg(destReg, rhsReg)
	case ir.OpDiv:
		return &NotImplementedError{Reason: "division"}
	default:
		return &InternalError{Reason: fmt.Sprintf("binary op %s reached codegen outside a predicate", b.Operator)}
	}
	return nil
}

// callScratch holds a callee's absolute address just long enough to issue
// an indirect call. r11 never participates in argument passing (at most
// six args occupy rdi/rsi/rdx/rcx/r8/r9), so it's always free here.
const callScratch = regR11

func (e *emitter) emitCall(dest ir.Slot, c ir.CallFunction) error {
	if len(c.Args) > len(regalloc.ArgumentRegisters) {
		return &NotImplementedError{Reason: "function call with more than six arguments"}
	}
	e.asm.movRegImm64(callScratch, uint64(c.Callee))
	e.asm.callReg(callScratch)
	destReg := e.reg(dest)
	if destReg != regRAX {
		e.asm.movRegReg(destReg, regRAX)
	}
	return nil
}

func (e *emitter) emitJump(j ir.Jump) error {
	switch j.Condition.Kind {
	case ir.JumpUnconditional:
		pos := e.asm.jmpRel32()
		e.fixups = append(e.fixups, fixup{at: pos, target: j.Target})
	case ir.JumpZero:
		e.asm.testRegReg(e.reg(j.Condition.Slot))
		pos := e.asm.jccRel32(ccZ)
		e.fixups = append(e.fixups, fixup{at: pos, target: j.Target})
	case ir.JumpNotZero:
		e.asm.testRegReg(e.reg(j.Condition.Slot))
		pos := e.asm.jccRel32(ccNZ)
		e.fixups = append(e.fixups, fixup{at: pos, target: j.Target})
	case ir.JumpCompare:
		e.asm.cmpRegReg(e.reg(j.Condition.LHS), e.reg(j.Condition.RHS))
		cond, err := compareCC(j.Condition.Op)
		if err != nil {
			return err
		}
		pos := e.asm.jccRel32(cond)
		e.fixups = append(e.fixups, fixup{at: pos, target: j.Target})
	default:
		return &InternalError{Reason: "unknown jump condition kind"}
	}
	return nil
}

func compareCC(op ir.CompareOp) (ccCode, error) {
	switch op {
	case ir.CompareEq:
		return ccE, nil
	case ir.CompareNe:
		return ccNE, nil
	case ir.CompareLt:
		return ccL, nil
	case ir.CompareLe:
		return ccLE, nil
	case ir.CompareGt:
		return ccG, nil
	case ir.CompareGe:
		return ccGE, nil
	default:
		return 0, &InternalError{Reason: "unknown compare operator"}
	}
}
