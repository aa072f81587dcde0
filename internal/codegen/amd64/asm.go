package amd64

import (
	"encoding/binary"

	"github.com/emberlang/ember/internal/regalloc"
)

// reg is a raw 4-bit x86-64 register encoding: low 3 bits go in a ModRM or
// opcode field, the 4th extends into REX.{R,X,B} depending on position.
type reg byte

const (
	regRAX reg = 0
	regRCX reg = 1
	regRDX reg = 2
	regRBX reg = 3
	regRSP reg = 4
	regRBP reg = 5
	regRSI reg = 6
	regRDI reg = 7
	regR8  reg = 8
	regR9  reg = 9
	regR10 reg = 10
	regR11 reg = 11
)

func (r reg) low3() byte  { return byte(r) & 0x7 }
func (r reg) ext() bool   { return byte(r)&0x8 != 0 }

// encode maps a regalloc.Register onto its raw encoding. rbp/rsp never
// appear in regalloc.Register — they're the frame pointer and stack
// pointer, managed directly by the prelude/epilogue, never allocated to a
// slot.
func encode(r regalloc.Register) reg {
	switch r {
	case regalloc.RAX:
		return regRAX
	case regalloc.RDI:
		return regRDI
	case regalloc.RSI:
		return regRSI
	case regalloc.RDX:
		return regRDX
	case regalloc.RCX:
		return regRCX
	case regalloc.R8:
		return regR8
	case regalloc.R9:
		return regR9
	case regalloc.R10:
		return regR10
	case regalloc.R11:
		return regR11
	default:
		panic("amd64: unencodable register")
	}
}

// assembler accumulates machine code bytes for one function body. It knows
// nothing about ir.Block — Emitter drives it one instruction at a time.
type assembler struct {
	buf []byte
}

func (a *assembler) len() int { return len(a.buf) }

func (a *assembler) byte(b byte) { a.buf = append(a.buf, b) }

func (a *assembler) bytes(bs ...byte) { a.buf = append(a.buf, bs...) }

func (a *assembler) imm32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	a.buf = append(a.buf, b[:]...)
}

func (a *assembler) imm64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	a.buf = append(a.buf, b[:]...)
}

// rex emits a REX prefix iff any of w/r/x/b requires one — omitting it
// entirely when none do, matching how a real assembler minimizes encoding
// length rather than padding every instruction with a no-op prefix.
func (a *assembler) rex(w, r, x, b bool) {
	if !w && !r && !x && !b {
		return
	}
	var v byte = 0x40
	if w {
		v |= 0x08
	}
	if r {
		v |= 0x04
	}
	if x {
		v |= 0x02
	}
	if b {
		v |= 0x01
	}
	a.byte(v)
}

func modrm(mod, regField, rm byte) byte {
	return mod<<6 | regField<<3 | rm
}

// movRegImm64 emits `mov dst, imm64` (REX.W + B8+rd io).
func (a *assembler) movRegImm64(dst reg, imm uint64) {
	a.rex(true, false, false, dst.ext())
	a.byte(0xB8 | dst.low3())
	a.imm64(imm)
}

// movRegReg emits `mov dst, src` (REX.W + 89 /r, src in the reg field).
func (a *assembler) movRegReg(dst, src reg) {
	a.rex(true, src.ext(), false, dst.ext())
	a.byte(0x89)
	a.byte(modrm(3, src.low3(), dst.low3()))
}

// movRegMem emits `mov dst, [base + disp]` (REX.W + 8B /r, 4-byte disp).
func (a *assembler) movRegMem(dst, base reg, disp int32) {
	a.rex(true, dst.ext(), false, base.ext())
	a.byte(0x8B)
	a.byte(modrm(2, dst.low3(), base.low3()))
	a.imm32(uint32(disp))
}

// movMemReg emits `mov [base + disp], src` (REX.W + 89 /r, 4-byte disp).
func (a *assembler) movMemReg(base reg, disp int32, src reg) {
	a.rex(true, src.ext(), false, base.ext())
	a.byte(0x89)
	a.byte(modrm(2, src.low3(), base.low3()))
	a.imm32(uint32(disp))
}

// addRegReg emits `add dst, src` — destructive two-operand form.
func (a *assembler) addRegReg(dst, src reg) { a.aluRegReg(0x01, dst, src) }

// subRegReg emits `sub dst, src` — destructive two-operand form.
func (a *assembler) subRegReg(dst, src reg) { a.aluRegReg(0x29, dst, src) }

func (a *assembler) aluRegReg(opcode byte, dst, src reg) {
	a.rex(true, src.ext(), false, dst.ext())
	a.byte(opcode)
	a.byte(modrm(3, src.low3(), dst.low3()))
}

// imulRegReg emits `imul dst, src` (REX.W + 0F AF /r, dst in the reg field —
// the one ALU op whose ModRM operand order is reversed from add/sub).
func (a *assembler) imulRegReg(dst, src reg) {
	a.rex(true, dst.ext(), false, src.ext())
	a.bytes(0x0F, 0xAF)
	a.byte(modrm(3, dst.low3(), src.low3()))
}

// cmpRegReg emits `cmp a, b` (REX.W + 39 /r computes a - b and sets flags).
func (a *assembler) cmpRegReg(x, y reg) {
	a.rex(true, y.ext(), false, x.ext())
	a.byte(0x39)
	a.byte(modrm(3, y.low3(), x.low3()))
}

// testRegReg emits `test s, s` (REX.W + 85 /r).
func (a *assembler) testRegReg(s reg) {
	a.rex(true, s.ext(), false, s.ext())
	a.byte(0x85)
	a.byte(modrm(3, s.low3(), s.low3()))
}

// jmpRel32 emits `jmp rel32` and returns the offset of the 4-byte
// displacement field, left zeroed for a later fixup pass.
func (a *assembler) jmpRel32() int {
	a.byte(0xE9)
	pos := a.len()
	a.imm32(0)
	return pos
}

// jccRel32 emits a near conditional jump for cond and returns the offset of
// its 4-byte displacement field.
func (a *assembler) jccRel32(cond ccCode) int {
	a.bytes(0x0F, byte(cond))
	pos := a.len()
	a.imm32(0)
	return pos
}

// ccCode is the low byte of a Jcc tcc/0F 0x8x opcode.
type ccCode byte

const (
	ccZ  ccCode = 0x84 // ZF=1 — also used for "equal".
	ccNZ ccCode = 0x85 // ZF=0 — also used for "not equal".
	ccL  ccCode = 0x8C
	ccLE ccCode = 0x8E
	ccG  ccCode = 0x8F
	ccGE ccCode = 0x8D

	ccE  = ccZ
	ccNE = ccNZ
)

// patchRel32 writes the 4-byte relative displacement from the end of the
// jump's own encoding (immAt+4) to target, at offset immAt in buf.
func (a *assembler) patchRel32(immAt, target int) {
	rel := int32(target - (immAt + 4))
	binary.LittleEndian.PutUint32(a.buf[immAt:immAt+4], uint32(rel))
}

// callReg emits `call dst` (indirect call through a register holding an
// absolute 64-bit address — x86-64 has no direct CALL imm64).
func (a *assembler) callReg(dst reg) {
	a.rex(false, false, false, dst.ext())
	a.byte(0xFF)
	a.byte(modrm(3, 2, dst.low3())) // opcode extension /2 in the reg field.
}

// pushReg emits `push r64`.
func (a *assembler) pushReg(r reg) {
	a.rex(false, false, false, r.ext())
	a.byte(0x50 | r.low3())
}

// popReg emits `pop r64`.
func (a *assembler) popReg(r reg) {
	a.rex(false, false, false, r.ext())
	a.byte(0x58 | r.low3())
}

// subRegImm32 emits `sub dst, imm32` (REX.W + 81 /5 id).
func (a *assembler) subRegImm32(dst reg, imm uint32) {
	a.rex(true, false, false, dst.ext())
	a.byte(0x81)
	a.byte(modrm(3, 5, dst.low3()))
	a.imm32(imm)
}

// ret emits a near return.
func (a *assembler) ret() { a.byte(0xC3) }

// int3 emits a single trap-on-execute byte, used to pad unused tail bytes
// of a mapping past the last real instruction.
func (a *assembler) int3() { a.byte(0xCC) }
