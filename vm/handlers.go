package vm

import (
	"fmt"

	"github.com/jserv/subleq/insts"
)

// handlerFunc is the uniform contract every opcode handler satisfies:
// given the VM and the decoded record at the current PC, perform the
// opcode's effect and update PC (to pc+Advance[op] by default, or by
// overriding PC directly for control-flow opcodes).
type handlerFunc func(v *VM, insn insts.Instruction)

var handlers = [insts.OpCount]handlerFunc{
	insts.OpSubleq: execSubleq,
	insts.OpJmp:    execJmp,
	insts.OpAdd:    execAdd,
	insts.OpSub:    execSub,
	insts.OpMov:    execMov,
	insts.OpZero:   execZero,
	insts.OpPut:    execPut,
	insts.OpGet:    execGet,
	insts.OpHalt:   execHalt,
	insts.OpIAdd:   execIAdd,
	insts.OpISub:   execISub,
	insts.OpIJmp:   execIJmp,
	insts.OpILoad:  execILoad,
	insts.OpLdInc:  execLdInc,
	insts.OpIStore: execIStore,
	insts.OpInc:    execInc,
	insts.OpDec:    execDec,
	insts.OpInv:    execInv,
	insts.OpNeg:    execNeg,
	insts.OpLShift: execLShift,
	insts.OpDouble: execDouble,
}

func advance(v *VM, op insts.Op) {
	v.PC += insts.Advance[op]
}

// execSubleq is the one native operation: M[b] -= M[a], branching to c if
// the result is non-positive. The all-ones address on either operand
// redirects the step to the character I/O port instead of arithmetic.
func execSubleq(v *VM, insn insts.Instruction) {
	a, b, c := insn.Src, insn.Dst, insn.Aux
	switch {
	case a == Mask:
		val, err := v.port.GetByte()
		if err != nil {
			v.err = fmt.Errorf("reading input: %w", err)
			return
		}
		v.Mem.Write(b, val)
		v.Mem.trackMaxAddr(b)
		v.PC += 3
	case b == Mask:
		if err := v.port.PutByte(v.Mem.Read(a)); err != nil {
			v.err = fmt.Errorf("writing output: %w", err)
			return
		}
		v.PC += 3
	default:
		r := v.Mem.Read(b) - v.Mem.Read(a)
		v.Mem.Write(b, r)
		v.Mem.trackMaxAddr(b)
		if r == 0 || r&0x8000 != 0 {
			v.PC = c
		} else {
			v.PC += 3
		}
	}
}

func execJmp(v *VM, insn insts.Instruction) {
	v.Mem.Write(insn.Src, 0)
	v.PC = insn.Dst
}

func execAdd(v *VM, insn insts.Instruction) {
	v.Mem.Write(insn.Dst, v.Mem.Read(insn.Dst)+v.Mem.Read(insn.Src))
	advance(v, insts.OpAdd)
}

func execSub(v *VM, insn insts.Instruction) {
	v.Mem.Write(insn.Dst, v.Mem.Read(insn.Dst)-v.Mem.Read(insn.Src))
	advance(v, insts.OpSub)
}

func execMov(v *VM, insn insts.Instruction) {
	v.Mem.Write(insn.Dst, v.Mem.Read(insn.Src))
	advance(v, insts.OpMov)
}

func execZero(v *VM, insn insts.Instruction) {
	v.Mem.Write(insn.Dst, 0)
	advance(v, insts.OpZero)
}

func execPut(v *VM, insn insts.Instruction) {
	if err := v.port.PutByte(v.Mem.Read(insn.Src)); err != nil {
		v.err = fmt.Errorf("writing output: %w", err)
		return
	}
	advance(v, insts.OpPut)
}

func execGet(v *VM, insn insts.Instruction) {
	val, err := v.port.GetByte()
	if err != nil {
		v.err = fmt.Errorf("reading input: %w", err)
		return
	}
	v.Mem.Write(insn.Dst, val)
	advance(v, insts.OpGet)
}

func execHalt(v *VM, _ insts.Instruction) {
	v.PC = HalfSize
	v.halted = true
}

func execIAdd(v *VM, insn insts.Instruction) {
	target := v.Mem.Read(insn.Dst)
	v.Mem.Write(target, v.Mem.Read(target)+v.Mem.Read(insn.Src))
	advance(v, insts.OpIAdd)
}

func execISub(v *VM, insn insts.Instruction) {
	target := v.Mem.Read(insn.Dst)
	v.Mem.Write(target, v.Mem.Read(target)-v.Mem.Read(insn.Src))
	advance(v, insts.OpISub)
}

func execIJmp(v *VM, insn insts.Instruction) {
	v.PC = v.Mem.Read(insn.Dst)
}

// execILoad implements both ILOAD and LDINC's shared load step: either an
// indirect memory load, or, when the source cell is the I/O port, a read
// that stores the *negated* input byte. The negation matches what the
// equivalent raw SUBLEQ sequence computes and is essential for eForth
// correctness.
func execILoad(v *VM, insn insts.Instruction) {
	if err := iLoadStep(v, insn); err != nil {
		v.err = err
		return
	}
	advance(v, insts.OpILoad)
}

func execLdInc(v *VM, insn insts.Instruction) {
	if err := iLoadStep(v, insn); err != nil {
		v.err = err
		return
	}
	v.Mem.Write(insn.Src, v.Mem.Read(insn.Src)+1)
	advance(v, insts.OpLdInc)
}

func iLoadStep(v *VM, insn insts.Instruction) error {
	if v.Mem.Read(insn.Src) == Mask {
		c, err := v.port.GetByte()
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		v.Mem.Write(insn.Dst, -c)
		return nil
	}
	v.Mem.Write(insn.Dst, v.Mem.Read(v.Mem.Read(insn.Src)))
	return nil
}

func execIStore(v *VM, insn insts.Instruction) {
	v.Mem.Write(v.Mem.Read(insn.Dst), v.Mem.Read(insn.Src))
	advance(v, insts.OpIStore)
}

func execInc(v *VM, insn insts.Instruction) {
	v.Mem.Write(insn.Dst, v.Mem.Read(insn.Dst)+1)
	advance(v, insts.OpInc)
}

func execDec(v *VM, insn insts.Instruction) {
	v.Mem.Write(insn.Dst, v.Mem.Read(insn.Dst)-1)
	advance(v, insts.OpDec)
}

func execInv(v *VM, insn insts.Instruction) {
	v.Mem.Write(insn.Dst, ^v.Mem.Read(insn.Dst))
	advance(v, insts.OpInv)
}

func execNeg(v *VM, insn insts.Instruction) {
	v.Mem.Write(insn.Dst, -v.Mem.Read(insn.Src))
	advance(v, insts.OpNeg)
}

// execLShift shifts by the fused block count in Src and skips all of the
// fused 9-word doubling blocks, not just the first.
func execLShift(v *VM, insn insts.Instruction) {
	v.Mem.Write(insn.Dst, v.Mem.Read(insn.Dst)<<insn.Src)
	v.PC += insts.Advance[insts.OpLShift] * insn.Src
}

func execDouble(v *VM, insn insts.Instruction) {
	v.Mem.Write(insn.Dst, v.Mem.Read(insn.Dst)<<1)
	advance(v, insts.OpDouble)
}
