package optimizer

import (
	"github.com/jserv/subleq/insts"
	"github.com/jserv/subleq/vm"
)

// scanDepth bounds how many words ahead of each cell the recognizers are
// allowed to look; beyond it the optimizer falls back to SUBLEQ, which
// stays correct (just unrecognized) since the fallback decode is always
// valid.
const scanDepth = 3 * 64

// Jump-target offsets baked into the ILOAD and IJMP idioms: the captured
// branch target must point this many words past the idiom's start, or the
// sequence isn't the idiom it otherwise resembles.
const (
	iloadJumpOffset = 15
	ijmpJumpOffset  = 14
)

// ldincOffset is where the LDINC fusion check looks for a trailing
// increment of the ILOAD idiom's source pointer; ldincMinDepth is the
// window it needs available to do so, equal to LDINC's own word count.
const ldincOffset = 24

var ldincMinDepth = int(insts.Advance[insts.OpLdInc])

// Optimize runs the single forward pass over [0, loadSize) described by
// the recognizer table: at each cell it tries idiom recognizers in a fixed
// priority order (longest and most specific first, to avoid a longer
// idiom's prefix being claimed by a shorter one) and falls back to raw
// SUBLEQ decoding when none match. It returns a decoded-instruction array
// the same length as mem, and per-opcode counts of what each cell in
// [0, loadSize) was decoded as, fallback SUBLEQ cells included.
func Optimize(mem *vm.Memory, loadSize int) ([]insts.Instruction, [insts.OpCount]uint64) {
	decoded := make([]insts.Instruction, mem.Len())
	var subst [insts.OpCount]uint64

	isOne := make([]bool, loadSize)
	isNegOne := make([]bool, loadSize)
	for c := 0; c < loadSize; c++ {
		w := mem.Read(uint16(c))
		isOne[c] = w == 1
		isNegOne[c] = w == vm.Mask
	}

	m := NewMatcher(mem)

	for i := 0; i < loadSize; i++ {
		base := uint16(i)
		depth := loadSize - i
		if depth > scanDepth {
			depth = scanDepth
		}
		if depth == 0 {
			continue
		}

		insn, op, ok := recognize(m, mem, base, depth, isOne, isNegOne)
		if !ok {
			insn, op = decodeRaw(mem, base), insts.OpSubleq
		}
		subst[op]++
		decoded[i] = insn
	}
	return decoded, subst
}

// decodeRaw produces the fallback three-word SUBLEQ decode at base, used
// both when no idiom matches and, wholesale, when the optimizer is
// disabled (-O).
func decodeRaw(mem *vm.Memory, base uint16) insts.Instruction {
	return insts.Instruction{
		Op:  insts.OpSubleq,
		Src: mem.Read(base),
		Dst: mem.Read(base + 1),
		Aux: mem.Read(base + 2),
	}
}

// DecodeRaw decodes every cell in [0, loadSize) as a raw SUBLEQ triple,
// bypassing the optimizer entirely. This is what the -O flag selects.
func DecodeRaw(mem *vm.Memory, loadSize int) []insts.Instruction {
	decoded := make([]insts.Instruction, mem.Len())
	for i := 0; i < loadSize; i++ {
		decoded[i] = decodeRaw(mem, uint16(i))
	}
	return decoded
}

// recognize tries the priority-ordered recognizer table at base and
// reports the matched instruction and its opcode, or ok=false if every
// recognizer failed (the caller then falls back to SUBLEQ).
func recognize(m *Matcher, mem *vm.Memory, base uint16, depth int, isOne, isNegOne []bool) (insts.Instruction, insts.Op, bool) {
	if insn, ok := matchIStore(m, base, depth); ok {
		return insn, insts.OpIStore, true
	}
	if insn, op, ok := matchILoadOrLdInc(m, mem, base, depth, isNegOne); ok {
		return insn, op, true
	}
	if insn, ok := matchLShift(m, base, depth); ok {
		return insn, insts.OpLShift, true
	}
	if insn, ok := matchIAdd(m, base, depth); ok {
		return insn, insts.OpIAdd, true
	}
	if insn, ok := matchInv(m, base, depth, isOne); ok {
		return insn, insts.OpInv, true
	}
	if insn, ok := matchISub(m, base, depth); ok {
		return insn, insts.OpISub, true
	}
	if insn, ok := matchIJmp(m, base, depth); ok {
		return insn, insts.OpIJmp, true
	}
	if insn, ok := matchMov(m, base, depth); ok {
		return insn, insts.OpMov, true
	}
	if insn, op, ok := matchDoubleOrAdd(m, base, depth); ok {
		return insn, op, true
	}
	if insn, ok := matchNeg(m, base, depth); ok {
		return insn, insts.OpNeg, true
	}
	if insn, ok := matchZero(m, base, depth); ok {
		return insn, insts.OpZero, true
	}
	if insn, ok := matchHalt(m, base, depth); ok {
		return insn, insts.OpHalt, true
	}
	if insn, op, ok := matchJmp(m, base, depth); ok {
		return insn, op, true
	}
	if insn, ok := matchGet(m, base, depth); ok {
		return insn, insts.OpGet, true
	}
	if insn, ok := matchPut(m, base, depth); ok {
		return insn, insts.OpPut, true
	}
	if insn, op, ok := matchIncDecSub(m, base, depth, isOne, isNegOne); ok {
		return insn, op, true
	}
	return insts.Instruction{}, insts.OpSubleq, false
}

// matchIStore recognizes "m[m[dst]] = src" (36 words): m[m[D]] = S.
func matchIStore(m *Matcher, base uint16, depth int) (insts.Instruction, bool) {
	if !m.Match(base, depth, "0Z> 11> 22> Z3> Z4> ZZ> 56> 77> Z7> 6Z> ZZ> 66>") {
		return insts.Instruction{}, false
	}
	return insts.Instruction{Op: insts.OpIStore, Dst: m.Var(0), Src: m.Var(5)}, true
}

// matchILoadOrLdInc recognizes an indirect load ("dst = m[m[src]]", with
// the port's negated-byte convention when the source resolves to Mask)
// and, when it's immediately followed by an increment of that same source
// pointer, fuses the pair into LDINC.
func matchILoadOrLdInc(m *Matcher, mem *vm.Memory, base uint16, depth int, isNegOne []bool) (insts.Instruction, insts.Op, bool) {
	var srcPtr uint16
	if !m.Match(base, depth, "00> !Z> Z0> ZZ> 11> ?Z> Z1> ZZ>", &srcPtr) {
		return insts.Instruction{}, 0, false
	}
	if uint32(m.Var(0)) != uint32(base)+iloadJumpOffset {
		return insts.Instruction{}, 0, false
	}
	dst := m.Var(1)

	if depth >= ldincMinDepth {
		var incSrc, incDst uint16
		if m.Match(base+ldincOffset, depth-ldincOffset, "!!>", &incSrc, &incDst) &&
			incSrc != incDst && int(incSrc) < len(isNegOne) && isNegOne[incSrc] && incDst == srcPtr {
			return insts.Instruction{Op: insts.OpLdInc, Dst: dst, Src: srcPtr}, insts.OpLdInc, true
		}
	}
	return insts.Instruction{Op: insts.OpILoad, Dst: dst, Src: srcPtr}, insts.OpILoad, true
}

// matchLShift recognizes a run of two or more back-to-back 9-word doubling
// blocks on the same cell and fuses them into one shift-by-count.
func matchLShift(m *Matcher, base uint16, depth int) (insts.Instruction, bool) {
	var count int
	var dst uint16
	pos := 0
	for pos+9 <= depth {
		var src, d uint16
		if !m.Match(base+uint16(pos), depth-pos, "!Z> Z!> ZZ>", &src, &d) || src != d {
			break
		}
		if count == 0 {
			dst = src
		} else if dst != src {
			break
		}
		count++
		pos += 9
	}
	if count < 2 {
		return insts.Instruction{}, false
	}
	return insts.Instruction{Op: insts.OpLShift, Dst: dst, Src: uint16(count)}, true
}

// matchIAdd recognizes "m[m[dst]] += src" (21 words).
func matchIAdd(m *Matcher, base uint16, depth int) (insts.Instruction, bool) {
	if !m.Match(base, depth, "01> 23> 44> 14> 3Z> 11> 33>") {
		return insts.Instruction{}, false
	}
	return insts.Instruction{Op: insts.OpIAdd, Dst: m.Var(0), Src: m.Var(2)}, true
}

// matchInv recognizes bitwise NOT built from a temp cell known to hold 1
// (21 words).
func matchInv(m *Matcher, base uint16, depth int, isOne []bool) (insts.Instruction, bool) {
	var temp uint16
	if !m.Match(base, depth, "00> 10> 11> 2Z> Z1> ZZ> !1>", &temp) {
		return insts.Instruction{}, false
	}
	if int(temp) >= len(isOne) || !isOne[temp] {
		return insts.Instruction{}, false
	}
	return insts.Instruction{Op: insts.OpInv, Dst: m.Var(1)}, true
}

// matchISub recognizes "m[m[dst]] -= src" (15 words).
func matchISub(m *Matcher, base uint16, depth int) (insts.Instruction, bool) {
	if !m.Match(base, depth, "01> 33> 14> 5Z> 11>") {
		return insts.Instruction{}, false
	}
	return insts.Instruction{Op: insts.OpISub, Dst: m.Var(0), Src: m.Var(5)}, true
}

// matchIJmp recognizes "pc = m[dst]" (15 words; PC-override opcode).
func matchIJmp(m *Matcher, base uint16, depth int) (insts.Instruction, bool) {
	var temp uint16
	if !m.Match(base, depth, "00> !Z> Z0> ZZ> ZZ>", &temp) {
		return insts.Instruction{}, false
	}
	if uint32(m.Var(0)) != uint32(base)+ijmpJumpOffset {
		return insts.Instruction{}, false
	}
	return insts.Instruction{Op: insts.OpIJmp, Dst: temp}, true
}

// matchMov recognizes "dst = src" (12 words); a self-move is left for
// ZERO/other recognizers below instead of emitting a no-op MOV.
func matchMov(m *Matcher, base uint16, depth int) (insts.Instruction, bool) {
	var src uint16
	if !m.Match(base, depth, "00> !Z> Z0> ZZ>", &src) {
		return insts.Instruction{}, false
	}
	dst := m.Var(0)
	if dst == src {
		return insts.Instruction{}, false
	}
	return insts.Instruction{Op: insts.OpMov, Dst: dst, Src: src}, true
}

// matchDoubleOrAdd recognizes a single doubling/add block (9 words):
// DOUBLE when both captured addresses coincide, ADD otherwise.
func matchDoubleOrAdd(m *Matcher, base uint16, depth int) (insts.Instruction, insts.Op, bool) {
	var src, dst uint16
	if !m.Match(base, depth, "!Z> Z!> ZZ>", &src, &dst) {
		return insts.Instruction{}, 0, false
	}
	if src == dst {
		return insts.Instruction{Op: insts.OpDouble, Dst: dst, Src: src}, insts.OpDouble, true
	}
	return insts.Instruction{Op: insts.OpAdd, Dst: dst, Src: src}, insts.OpAdd, true
}

// matchNeg recognizes "dst = 0 - src" (6 words): a clear of dst followed
// by a subtract of src into it.
func matchNeg(m *Matcher, base uint16, depth int) (insts.Instruction, bool) {
	if !m.Match(base, depth, "00> 10>") {
		return insts.Instruction{}, false
	}
	return insts.Instruction{Op: insts.OpNeg, Dst: m.Var(0), Src: m.Var(1)}, true
}

// matchZero recognizes "dst = 0" (3 words): a SUBLEQ subtracting a cell
// from itself.
func matchZero(m *Matcher, base uint16, depth int) (insts.Instruction, bool) {
	if !m.Match(base, depth, "00>") {
		return insts.Instruction{}, false
	}
	return insts.Instruction{Op: insts.OpZero, Dst: m.Var(0)}, true
}

// matchHalt recognizes "0 0 MASK" (3 words): a SUBLEQ subtracting a cell
// from itself and branching to the all-ones sentinel.
func matchHalt(m *Matcher, base uint16, depth int) (insts.Instruction, bool) {
	var target uint16
	if !m.Match(base, depth, "ZZ!", &target) || target != vm.Mask {
		return insts.Instruction{}, false
	}
	return insts.Instruction{Op: insts.OpHalt}, true
}

// matchJmp recognizes "0 0 target" (3 words): an unconditional jump. A
// target equal to this cell's own address is a self-loop, collapsed
// straight to HALT since it can never make progress.
func matchJmp(m *Matcher, base uint16, depth int) (insts.Instruction, insts.Op, bool) {
	var target uint16
	if !m.Match(base, depth, "00!", &target) {
		return insts.Instruction{}, 0, false
	}
	if target == base {
		return insts.Instruction{Op: insts.OpHalt}, insts.OpHalt, true
	}
	return insts.Instruction{Op: insts.OpJmp, Dst: target, Src: m.Var(0)}, insts.OpJmp, true
}

// matchGet recognizes a read-through-the-port SUBLEQ ("MASK dst next"),
// 3 words.
func matchGet(m *Matcher, base uint16, depth int) (insts.Instruction, bool) {
	var dst uint16
	if !m.Match(base, depth, "N!>", &dst) {
		return insts.Instruction{}, false
	}
	return insts.Instruction{Op: insts.OpGet, Dst: dst}, true
}

// matchPut recognizes a write-through-the-port SUBLEQ ("src MASK next"),
// 3 words.
func matchPut(m *Matcher, base uint16, depth int) (insts.Instruction, bool) {
	var src uint16
	if !m.Match(base, depth, "!N>", &src) {
		return insts.Instruction{}, false
	}
	return insts.Instruction{Op: insts.OpPut, Src: src}, true
}

// matchIncDecSub recognizes a plain "dst -= src" SUBLEQ (3 words) and
// narrows it to INC or DEC when the source cell is known, at load time,
// to hold -1 or 1 respectively.
func matchIncDecSub(m *Matcher, base uint16, depth int, isOne, isNegOne []bool) (insts.Instruction, insts.Op, bool) {
	var src, dst uint16
	if !m.Match(base, depth, "!!>", &src, &dst) || src == dst {
		return insts.Instruction{}, 0, false
	}
	switch {
	case int(src) < len(isNegOne) && isNegOne[src]:
		return insts.Instruction{Op: insts.OpInc, Dst: dst}, insts.OpInc, true
	case int(src) < len(isOne) && isOne[src]:
		return insts.Instruction{Op: insts.OpDec, Dst: dst}, insts.OpDec, true
	default:
		return insts.Instruction{Op: insts.OpSub, Dst: dst, Src: src}, insts.OpSub, true
	}
}
