package optimizer_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jserv/subleq/insts"
	"github.com/jserv/subleq/optimizer"
	"github.com/jserv/subleq/vm"
)

func load(words ...uint16) *vm.Memory {
	mem := vm.NewMemory()
	mem.Load(words)
	return mem
}

var _ = Describe("Optimizer", func() {
	Describe("unconditional jump", func() {
		It("recognizes SUBLEQ 0,0,target as JMP", func() {
			mem := load(0, 0, 10)
			decoded, subst := optimizer.Optimize(mem, 3)
			Expect(decoded[0].Op).To(Equal(insts.OpJmp))
			Expect(decoded[0].Dst).To(Equal(uint16(10)))
			Expect(subst[insts.OpJmp]).To(Equal(uint64(1)))
		})
	})

	Describe("self-jump", func() {
		It("collapses to HALT", func() {
			mem := load(0, 0, 0)
			decoded, subst := optimizer.Optimize(mem, 3)
			Expect(decoded[0].Op).To(Equal(insts.OpHalt))
			Expect(subst[insts.OpHalt]).To(Equal(uint64(1)))
		})
	})

	Describe("halt sentinel", func() {
		It("recognizes a branch-to-MASK SUBLEQ as HALT ahead of JMP", func() {
			mem := load(0, 0, vm.Mask)
			decoded, subst := optimizer.Optimize(mem, 3)
			Expect(decoded[0].Op).To(Equal(insts.OpHalt))
			Expect(subst[insts.OpHalt]).To(Equal(uint64(1)))
		})
	})

	Describe("clear a cell", func() {
		It("recognizes SUBLEQ 5,5,3 as ZERO", func() {
			mem := load(5, 5, 3)
			decoded, _ := optimizer.Optimize(mem, 3)
			Expect(decoded[0].Op).To(Equal(insts.OpZero))
			Expect(decoded[0].Dst).To(Equal(uint16(5)))
		})
	})

	Describe("port access", func() {
		It("recognizes a MASK-source SUBLEQ as GET", func() {
			mem := load(vm.Mask, 100, 3)
			decoded, _ := optimizer.Optimize(mem, 3)
			Expect(decoded[0].Op).To(Equal(insts.OpGet))
			Expect(decoded[0].Dst).To(Equal(uint16(100)))
		})

		It("recognizes a MASK-dest SUBLEQ as PUT", func() {
			mem := load(5, vm.Mask, 3)
			decoded, _ := optimizer.Optimize(mem, 3)
			Expect(decoded[0].Op).To(Equal(insts.OpPut))
			Expect(decoded[0].Src).To(Equal(uint16(5)))
		})
	})

	Describe("INC/DEC/SUB narrowing", func() {
		// Each case points the SUBLEQ's src operand at cell 3, which the
		// optimizer's load-time predicate tables classify before the scan;
		// loadSize must cover cell 3 for that classification to apply.
		It("narrows to INC when the source cell holds MASK", func() {
			mem := load(3, 21, 3, vm.Mask)
			decoded, _ := optimizer.Optimize(mem, 4)
			Expect(decoded[0].Op).To(Equal(insts.OpInc))
			Expect(decoded[0].Dst).To(Equal(uint16(21)))
		})

		It("narrows to DEC when the source cell holds 1", func() {
			mem := load(3, 21, 3, 1)
			decoded, _ := optimizer.Optimize(mem, 4)
			Expect(decoded[0].Op).To(Equal(insts.OpDec))
		})

		It("falls back to SUB otherwise", func() {
			mem := load(3, 21, 3, 9)
			decoded, _ := optimizer.Optimize(mem, 4)
			Expect(decoded[0].Op).To(Equal(insts.OpSub))
			Expect(decoded[0].Src).To(Equal(uint16(3)))
		})
	})

	Describe("LSHIFT fusion", func() {
		It("fuses four doubling blocks on the same cell into one LSHIFT", func() {
			mem := vm.NewMemory()
			words := make([]uint16, 0, 36)
			for k := 0; k < 4; k++ {
				base := uint16(len(words))
				words = append(words,
					7, 0, base+3, // !Z>
					0, 7, base+6, // Z!>
					0, 0, base+9, // ZZ>
				)
			}
			mem.Load(words)
			decoded, subst := optimizer.Optimize(mem, len(words))
			Expect(decoded[0].Op).To(Equal(insts.OpLShift))
			Expect(decoded[0].Dst).To(Equal(uint16(7)))
			Expect(decoded[0].Src).To(Equal(uint16(4)))
			// Cells 9 and 18 start shorter runs (3 and 2 blocks) and are
			// recognized as LSHIFT too; cell 27 is a lone DOUBLE.
			Expect(subst[insts.OpLShift]).To(Equal(uint64(3)))
		})

		It("leaves a single doubling block as DOUBLE, not LSHIFT", func() {
			mem := vm.NewMemory()
			mem.Load([]uint16{7, 0, 3, 0, 7, 6, 0, 0, 9})
			decoded, _ := optimizer.Optimize(mem, 9)
			Expect(decoded[0].Op).To(Equal(insts.OpDouble))
		})
	})

	Describe("fallback", func() {
		It("decodes as plain SUBLEQ when no idiom matches", func() {
			mem := load(1, 2, 0)
			decoded, subst := optimizer.Optimize(mem, 3)
			Expect(decoded[0].Op).To(Equal(insts.OpSubleq))
			Expect(decoded[0].Src).To(Equal(uint16(1)))
			Expect(decoded[0].Dst).To(Equal(uint16(2)))
			// Cells 1 and 2 are too short for any idiom and fall back too.
			Expect(subst[insts.OpSubleq]).To(Equal(uint64(3)))
		})
	})

	Describe("DecodeRaw", func() {
		It("decodes every cell as SUBLEQ regardless of idioms present", func() {
			mem := load(0, 0, 10)
			decoded := optimizer.DecodeRaw(mem, 3)
			Expect(decoded[0].Op).To(Equal(insts.OpSubleq))
			Expect(decoded[0].Src).To(Equal(uint16(0)))
			Expect(decoded[0].Dst).To(Equal(uint16(0)))
			Expect(decoded[0].Aux).To(Equal(uint16(10)))
		})
	})
})
