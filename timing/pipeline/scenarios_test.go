package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/apexsim/emu"
)

var _ = Describe("end-to-end scenarios", func() {
	It("S1: straight-line arithmetic", func() {
		cpu := run(`
			MOVC R1,5
			MOVC R2,7
			ADD R3,R1,R2
			HALT
		`, false, nil)

		Expect(cpu.Halted).To(BeTrue())
		Expect(cpu.ARF.R[1]).To(Equal(int32(5)))
		Expect(cpu.ARF.R[2]).To(Equal(int32(7)))
		Expect(cpu.ARF.R[3]).To(Equal(int32(12)))
		Expect(cpu.Stats.Instructions).To(Equal(uint64(4)))
	})

	It("S2: load/store", func() {
		cpu := run(`
			MOVC R1,0
			LOAD R2,R1,#0
			MOVC R3,99
			STORE R3,R1,#4
			HALT
		`, false, map[int32]int32{0: 42})

		Expect(cpu.Halted).To(BeTrue())
		Expect(cpu.ARF.R[2]).To(Equal(int32(42)))
		Expect(cpu.Data.Read(4)).To(Equal(int32(99)))
	})

	It("S3: conditional branch not taken", func() {
		cpu := run(`
			MOVC R1,1
			MOVC R2,1
			CMP R1,R2
			BNZ #8
			MOVC R3,7
			HALT
		`, false, nil)

		Expect(cpu.Halted).To(BeTrue())
		Expect(cpu.ARF.R[3]).To(Equal(int32(7)))
	})

	It("S4: backward branch loop", func() {
		cpu := run(`
			MOVC R1,3
			SUBL R1,R1,#1
			BNZ #-4
			HALT
		`, false, nil)

		Expect(cpu.Halted).To(BeTrue())
		Expect(cpu.ARF.R[1]).To(Equal(int32(0)))
		Expect(cpu.Stats.Instructions).To(BeNumerically(">=", 8))
	})

	It("S5: predictor-enabled ARF matches the predictor-disabled run on the same loop", func() {
		src := `
			MOVC R1,3
			SUBL R1,R1,#1
			BNZ #-4
			HALT
		`
		without := run(src, false, nil)
		with := run(src, true, nil)

		Expect(with.ARF).To(Equal(without.ARF))
		Expect(with.Stats.Instructions).To(Equal(without.Stats.Instructions))
		Expect(with.Stats.Mispredictions).To(BeNumerically(">", 0), "the loop-exit branch must mispredict a trained BTB")
	})

	It("S6: direct call/return leaves RAP depth unchanged across a correctly-predicted call", func() {
		// The call target is absolute, so the JAL's prediction is exact;
		// the subroutine body is long enough that the JAL has executed
		// (and pushed its return address) before the RET reaches Fetch2's
		// RAP pop.
		cpu := run(`
			MOVC R1,1
			JAL R2,#4020
			HALT
			NOP
			NOP
			MOVC R3,42
			MOVC R4,7
			ADD R5,R3,R4
			SUB R6,R5,R4
			RET R2
		`, true, nil)

		Expect(cpu.Halted).To(BeTrue())
		Expect(cpu.ARF.R[1]).To(Equal(int32(1)))
		Expect(cpu.ARF.R[2]).To(Equal(int32(emu.CodeBasePC + 8)))
		Expect(cpu.ARF.R[3]).To(Equal(int32(42)))
		Expect(cpu.ARF.R[5]).To(Equal(int32(49)))
		Expect(cpu.ARF.R[6]).To(Equal(int32(42)))
		Expect(cpu.Stats.Mispredictions).To(Equal(uint64(0)), "both the call and the return must predict correctly")
		Expect(cpu.RAP.Depth()).To(Equal(0), "RET's pop must restore pre-call RAP depth")
	})
})

var _ = Describe("control-flow and functional-unit paths", func() {
	It("JUMP blocks fetch until resolution and never executes the fall-through path", func() {
		cpu := run(`
			MOVC R1,4016
			JUMP R1,#0
			MOVC R2,1
			MOVC R3,5
			MOVC R4,7
			HALT
		`, false, nil)

		Expect(cpu.Halted).To(BeTrue())
		Expect(cpu.ARF.R[2]).To(Equal(int32(0)), "the instruction after JUMP must never commit")
		Expect(cpu.ARF.R[3]).To(Equal(int32(0)))
		Expect(cpu.ARF.R[4]).To(Equal(int32(7)))
		Expect(cpu.Stats.Instructions).To(Equal(uint64(4)))
	})

	It("routes MUL through the multiply pipeline", func() {
		cpu := run(`
			MOVC R1,3
			MOVC R2,4
			MUL R3,R1,R2
			HALT
		`, false, nil)

		Expect(cpu.Halted).To(BeTrue())
		Expect(cpu.ARF.R[3]).To(Equal(int32(12)))
		Expect(cpu.Stats.Instructions).To(Equal(uint64(4)))
	})
})

var _ = Describe("round-trip properties", func() {
	It("running the same program twice from a fresh CPU is bit-identical", func() {
		src := `
			MOVC R1,5
			MOVC R2,7
			ADD R3,R1,R2
			HALT
		`
		a := run(src, false, nil)
		b := run(src, false, nil)

		Expect(a.ARF).To(Equal(b.ARF))
		Expect(a.Cycle).To(Equal(b.Cycle))
		Expect(a.Stats.Instructions).To(Equal(b.Stats.Instructions))
	})

	It("predictors are a pure performance feature on a branch-free program", func() {
		src := `
			MOVC R1,5
			MOVC R2,7
			ADD R3,R1,R2
			SUB R4,R3,R1
			HALT
		`
		without := run(src, false, nil)
		with := run(src, true, nil)

		Expect(with.ARF).To(Equal(without.ARF))
	})
})
