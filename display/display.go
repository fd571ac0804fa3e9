// Package display renders a CPU's per-cycle microarchitectural state as
// the fixed-width tables the driver prints after simulate, display and
// single_step commands: pipeline stages, the rename table, the
// architectural register file, the busy reservation-station entries, the
// reorder buffer, and, when predictors are enabled, the BTB hit/lookup
// counters. The contents of the BTB, CTP and RAP are not printed.
package display

import (
	"fmt"
	"io"

	"github.com/sarchlab/apexsim/insts"
	"github.com/sarchlab/apexsim/timing/pipeline"
)

const ruleWidth = 79

func rule(w io.Writer) {
	fmt.Fprintln(w, "+"+repeat("-", ruleWidth)+"+")
}

func repeat(s string, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = s[0]
	}
	return string(b)
}

// stageLine prints one pipeline-stage row. instr is nil for an empty
// latch.
func stageLine(w io.Writer, name string, instr *insts.Instruction) {
	content := "(Empty)"
	if instr != nil {
		content = instr.String()
	}
	fmt.Fprintf(w, "| %-8s | %-66s |\n", name, content)
}

// All prints the complete per-cycle state table for cpu to w, mirroring
// the reference CPU's display: header, pipeline stages, RAT, ARF,
// busy reservation stations, the reorder buffer head-to-tail, and the
// BTB hit/lookup counters when predictors are enabled (the predictor
// table contents are not printed).
func All(w io.Writer, cpu *pipeline.CPU) {
	header(w, cpu)
	stages(w, cpu)
	rat(w, cpu)
	arf(w, cpu)
	reservationStations(w, cpu)
	reorderBuffer(w, cpu)
	if cpu.UsePredictors() {
		predictors(w, cpu)
	}
}

func header(w io.Writer, cpu *pipeline.CPU) {
	rule(w)
	fmt.Fprintf(w, "| Cycle: %-5d PC: %-6d ROB: %2d/%-2d LSQ: %d/%-2d Halted: %-5v |\n",
		cpu.Cycle, cpu.PC, cpu.ROB.Count(), pipeline.ROBSize, cpu.LSQ.Count(), pipeline.LSQSize, cpu.Halted)
	rule(w)
}

func stages(w io.Writer, cpu *pipeline.CPU) {
	fmt.Fprintf(w, "| %-8s | %-66s |\n", "STAGE", "INSTRUCTION")
	rule(w)
	stageLine(w, "F1", cpu.Fetch1Instr())
	stageLine(w, "F2", cpu.Fetch2Instr())
	stageLine(w, "DEC", cpu.DecodeInstr())
}

func rat(w io.Writer, cpu *pipeline.CPU) {
	rule(w)
	fmt.Fprintln(w, "| RENAME TABLE (RAT)                                                          |")
	rule(w)
	for i := 0; i < 32; i += 8 {
		fmt.Fprint(w, "| ")
		for j := i; j < i+8 && j < 32; j++ {
			fmt.Fprintf(w, "R%02d:P%-3d ", j, cpu.RAT.Regs[j])
		}
		fmt.Fprintln(w, "|")
	}
	ccTag := "-"
	if cpu.RAT.CC != -1 {
		ccTag = fmt.Sprintf("P%d", cpu.RAT.CC)
	}
	fmt.Fprintf(w, "| CC-RAT: %-69s |\n", ccTag)
}

func arf(w io.Writer, cpu *pipeline.CPU) {
	rule(w)
	fmt.Fprintln(w, "| ARCHITECTURAL REGISTER FILE (ARF)                                           |")
	rule(w)
	for i := 0; i < 32; i += 8 {
		fmt.Fprint(w, "| ")
		for j := i; j < i+8 && j < 32; j++ {
			fmt.Fprintf(w, "R%02d:%-4d ", j, cpu.ARF.R[j])
		}
		fmt.Fprintln(w, "|")
	}
}

func reservationStations(w io.Writer, cpu *pipeline.CPU) {
	rule(w)
	fmt.Fprintln(w, "| RESERVATION STATIONS (busy entries)                                         |")
	rule(w)
	printed := false
	for i := 0; i < cpu.IntRS.Capacity(); i++ {
		e := cpu.IntRS.Entry(i)
		if !e.Busy {
			continue
		}
		fmt.Fprintf(w, "| IntRS[%d]: ROB[%-2d] Src1Ready:%-5v Src2Ready:%-5v%23s|\n",
			i, e.ROBIndex, e.Src1Ready, e.Src2Ready, "")
		printed = true
	}
	for i := 0; i < cpu.MulRS.Capacity(); i++ {
		e := cpu.MulRS.Entry(i)
		if !e.Busy {
			continue
		}
		fmt.Fprintf(w, "| MulRS[%d]: ROB[%-2d] Src1Ready:%-5v Src2Ready:%-5v%23s|\n",
			i, e.ROBIndex, e.Src1Ready, e.Src2Ready, "")
		printed = true
	}
	if !printed {
		fmt.Fprintln(w, "| (all reservation stations empty)                                            |")
	}
}

func reorderBuffer(w io.Writer, cpu *pipeline.CPU) {
	rule(w)
	fmt.Fprintln(w, "| REORDER BUFFER (head -> tail)                                               |")
	rule(w)
	if cpu.ROB.Empty() {
		fmt.Fprintln(w, "| (empty)                                                                     |")
		rule(w)
		return
	}
	idx := cpu.ROB.Head()
	for i := 0; i < cpu.ROB.Count(); i++ {
		e := cpu.ROB.Entry(idx)
		status := "EXE"
		if e.Status == pipeline.ROBCompleted {
			status = "CMT"
		}
		fmt.Fprintf(w, "| ROB[%2d]: %-7s %-3s ArchRd:R%-3d PhysRd:P%-3d%20s|\n",
			idx, e.Instr.Op.String(), status, e.ArchRd, e.PhysRd, "")
		idx = (idx + 1) % pipeline.ROBSize
	}
	rule(w)
}

func predictors(w io.Writer, cpu *pipeline.CPU) {
	rule(w)
	fmt.Fprintln(w, "| PREDICTOR STATE                                                             |")
	rule(w)
	fmt.Fprintf(w, "| BTB hits/lookups: %d/%-54d |\n", cpu.Stats.BTBHits, cpu.Stats.BTBLookups)
	rule(w)
}
