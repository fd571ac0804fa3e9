package insts

import "fmt"

// Instruction is the per-instance record threaded through the pipeline.
// Static fields are filled by the assembler and never change; renamed
// source tags are filled at Decode/Rename1 and destination tags at
// Rename2/Dispatch; runtime fields accumulate as
// the instruction moves through issue, execute, and commit.
//
// The reorder buffer owns the canonical Instruction for every in-flight
// op: reservation stations, the LSQ, and the functional-unit latches carry
// only a ROB index and dereference through the ROB. An index outside the
// ROB's live range means the instruction it used to name has been flushed.
type Instruction struct {
	// Static (filled by the assembler).
	Op  Op
	PC  int32
	Rd  int // -1 if unused
	Rs1 int
	Rs2 int
	Imm int32

	// Renamed (sources at Decode/Rename1, destinations at Rename2/Dispatch).
	PhysRd    int // -1 if unused
	PhysRs1   int
	PhysRs2   int
	PhysCc    int // -1 if this instruction doesn't write flags
	PhysSrcCc int // -1 if this instruction doesn't read flags

	// Runtime: captured operands and their readiness.
	Rs1Value   int32
	Rs2Value   int32
	Rs1Ready   bool
	Rs2Ready   bool
	FlagsValue Flags
	FlagsReady bool

	// Runtime: bookkeeping indices into the owning structures.
	ROBIndex int
	LSQIndex int
	BISIndex int

	// Runtime: not written by the pipeline; effective addresses are kept
	// on the load/store-queue entry instead.
	MemAddress int32

	// Runtime: branch prediction annotations stamped at fetch.
	PredictedTaken  bool
	PredictedTarget int32

	// Runtime: the branch's actual outcome, resolved by the integer FU
	// and checked against the prediction there, in execute.
	ActualTaken  bool
	ActualTarget int32
}

// New returns an Instruction with every index field defaulted to -1,
// mirroring an uninitialized decode slot.
func New(op Op) *Instruction {
	return &Instruction{
		Op: op, Rd: -1, Rs1: -1, Rs2: -1,
		PhysRd: -1, PhysRs1: -1, PhysRs2: -1,
		PhysCc: -1, PhysSrcCc: -1,
		ROBIndex: -1, LSQIndex: -1, BISIndex: -1,
	}
}

// CloneForFetch returns a fresh Instruction carrying i's static fields
// (as decoded by the assembler) with every renamed/runtime field reset,
// as if freshly read out of code memory. Code memory stores one static
// template per slot; each fetch needs its own instance so that two
// dynamic executions of the same static instruction (a loop body, or a
// re-fetch after a misprediction) never share rename state.
func (i *Instruction) CloneForFetch() *Instruction {
	fresh := New(i.Op)
	fresh.PC = i.PC
	fresh.Rd = i.Rd
	fresh.Rs1 = i.Rs1
	fresh.Rs2 = i.Rs2
	fresh.Imm = i.Imm
	return fresh
}

// String renders the instruction the way the state display prints a stage
// slot: mnemonic followed by whichever operands are present.
func (i *Instruction) String() string {
	if i == nil {
		return "(empty)"
	}
	s := i.Op.String()
	if i.Rd != -1 {
		s += fmt.Sprintf(" R%d", i.Rd)
	}
	if i.Rs1 != -1 {
		s += fmt.Sprintf(" R%d", i.Rs1)
	}
	if i.Rs2 != -1 {
		s += fmt.Sprintf(" R%d", i.Rs2)
	}
	if i.Imm != 0 {
		s += fmt.Sprintf(" #%d", i.Imm)
	}
	return s
}
