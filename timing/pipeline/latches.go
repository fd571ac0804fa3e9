package pipeline

import "github.com/sarchlab/apexsim/insts"

// Fetch1Latch carries a just-fetched instruction template into Fetch2.
type Fetch1Latch struct {
	Valid bool
	PC    int32
	Instr *insts.Instruction
}

// Fetch2Latch carries a branch-predicted instruction into Decode/Rename1.
type Fetch2Latch struct {
	Valid           bool
	Instr           *insts.Instruction
	PredictedTaken  bool
	PredictedTarget int32
}

// DecodeLatch carries a source-renamed instruction into Rename2/Dispatch.
// Source operand tags have already been resolved against the RAT as it
// stood after the previous instruction's dispatch; a tag of -1 means the operand's
// value lives in the architectural file (or flags) rather than a
// physical register.
type DecodeLatch struct {
	Valid bool
	Instr *insts.Instruction
}
