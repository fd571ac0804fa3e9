package pipeline

import (
	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/insts"
)

// computeALU evaluates instr's arithmetic, comparison, or branch-target
// result from its already-resolved source operands. It is called once,
// when the instruction's functional-unit slot reaches the end of its
// pipeline, rather than at issue - the source values captured on instr
// by the time the reservation station released it are exactly the ready
// values computeALU needs.
func computeALU(instr *insts.Instruction) (result int32, target int32, taken bool) {
	switch instr.Op {
	case insts.OpADD:
		result = instr.Rs1Value + instr.Rs2Value
	case insts.OpMUL:
		result = instr.Rs1Value * instr.Rs2Value
	case insts.OpSUB, insts.OpCMP:
		result = instr.Rs1Value - instr.Rs2Value
	case insts.OpAND:
		result = instr.Rs1Value & instr.Rs2Value
	case insts.OpOR:
		result = instr.Rs1Value | instr.Rs2Value
	case insts.OpXOR:
		result = instr.Rs1Value ^ instr.Rs2Value
	case insts.OpADDL:
		result = instr.Rs1Value + instr.Imm
	case insts.OpSUBL:
		result = instr.Rs1Value - instr.Imm
	case insts.OpCML:
		result = instr.Rs1Value - instr.Imm
	case insts.OpMOVC:
		result = instr.Imm
	case insts.OpJUMP:
		target = instr.Rs1Value + instr.Imm
		taken = true
	case insts.OpJAL:
		if instr.Rs1 == -1 {
			target = instr.Imm
		} else {
			target = instr.Rs1Value + instr.Imm
		}
		taken = true
		result = instr.PC + emu.InstructionStride
	case insts.OpJALP:
		target = instr.PC + instr.Imm
		taken = true
		result = instr.PC + emu.InstructionStride
	case insts.OpRET:
		target = instr.Rs1Value
		taken = true
	case insts.OpBZ, insts.OpBNZ, insts.OpBP, insts.OpBN:
		target = instr.PC + instr.Imm
		taken = insts.Taken(instr.Op, instr.FlagsValue)
	}
	return
}

// integerStage advances the 1-stage integer ALU. A slot accepted by
// issueStage this cycle is immediately the output slot next Tick, since
// the pipeline has no intermediate stages to shift through.
func (c *CPU) integerStage() {
	out := c.IntFU.Advance()
	if out.Valid {
		c.completeALUOp(out.ROBIndex)
	}
}

// multiplyStage advances the multiply pipeline by one stage, forwarding
// whatever instruction falls off the far end.
func (c *CPU) multiplyStage() {
	out := c.MulFU.Advance()
	if out.Valid {
		c.completeALUOp(out.ROBIndex)
	}
}

// completeALUOp resolves an integer or multiply instruction's result now
// that it has cleared its functional unit, stamps branch outcomes, queues
// whatever forward entries its destinations need, and checks a branch's
// outcome against its prediction, recovering on a misprediction.
func (c *CPU) completeALUOp(robIdx int) {
	if !c.ROB.IsIndexValid(robIdx) {
		return
	}
	entry := c.ROB.Entry(robIdx)
	instr := entry.Instr

	result, target, taken := computeALU(instr)
	instr.ActualTaken = taken
	instr.ActualTarget = target

	// JUMP is unconditional and was never speculated past - the front
	// end stalled the moment it saw JUMP in Decode/Rename1 - so it
	// redirects PC immediately and unblocks fetch, but takes no BIS
	// snapshot and triggers no recovery.
	if instr.Op == insts.OpJUMP {
		c.PC = target
		c.fetchBlockedOnJump = false
		c.f1, c.f2, c.dec = Fetch1Latch{}, Fetch2Latch{}, DecodeLatch{}
		c.nextF1, c.nextF2, c.nextDec = Fetch1Latch{}, Fetch2Latch{}, DecodeLatch{}
		c.Forward.Add(ForwardEntry{ROBIndex: robIdx, PhysTag: -1})
		return
	}

	forwarded := false
	if entry.PhysRd != -1 {
		c.Forward.Add(ForwardEntry{ROBIndex: robIdx, PhysTag: entry.PhysRd, Value: result})
		forwarded = true
	}
	if entry.WritesCC {
		c.Forward.Add(ForwardEntry{ROBIndex: robIdx, PhysTag: entry.PhysCC, Value: int32(insts.ComputeFlags(result)), IsCC: true})
		forwarded = true
	}
	if !forwarded {
		c.Forward.Add(ForwardEntry{ROBIndex: robIdx, PhysTag: -1})
	}

	if !entry.IsBranch {
		return
	}

	mispredicted := false
	switch instr.Op {
	case insts.OpBZ, insts.OpBNZ, insts.OpBP, insts.OpBN:
		mispredicted = taken != instr.PredictedTaken
		if c.usePredictors {
			c.BTB.Update(instr.PC, taken, target)
		}
	case insts.OpJAL:
		mispredicted = target != instr.PredictedTarget
		if c.usePredictors {
			c.CTP.Update(instr.PC, target)
			c.RAP.Push(instr.PC + emu.InstructionStride)
		}
	case insts.OpJALP:
		mispredicted = target != instr.PredictedTarget
		if c.usePredictors {
			c.RAP.Push(instr.PC + emu.InstructionStride)
		}
	case insts.OpRET:
		mispredicted = target != instr.PredictedTarget
	}

	if mispredicted {
		c.recover(entry, instr)
	}
}

// memoryUnitStage advances the memory-access pipeline by one stage. A
// load reads data memory and forwards its value into its destination
// register; a store writes data memory. Either way the access happens
// only when the instruction reaches the end of the pipeline, matching
// its two-stage latency.
func (c *CPU) memoryUnitStage() {
	out := c.MemFU.Advance()
	if !out.Valid {
		return
	}
	if !c.ROB.IsIndexValid(out.ROBIndex) {
		return
	}

	entry := c.ROB.Entry(out.ROBIndex)
	lsq := c.LSQ.Entry(entry.LSQIndex)

	if lsq.Kind == LSQStore {
		c.Data.Write(lsq.MemAddrValue, lsq.DataValue)
		c.Forward.Add(ForwardEntry{ROBIndex: out.ROBIndex, PhysTag: -1})
	} else {
		value := c.Data.Read(lsq.MemAddrValue)
		c.Forward.Add(ForwardEntry{ROBIndex: out.ROBIndex, PhysTag: entry.PhysRd, Value: value})
	}

	c.LSQ.Retire()
}

// applyForwarding broadcasts every result the functional units produced
// last cycle: physical register files are written, waiting reservation
// stations and store data operands wake up, and the producing ROB entry
// is marked ready to commit. A PhysTag of -1 marks a completion with no
// value to broadcast (a store, or a branch/RET/JUMP with no destination
// register) - only the ROB completion applies.
func (c *CPU) applyForwarding() {
	for _, fe := range c.Forward.Drain() {
		if !c.ROB.IsIndexValid(fe.ROBIndex) {
			continue
		}
		c.ROB.MarkCompleted(fe.ROBIndex)

		if fe.PhysTag == -1 {
			continue
		}

		if fe.IsCC {
			c.CPRF.Write(fe.PhysTag, fe.Value)
		} else {
			c.PRF.Write(fe.PhysTag, fe.Value)
		}

		c.wakeReservationStation(c.IntRS, fe)
		c.wakeReservationStation(c.MulRS, fe)
		c.wakeLSQStoreData(fe)
	}
}

func (c *CPU) wakeReservationStation(rs *ReservationStation, fe ForwardEntry) {
	for i := 0; i < rs.Capacity(); i++ {
		e := rs.Entry(i)
		if !e.Busy {
			continue
		}
		if !fe.IsCC && !e.Src1Ready && e.Src1Tag == fe.PhysTag {
			e.Src1Value, e.Src1Ready = fe.Value, true
		}
		if !fe.IsCC && !e.Src2Ready && e.Src2Tag == fe.PhysTag {
			e.Src2Value, e.Src2Ready = fe.Value, true
		}
		if fe.IsCC && e.NeedsCC && !e.CCReady && e.CCTag == fe.PhysTag {
			e.CCValue, e.CCReady = fe.Value, true
		}
	}
}

func (c *CPU) wakeLSQStoreData(fe ForwardEntry) {
	if fe.IsCC {
		return
	}
	for i := 0; i < LSQSize; i++ {
		e := c.LSQ.Entry(i)
		if !e.Valid {
			continue
		}
		if !e.MemAddrReady && e.PhysBase == fe.PhysTag {
			e.MemAddrReady = true
			imm := int32(0)
			if c.ROB.IsIndexValid(e.ROBIndex) {
				imm = c.ROB.Entry(e.ROBIndex).Instr.Imm
			}
			e.MemAddrValue = fe.Value + imm
		}
		if e.Kind == LSQStore && !e.DataReady && e.PhysData == fe.PhysTag {
			e.DataValue = fe.Value
			e.DataReady = true
		}
	}
}
