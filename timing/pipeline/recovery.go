package pipeline

import "github.com/sarchlab/apexsim/insts"

// recover unwinds every structure to the state it held when the
// mispredicted branch in entry was dispatched, using the BIS snapshot
// taken at that time, then redirects the front end to the branch's
// actual target. It is the sole cancellation primitive in the core:
// afterward, no structure names an instruction younger than the branch.
func (c *CPU) recover(entry *ROBEntry, instr *insts.Instruction) {
	snap := c.BIS.Entry(entry.BISIndex)

	c.RAT = snap.RAT
	c.GPRFree = snap.GPRFreeList
	c.CCFree = snap.CCFreeList

	c.ROB.Rollback((snap.ROBTailSnapshot + 1) % ROBSize)

	// The branch's own snapshot survives, so a new tail equal to the head
	// means a full stack, not an empty one.
	newBISTail := (entry.BISIndex + 1) % BISSize
	head := c.BIS.Head()
	count := (newBISTail-head+BISSize-1)%BISSize + 1
	c.BIS.Reset(head, newBISTail, count)

	c.f1, c.f2, c.dec = Fetch1Latch{}, Fetch2Latch{}, DecodeLatch{}
	c.nextF1, c.nextF2, c.nextDec = Fetch1Latch{}, Fetch2Latch{}, DecodeLatch{}

	// Results already queued this cycle by stages that ran before the
	// branch resolved are only kept if they belong to an instruction
	// that survives recovery; anything on the flushed path is dropped.
	isValid := c.ROB.IsIndexValid
	for _, fe := range c.Forward.Drain() {
		if isValid(fe.ROBIndex) {
			c.Forward.Add(fe)
		}
	}

	c.IntFU.Flush(isValid)
	c.MulFU.Flush(isValid)
	c.MemFU.Flush(isValid)

	for i := 0; i < c.IntRS.Capacity(); i++ {
		e := c.IntRS.Entry(i)
		if e.Busy && !isValid(e.ROBIndex) {
			c.IntRS.Free(i)
		}
	}
	for i := 0; i < c.MulRS.Capacity(); i++ {
		e := c.MulRS.Entry(i)
		if e.Busy && !isValid(e.ROBIndex) {
			c.MulRS.Free(i)
		}
	}

	for i := 0; i < LSQSize; i++ {
		e := c.LSQ.Entry(i)
		if e.Valid && !isValid(e.ROBIndex) {
			c.LSQ.Invalidate(i)
		}
	}
	// LSQ entries are in strict program order, so the survivors after
	// invalidation form a contiguous run starting at the head; walk it
	// to find where the tail must land.
	newLSQCount := 0
	lsqIdx := c.LSQ.Head()
	for newLSQCount < LSQSize && c.LSQ.Entry(lsqIdx).Valid {
		lsqIdx = (lsqIdx + 1) % LSQSize
		newLSQCount++
	}
	c.LSQ.Truncate(lsqIdx, newLSQCount)

	c.fetchHalted = false
	c.fetchBlockedOnJump = false

	switch instr.Op {
	case insts.OpBZ, insts.OpBNZ, insts.OpBP, insts.OpBN:
		if instr.PredictedTaken {
			c.PC = instr.PC + 4
		} else {
			c.PC = instr.PC + instr.Imm
		}
	default: // JAL, JALP, RET
		c.PC = instr.ActualTarget
	}

	c.Stats.Mispredictions++
}
