package pipeline

import "github.com/sarchlab/apexsim/insts"

// issueStage wakes and selects: for each idle functional-unit entry
// stage, it picks the oldest ready reservation-station entry and hands
// it off, and separately checks whether the load/store queue head is
// ready to enter the memory unit. Operand values are re-read from the
// reservation-station entry here rather than at dispatch, since wakeup
// may have filled them in any cycle between dispatch and this one.
func (c *CPU) issueStage() {
	c.issueToFU(c.IntRS, c.IntFU)
	c.issueToFU(c.MulRS, c.MulFU)
	c.issueMemory()
}

// issueToFU selects the oldest ready entry in rs and hands it to fu, if
// fu's entry stage is free this cycle.
func (c *CPU) issueToFU(rs *ReservationStation, fu *FUPipeline) {
	if fu.EntryBusy() {
		return
	}
	idx := rs.SelectOldestReady()
	if idx == -1 {
		return
	}
	e := rs.Entry(idx)
	robIdx := e.ROBIndex
	if c.ROB.IsIndexValid(robIdx) {
		instr := c.ROB.Entry(robIdx).Instr
		instr.Rs1Value = e.Src1Value
		instr.Rs2Value = e.Src2Value
		if e.NeedsCC {
			instr.FlagsValue = insts.Flags(e.CCValue)
		}
	}
	fu.Accept(FUSlot{ROBIndex: robIdx})
	rs.Free(idx)
}

// issueMemory admits the load/store queue head into the memory unit once
// it is the ROB head and its operands (address, and for stores, data)
// are ready. Only the head may ever issue, preserving program-order
// memory access.
func (c *CPU) issueMemory() {
	if c.MemFU.EntryBusy() || c.LSQ.Empty() {
		return
	}
	idx := c.LSQ.Head()
	e := c.LSQ.Entry(idx)
	if !e.Valid || e.Issued {
		return
	}
	if !c.ROB.IsIndexValid(e.ROBIndex) || e.ROBIndex != c.ROB.Head() {
		return
	}
	ready := e.MemAddrReady && (e.Kind == LSQLoad || e.DataReady)
	if !ready {
		return
	}
	e.Issued = true
	c.MemFU.Accept(FUSlot{ROBIndex: e.ROBIndex})
}
