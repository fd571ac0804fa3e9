package pipeline

import "github.com/sarchlab/apexsim/insts"

// decodeStage is Decode/Rename1: it resolves each source operand of the
// instruction fetched last cycle against the RAT as it stands after this
// cycle's dispatch (see below). A -1 RAT entry means the value already lives in
// the architectural file (or, for flags, the architectural condition
// code) and is read immediately; otherwise the operand carries the
// physical tag forward and waits in its reservation station until that
// tag is forwarded.
//
// Because dispatchStage (Rename2) for the instruction fetched one cycle
// earlier runs before decodeStage within the same Tick, the RAT this
// stage reads already reflects that earlier instruction's renaming -
// preserving strict program-order rename despite the two steps living in
// different latches.
func (c *CPU) decodeStage() {
	if c.stalled {
		c.nextDec = c.dec
		return
	}
	// While a JUMP is unresolved, anything the front end fetched behind it
	// is wrong-path: drop it here so nothing younger than the JUMP is ever
	// renamed. (The flag is set below when the JUMP itself passes through,
	// so the JUMP is never dropped by its own block.)
	if c.fetchBlockedOnJump {
		c.nextDec = DecodeLatch{}
		return
	}
	if !c.f2.Valid {
		c.nextDec = DecodeLatch{}
		return
	}

	instr := c.f2.Instr

	// JUMP's target depends on a register operand not known until
	// rename, and it carries no BIS snapshot to recover from a bad
	// guess, so the front end blocks outright until it resolves in
	// Execute.
	if instr.Op == insts.OpJUMP {
		c.fetchBlockedOnJump = true
	}

	resolveGPR := func(reg int) (tag int, value int32, ready bool) {
		if reg == -1 {
			return -1, 0, true
		}
		t := c.RAT.Regs[reg]
		if t == -1 {
			return -1, c.ARF.R[reg], true
		}
		v, ok := c.PRF.Read(t)
		return t, v, ok
	}

	instr.PhysRs1, instr.Rs1Value, instr.Rs1Ready = resolveGPR(instr.Rs1)
	instr.PhysRs2, instr.Rs2Value, instr.Rs2Ready = resolveGPR(instr.Rs2)

	if insts.NeedsFlags(instr.Op) {
		if c.RAT.CC == -1 {
			instr.PhysSrcCc = -1
			instr.FlagsValue = c.ArfCC
			instr.FlagsReady = true
		} else {
			instr.PhysSrcCc = c.RAT.CC
			v, ok := c.CPRF.Read(c.RAT.CC)
			instr.FlagsValue = insts.Flags(v)
			instr.FlagsReady = ok
		}
	} else {
		instr.PhysSrcCc = -1
		instr.FlagsReady = true
	}

	c.nextDec = DecodeLatch{Valid: true, Instr: instr}
}

// dispatchStage is Rename2/Dispatch: it allocates a destination physical
// register and/or condition-code slot, a ROB entry, a branch-information
// snapshot, and a reservation-station or load/store-queue slot for the
// instruction decoded last cycle. Any missing resource stalls dispatch
// (and, transitively, decode and fetch) for the whole cycle rather than
// dispatching out of order.
func (c *CPU) dispatchStage() {
	if !c.dec.Valid {
		return
	}
	instr := c.dec.Instr

	needsGPR := instr.Rd != -1
	needsCC := insts.SetsFlags(instr.Op)
	needsRS := !insts.IsMemory(instr.Op) && instr.Op != insts.OpNOP && instr.Op != insts.OpHALT && instr.Op != insts.OpINVALID

	if c.ROB.Full() {
		c.stalled = true
		return
	}
	if needsGPR && c.GPRFree.Empty() {
		c.stalled = true
		return
	}
	if needsCC && c.CCFree.Empty() {
		c.stalled = true
		return
	}
	if insts.IsBranch(instr.Op) && c.BIS.Full() {
		c.stalled = true
		return
	}
	if insts.IsMemory(instr.Op) && c.LSQ.Full() {
		c.stalled = true
		return
	}
	if needsRS {
		rs := c.IntRS
		if insts.IsMul(instr.Op) {
			rs = c.MulRS
		}
		if !rs.HasFree() {
			c.stalled = true
			return
		}
	}

	// Re-read any still-pending source operand against the current PRF
	// and CPRF. A producer may have written back while this instruction
	// waited in the dispatch latch - before its reservation-station or
	// LSQ entry existed to catch the broadcast - so the capture here is
	// its last chance to observe that value.
	if !instr.Rs1Ready && instr.PhysRs1 != -1 {
		if v, ok := c.PRF.Read(instr.PhysRs1); ok {
			instr.Rs1Value, instr.Rs1Ready = v, true
		}
	}
	if !instr.Rs2Ready && instr.PhysRs2 != -1 {
		if v, ok := c.PRF.Read(instr.PhysRs2); ok {
			instr.Rs2Value, instr.Rs2Ready = v, true
		}
	}
	if !instr.FlagsReady && instr.PhysSrcCc != -1 {
		if v, ok := c.CPRF.Read(instr.PhysSrcCc); ok {
			instr.FlagsValue, instr.FlagsReady = insts.Flags(v), true
		}
	}

	archRd, physRd, oldPhysRd := -1, -1, -1
	if needsGPR {
		archRd = instr.Rd
		physRd, _ = c.GPRFree.Dequeue()
		oldPhysRd = c.RAT.Regs[instr.Rd]
		c.RAT.Regs[instr.Rd] = physRd
		c.PRF.Allocate(physRd)
		instr.PhysRd = physRd
	}

	physCC, oldPhysCC := -1, -1
	if needsCC {
		physCC, _ = c.CCFree.Dequeue()
		oldPhysCC = c.RAT.CC
		c.RAT.CC = physCC
		c.CPRF.Allocate(physCC)
		instr.PhysCc = physCC
	}

	robIdx := c.ROB.Allocate(instr)
	instr.ROBIndex = robIdx
	entry := c.ROB.Entry(robIdx)
	entry.ArchRd = archRd
	entry.PhysRd = physRd
	entry.OldPhysRd = oldPhysRd
	entry.WritesCC = needsCC
	entry.PhysCC = physCC
	entry.OldPhysCC = oldPhysCC
	entry.IsBranch = insts.IsBranch(instr.Op)

	if insts.IsBranch(instr.Op) {
		bisIdx := c.BIS.Push(BISEntry{
			RAT:         c.RAT,
			GPRFreeList: c.GPRFree,
			CCFreeList:  c.CCFree,
			// The ROB slot the branch itself occupies, not the tail
			// after it - recovery restores the tail to one past this.
			ROBTailSnapshot: robIdx,
		})
		instr.BISIndex = bisIdx
		entry.BISIndex = bisIdx
	}

	switch {
	case insts.IsMemory(instr.Op):
		c.dispatchMemory(instr, robIdx, entry)
	case instr.Op == insts.OpNOP, instr.Op == insts.OpHALT, instr.Op == insts.OpINVALID:
		c.ROB.MarkCompleted(robIdx)
	default:
		rs := c.IntRS
		if insts.IsMul(instr.Op) {
			rs = c.MulRS
		}
		rs.Allocate(RSEntry{
			ROBIndex:     robIdx,
			DispatchTime: c.Cycle,
			Src1Tag:      instr.PhysRs1,
			Src1Value:    instr.Rs1Value,
			Src1Ready:    instr.Rs1Ready,
			Src2Tag:      instr.PhysRs2,
			Src2Value:    instr.Rs2Value,
			Src2Ready:    instr.Rs2Ready,
			NeedsCC:      insts.NeedsFlags(instr.Op),
			CCTag:        instr.PhysSrcCc,
			CCValue:      int32(instr.FlagsValue),
			CCReady:      instr.FlagsReady,
		})
	}

	if insts.IsBranch(instr.Op) {
		c.Stats.Branches++
	}
}

// dispatchMemory allocates instr's load/store-queue entry. STORE's
// operand convention is (data source, base address, offset); LOAD's is
// (dest, base address, offset).
func (c *CPU) dispatchMemory(instr *insts.Instruction, robIdx int, entry *ROBEntry) {
	e := LSQEntry{ROBIndex: robIdx}

	baseTag := instr.PhysRs1
	baseValue := instr.Rs1Value
	baseReady := instr.Rs1Ready

	if instr.Op == insts.OpSTORE {
		e.Kind = LSQStore
		e.PhysData = instr.PhysRs1
		e.DataValue = instr.Rs1Value
		e.DataReady = instr.Rs1Ready
		baseTag = instr.PhysRs2
		baseValue = instr.Rs2Value
		baseReady = instr.Rs2Ready
	} else {
		e.Kind = LSQLoad
		e.DataReady = true
	}

	e.PhysBase = baseTag
	if baseReady {
		e.MemAddrReady = true
		e.MemAddrValue = baseValue + instr.Imm
	}

	lsqIdx := c.LSQ.Allocate(e)
	instr.LSQIndex = lsqIdx
	entry.LSQIndex = lsqIdx
}
