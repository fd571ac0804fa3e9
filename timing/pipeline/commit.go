package pipeline

import "github.com/sarchlab/apexsim/insts"

// commitStage retires the ROB head, at most one instruction per cycle,
// once its result (or, for memory ops and control instructions with no
// destination, its mere completion) has been forwarded. Retirement is
// the only place architectural state - the ARF, the architectural
// condition code, and the free lists' growth - changes.
func (c *CPU) commitStage() {
	if c.ROB.Empty() {
		return
	}

	idx := c.ROB.Head()
	entry := c.ROB.Entry(idx)
	if entry.Status != ROBCompleted {
		return
	}
	instr := entry.Instr

	if instr.Op == insts.OpHALT {
		c.Stats.Instructions++
		c.Halted = true
		c.ROB.Clear()
		return
	}

	if entry.IsBranch {
		c.BIS.Pop()
	}

	if entry.ArchRd != -1 {
		val, _ := c.PRF.Read(entry.PhysRd)
		c.ARF.R[entry.ArchRd] = val
		if entry.OldPhysRd != -1 {
			c.releaseGPR(entry.OldPhysRd)
		}
	}

	if entry.WritesCC {
		val, _ := c.CPRF.Read(entry.PhysCC)
		c.ArfCC = insts.Flags(val)
		if entry.OldPhysCC != -1 {
			c.releaseCC(entry.OldPhysCC)
		}
	}

	c.ROB.CommitHead()
	c.Stats.Instructions++
}

// releaseGPR returns tag to the GPR free list - and to every live BIS
// snapshot's copy of it. Every in-flight branch is younger than the
// committing instruction, so a register this commit frees would also be
// free in the world a recovery to any of those snapshots reconstructs;
// without this the restore would strand the register outside both the
// free list and every mapping.
func (c *CPU) releaseGPR(tag int) {
	c.PRF.Release(tag)
	c.GPRFree.Enqueue(tag)
	for i, idx := 0, c.BIS.Head(); i < c.BIS.Count(); i, idx = i+1, (idx+1)%BISSize {
		c.BIS.Entry(idx).GPRFreeList.Enqueue(tag)
	}
}

// releaseCC is releaseGPR for the condition-code file.
func (c *CPU) releaseCC(tag int) {
	c.CPRF.Release(tag)
	c.CCFree.Enqueue(tag)
	for i, idx := 0, c.BIS.Head(); i < c.BIS.Count(); i, idx = i+1, (idx+1)%BISSize {
		c.BIS.Entry(idx).CCFreeList.Enqueue(tag)
	}
}
