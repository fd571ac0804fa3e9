package pipeline

import (
	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/insts"
)

// fetch1Stage reads one instruction template from code memory at the
// current PC and advances PC sequentially. JUMP's target depends on a
// register operand that isn't known until rename, and JUMP never gets a
// BIS snapshot to recover from a bad guess, so fetch blocks entirely
// once a JUMP is decoded until it resolves in Execute and supplies the
// real target.
// A fetched HALT likewise stops the front end, though instructions
// already in flight still drain through commit.
func (c *CPU) fetch1Stage() {
	if c.stalled {
		c.nextF1 = c.f1
		return
	}
	if c.fetchHalted || c.fetchBlockedOnJump {
		c.nextF1 = Fetch1Latch{}
		return
	}

	instr := c.Code.Fetch(c.PC).CloneForFetch()
	c.nextF1 = Fetch1Latch{Valid: true, PC: c.PC, Instr: instr}

	if instr.Op == insts.OpHALT {
		c.fetchHalted = true
	}

	c.PC += emu.InstructionStride
}

// fetch2Stage predicts the direction and target of any branch-category
// instruction fetched last cycle, stamping the prediction onto the
// instruction and redirecting PC before fetch1Stage uses it later this
// same cycle. Without predictors enabled, every branch is predicted
// not-taken.
func (c *CPU) fetch2Stage() {
	if c.stalled {
		c.nextF2 = c.f2
		return
	}
	if !c.f1.Valid {
		c.nextF2 = Fetch2Latch{}
		return
	}

	instr := c.f1.Instr
	taken := false
	var target int32

	switch {
	case instr.Op == insts.OpJUMP:
		// Handled by the blocking stall in fetch1Stage; no prediction.

	case !c.usePredictors:
		// Fall through sequentially; the branch resolves in Execute.

	case instr.Op == insts.OpBZ || instr.Op == insts.OpBNZ ||
		instr.Op == insts.OpBP || instr.Op == insts.OpBN:
		c.Stats.BTBLookups++
		target = instr.PC + instr.Imm
		if _, predictTaken, hit := c.BTB.Lookup(instr.PC); hit {
			c.Stats.BTBHits++
			taken = predictTaken
		}

	case instr.Op == insts.OpJAL:
		taken = true
		if instr.Rs1 == -1 {
			target = instr.Imm
		} else if t, hit := c.CTP.Lookup(instr.PC); hit {
			target = t
		} else {
			target = instr.PC + emu.InstructionStride // unresolvable without a register value; likely mispredicts
		}

	case instr.Op == insts.OpJALP:
		taken = true
		target = instr.PC + instr.Imm

	case instr.Op == insts.OpRET:
		if t, ok := c.RAP.Pop(); ok {
			taken = true
			target = t
		}
	}

	instr.PredictedTaken = taken
	instr.PredictedTarget = target
	c.nextF2 = Fetch2Latch{Valid: true, Instr: instr, PredictedTaken: taken, PredictedTarget: target}

	if taken {
		c.PC = target
	}
}
