// Package pipeline implements the APEX out-of-order execution core: the
// rename/free-list/RAT protocol, the reorder buffer and load/store queue,
// reservation-station wakeup/select, the functional units, and the
// optional speculative front end with misprediction recovery.
package pipeline

import "github.com/sarchlab/apexsim/emu"

// RAT is the architectural-to-physical register alias table, plus the
// single condition-code alias. A -1 entry for register r means r's
// current value lives in the architectural register file rather than in
// a physical register.
type RAT struct {
	Regs [emu.ArchRegFileSize]int
	CC   int
}

// NewRAT returns a RAT with every mapping cleared (all values live in the
// ARF).
func NewRAT() RAT {
	r := RAT{CC: -1}
	for i := range r.Regs {
		r.Regs[i] = -1
	}
	return r
}
