package emu

import "github.com/sarchlab/apexsim/insts"

// CodeMemorySize is the number of fetchable instruction slots.
const CodeMemorySize = 1024

// DataMemorySize is the number of addressable data words.
const DataMemorySize = 4096

// CodeBasePC is the program counter of the first instruction slot.
const CodeBasePC = 4000

// InstructionStride is the byte distance between consecutive instructions.
const InstructionStride = 4

// CodeMemory holds the statically-assembled program, indexed by
// (pc-CodeBasePC)/InstructionStride.
type CodeMemory struct {
	slots [CodeMemorySize]*insts.Instruction
}

// NewCodeMemory returns an empty code memory; every slot decodes as NOP
// until Load fills it in.
func NewCodeMemory() *CodeMemory {
	return &CodeMemory{}
}

// Load installs program starting at CodeBasePC, stamping each
// instruction's PC field from its position in the stream.
func (m *CodeMemory) Load(program []*insts.Instruction) {
	for i := range m.slots {
		m.slots[i] = nil
	}
	for i, instr := range program {
		if i >= CodeMemorySize {
			break
		}
		instr.PC = CodeBasePC + int32(i)*InstructionStride
		m.slots[i] = instr
	}
}

// Fetch returns the static instruction template at pc. Out-of-range PCs
// (including an unprogrammed slot) return a NOP, matching the reference
// CPU's zero-initialized code memory.
func (m *CodeMemory) Fetch(pc int32) *insts.Instruction {
	idx := (pc - CodeBasePC) / InstructionStride
	if pc < CodeBasePC || int(idx) >= CodeMemorySize || m.slots[idx] == nil {
		nop := insts.New(insts.OpNOP)
		nop.PC = pc
		return nop
	}
	return m.slots[idx]
}

// DataMemory is word-addressable simulated data RAM.
type DataMemory struct {
	words [DataMemorySize]int32
}

// NewDataMemory returns a zeroed data memory.
func NewDataMemory() *DataMemory {
	return &DataMemory{}
}

// Read returns the word at addr, or 0 if addr is out of bounds (silent
// truncation, matching the reference CPU's fixed-size array semantics).
func (m *DataMemory) Read(addr int32) int32 {
	if addr < 0 || int(addr) >= DataMemorySize {
		return 0
	}
	return m.words[addr]
}

// Write stores value at addr. Out-of-bounds writes are silently dropped.
func (m *DataMemory) Write(addr int32, value int32) {
	if addr < 0 || int(addr) >= DataMemorySize {
		return
	}
	m.words[addr] = value
}
