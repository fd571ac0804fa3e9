package pipeline

import (
	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/insts"
	"github.com/sarchlab/apexsim/timing/latency"
)

// Stats accumulates the core's run counters, alongside the derived ratios
// a reader actually wants. The state display prints the BTB counters.
type Stats struct {
	Cycles         uint64
	Instructions   uint64
	Branches       uint64
	Mispredictions uint64
	BTBLookups     uint64
	BTBHits        uint64
}

// CPI returns committed cycles per instruction, or 0 before anything has
// committed.
func (s Stats) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// MispredictionRate returns the fraction of resolved branches that were
// mispredicted.
func (s Stats) MispredictionRate() float64 {
	if s.Branches == 0 {
		return 0
	}
	return float64(s.Mispredictions) / float64(s.Branches)
}

// Accuracy is the complement of MispredictionRate.
func (s Stats) Accuracy() float64 {
	if s.Branches == 0 {
		return 0
	}
	return 1 - s.MispredictionRate()
}

// BTBHitRate returns the fraction of fetched branches that hit the BTB.
func (s Stats) BTBHitRate() float64 {
	if s.BTBLookups == 0 {
		return 0
	}
	return float64(s.BTBHits) / float64(s.BTBLookups)
}

// Option configures a CPU at construction time.
type Option func(*CPU)

// WithPredictors enables the BTB/CTP/RAP speculative front end. Without
// it, fetch predicts every branch not-taken and keeps fetching
// sequentially; a taken branch is then recovered at execute.
func WithPredictors() Option {
	return func(c *CPU) { c.usePredictors = true }
}

// WithMaxCycles overrides the latency config's hard cycle cap.
func WithMaxCycles(n uint64) Option {
	return func(c *CPU) { c.maxCycles = n }
}

// CPU is the full out-of-order APEX core: architectural and physical
// register files, the RAT and free lists, the ROB/LSQ/reservation
// stations/BIS, the functional-unit pipelines, and the speculative fetch
// front end, all advanced one cycle at a time by Tick.
type CPU struct {
	Code *emu.CodeMemory
	Data *emu.DataMemory

	ARF   emu.ArchRegFile
	ArfCC insts.Flags

	PRF  *emu.PhysRegFile
	CPRF *emu.PhysRegFile

	GPRFree emu.FreeList
	CCFree  emu.FreeList

	RAT RAT

	ROB     *ROB
	LSQ     *LSQ
	IntRS   *ReservationStation
	MulRS   *ReservationStation
	BIS     *BIS
	Forward *ForwardBuffer

	IntFU *FUPipeline
	MulFU *FUPipeline
	MemFU *FUPipeline

	usePredictors bool
	BTB           *BTB
	CTP           *CTP
	RAP           *RAP

	f1  Fetch1Latch
	f2  Fetch2Latch
	dec DecodeLatch

	nextF1  Fetch1Latch
	nextF2  Fetch2Latch
	nextDec DecodeLatch

	PC                 int32
	fetchHalted        bool
	fetchBlockedOnJump bool
	Halted             bool

	Cycle     uint64
	maxCycles uint64

	// stalled is recomputed every cycle by dispatchStage: true when a
	// structural hazard (a full ROB/RS/LSQ or an empty free list) blocks
	// dispatch, in which case decode and both fetch stages hold their
	// latches rather than losing or skipping ahead of the stuck
	// instruction.
	stalled bool

	Stats Stats
}

// NewCPU builds a CPU from a functional-unit timing config, ready to
// load a program.
func NewCPU(cfg *latency.Config, opts ...Option) *CPU {
	if cfg == nil {
		cfg = latency.Default()
	}

	c := &CPU{
		Code:      emu.NewCodeMemory(),
		Data:      emu.NewDataMemory(),
		PRF:       emu.NewPhysRegFile(emu.PhysRegFileSize),
		CPRF:      emu.NewPhysRegFile(emu.CCRegFileSize),
		ROB:       NewROB(),
		LSQ:       NewLSQ(),
		IntRS:     NewReservationStation(8),
		MulRS:     NewReservationStation(4),
		BIS:       NewBIS(),
		Forward:   NewForwardBuffer(),
		IntFU:     NewFUPipeline(1),
		MulFU:     NewFUPipeline(cfg.MulStages),
		MemFU:     NewFUPipeline(cfg.MemStages),
		BTB:       NewBTB(),
		CTP:       NewCTP(),
		RAP:       NewRAP(),
		maxCycles: cfg.MaxCycles,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Reset()
	return c
}

// Reset returns the CPU to its post-initialize state without discarding
// the loaded program or functional-unit config.
func (c *CPU) Reset() {
	c.ARF = emu.ArchRegFile{}
	c.ArfCC = 0
	c.PRF = emu.NewPhysRegFile(emu.PhysRegFileSize)
	c.CPRF = emu.NewPhysRegFile(emu.CCRegFileSize)

	c.GPRFree = emu.NewFreeList(emu.PhysRegFileSize)
	for i := 0; i < emu.PhysRegFileSize; i++ {
		c.GPRFree.Enqueue(i)
	}
	c.CCFree = emu.NewFreeList(emu.CCRegFileSize)
	for i := 0; i < emu.CCRegFileSize; i++ {
		c.CCFree.Enqueue(i)
	}

	c.RAT = NewRAT()
	c.ROB = NewROB()
	c.LSQ = NewLSQ()
	c.IntRS = NewReservationStation(8)
	c.MulRS = NewReservationStation(4)
	c.BIS = NewBIS()
	c.Forward = NewForwardBuffer()
	c.IntFU = NewFUPipeline(1)
	c.MulFU = NewFUPipeline(len(c.MulFU.slots))
	c.MemFU = NewFUPipeline(len(c.MemFU.slots))
	c.BTB = NewBTB()
	c.CTP = NewCTP()
	c.RAP = NewRAP()

	c.f1, c.f2, c.dec = Fetch1Latch{}, Fetch2Latch{}, DecodeLatch{}
	c.nextF1, c.nextF2, c.nextDec = Fetch1Latch{}, Fetch2Latch{}, DecodeLatch{}

	c.PC = emu.CodeBasePC
	c.fetchHalted = false
	c.fetchBlockedOnJump = false
	c.Halted = false
	c.Cycle = 0
	c.Stats = Stats{}
}

// LoadProgram installs instructions into code memory and resets the core
// to begin executing it from CodeBasePC.
func (c *CPU) LoadProgram(instructions []*insts.Instruction) {
	c.Code.Load(instructions)
	c.Reset()
}

// SetMemory writes value into data memory at addr.
func (c *CPU) SetMemory(addr int32, value int32) {
	c.Data.Write(addr, value)
}

// UsePredictors reports whether the speculative front end (BTB/CTP/RAP)
// is enabled.
func (c *CPU) UsePredictors() bool { return c.usePredictors }

// Fetch1Instr returns the instruction currently latched between Fetch1
// and Fetch2, or nil if that latch is empty.
func (c *CPU) Fetch1Instr() *insts.Instruction {
	if !c.f1.Valid {
		return nil
	}
	return c.f1.Instr
}

// Fetch2Instr returns the instruction currently latched between Fetch2
// and Decode/Rename1, or nil if that latch is empty.
func (c *CPU) Fetch2Instr() *insts.Instruction {
	if !c.f2.Valid {
		return nil
	}
	return c.f2.Instr
}

// DecodeInstr returns the instruction currently latched between
// Decode/Rename1 and Rename2/Dispatch, or nil if that latch is empty.
func (c *CPU) DecodeInstr() *insts.Instruction {
	if !c.dec.Valid {
		return nil
	}
	return c.dec.Instr
}

// Tick advances the core by one cycle. Stages run in reverse pipeline
// order - commit through fetch - so that a value a stage produces this
// cycle is visible to earlier stages only starting next cycle, the same
// discipline a synchronous hardware pipeline enforces with registers
// between stages.
func (c *CPU) Tick() {
	if c.Halted {
		return
	}
	c.Cycle++
	c.Stats.Cycles = c.Cycle
	c.stalled = false

	c.applyForwarding()
	c.commitStage()
	c.memoryUnitStage()
	c.multiplyStage()
	c.integerStage()
	c.issueStage()
	c.dispatchStage()
	c.decodeStage()
	c.fetch2Stage()
	c.fetch1Stage()

	c.f1, c.f2, c.dec = c.nextF1, c.nextF2, c.nextDec

	if c.Cycle >= c.maxCycles {
		c.Halted = true
	}
}

// RunCycles ticks the core up to n times, stopping early if it halts.
func (c *CPU) RunCycles(n int) {
	for i := 0; i < n && !c.Halted; i++ {
		c.Tick()
	}
}

// Run ticks the core until it halts or hits the cycle cap.
func (c *CPU) Run() {
	for !c.Halted {
		c.Tick()
	}
}
