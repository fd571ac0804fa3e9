package pipeline

import "github.com/sarchlab/apexsim/insts"

// ROBSize is the reorder buffer's circular-buffer capacity.
const ROBSize = 16

// ROBStatus tracks whether an in-flight instruction is still executing,
// or has completed and may commit once it reaches the head.
type ROBStatus int

const (
	// ROBExecuting means the instruction has not yet produced its result.
	ROBExecuting ROBStatus = iota
	// ROBCompleted means the instruction's result is available and it is
	// eligible to commit once it reaches the ROB head.
	ROBCompleted
)

// ROBEntry is everything commit needs to retire an instruction: which
// architectural register (if any) it wrote, which physical register it
// allocated and which one it freed, and back-references into the LSQ and
// BIS for store and branch retirement.
type ROBEntry struct {
	Instr *insts.Instruction

	Status ROBStatus

	ArchRd    int
	PhysRd    int
	OldPhysRd int

	WritesCC  bool
	PhysCC    int
	OldPhysCC int

	IsBranch bool
	BISIndex int
	LSQIndex int
}

// ROB is the reorder buffer: a circular FIFO of in-flight instructions.
// The head commits; the tail is where dispatch allocates a fresh entry.
// It is the sole owner of *insts.Instruction values - reservation
// stations, the LSQ, and functional-unit pipelines refer to an
// instruction only by its ROB index and dereference through the ROB.
type ROB struct {
	entries [ROBSize]ROBEntry
	head    int
	tail    int
	count   int
}

// NewROB returns an empty reorder buffer.
func NewROB() *ROB {
	return &ROB{}
}

// Full reports whether the ROB has no free entry for dispatch.
func (r *ROB) Full() bool { return r.count == ROBSize }

// Empty reports whether the ROB has no in-flight instruction.
func (r *ROB) Empty() bool { return r.count == 0 }

// Count returns the number of in-flight instructions.
func (r *ROB) Count() int { return r.count }

// Head returns the current head index. Valid only when !Empty().
func (r *ROB) Head() int { return r.head }

// Tail returns the current tail index, i.e. the index the next
// dispatched instruction will occupy.
func (r *ROB) Tail() int { return r.tail }

// Allocate reserves the tail entry for instr and returns its ROB index.
// Callers must check Full() first.
func (r *ROB) Allocate(instr *insts.Instruction) int {
	idx := r.tail
	r.entries[idx] = ROBEntry{
		Instr:     instr,
		Status:    ROBExecuting,
		ArchRd:    -1,
		PhysRd:    -1,
		OldPhysRd: -1,
		PhysCC:    -1,
		OldPhysCC: -1,
		BISIndex:  -1,
		LSQIndex:  -1,
	}
	r.tail = (r.tail + 1) % ROBSize
	r.count++
	return idx
}

// Entry returns a pointer to the entry at idx for in-place mutation.
func (r *ROB) Entry(idx int) *ROBEntry {
	return &r.entries[idx]
}

// MarkCompleted flags the entry at idx as ready to commit.
func (r *ROB) MarkCompleted(idx int) {
	r.entries[idx].Status = ROBCompleted
}

// CommitHead pops the head entry, which must be ROBCompleted, and
// returns it.
func (r *ROB) CommitHead() ROBEntry {
	e := r.entries[r.head]
	r.head = (r.head + 1) % ROBSize
	r.count--
	return e
}

// IsIndexValid reports whether idx names an entry currently between head
// (inclusive) and tail (exclusive), walking the circular buffer modulo
// ROBSize. An entry outside this range belongs to an instruction that has
// already committed or was never dispatched, and so is stale - the same
// test the reference CPU uses before trusting a RS/LSQ/FU-latch ROB
// back-reference.
func (r *ROB) IsIndexValid(idx int) bool {
	if r.count == 0 {
		return false
	}
	if r.head < r.tail {
		return idx >= r.head && idx < r.tail
	}
	return idx >= r.head || idx < r.tail
}

// Clear empties the reorder buffer entirely, used when HALT retires.
func (r *ROB) Clear() {
	*r = ROB{}
}

// Rollback repositions the tail to one past a surviving instruction,
// used by misprediction recovery. count is recomputed from head and the
// new tail; because the mispredicted branch itself always survives, the
// buffer is never empty afterward - a tail that equals the head means a
// full buffer, not an empty one.
func (r *ROB) Rollback(tail int) {
	r.tail = tail
	r.count = (tail-r.head+ROBSize-1)%ROBSize + 1
}
