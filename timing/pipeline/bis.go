package pipeline

import "github.com/sarchlab/apexsim/emu"

// BISSize is the branch information stack's circular-buffer capacity -
// at most 8 branch-category instructions may be in flight at once.
const BISSize = 8

// BISEntry snapshots every piece of renamer state a misprediction must
// restore: the RAT and condition-code alias, both free lists, and the
// ROB tail at the moment this branch was dispatched. FreeList is a plain
// value type, so copying an entry into the stack (and back out again on
// recovery) deep-copies the free lists rather than aliasing them.
type BISEntry struct {
	Valid bool

	RAT RAT

	GPRFreeList emu.FreeList
	CCFreeList  emu.FreeList

	ROBTailSnapshot int
}

// BIS is the branch information stack: a circular FIFO of speculative
// renamer snapshots, one per in-flight branch-category instruction
// (BZ/BNZ/BP/BN/JAL/JALP/RET - never JUMP, which is never predicted).
type BIS struct {
	entries [BISSize]BISEntry
	head    int
	tail    int
	count   int
}

// NewBIS returns an empty branch information stack.
func NewBIS() *BIS {
	return &BIS{}
}

// Full reports whether the stack has no room for another branch.
func (b *BIS) Full() bool { return b.count == BISSize }

// Empty reports whether the stack holds no in-flight branch.
func (b *BIS) Empty() bool { return b.count == 0 }

// Push snapshots e at the tail and returns its BIS index.
func (b *BIS) Push(e BISEntry) int {
	idx := b.tail
	e.Valid = true
	b.entries[idx] = e
	b.tail = (b.tail + 1) % BISSize
	b.count++
	return idx
}

// Entry returns a pointer to the snapshot at idx.
func (b *BIS) Entry(idx int) *BISEntry {
	return &b.entries[idx]
}

// Pop removes the head snapshot once its branch commits (a mispredicted
// branch survives its own recovery and also pops here).
func (b *BIS) Pop() {
	b.entries[b.head].Valid = false
	b.head = (b.head + 1) % BISSize
	b.count--
}

// Reset repositions head, tail and count directly, used when a
// misprediction drops every snapshot younger than the mispredicted
// branch while keeping the branch's own entry.
func (b *BIS) Reset(head, tail, count int) {
	b.head, b.tail, b.count = head, tail, count
}

// Head returns the stack's current head index.
func (b *BIS) Head() int { return b.head }

// Tail returns the stack's current tail index.
func (b *BIS) Tail() int { return b.tail }

// Count returns the number of live snapshots.
func (b *BIS) Count() int { return b.count }
