package emu

// freeListCap bounds the backing array for a FreeList. The largest free
// list in the core is the GPR free list (PhysRegFileSize slots), so a
// 64-slot array comfortably covers both the GPR and condition-code lists.
const freeListCap = 64

// FreeList is a fixed-capacity circular queue of physical register
// indices. It is a plain value (no internal slice or pointer), so copying
// a FreeList - as happens when a BIS entry snapshots it, or when recovery
// restores one - deep-copies its contents instead of aliasing them.
type FreeList struct {
	items    [freeListCap]int
	head     int
	tail     int
	count    int
	capacity int
}

// NewFreeList returns an empty FreeList with the given logical capacity.
// capacity must be <= freeListCap.
func NewFreeList(capacity int) FreeList {
	return FreeList{capacity: capacity}
}

// Enqueue appends val to the tail. Behavior is undefined if the list is
// already full; callers size free lists to exactly the register count so
// this never happens in practice.
func (q *FreeList) Enqueue(val int) {
	q.items[q.tail] = val
	q.tail = (q.tail + 1) % q.capacity
	q.count++
}

// Dequeue removes and returns the head, or (-1, false) if empty.
func (q *FreeList) Dequeue() (int, bool) {
	if q.count == 0 {
		return -1, false
	}
	val := q.items[q.head]
	q.head = (q.head + 1) % q.capacity
	q.count--
	return val, true
}

// Empty reports whether the free list has no entries.
func (q *FreeList) Empty() bool { return q.count == 0 }

// Len returns the number of entries currently queued.
func (q *FreeList) Len() int { return q.count }
