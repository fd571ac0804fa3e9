package pipeline

// LSQSize is the load/store queue's circular-buffer capacity.
const LSQSize = 6

// LSQEntryKind distinguishes a load from a store in the queue.
type LSQEntryKind int

const (
	LSQLoad LSQEntryKind = iota
	LSQStore
)

// LSQEntry tracks a memory instruction from dispatch until the memory
// unit consumes it. Stores hold their data operand (physical tag plus
// value-or-ready) so forwarding (wakeLSQStoreData) can fill it in before
// issue; loads need only the address operand. The effective address is
// computed at dispatch when the base is ready, or by forwarding once the
// base register's value arrives.
type LSQEntry struct {
	Valid  bool
	Kind   LSQEntryKind
	Issued bool // true once accepted into the memory unit, to avoid re-issuing while it drains

	ROBIndex int

	MemAddrReady bool
	MemAddrValue int32
	PhysBase     int // physical tag the effective address is waiting on

	DataReady bool
	DataValue int32
	PhysData  int // physical tag a pending store's data operand is waiting on
}

// LSQ is the load/store queue: a strict-program-order circular FIFO.
// Only the head entry may ever issue to the memory unit, and only once
// the ROB head matches its ROBIndex - loads and stores never pass each
// other or commit out of order.
type LSQ struct {
	entries [LSQSize]LSQEntry
	head    int
	tail    int
	count   int
}

// NewLSQ returns an empty load/store queue.
func NewLSQ() *LSQ {
	return &LSQ{}
}

// Full reports whether the queue has no room for another memory op.
func (q *LSQ) Full() bool { return q.count == LSQSize }

// Empty reports whether the queue holds no memory op.
func (q *LSQ) Empty() bool { return q.count == 0 }

// Head returns the queue's head index. Valid only when !Empty().
func (q *LSQ) Head() int { return q.head }

// Allocate reserves the tail entry and returns its LSQ index.
func (q *LSQ) Allocate(e LSQEntry) int {
	idx := q.tail
	e.Valid = true
	q.entries[idx] = e
	q.tail = (q.tail + 1) % LSQSize
	q.count++
	return idx
}

// Entry returns a pointer to the entry at idx for in-place mutation.
func (q *LSQ) Entry(idx int) *LSQEntry {
	return &q.entries[idx]
}

// Retire pops the head entry once the memory unit has consumed it.
func (q *LSQ) Retire() {
	q.entries[q.head].Valid = false
	q.head = (q.head + 1) % LSQSize
	q.count--
}

// Count returns the number of memory ops currently queued.
func (q *LSQ) Count() int { return q.count }

// Truncate repositions the tail and entry count directly, used by
// misprediction recovery after it has invalidated the flushed suffix.
// The count is passed in rather than derived because a rolled-back queue
// whose tail equals its head may be either empty or full.
func (q *LSQ) Truncate(tail, count int) {
	q.tail = tail
	q.count = count
}

// Invalidate marks the entry at idx unused, used when recovery discards
// speculative memory ops past a mispredicted branch.
func (q *LSQ) Invalidate(idx int) {
	q.entries[idx].Valid = false
}
