package pipeline

// RSEntry is one reservation-station slot. It carries only a ROB index,
// never an instruction pointer - operand tags, readiness, and values are
// cached locally so wakeup/select never has to dereference the ROB on
// the hot path, but the canonical instruction still lives in the ROB.
type RSEntry struct {
	Busy bool

	ROBIndex     int
	DispatchTime uint64 // cycle the entry was dispatched, used for oldest-first select

	Src1Tag   int
	Src1Value int32
	Src1Ready bool

	Src2Tag   int
	Src2Value int32
	Src2Ready bool

	// NeedsCC and CCTag/CCReady/CCValue track a pending condition-code
	// source operand for conditional branches.
	NeedsCC bool
	CCTag   int
	CCValue int32
	CCReady bool
}

// Ready reports whether every operand this entry needs has arrived.
func (e *RSEntry) Ready() bool {
	if !e.Busy {
		return false
	}
	if !e.Src1Ready || !e.Src2Ready {
		return false
	}
	if e.NeedsCC && !e.CCReady {
		return false
	}
	return true
}

// ReservationStation is a fixed-capacity, unordered pool of RSEntry slots.
// Dispatch allocates any free slot; issue selects the oldest ready entry
// (smallest DispatchTime) each cycle, matching the reference CPU's
// linear "first ready, oldest wins" scan.
type ReservationStation struct {
	entries []RSEntry
}

// NewReservationStation returns an empty station with the given capacity.
func NewReservationStation(capacity int) *ReservationStation {
	return &ReservationStation{entries: make([]RSEntry, capacity)}
}

// Capacity returns the number of slots in the station.
func (rs *ReservationStation) Capacity() int { return len(rs.entries) }

// HasFree reports whether any slot is unoccupied.
func (rs *ReservationStation) HasFree() bool {
	for i := range rs.entries {
		if !rs.entries[i].Busy {
			return true
		}
	}
	return false
}

// Allocate installs e into the first free slot and returns its index, or
// -1 if the station is full.
func (rs *ReservationStation) Allocate(e RSEntry) int {
	for i := range rs.entries {
		if !rs.entries[i].Busy {
			e.Busy = true
			rs.entries[i] = e
			return i
		}
	}
	return -1
}

// Entry returns a pointer to slot i for in-place mutation.
func (rs *ReservationStation) Entry(i int) *RSEntry {
	return &rs.entries[i]
}

// Free clears slot i, returning it to the pool.
func (rs *ReservationStation) Free(i int) {
	rs.entries[i] = RSEntry{}
}

// SelectOldestReady returns the index of the ready entry with the
// smallest DispatchTime, or -1 if none is ready.
func (rs *ReservationStation) SelectOldestReady() int {
	best := -1
	for i := range rs.entries {
		if !rs.entries[i].Ready() {
			continue
		}
		if best == -1 || rs.entries[i].DispatchTime < rs.entries[best].DispatchTime {
			best = i
		}
	}
	return best
}
