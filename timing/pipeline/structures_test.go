package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/apexsim/insts"
	"github.com/sarchlab/apexsim/timing/pipeline"
)

var _ = Describe("ROB", func() {
	It("allocates at the tail and commits from the head in FIFO order", func() {
		rob := pipeline.NewROB()
		i1 := rob.Allocate(insts.New(insts.OpADD))
		i2 := rob.Allocate(insts.New(insts.OpSUB))
		Expect(i1).To(Equal(0))
		Expect(i2).To(Equal(1))
		Expect(rob.Count()).To(Equal(2))

		rob.MarkCompleted(i1)
		e := rob.CommitHead()
		Expect(e.Instr.Op).To(Equal(insts.OpADD))
		Expect(rob.Count()).To(Equal(1))
		Expect(rob.Head()).To(Equal(i2))
	})

	It("reports Full at capacity", func() {
		rob := pipeline.NewROB()
		for i := 0; i < pipeline.ROBSize; i++ {
			rob.Allocate(insts.New(insts.OpNOP))
		}
		Expect(rob.Full()).To(BeTrue())
	})

	It("validates indices only within [head,tail)", func() {
		rob := pipeline.NewROB()
		Expect(rob.IsIndexValid(0)).To(BeFalse(), "empty ROB has no valid index")

		idx := rob.Allocate(insts.New(insts.OpADD))
		Expect(rob.IsIndexValid(idx)).To(BeTrue())
		Expect(rob.IsIndexValid((idx+1)%pipeline.ROBSize)).To(BeFalse())
	})

	It("wraps the valid range correctly across the circular boundary", func() {
		rob := pipeline.NewROB()
		for i := 0; i < pipeline.ROBSize-1; i++ {
			idx := rob.Allocate(insts.New(insts.OpNOP))
			rob.MarkCompleted(idx)
			rob.CommitHead()
		}
		// head and tail both sit at the last slot (ROBSize-1); allocate a
		// couple more so the live range straddles the array boundary.
		a := rob.Allocate(insts.New(insts.OpADD))
		b := rob.Allocate(insts.New(insts.OpSUB))
		Expect(rob.IsIndexValid(a)).To(BeTrue())
		Expect(rob.IsIndexValid(b)).To(BeTrue())
	})

	It("recomputes count from head/tail after Rollback", func() {
		rob := pipeline.NewROB()
		rob.Allocate(insts.New(insts.OpADD))
		second := rob.Allocate(insts.New(insts.OpSUB))
		rob.Allocate(insts.New(insts.OpMUL))

		rob.Rollback((second + 1) % pipeline.ROBSize)
		Expect(rob.Count()).To(Equal(2))
		Expect(rob.IsIndexValid(second)).To(BeTrue())
	})

	It("treats tail==head after Rollback as full, not empty", func() {
		rob := pipeline.NewROB()
		for i := 0; i < pipeline.ROBSize; i++ {
			rob.Allocate(insts.New(insts.OpNOP))
		}
		// Rolling back to one past the final entry is a no-op rollback: the
		// whole buffer survives.
		rob.Rollback(rob.Tail())
		Expect(rob.Count()).To(Equal(pipeline.ROBSize))
		Expect(rob.Full()).To(BeTrue())
	})

	It("empties entirely on Clear", func() {
		rob := pipeline.NewROB()
		rob.Allocate(insts.New(insts.OpADD))
		rob.Clear()
		Expect(rob.Empty()).To(BeTrue())
		Expect(rob.Count()).To(Equal(0))
	})
})

var _ = Describe("LSQ", func() {
	It("retires from the head after allocation at the tail", func() {
		q := pipeline.NewLSQ()
		idx := q.Allocate(pipeline.LSQEntry{Kind: pipeline.LSQLoad, ROBIndex: 3})
		Expect(q.Head()).To(Equal(idx))
		Expect(q.Entry(idx).ROBIndex).To(Equal(3))

		q.Retire()
		Expect(q.Empty()).To(BeTrue())
	})

	It("reports Full at capacity", func() {
		q := pipeline.NewLSQ()
		for i := 0; i < pipeline.LSQSize; i++ {
			q.Allocate(pipeline.LSQEntry{Kind: pipeline.LSQLoad})
		}
		Expect(q.Full()).To(BeTrue())
	})

	It("restores a full queue via Truncate with an explicit count", func() {
		q := pipeline.NewLSQ()
		for i := 0; i < pipeline.LSQSize; i++ {
			q.Allocate(pipeline.LSQEntry{Kind: pipeline.LSQLoad})
		}
		q.Truncate(q.Head(), pipeline.LSQSize)
		Expect(q.Full()).To(BeTrue())
		Expect(q.Count()).To(Equal(pipeline.LSQSize))
	})

	It("invalidates an entry without shifting its neighbors", func() {
		q := pipeline.NewLSQ()
		a := q.Allocate(pipeline.LSQEntry{Kind: pipeline.LSQLoad, ROBIndex: 1})
		b := q.Allocate(pipeline.LSQEntry{Kind: pipeline.LSQStore, ROBIndex: 2})
		q.Invalidate(b)
		Expect(q.Entry(a).Valid).To(BeTrue())
		Expect(q.Entry(b).Valid).To(BeFalse())
	})
})

var _ = Describe("BIS", func() {
	It("pushes at the tail and pops from the head", func() {
		b := pipeline.NewBIS()
		idx := b.Push(pipeline.BISEntry{ROBTailSnapshot: 5})
		Expect(b.Count()).To(Equal(1))
		Expect(b.Entry(idx).ROBTailSnapshot).To(Equal(5))

		b.Pop()
		Expect(b.Empty()).To(BeTrue())
	})

	It("reports Full at capacity", func() {
		b := pipeline.NewBIS()
		for i := 0; i < pipeline.BISSize; i++ {
			b.Push(pipeline.BISEntry{})
		}
		Expect(b.Full()).To(BeTrue())
	})

	It("resets head/tail/count directly for recovery", func() {
		b := pipeline.NewBIS()
		b.Push(pipeline.BISEntry{})
		b.Push(pipeline.BISEntry{})
		b.Push(pipeline.BISEntry{})
		b.Reset(0, 1, 1)
		Expect(b.Count()).To(Equal(1))
		Expect(b.Head()).To(Equal(0))
		Expect(b.Tail()).To(Equal(1))
	})
})

var _ = Describe("ReservationStation", func() {
	It("allocates into the first free slot and frees it back", func() {
		rs := pipeline.NewReservationStation(2)
		Expect(rs.HasFree()).To(BeTrue())
		idx := rs.Allocate(pipeline.RSEntry{ROBIndex: 1})
		Expect(idx).To(Equal(0))

		rs.Free(idx)
		Expect(rs.Entry(idx).Busy).To(BeFalse())
	})

	It("reports -1 from Allocate when full", func() {
		rs := pipeline.NewReservationStation(1)
		rs.Allocate(pipeline.RSEntry{})
		Expect(rs.HasFree()).To(BeFalse())
		Expect(rs.Allocate(pipeline.RSEntry{})).To(Equal(-1))
	})

	It("selects the oldest ready entry", func() {
		rs := pipeline.NewReservationStation(4)
		rs.Allocate(pipeline.RSEntry{ROBIndex: 1, DispatchTime: 5, Src1Ready: true, Src2Ready: true})
		rs.Allocate(pipeline.RSEntry{ROBIndex: 2, DispatchTime: 2, Src1Ready: true, Src2Ready: true})
		rs.Allocate(pipeline.RSEntry{ROBIndex: 3, DispatchTime: 9, Src1Ready: false, Src2Ready: true})

		idx := rs.SelectOldestReady()
		Expect(rs.Entry(idx).ROBIndex).To(Equal(2), "the not-ready entry must be skipped and the smaller DispatchTime must win")
	})

	It("returns -1 when nothing is ready", func() {
		rs := pipeline.NewReservationStation(2)
		rs.Allocate(pipeline.RSEntry{Src1Ready: false})
		Expect(rs.SelectOldestReady()).To(Equal(-1))
	})
})

var _ = Describe("FUPipeline", func() {
	It("delays a slot by exactly its depth before Advance returns it", func() {
		fu := pipeline.NewFUPipeline(3)
		fu.Accept(pipeline.FUSlot{ROBIndex: 7})

		Expect(fu.Advance().Valid).To(BeFalse())
		Expect(fu.Advance().Valid).To(BeFalse())
		out := fu.Advance()
		Expect(out.Valid).To(BeTrue())
		Expect(out.ROBIndex).To(Equal(7))
	})

	It("reports EntryBusy until Advance clears stage 0", func() {
		fu := pipeline.NewFUPipeline(1)
		fu.Accept(pipeline.FUSlot{ROBIndex: 1})
		Expect(fu.EntryBusy()).To(BeTrue())
		fu.Advance()
		Expect(fu.EntryBusy()).To(BeFalse())
	})

	It("flushes slots whose ROB index is no longer valid", func() {
		fu := pipeline.NewFUPipeline(2)
		fu.Accept(pipeline.FUSlot{ROBIndex: 1})
		fu.Flush(func(idx int) bool { return idx != 1 })
		Expect(fu.Advance().Valid).To(BeFalse())
	})
})
