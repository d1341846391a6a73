package addrspace

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/pagesim/mem/vm/region"
)

var _ = Describe("Segment", func() {
	It("should extend upward", func() {
		s := newSegment(DataSegment, 0, GrowUp)

		start, end, added, ok := s.extendedBy(8, 16)

		Expect(ok).To(BeTrue())
		Expect(start).To(Equal(uint64(0)))
		Expect(end).To(Equal(uint64(8)))
		Expect(added).To(Equal(region.Region{Start: 0, End: 8}))
	})

	It("should extend downward", func() {
		s := newSegment(HeapSegment, 16, GrowDown)

		start, end, added, ok := s.extendedBy(4, 16)

		Expect(ok).To(BeTrue())
		Expect(start).To(Equal(uint64(12)))
		Expect(end).To(Equal(uint64(16)))
		Expect(added).To(Equal(
			region.Region{Start: 12, End: 16, SegID: HeapSegment}))
	})

	It("should refuse to leave the address space", func() {
		up := newSegment(DataSegment, 8, GrowUp)
		down := newSegment(HeapSegment, 8, GrowDown)

		_, _, _, ok := up.extendedBy(12, 16)
		Expect(ok).To(BeFalse())

		_, _, _, ok = down.extendedBy(12, 16)
		Expect(ok).To(BeFalse())
	})

	It("should move the break pointer in the growth direction only", func() {
		up := newSegment(DataSegment, 0, GrowUp)
		up.advanceBrk(region.Region{Start: 4, End: 8})
		up.advanceBrk(region.Region{Start: 0, End: 4})

		down := newSegment(HeapSegment, 16, GrowDown)
		down.advanceBrk(region.Region{Start: 8, End: 12})
		down.advanceBrk(region.Region{Start: 12, End: 16})

		Expect(up.Brk).To(Equal(uint64(8)))
		Expect(down.Brk).To(Equal(uint64(8)))
	})

	It("should detect overlapping ranges", func() {
		Expect(overlaps(0, 8, 4, 12)).To(BeTrue())
		Expect(overlaps(0, 8, 8, 12)).To(BeFalse())
		Expect(overlaps(0, 8, 4, 4)).To(BeFalse())
	})

	It("should name directions", func() {
		Expect(GrowUp.String()).To(Equal("up"))
		Expect(GrowDown.String()).To(Equal("down"))
		Expect(Direction(5).String()).To(Equal("Direction(5)"))
	})
})
