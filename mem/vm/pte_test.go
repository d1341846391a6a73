package vm

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PTE", func() {
	It("should treat the zero entry as unmapped", func() {
		var pte PTE

		Expect(pte.Present()).To(BeFalse())
		Expect(pte.Swapped()).To(BeFalse())
		Expect(pte.Mapped()).To(BeFalse())
	})

	It("should encode a resident page", func() {
		pte := PTE(0).EncodeResident(0x1abc)

		Expect(pte.Present()).To(BeTrue())
		Expect(pte.Swapped()).To(BeFalse())
		Expect(pte.Frame()).To(Equal(uint64(0x1abc)))
		Expect(uint32(pte)).To(Equal(uint32(0x80001abc)))
	})

	It("should encode a swapped page", func() {
		pte := PTE(0).EncodeSwapped(3, 1000)

		Expect(pte.Present()).To(BeFalse())
		Expect(pte.Swapped()).To(BeTrue())
		Expect(pte.SwapType()).To(Equal(3))
		Expect(pte.SwapOffset()).To(Equal(uint64(1000)))
		Expect(uint32(pte)).To(Equal(uint32(0x40000000 | 1000<<5 | 3)))
	})

	It("should clear the swap location when made resident", func() {
		pte := PTE(0).EncodeSwapped(31, MaxSwapFrames-1).EncodeResident(5)

		Expect(pte.Swapped()).To(BeFalse())
		Expect(pte.Frame()).To(Equal(uint64(5)))
		Expect(uint32(pte)).To(Equal(uint32(0x80000005)))
	})

	It("should clear the frame when swapped out", func() {
		pte := PTE(0).EncodeResident(MaxFrames - 1).EncodeSwapped(1, 2)

		Expect(pte.Present()).To(BeFalse())
		Expect(pte.SwapType()).To(Equal(1))
		Expect(pte.SwapOffset()).To(Equal(uint64(2)))
	})

	It("should track the dirty bit independently", func() {
		pte := PTE(0).EncodeResident(7).WithDirty(true)

		Expect(pte.Dirty()).To(BeTrue())
		Expect(pte.Frame()).To(Equal(uint64(7)))
		Expect(pte.WithDirty(false).Dirty()).To(BeFalse())
		Expect(pte.EncodeSwapped(0, 1).Dirty()).To(BeFalse())
	})

	It("should panic on field overflow", func() {
		Expect(func() { PTE(0).EncodeResident(MaxFrames) }).To(Panic())
		Expect(func() { PTE(0).EncodeSwapped(MaxSwapDevices, 0) }).To(Panic())
		Expect(func() { PTE(0).EncodeSwapped(0, MaxSwapFrames) }).To(Panic())
	})

	It("should panic when reading the wrong representation", func() {
		Expect(func() { PTE(0).EncodeSwapped(0, 0).Frame() }).To(Panic())
		Expect(func() { PTE(0).EncodeResident(0).SwapOffset() }).To(Panic())
	})
})
