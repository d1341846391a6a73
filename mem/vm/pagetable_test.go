package vm

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PageTable", func() {
	var pt PageTable

	BeforeEach(func() {
		pt = NewPageTable(8)
	})

	It("should start empty", func() {
		Expect(pt.NumPages()).To(Equal(uint64(8)))
		for pgn := uint64(0); pgn < 8; pgn++ {
			Expect(pt.Get(pgn)).To(Equal(PTE(0)))
		}
	})

	It("should set and clear entries", func() {
		pt.Set(2, PTE(0).EncodeResident(1))
		Expect(pt.Get(2).Frame()).To(Equal(uint64(1)))

		pt.Clear(2)
		Expect(pt.Get(2).Mapped()).To(BeFalse())
	})

	It("should range over mapped pages only", func() {
		pt.Set(5, PTE(0).EncodeSwapped(0, 3))
		pt.Set(1, PTE(0).EncodeResident(0))

		var pages []uint64
		pt.Range(func(pgn uint64, _ PTE) {
			pages = append(pages, pgn)
		})

		Expect(pages).To(Equal([]uint64{1, 5}))
	})

	It("should panic beyond the table", func() {
		Expect(func() { pt.Get(8) }).To(Panic())
	})

	It("should dump entries", func() {
		pt.Set(1, PTE(0).EncodeResident(2))
		buf := new(bytes.Buffer)

		pt.Dump(buf, 0, 2)

		Expect(buf.String()).To(Equal(
			"print_pgtbl: 0 - 2\n00000000: 00000000\n00000004: 80000002\n"))
	})
})
