package vm

import (
	"fmt"
	"io"
	"log"
)

// A PageTable maps every virtual page number of one process to a PTE.
type PageTable interface {
	Get(pgn uint64) PTE
	Set(pgn uint64, pte PTE)
	Clear(pgn uint64)
	NumPages() uint64

	// Range calls fn on every mapped page in increasing page order.
	Range(fn func(pgn uint64, pte PTE))

	// Dump prints the entries in [fromPgn, toPgn).
	Dump(w io.Writer, fromPgn, toPgn uint64)
}

// NewPageTable creates an empty page table that covers numPages pages.
func NewPageTable(numPages uint64) PageTable {
	return &pageTableImpl{
		entries: make([]PTE, numPages),
	}
}

// pageTableImpl is the default implementation of a Page Table
type pageTableImpl struct {
	entries []PTE
}

func (pt *pageTableImpl) NumPages() uint64 {
	return uint64(len(pt.entries))
}

func (pt *pageTableImpl) Get(pgn uint64) PTE {
	pt.pageMustBeInRange(pgn)
	return pt.entries[pgn]
}

func (pt *pageTableImpl) Set(pgn uint64, pte PTE) {
	pt.pageMustBeInRange(pgn)
	pt.entries[pgn] = pte
}

func (pt *pageTableImpl) Clear(pgn uint64) {
	pt.pageMustBeInRange(pgn)
	pt.entries[pgn] = 0
}

func (pt *pageTableImpl) Range(fn func(pgn uint64, pte PTE)) {
	for pgn, pte := range pt.entries {
		if pte.Mapped() {
			fn(uint64(pgn), pte)
		}
	}
}

func (pt *pageTableImpl) Dump(w io.Writer, fromPgn, toPgn uint64) {
	if toPgn > pt.NumPages() {
		toPgn = pt.NumPages()
	}

	fmt.Fprintf(w, "print_pgtbl: %d - %d\n", fromPgn, toPgn)
	for pgn := fromPgn; pgn < toPgn; pgn++ {
		fmt.Fprintf(w, "%08d: %08x\n", pgn*4, uint32(pt.entries[pgn]))
	}
}

func (pt *pageTableImpl) pageMustBeInRange(pgn uint64) {
	if pgn >= uint64(len(pt.entries)) {
		log.Panicf("page %d is beyond the page table", pgn)
	}
}
