package mmu

import (
	"container/list"
	"fmt"
	"io"
)

// A VictimFinder decides which resident page should be evicted.
type VictimFinder interface {
	// Add records that a page became resident.
	Add(pgn uint64)

	// Remove forgets a page. It returns false if the page is not tracked.
	Remove(pgn uint64) bool

	// FindVictim returns the page to evict next without removing it.
	FindVictim() (uint64, bool)

	// Len returns the number of tracked pages.
	Len() int

	// Pages returns the tracked pages in eviction order.
	Pages() []uint64
}

// FIFOVictimFinder evicts the page that became resident first. Accesses to a
// resident page do not change its position.
type FIFOVictimFinder struct {
	queue *list.List
	elems map[uint64]*list.Element
}

// NewFIFOVictimFinder returns an empty FIFO victim finder.
func NewFIFOVictimFinder() *FIFOVictimFinder {
	return &FIFOVictimFinder{
		queue: list.New(),
		elems: make(map[uint64]*list.Element),
	}
}

// Add appends the page as the newest one. A page that is already tracked
// keeps its position.
func (f *FIFOVictimFinder) Add(pgn uint64) {
	if _, ok := f.elems[pgn]; ok {
		return
	}

	f.elems[pgn] = f.queue.PushBack(pgn)
}

// Remove drops the page from the queue.
func (f *FIFOVictimFinder) Remove(pgn uint64) bool {
	elem, ok := f.elems[pgn]
	if !ok {
		return false
	}

	f.queue.Remove(elem)
	delete(f.elems, pgn)

	return true
}

// FindVictim returns the oldest page.
func (f *FIFOVictimFinder) FindVictim() (uint64, bool) {
	front := f.queue.Front()
	if front == nil {
		return 0, false
	}

	return front.Value.(uint64), true
}

// Len returns the number of resident pages tracked.
func (f *FIFOVictimFinder) Len() int {
	return f.queue.Len()
}

// Pages returns the pages, oldest first.
func (f *FIFOVictimFinder) Pages() []uint64 {
	out := make([]uint64, 0, f.queue.Len())
	for e := f.queue.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(uint64))
	}

	return out
}

func dumpPages(w io.Writer, pages []uint64) {
	fmt.Fprintf(w, "print_list_pgn: ")
	if len(pages) == 0 {
		fmt.Fprintf(w, "NULL list\n")
		return
	}

	fmt.Fprintf(w, "\n")
	for _, pgn := range pages {
		fmt.Fprintf(w, "va[%d]-\n", pgn)
	}
}
