package addrspace

import (
	"fmt"
	"io"

	"github.com/sarchlab/pagesim/mem/vm/region"
)

// Segment ids.
const (
	DataSegment = 0
	HeapSegment = 1
)

// Direction is the way a segment grows.
type Direction int

// Growth directions.
const (
	GrowUp Direction = iota
	GrowDown
)

func (d Direction) String() string {
	switch d {
	case GrowUp:
		return "up"
	case GrowDown:
		return "down"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// A Segment is a growable range [Start, End) of the virtual address space.
// Brk is the extent handed out to allocations so far. A segment growing up
// moves End and Brk upward from Start; a segment growing down moves Start and
// Brk downward from End.
type Segment struct {
	ID    int
	Start uint64
	End   uint64
	Brk   uint64
	Dir   Direction

	freeList *region.FreeList
}

func newSegment(id int, base uint64, dir Direction) *Segment {
	return &Segment{
		ID:       id,
		Start:    base,
		End:      base,
		Brk:      base,
		Dir:      dir,
		freeList: region.NewFreeList(id),
	}
}

// Size returns the number of mapped bytes.
func (s *Segment) Size() uint64 {
	return s.End - s.Start
}

// FreeRegions returns the free regions in address order.
func (s *Segment) FreeRegions() []region.Region {
	return s.freeList.Regions()
}

// extendedBy returns the segment bounds after growing by inc bytes, and the
// newly covered range. ok is false if the bounds would leave [0, limit).
func (s *Segment) extendedBy(inc, limit uint64) (
	start, end uint64,
	added region.Region,
	ok bool,
) {
	switch s.Dir {
	case GrowUp:
		if s.End > limit || inc > limit-s.End {
			return 0, 0, region.Region{}, false
		}

		added = region.Region{Start: s.End, End: s.End + inc, SegID: s.ID}
		return s.Start, s.End + inc, added, true
	default:
		if inc > s.Start {
			return 0, 0, region.Region{}, false
		}

		added = region.Region{Start: s.Start - inc, End: s.Start, SegID: s.ID}
		return s.Start - inc, s.End, added, true
	}
}

// advanceBrk moves the break pointer to cover r.
func (s *Segment) advanceBrk(r region.Region) {
	switch s.Dir {
	case GrowUp:
		if r.End > s.Brk {
			s.Brk = r.End
		}
	default:
		if r.Start < s.Brk {
			s.Brk = r.Start
		}
	}
}

func overlaps(aStart, aEnd, bStart, bEnd uint64) bool {
	if aStart >= aEnd || bStart >= bEnd {
		return false
	}

	return aStart < bEnd && bStart < aEnd
}

func dumpSegments(w io.Writer, segs []*Segment) {
	fmt.Fprintf(w, "print_list_vma: ")
	if len(segs) == 0 {
		fmt.Fprintf(w, "NULL list\n")
		return
	}

	fmt.Fprintf(w, "\n")
	for _, s := range segs {
		fmt.Fprintf(w, "va[%d->%d]\n", s.Start, s.End)
	}
	fmt.Fprintf(w, "\n")
}
