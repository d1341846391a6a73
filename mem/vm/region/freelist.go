package region

import (
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"
)

// A FreeList holds the free regions of one segment ordered by start address.
// After every operation no two regions overlap or touch.
type FreeList struct {
	segID   int
	regions []Region
}

// NewFreeList creates an empty free list for a segment.
func NewFreeList(segID int) *FreeList {
	return &FreeList{segID: segID}
}

// Len returns the number of free regions.
func (l *FreeList) Len() int {
	return len(l.regions)
}

// Regions returns a copy of the free regions.
func (l *FreeList) Regions() []Region {
	out := make([]Region, len(l.regions))
	copy(out, l.regions)

	return out
}

// Clone returns an independent copy of the list.
func (l *FreeList) Clone() *FreeList {
	return &FreeList{segID: l.segID, regions: l.Regions()}
}

// FreeBytes returns the total size of all free regions.
func (l *FreeList) FreeBytes() uint64 {
	total := uint64(0)
	for _, r := range l.regions {
		total += r.Size()
	}

	return total
}

// Carve takes size bytes from the first region, in address order, that is
// large enough. The low end of that region is consumed.
func (l *FreeList) Carve(size uint64) (Region, error) {
	if size == 0 {
		return Region{}, ErrInvalidSize
	}

	for i := range l.regions {
		r := &l.regions[i]
		if r.Size() < size {
			continue
		}

		carved := Region{Start: r.Start, End: r.Start + size, SegID: l.segID}

		if r.Size() == size {
			l.regions = append(l.regions[:i], l.regions[i+1:]...)
		} else {
			r.Start += size
		}

		return carved, nil
	}

	return Region{}, errors.Wrapf(ErrNotFound, "%d bytes in segment %d",
		size, l.segID)
}

// Release puts a region back and merges it with its neighbors.
func (l *FreeList) Release(r Region) error {
	if r.Empty() {
		return errors.Wrapf(ErrInvalidRegion, "%d->%d", r.Start, r.End)
	}

	r.SegID = l.segID

	i := sort.Search(len(l.regions), func(k int) bool {
		return l.regions[k].Start > r.Start
	})

	// i is the insertion point; i-1 is the predecessor.
	if i > 0 && r.Start <= l.regions[i-1].End {
		i--
		if r.End > l.regions[i].End {
			l.regions[i].End = r.End
		}
	} else {
		l.regions = append(l.regions, Region{})
		copy(l.regions[i+1:], l.regions[i:])
		l.regions[i] = r
	}

	l.mergeForward(i)

	return nil
}

func (l *FreeList) mergeForward(i int) {
	cur := &l.regions[i]

	j := i + 1
	for j < len(l.regions) && l.regions[j].Start <= cur.End {
		if l.regions[j].End > cur.End {
			cur.End = l.regions[j].End
		}
		j++
	}

	l.regions = append(l.regions[:i+1], l.regions[j:]...)
}

// Dump prints the free regions.
func (l *FreeList) Dump(w io.Writer) {
	fmt.Fprintf(w, "print_list_rg: ")
	if len(l.regions) == 0 {
		fmt.Fprintf(w, "NULL list\n")
		return
	}

	fmt.Fprintf(w, "\n")
	for _, r := range l.regions {
		fmt.Fprintf(w, "%s\n", r)
	}
}
