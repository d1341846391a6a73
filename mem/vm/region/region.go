// Package region keeps track of which byte ranges of a segment are free and
// which are bound to a symbolic allocation.
package region

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidSize is returned when carving zero bytes.
	ErrInvalidSize = errors.New("invalid region size")

	// ErrInvalidRegion is returned when releasing an empty or inverted range.
	ErrInvalidRegion = errors.New("invalid region")

	// ErrNotFound is returned when no free region is large enough.
	ErrNotFound = errors.New("no free region fits")

	// ErrInvalidID is returned for allocation ids that are out of range or
	// unset.
	ErrInvalidID = errors.New("invalid allocation id")
)

// A Region is the address range [Start, End) of segment SegID.
type Region struct {
	Start uint64
	End   uint64
	SegID int
}

// Size returns the number of bytes in the region.
func (r Region) Size() uint64 {
	if r.End < r.Start {
		return 0
	}

	return r.End - r.Start
}

// Empty tells if the region covers no bytes.
func (r Region) Empty() bool {
	return r.Start >= r.End
}

func (r Region) String() string {
	return fmt.Sprintf("rg[%d->%d<at>vma=%d]", r.Start, r.End, r.SegID)
}
