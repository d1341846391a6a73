package monitoring

import (
	"github.com/sarchlab/pagesim/mem/vm/addrspace"
	"github.com/sarchlab/pagesim/mem/vm/mmu"
	"github.com/sarchlab/pagesim/mem/vm/region"
)

// SpaceState is a point-in-time copy of an address space.
type SpaceState struct {
	Name          string
	PageSize      uint64
	VMSize        uint64
	Segments      []SegmentState
	Allocations   []AllocationState
	ResidentPages []uint64
	Stats         mmu.Stats
}

// SegmentState is a copy of one segment.
type SegmentState struct {
	ID          int
	Start       uint64
	End         uint64
	Brk         uint64
	Dir         string
	FreeRegions []region.Region
}

// AllocationState is one bound allocation id.
type AllocationState struct {
	ID    int
	SegID int
	Start uint64
	End   uint64
}

func takeSnapshot(as *addrspace.AddressSpace) *SpaceState {
	s := &SpaceState{
		Name:     as.Name(),
		PageSize: as.PageSize(),
		VMSize:   as.VMSize(),
	}

	for _, seg := range as.Segments() {
		s.Segments = append(s.Segments, SegmentState{
			ID:          seg.ID,
			Start:       seg.Start,
			End:         seg.End,
			Brk:         seg.Brk,
			Dir:         seg.Dir.String(),
			FreeRegions: seg.FreeRegions(),
		})
	}

	allocs := as.Allocations()
	for id := 0; len(s.Allocations) < len(allocs); id++ {
		r, ok := allocs[id]
		if !ok {
			continue
		}

		s.Allocations = append(s.Allocations, AllocationState{
			ID:    id,
			SegID: r.SegID,
			Start: r.Start,
			End:   r.End,
		})
	}

	m := as.MMU()
	m.Lock()
	s.ResidentPages = m.ResidentPages()
	s.Stats = m.Stats()
	m.Unlock()

	return s
}
