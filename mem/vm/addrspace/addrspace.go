// Package addrspace provides the address space of a simulated process: two
// growable segments, symbolic allocations carved out of them, and byte reads
// and writes that go through demand paging.
package addrspace

import (
	"fmt"
	"io"
	"log"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/sarchlab/pagesim/mem/vm/mmu"
	"github.com/sarchlab/pagesim/mem/vm/region"
	"github.com/sarchlab/pagesim/sim/hooking"
)

var (
	// ErrInvalidAllocationID is returned for allocation ids that are out of
	// range or not bound to a region.
	ErrInvalidAllocationID = region.ErrInvalidID

	// ErrInvalidSegment is returned for segment ids with no segment.
	ErrInvalidSegment = errors.New("invalid segment")

	// ErrOverlapRejected is returned when growing a segment would intrude
	// into another segment or leave the virtual address space.
	ErrOverlapRejected = errors.New("segment growth overlaps")

	// ErrOutOfRange is returned when an offset is beyond the allocation.
	ErrOutOfRange = errors.New("offset out of range")

	// ErrAllocationInUse is returned when allocating with an id that is
	// already bound.
	ErrAllocationInUse = errors.New("allocation id in use")

	// ErrInvalidSize is returned for zero-sized allocations and growths.
	ErrInvalidSize = region.ErrInvalidSize
)

// AddressSpace is the memory of one simulated process.
type AddressSpace struct {
	hooking.HookableBase

	name     string
	pageSize uint64
	vmSize   uint64
	mmu      *mmu.MMU
	segments []*Segment
	symbols  *region.SymbolTable

	debug  io.Writer
	logger *slog.Logger
}

// Name returns the name of the address space.
func (as *AddressSpace) Name() string {
	return as.name
}

// PageSize returns the page size in bytes.
func (as *AddressSpace) PageSize() uint64 {
	return as.pageSize
}

// VMSize returns the size of the virtual address space in bytes.
func (as *AddressSpace) VMSize() uint64 {
	return as.vmSize
}

// MMU returns the paging engine backing the address space.
func (as *AddressSpace) MMU() *mmu.MMU {
	return as.mmu
}

// Segments returns a snapshot of the segments, in id order.
func (as *AddressSpace) Segments() []Segment {
	as.mmu.Lock()
	defer as.mmu.Unlock()

	out := make([]Segment, len(as.segments))
	for i, s := range as.segments {
		out[i] = *s
		out[i].freeList = s.freeList.Clone()
	}

	return out
}

// Allocations returns the bound allocation records by id.
func (as *AddressSpace) Allocations() map[int]region.Region {
	as.mmu.Lock()
	defer as.mmu.Unlock()

	out := make(map[int]region.Region, as.symbols.Len())
	as.symbols.Range(func(id int, r region.Region) {
		out[id] = r
	})

	return out
}

// Stats returns the paging counters of the address space.
func (as *AddressSpace) Stats() mmu.Stats {
	as.mmu.Lock()
	defer as.mmu.Unlock()

	return as.mmu.Stats()
}

func (as *AddressSpace) segment(segID int) (*Segment, error) {
	if segID < 0 || segID >= len(as.segments) {
		return nil, errors.Wrapf(ErrInvalidSegment, "segment %d", segID)
	}

	return as.segments[segID], nil
}

// Alloc allocates size bytes in the data segment and binds them to id.
func (as *AddressSpace) Alloc(size uint64, id int) (uint64, error) {
	return as.Allocate(DataSegment, size, id)
}

// Malloc allocates size bytes in the heap segment and binds them to id.
func (as *AddressSpace) Malloc(size uint64, id int) (uint64, error) {
	return as.Allocate(HeapSegment, size, id)
}

// Allocate carves size bytes out of segment segID and binds them to id. If
// no free region fits, the segment grows by whole pages first. It returns
// the start address of the allocation. On failure nothing changes.
func (as *AddressSpace) Allocate(segID int, size uint64, id int) (uint64, error) {
	as.mmu.Lock()
	defer as.mmu.Unlock()

	seg, err := as.segment(segID)
	if err != nil {
		return 0, err
	}

	if !as.symbols.InRange(id) {
		return 0, errors.Wrapf(ErrInvalidAllocationID, "id %d out of range", id)
	}

	if _, err = as.symbols.Get(id); err == nil {
		return 0, errors.Wrapf(ErrAllocationInUse, "id %d", id)
	}

	if size == 0 {
		return 0, errors.Wrapf(ErrInvalidSize, "allocating id %d", id)
	}

	r, err := seg.freeList.Carve(size)
	if errors.Is(err, region.ErrNotFound) {
		if _, err = as.grow(seg, size); err != nil {
			return 0, errors.Wrapf(err, "allocating %d bytes for id %d",
				size, id)
		}

		r, err = seg.freeList.Carve(size)
	}

	if err != nil {
		return 0, errors.Wrapf(err, "allocating %d bytes for id %d", size, id)
	}

	if err = as.symbols.Set(id, r); err != nil {
		_ = seg.freeList.Release(r)
		return 0, err
	}

	seg.advanceBrk(r)

	as.logger.Debug("allocated",
		"as", as.name, "id", id, "seg", segID, "region", r.String())
	as.invokeRegionHook(hooking.HookPosAlloc, id, r)

	return r.Start, nil
}

// Free returns the region bound to id to its segment and unbinds id.
func (as *AddressSpace) Free(id int) error {
	as.mmu.Lock()
	defer as.mmu.Unlock()

	r, err := as.symbols.Get(id)
	if err != nil {
		return err
	}

	seg, err := as.segment(r.SegID)
	if err != nil {
		return err
	}

	if err = seg.freeList.Release(r); err != nil {
		return errors.Wrapf(err, "freeing id %d", id)
	}

	if _, err = as.symbols.Clear(id); err != nil {
		return err
	}

	as.logger.Debug("freed", "as", as.name, "id", id, "region", r.String())
	as.invokeRegionHook(hooking.HookPosFree, id, r)

	return nil
}

// Grow extends segment segID by increment bytes, rounded up to whole pages,
// and maps fresh pages behind the new range. The new range becomes free
// space of the segment. Growth is all-or-nothing.
func (as *AddressSpace) Grow(segID int, increment uint64) (region.Region, error) {
	as.mmu.Lock()
	defer as.mmu.Unlock()

	seg, err := as.segment(segID)
	if err != nil {
		return region.Region{}, err
	}

	return as.grow(seg, increment)
}

func (as *AddressSpace) grow(
	seg *Segment,
	increment uint64,
) (region.Region, error) {
	if increment == 0 {
		return region.Region{}, errors.Wrapf(ErrInvalidSize,
			"growing segment %d", seg.ID)
	}

	if increment > as.vmSize {
		return region.Region{}, errors.Wrapf(ErrOverlapRejected,
			"segment %d by %d bytes exceeds the %d-byte address space",
			seg.ID, increment, as.vmSize)
	}

	inc := as.alignUp(increment)

	start, end, added, ok := seg.extendedBy(inc, as.vmSize)
	if !ok {
		return region.Region{}, errors.Wrapf(ErrOverlapRejected,
			"segment %d by %d bytes leaves [0, %d)", seg.ID, inc, as.vmSize)
	}

	for _, other := range as.segments {
		if other == seg {
			continue
		}

		if overlaps(start, end, other.Start, other.End) {
			return region.Region{}, errors.Wrapf(ErrOverlapRejected,
				"segment %d [%d, %d) and segment %d [%d, %d)",
				seg.ID, start, end, other.ID, other.Start, other.End)
		}
	}

	err := as.mmu.MapRange(added.Start/as.pageSize, inc/as.pageSize)
	if err != nil {
		as.logger.Warn("segment growth failed",
			"as", as.name, "seg", seg.ID, "bytes", inc, "err", err)
		return region.Region{}, errors.Wrapf(err, "growing segment %d", seg.ID)
	}

	seg.Start, seg.End = start, end
	if err = seg.freeList.Release(added); err != nil {
		log.Panicf("cannot donate %s: %v", added, err)
	}

	as.logger.Debug("segment grown",
		"as", as.name, "seg", seg.ID, "region", added.String())
	as.invokeRegionHook(hooking.HookPosGrow, -1, added)

	return added, nil
}

func (as *AddressSpace) alignUp(n uint64) uint64 {
	return (n + as.pageSize - 1) / as.pageSize * as.pageSize
}

// Read returns the byte at offset of allocation id.
func (as *AddressSpace) Read(id int, offset uint64) (byte, error) {
	as.mmu.Lock()
	defer as.mmu.Unlock()

	addr, _, err := as.translate(id, offset)
	if err != nil {
		return 0, err
	}

	value, err := as.mmu.RAM().Read(addr)
	if err != nil {
		return 0, errors.Wrapf(err, "reading id %d offset %d", id, offset)
	}

	if as.debug != nil {
		fmt.Fprintf(as.debug, "read region=%d offset=%d value=%d\n",
			id, offset, value)
		as.dumpDebug()
	}

	return value, nil
}

// Write stores value at offset of allocation id.
func (as *AddressSpace) Write(id int, offset uint64, value byte) error {
	as.mmu.Lock()
	defer as.mmu.Unlock()

	addr, pgn, err := as.translate(id, offset)
	if err != nil {
		return err
	}

	if err = as.mmu.RAM().Write(addr, value); err != nil {
		return errors.Wrapf(err, "writing id %d offset %d", id, offset)
	}

	as.mmu.MarkDirty(pgn)

	if as.debug != nil {
		fmt.Fprintf(as.debug, "write region=%d offset=%d value=%d\n",
			id, offset, value)
		as.dumpDebug()
	}

	return nil
}

// translate returns the RAM address of a byte of an allocation and the
// virtual page that holds it, bringing the page in if needed.
func (as *AddressSpace) translate(
	id int,
	offset uint64,
) (addr, pgn uint64, err error) {
	r, err := as.symbols.Get(id)
	if err != nil {
		return 0, 0, err
	}

	if _, err = as.segment(r.SegID); err != nil {
		return 0, 0, err
	}

	if offset >= r.Size() {
		return 0, 0, errors.Wrapf(ErrOutOfRange,
			"offset %d, id %d holds %d bytes", offset, id, r.Size())
	}

	vaddr := r.Start + offset
	pgn = vaddr / as.pageSize

	fpn, err := as.mmu.Resolve(pgn)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "id %d offset %d", id, offset)
	}

	return fpn*as.pageSize + vaddr%as.pageSize, pgn, nil
}

func (as *AddressSpace) invokeRegionHook(
	pos *hooking.HookPos,
	id int,
	r region.Region,
) {
	if as.NumHooks() == 0 {
		return
	}

	as.InvokeHook(hooking.HookCtx{
		Domain: as,
		Pos:    pos,
		Item: hooking.RegionEvent{
			ID:    id,
			SegID: r.SegID,
			Start: r.Start,
			End:   r.End,
		},
	})
}

// Close returns every frame and swap slot held by the address space.
func (as *AddressSpace) Close() error {
	as.mmu.Lock()
	defer as.mmu.Unlock()

	return as.mmu.Release()
}

func (as *AddressSpace) dumpDebug() {
	as.dumpPageTable(as.debug)
	as.mmu.RAM().Dump(as.debug)
}

// DumpPageTable prints the page table entries of every segment.
func (as *AddressSpace) DumpPageTable(w io.Writer) {
	as.mmu.Lock()
	defer as.mmu.Unlock()

	as.dumpPageTable(w)
}

func (as *AddressSpace) dumpPageTable(w io.Writer) {
	for _, s := range as.segments {
		if s.Size() == 0 {
			continue
		}

		as.mmu.PageTable().Dump(w, s.Start/as.pageSize, s.End/as.pageSize)
	}
}

// Dump prints the segments, their free regions, and the resident pages.
func (as *AddressSpace) Dump(w io.Writer) {
	as.mmu.Lock()
	defer as.mmu.Unlock()

	dumpSegments(w, as.segments)
	for _, s := range as.segments {
		s.freeList.Dump(w)
	}
	as.mmu.Dump(w)
}
