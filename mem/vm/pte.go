// Package vm provides the page table of a simulated process.
package vm

import (
	"log"
)

// A PTE is a page table entry packed into 32 bits.
//
//	bit 31      present: the page is resident in RAM
//	bit 30      swapped: the page lives on a swap device
//	bit 28      dirty
//	bits 0-12   frame number, when present
//	bits 0-4    swap type (swap device index), when swapped
//	bits 5-25   swap offset (swap frame number), when swapped
//
// The zero PTE is a page that has never been mapped.
type PTE uint32

const (
	ptePresentBit PTE = 1 << 31
	pteSwappedBit PTE = 1 << 30
	pteDirtyBit   PTE = 1 << 28

	pteFrameLoBit = 0
	pteFrameMask  = PTE(1<<13-1) << pteFrameLoBit

	pteSwapTypeLoBit = 0
	pteSwapTypeMask  = PTE(1<<5-1) << pteSwapTypeLoBit

	pteSwapOffsetLoBit = 5
	pteSwapOffsetMask  = PTE(1<<21-1) << pteSwapOffsetLoBit
)

// Field limits of the encoding.
const (
	MaxFrames      = uint64(pteFrameMask>>pteFrameLoBit) + 1
	MaxSwapDevices = int(pteSwapTypeMask>>pteSwapTypeLoBit) + 1
	MaxSwapFrames  = uint64(pteSwapOffsetMask>>pteSwapOffsetLoBit) + 1
)

// EncodeResident returns the entry of a page resident in frame fpn. The
// swapped bit and the swap fields are cleared; the dirty bit is cleared as
// the frame content has just been established.
func (p PTE) EncodeResident(fpn uint64) PTE {
	if fpn >= MaxFrames {
		log.Panicf("frame number %d does not fit in a PTE", fpn)
	}

	p &^= pteSwappedBit | pteDirtyBit | pteSwapTypeMask | pteSwapOffsetMask
	p |= ptePresentBit
	p |= PTE(fpn) << pteFrameLoBit

	return p
}

// EncodeSwapped returns the entry of a page stored in frame swpOff of swap
// device swpType. The present bit and the frame field are cleared.
func (p PTE) EncodeSwapped(swpType int, swpOff uint64) PTE {
	if swpType < 0 || swpType >= MaxSwapDevices {
		log.Panicf("swap type %d does not fit in a PTE", swpType)
	}

	if swpOff >= MaxSwapFrames {
		log.Panicf("swap offset %d does not fit in a PTE", swpOff)
	}

	p &^= ptePresentBit | pteDirtyBit | pteFrameMask | pteSwapOffsetMask
	p |= pteSwappedBit
	p |= PTE(swpType) << pteSwapTypeLoBit
	p |= PTE(swpOff) << pteSwapOffsetLoBit

	return p
}

// WithDirty sets or clears the dirty bit.
func (p PTE) WithDirty(dirty bool) PTE {
	if dirty {
		return p | pteDirtyBit
	}

	return p &^ pteDirtyBit
}

// Present tells if the page is resident in RAM.
func (p PTE) Present() bool {
	return p&ptePresentBit != 0
}

// Swapped tells if the page is stored on a swap device.
func (p PTE) Swapped() bool {
	return p&pteSwappedBit != 0
}

// Mapped tells if the page is either resident or swapped.
func (p PTE) Mapped() bool {
	return p.Present() || p.Swapped()
}

// Dirty tells if the page has been written since it was made resident.
func (p PTE) Dirty() bool {
	return p&pteDirtyBit != 0
}

// Frame returns the frame number of a resident page.
func (p PTE) Frame() uint64 {
	if !p.Present() {
		log.Panicf("PTE 0x%08x is not present", uint32(p))
	}

	return uint64((p & pteFrameMask) >> pteFrameLoBit)
}

// SwapType returns the swap device index of a swapped page.
func (p PTE) SwapType() int {
	if !p.Swapped() {
		log.Panicf("PTE 0x%08x is not swapped", uint32(p))
	}

	return int((p & pteSwapTypeMask) >> pteSwapTypeLoBit)
}

// SwapOffset returns the swap frame number of a swapped page.
func (p PTE) SwapOffset() uint64 {
	if !p.Swapped() {
		log.Panicf("PTE 0x%08x is not swapped", uint32(p))
	}

	return uint64((p & pteSwapOffsetMask) >> pteSwapOffsetLoBit)
}
