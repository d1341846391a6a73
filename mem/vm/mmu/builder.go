package mmu

import (
	"io"
	"log"
	"log/slog"
	"sync"

	"github.com/sarchlab/pagesim/mem/storage"
	"github.com/sarchlab/pagesim/mem/vm"
)

// A Builder can build MMUs.
type Builder struct {
	pageSize     uint64
	numPages     uint64
	ram          storage.Device
	swaps        []storage.Device
	lock         sync.Locker
	logger       *slog.Logger
	pageTable    vm.PageTable
	victimFinder VictimFinder
}

// MakeBuilder creates a new builder with 256-byte pages and a 4 MiB virtual
// address space.
func MakeBuilder() Builder {
	return Builder{
		pageSize: 256,
		numPages: 1 << 14,
	}
}

// WithPageSize sets the page size in bytes.
func (b Builder) WithPageSize(pageSize uint64) Builder {
	b.pageSize = pageSize
	return b
}

// WithNumPages sets the number of virtual pages covered by the page table.
func (b Builder) WithNumPages(n uint64) Builder {
	b.numPages = n
	return b
}

// WithRAM sets the device that backs resident pages.
func (b Builder) WithRAM(ram storage.Device) Builder {
	b.ram = ram
	return b
}

// WithSwap sets the swap devices, in swap-type order.
func (b Builder) WithSwap(devices ...storage.Device) Builder {
	b.swaps = devices
	return b
}

// WithLock sets the lock that serializes accesses. MMUs that share a RAM
// device should share a lock.
func (b Builder) WithLock(lock sync.Locker) Builder {
	b.lock = lock
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(logger *slog.Logger) Builder {
	b.logger = logger
	return b
}

// WithPageTable sets the page table that the MMU uses.
func (b Builder) WithPageTable(pageTable vm.PageTable) Builder {
	b.pageTable = pageTable
	return b
}

// WithVictimFinder replaces the FIFO victim finder.
func (b Builder) WithVictimFinder(f VictimFinder) Builder {
	b.victimFinder = f
	return b
}

// Build returns a newly created MMU.
func (b Builder) Build(name string) *MMU {
	b.devicesMustMatchPageSize()

	m := &MMU{
		name:         name,
		pageSize:     b.pageSize,
		ram:          b.ram,
		swaps:        b.swaps,
		lock:         b.lock,
		logger:       b.logger,
		pageTable:    b.pageTable,
		victimFinder: b.victimFinder,
	}

	if m.lock == nil {
		m.lock = &sync.Mutex{}
	}

	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if m.pageTable == nil {
		m.pageTable = vm.NewPageTable(b.numPages)
	} else if m.pageTable.NumPages() != b.numPages {
		log.Panicf("page table covers %d pages, MMU expects %d",
			m.pageTable.NumPages(), b.numPages)
	}

	if m.victimFinder == nil {
		m.victimFinder = NewFIFOVictimFinder()
	}

	return m
}

func (b Builder) devicesMustMatchPageSize() {
	if b.ram == nil {
		log.Panic("RAM is not set")
	}

	if b.ram.FrameSize() != b.pageSize {
		log.Panicf("RAM frame size %d does not match page size %d",
			b.ram.FrameSize(), b.pageSize)
	}

	if b.ram.NumFrames() > vm.MaxFrames {
		log.Panicf("RAM has %d frames, a PTE can address %d",
			b.ram.NumFrames(), vm.MaxFrames)
	}

	if len(b.swaps) > vm.MaxSwapDevices {
		log.Panicf("%d swap devices, at most %d supported",
			len(b.swaps), vm.MaxSwapDevices)
	}

	for _, s := range b.swaps {
		if s.FrameSize() != b.pageSize {
			log.Panicf("swap %s frame size %d does not match page size %d",
				s.Name(), s.FrameSize(), b.pageSize)
		}

		if s.NumFrames() > vm.MaxSwapFrames {
			log.Panicf("swap %s has %d frames, a PTE can address %d",
				s.Name(), s.NumFrames(), vm.MaxSwapFrames)
		}
	}
}
