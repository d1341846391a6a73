package addrspace

import (
	"io"
	"log"
	"log/slog"
	"sync"

	"github.com/sarchlab/pagesim/mem/storage"
	"github.com/sarchlab/pagesim/mem/vm/mmu"
	"github.com/sarchlab/pagesim/mem/vm/region"
)

// A Builder can build address spaces.
type Builder struct {
	pageSize        uint64
	vmSize          uint64
	symbolTableSize int
	ram             storage.Device
	swaps           []storage.Device
	lock            sync.Locker
	debug           io.Writer
	logger          *slog.Logger
}

// MakeBuilder creates a builder with 256-byte pages, a 4 MiB virtual address
// space, and 30 allocation ids.
func MakeBuilder() Builder {
	return Builder{
		pageSize:        256,
		vmSize:          1 << 22,
		symbolTableSize: 30,
	}
}

// WithPageSize sets the page size in bytes.
func (b Builder) WithPageSize(pageSize uint64) Builder {
	b.pageSize = pageSize
	return b
}

// WithVMSize sets the size of the virtual address space in bytes. The heap
// segment starts at the top of it.
func (b Builder) WithVMSize(vmSize uint64) Builder {
	b.vmSize = vmSize
	return b
}

// WithSymbolTableSize sets the number of allocation ids.
func (b Builder) WithSymbolTableSize(n int) Builder {
	b.symbolTableSize = n
	return b
}

// WithRAM sets the RAM device.
func (b Builder) WithRAM(ram storage.Device) Builder {
	b.ram = ram
	return b
}

// WithSwap sets the swap devices.
func (b Builder) WithSwap(devices ...storage.Device) Builder {
	b.swaps = devices
	return b
}

// WithLock sets the lock shared with other address spaces on the same RAM.
func (b Builder) WithLock(lock sync.Locker) Builder {
	b.lock = lock
	return b
}

// WithDebugWriter makes every read and write print the access, the page
// table, and the RAM content to w.
func (b Builder) WithDebugWriter(w io.Writer) Builder {
	b.debug = w
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(logger *slog.Logger) Builder {
	b.logger = logger
	return b
}

// Build creates an address space with two empty segments.
func (b Builder) Build(name string) *AddressSpace {
	b.sizesMustBeValid()

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	m := mmu.MakeBuilder().
		WithPageSize(b.pageSize).
		WithNumPages(b.vmSize / b.pageSize).
		WithRAM(b.ram).
		WithSwap(b.swaps...).
		WithLock(b.lock).
		WithLogger(logger).
		Build(name + ".MMU")

	as := &AddressSpace{
		name:     name,
		pageSize: b.pageSize,
		vmSize:   b.vmSize,
		mmu:      m,
		symbols:  region.NewSymbolTable(b.symbolTableSize),
		debug:    b.debug,
		logger:   logger,
	}

	as.segments = []*Segment{
		newSegment(DataSegment, 0, GrowUp),
		newSegment(HeapSegment, b.vmSize, GrowDown),
	}

	return as
}

func (b Builder) sizesMustBeValid() {
	if b.pageSize == 0 || b.pageSize&(b.pageSize-1) != 0 {
		log.Panicf("page size %d is not a power of two", b.pageSize)
	}

	if b.vmSize == 0 || b.vmSize%b.pageSize != 0 {
		log.Panicf("virtual memory size %d is not a multiple of page size %d",
			b.vmSize, b.pageSize)
	}

	if b.symbolTableSize <= 0 {
		log.Panicf("symbol table size %d is not positive", b.symbolTableSize)
	}
}
