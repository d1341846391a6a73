// Package mmu implements demand paging: it resolves virtual pages to RAM
// frames, evicting resident pages to swap in FIFO order when RAM is full.
package mmu

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"sync"

	"github.com/pkg/errors"
	"github.com/sarchlab/pagesim/mem/storage"
	"github.com/sarchlab/pagesim/mem/vm"
	"github.com/sarchlab/pagesim/sim/hooking"
)

var (
	// ErrNoVictimAvailable is returned when a page must be evicted but no
	// page is resident.
	ErrNoVictimAvailable = errors.New("no victim page available")

	// ErrOutOfSwap is returned when every swap device is full.
	ErrOutOfSwap = errors.New("out of swap")

	// ErrInvalidPage is returned for page numbers beyond the page table.
	ErrInvalidPage = errors.New("invalid page")
)

// Stats counts paging activity.
type Stats struct {
	Faults      uint64
	Evictions   uint64
	SwapIns     uint64
	ZeroFills   uint64
	MappedPages uint64
}

// MMU owns the page table of one process and moves its pages between RAM and
// swap.
//
// MMU methods do not synchronize by themselves. Callers hold Lock for the
// duration of one operation, including the byte access that follows a
// Resolve.
type MMU struct {
	hooking.HookableBase

	name      string
	pageSize  uint64
	pageTable vm.PageTable
	ram       storage.Device
	swaps     []storage.Device

	activeSwap   int
	victimFinder VictimFinder

	lock   sync.Locker
	logger *slog.Logger
	stats  Stats
}

// Name returns the name of the MMU.
func (m *MMU) Name() string {
	return m.name
}

// Lock acquires the lock guarding the MMU and the devices it shares.
func (m *MMU) Lock() {
	m.lock.Lock()
}

// Unlock releases the lock.
func (m *MMU) Unlock() {
	m.lock.Unlock()
}

// PageSize returns the page size in bytes.
func (m *MMU) PageSize() uint64 {
	return m.pageSize
}

// PageTable returns the page table.
func (m *MMU) PageTable() vm.PageTable {
	return m.pageTable
}

// RAM returns the device that holds resident pages.
func (m *MMU) RAM() storage.Device {
	return m.ram
}

// Swaps returns the swap devices.
func (m *MMU) Swaps() []storage.Device {
	return m.swaps
}

// ActiveSwap returns the index of the swap device tried first.
func (m *MMU) ActiveSwap() int {
	return m.activeSwap
}

// ResidentPages returns resident pages, next victim first.
func (m *MMU) ResidentPages() []uint64 {
	return m.victimFinder.Pages()
}

// Stats returns the paging counters.
func (m *MMU) Stats() Stats {
	return m.stats
}

// Resolve returns the RAM frame that holds page pgn, bringing the page in if
// it is not resident.
func (m *MMU) Resolve(pgn uint64) (uint64, error) {
	if pgn >= m.pageTable.NumPages() {
		return 0, errors.Wrapf(ErrInvalidPage, "page %d", pgn)
	}

	pte := m.pageTable.Get(pgn)
	if pte.Present() {
		return pte.Frame(), nil
	}

	m.stats.Faults++
	m.invokePageHook(hooking.HookPosPageFault, hooking.PageEvent{Page: pgn})

	fpn, err := m.acquireFrame(pgn)
	if err != nil {
		return 0, errors.Wrapf(err, "resolving page %d", pgn)
	}

	if pte.Swapped() {
		err = m.swapIn(pgn, pte, fpn)
	} else {
		err = storage.ZeroFrame(m.ram, fpn)
		m.stats.ZeroFills++
	}

	if err != nil {
		m.releaseFrame(fpn)
		return 0, errors.Wrapf(err, "resolving page %d", pgn)
	}

	m.pageTable.Set(pgn, vm.PTE(0).EncodeResident(fpn))
	m.victimFinder.Add(pgn)

	return fpn, nil
}

// MarkDirty sets the dirty bit of a resident page.
func (m *MMU) MarkDirty(pgn uint64) {
	pte := m.pageTable.Get(pgn)
	if pte.Present() {
		m.pageTable.Set(pgn, pte.WithDirty(true))
	}
}

// MapRange maps n fresh, zeroed pages starting at startPgn. Either all pages
// are mapped or none is.
func (m *MMU) MapRange(startPgn, n uint64) error {
	if startPgn+n > m.pageTable.NumPages() {
		return errors.Wrapf(ErrInvalidPage, "pages %d-%d",
			startPgn, startPgn+n)
	}

	for pgn := startPgn; pgn < startPgn+n; pgn++ {
		if m.pageTable.Get(pgn).Mapped() {
			log.Panicf("page %d is already mapped", pgn)
		}
	}

	if err := m.mustHaveCapacityFor(n); err != nil {
		return err
	}

	for i := uint64(0); i < n; i++ {
		pgn := startPgn + i

		fpn, err := m.acquireFrame(pgn)
		if err != nil {
			m.unmapRange(startPgn, i)
			return errors.Wrapf(err, "mapping page %d", pgn)
		}

		if err = storage.ZeroFrame(m.ram, fpn); err != nil {
			m.releaseFrame(fpn)
			m.unmapRange(startPgn, i)
			return errors.Wrapf(err, "mapping page %d", pgn)
		}

		m.pageTable.Set(pgn, vm.PTE(0).EncodeResident(fpn))
		m.victimFinder.Add(pgn)
		m.stats.MappedPages++

		m.invokePageHook(hooking.HookPosPageMap,
			hooking.PageEvent{Page: pgn, Frame: fpn})
	}

	return nil
}

// mustHaveCapacityFor checks that n pages can be made resident without
// evicting any of the n pages themselves and without running out of swap.
func (m *MMU) mustHaveCapacityFor(n uint64) error {
	free := m.ram.NumFreeFrames()
	if n <= free {
		return nil
	}

	toEvict := n - free
	if toEvict > uint64(m.victimFinder.Len()) {
		return errors.Wrapf(storage.ErrOutOfFrames,
			"%d pages requested, %d frames free, %d pages evictable",
			n, free, m.victimFinder.Len())
	}

	if toEvict > m.freeSwapFrames() {
		return errors.Wrapf(ErrOutOfSwap,
			"%d evictions needed, %d swap frames free",
			toEvict, m.freeSwapFrames())
	}

	return nil
}

func (m *MMU) freeSwapFrames() uint64 {
	total := uint64(0)
	for _, s := range m.swaps {
		total += s.NumFreeFrames()
	}

	return total
}

func (m *MMU) unmapRange(startPgn, n uint64) {
	for pgn := startPgn; pgn < startPgn+n; pgn++ {
		pte := m.pageTable.Get(pgn)
		m.releaseFrame(pte.Frame())
		m.pageTable.Clear(pgn)
		m.victimFinder.Remove(pgn)
		m.stats.MappedPages--
	}
}

func (m *MMU) releaseFrame(fpn uint64) {
	if err := m.ram.FreeFrame(fpn); err != nil {
		log.Panicf("cannot return frame %d: %v", fpn, err)
	}
}

// acquireFrame takes a free RAM frame, or evicts a page to make one.
func (m *MMU) acquireFrame(pgn uint64) (uint64, error) {
	fpn, err := m.ram.AllocFrame()
	if err == nil {
		return fpn, nil
	}

	if !errors.Is(err, storage.ErrOutOfFrames) {
		return 0, err
	}

	return m.evict(pgn)
}

// evict moves the oldest resident page to swap and returns its frame, which
// now belongs to the caller.
func (m *MMU) evict(faultingPgn uint64) (uint64, error) {
	victim, found := m.victimFinder.FindVictim()
	if !found {
		return 0, ErrNoVictimAvailable
	}

	if victim == faultingPgn {
		log.Panicf("page %d selected to evict itself", victim)
	}

	vicPTE := m.pageTable.Get(victim)
	vicFPN := vicPTE.Frame()

	swpType, swpOff, err := m.allocSwapFrame()
	if err != nil {
		m.logger.Warn("eviction failed",
			"mmu", m.name, "victim", victim, "err", err)
		return 0, err
	}

	swap := m.swaps[swpType]
	if err := storage.CopyFrame(m.ram, vicFPN, swap, swpOff); err != nil {
		_ = swap.FreeFrame(swpOff)
		return 0, err
	}

	m.victimFinder.Remove(victim)
	m.pageTable.Set(victim, vicPTE.EncodeSwapped(swpType, swpOff))
	m.stats.Evictions++

	m.invokePageHook(hooking.HookPosPageEvict, hooking.PageEvent{
		Page:       victim,
		Frame:      vicFPN,
		SwapType:   swpType,
		SwapOffset: swpOff,
	})

	return vicFPN, nil
}

// allocSwapFrame takes a frame from the active swap device, or from the
// first other device that has one. The device that serves the request
// becomes active.
func (m *MMU) allocSwapFrame() (int, uint64, error) {
	if len(m.swaps) == 0 {
		return 0, 0, errors.Wrap(ErrOutOfSwap, "no swap device")
	}

	order := make([]int, 0, len(m.swaps))
	order = append(order, m.activeSwap)
	for i := range m.swaps {
		if i != m.activeSwap {
			order = append(order, i)
		}
	}

	for _, i := range order {
		fpn, err := m.swaps[i].AllocFrame()
		if err == nil {
			m.activeSwap = i
			return i, fpn, nil
		}

		if !errors.Is(err, storage.ErrOutOfFrames) {
			return 0, 0, err
		}
	}

	return 0, 0, ErrOutOfSwap
}

func (m *MMU) swapIn(pgn uint64, pte vm.PTE, fpn uint64) error {
	swpType := pte.SwapType()
	swpOff := pte.SwapOffset()
	swap := m.swaps[swpType]

	if err := storage.CopyFrame(swap, swpOff, m.ram, fpn); err != nil {
		return err
	}

	if err := swap.FreeFrame(swpOff); err != nil {
		return err
	}

	m.stats.SwapIns++

	m.invokePageHook(hooking.HookPosSwapIn, hooking.PageEvent{
		Page:       pgn,
		Frame:      fpn,
		SwapType:   swpType,
		SwapOffset: swpOff,
	})

	return nil
}

// Release returns every frame and swap slot held by the page table and
// leaves the table empty.
func (m *MMU) Release() error {
	var firstErr error

	m.pageTable.Range(func(pgn uint64, pte vm.PTE) {
		var err error
		if pte.Present() {
			err = m.ram.FreeFrame(pte.Frame())
		} else {
			err = m.swaps[pte.SwapType()].FreeFrame(pte.SwapOffset())
		}

		if err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "releasing page %d", pgn)
		}

		m.pageTable.Clear(pgn)
		m.victimFinder.Remove(pgn)
	})

	m.stats.MappedPages = 0

	return firstErr
}

func (m *MMU) invokePageHook(pos *hooking.HookPos, e hooking.PageEvent) {
	if m.NumHooks() == 0 {
		return
	}

	m.InvokeHook(hooking.HookCtx{
		Domain: m,
		Pos:    pos,
		Item:   e,
	})
}

// Dump prints the resident page queue and the paging counters.
func (m *MMU) Dump(w io.Writer) {
	dumpPages(w, m.victimFinder.Pages())
	fmt.Fprintf(w, "faults=%d evictions=%d swapins=%d zerofills=%d\n",
		m.stats.Faults, m.stats.Evictions, m.stats.SwapIns, m.stats.ZeroFills)
}
