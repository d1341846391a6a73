// Package storage provides the byte arrays that stand in for RAM and for swap
// devices. Each store is divided into fixed-size frames and keeps its own
// pool of free frames.
package storage

import (
	"fmt"
	"io"
	"log"
	"sort"

	"github.com/pkg/errors"
)

var (
	// ErrAddressOutOfRange is returned when an access falls beyond the
	// capacity of the store.
	ErrAddressOutOfRange = errors.New("address beyond the storage capacity")

	// ErrOutOfFrames is returned when the frame pool is exhausted.
	ErrOutOfFrames = errors.New("out of frames")

	// ErrFrameNotInUse is returned when freeing a frame that is already free
	// or does not exist.
	ErrFrameNotInUse = errors.New("frame not in use")
)

// A Device is a frame-organized byte store.
type Device interface {
	Name() string
	Read(addr uint64) (byte, error)
	Write(addr uint64, value byte) error
	FrameSize() uint64
	NumFrames() uint64
	NumFreeFrames() uint64
	AllocFrame() (uint64, error)
	FreeFrame(fpn uint64) error
	Dump(w io.Writer)
}

// A Storage keeps the bytes of one simulated memory device.
//
// Storage is allocated in frames. A frame that has never been written does
// not occupy host memory and reads as zero.
type Storage struct {
	name      string
	frameSize uint64
	numFrames uint64
	data      map[uint64][]byte

	freeFrames []uint64
	inUse      []bool
}

// NewStorage creates a storage of the given capacity. The capacity must be a
// multiple of the frame size.
func NewStorage(name string, capacity, frameSize uint64) *Storage {
	if frameSize == 0 || capacity%frameSize != 0 {
		log.Panicf("capacity %d is not a multiple of frame size %d",
			capacity, frameSize)
	}

	s := &Storage{
		name:      name,
		frameSize: frameSize,
		numFrames: capacity / frameSize,
		data:      make(map[uint64][]byte),
	}

	s.freeFrames = make([]uint64, s.numFrames)
	for i := range s.freeFrames {
		s.freeFrames[i] = uint64(i)
	}
	s.inUse = make([]bool, s.numFrames)

	return s
}

// Name returns the name of the storage.
func (s *Storage) Name() string {
	return s.name
}

// FrameSize returns the number of bytes in a frame.
func (s *Storage) FrameSize() uint64 {
	return s.frameSize
}

// NumFrames returns the total number of frames.
func (s *Storage) NumFrames() uint64 {
	return s.numFrames
}

// NumFreeFrames returns the number of frames that can still be allocated.
func (s *Storage) NumFreeFrames() uint64 {
	return uint64(len(s.freeFrames))
}

// Capacity returns the size of the storage in bytes.
func (s *Storage) Capacity() uint64 {
	return s.numFrames * s.frameSize
}

func (s *Storage) parseAddress(addr uint64) (fpn, inFrameAddr uint64) {
	return addr / s.frameSize, addr % s.frameSize
}

// Read returns the byte stored at the given physical address.
func (s *Storage) Read(addr uint64) (byte, error) {
	if addr >= s.Capacity() {
		return 0, errors.Wrapf(ErrAddressOutOfRange,
			"%s: read 0x%x", s.name, addr)
	}

	fpn, offset := s.parseAddress(addr)

	unit, ok := s.data[fpn]
	if !ok {
		return 0, nil
	}

	return unit[offset], nil
}

// Write stores a byte at the given physical address.
func (s *Storage) Write(addr uint64, value byte) error {
	if addr >= s.Capacity() {
		return errors.Wrapf(ErrAddressOutOfRange,
			"%s: write 0x%x", s.name, addr)
	}

	fpn, offset := s.parseAddress(addr)

	unit, ok := s.data[fpn]
	if !ok {
		if value == 0 {
			return nil
		}

		unit = make([]byte, s.frameSize)
		s.data[fpn] = unit
	}

	unit[offset] = value

	return nil
}

// AllocFrame takes a frame out of the free pool.
func (s *Storage) AllocFrame() (uint64, error) {
	if len(s.freeFrames) == 0 {
		return 0, errors.Wrap(ErrOutOfFrames, s.name)
	}

	fpn := s.freeFrames[0]
	s.freeFrames = s.freeFrames[1:]
	s.inUse[fpn] = true

	return fpn, nil
}

// FreeFrame returns a frame to the head of the free pool, so the next
// allocation reuses it first.
func (s *Storage) FreeFrame(fpn uint64) error {
	if fpn >= s.numFrames || !s.inUse[fpn] {
		return errors.Wrapf(ErrFrameNotInUse, "%s: frame %d", s.name, fpn)
	}

	s.inUse[fpn] = false
	s.freeFrames = append([]uint64{fpn}, s.freeFrames...)

	return nil
}

// Dump prints every non-zero byte of the storage.
func (s *Storage) Dump(w io.Writer) {
	fpns := make([]uint64, 0, len(s.data))
	for fpn := range s.data {
		fpns = append(fpns, fpn)
	}
	sort.Slice(fpns, func(i, j int) bool { return fpns[i] < fpns[j] })

	fmt.Fprintf(w, "%s dump:\n", s.name)
	for _, fpn := range fpns {
		for offset, v := range s.data[fpn] {
			if v != 0 {
				fmt.Fprintf(w, "BYTE %08x: %d\n",
					fpn*s.frameSize+uint64(offset), v)
			}
		}
	}
}
