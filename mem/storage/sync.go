package storage

import (
	"io"
	"sync"
)

// NewSyncDevice wraps a device so that every call runs under one mutex. Use
// it when address spaces on different goroutines share a RAM or swap device.
func NewSyncDevice(d Device) Device {
	return &syncDevice{inner: d}
}

type syncDevice struct {
	sync.Mutex
	inner Device
}

func (d *syncDevice) Name() string {
	return d.inner.Name()
}

func (d *syncDevice) Read(addr uint64) (byte, error) {
	d.Lock()
	defer d.Unlock()

	return d.inner.Read(addr)
}

func (d *syncDevice) Write(addr uint64, value byte) error {
	d.Lock()
	defer d.Unlock()

	return d.inner.Write(addr, value)
}

func (d *syncDevice) FrameSize() uint64 {
	return d.inner.FrameSize()
}

func (d *syncDevice) NumFrames() uint64 {
	return d.inner.NumFrames()
}

func (d *syncDevice) NumFreeFrames() uint64 {
	d.Lock()
	defer d.Unlock()

	return d.inner.NumFreeFrames()
}

func (d *syncDevice) AllocFrame() (uint64, error) {
	d.Lock()
	defer d.Unlock()

	return d.inner.AllocFrame()
}

func (d *syncDevice) FreeFrame(fpn uint64) error {
	d.Lock()
	defer d.Unlock()

	return d.inner.FreeFrame(fpn)
}

func (d *syncDevice) Dump(w io.Writer) {
	d.Lock()
	defer d.Unlock()

	d.inner.Dump(w)
}
