package storage

import "github.com/pkg/errors"

// CopyFrame copies one frame between devices byte by byte. Both devices must
// use the same frame size.
func CopyFrame(src Device, srcFPN uint64, dst Device, dstFPN uint64) error {
	frameSize := src.FrameSize()
	if dst.FrameSize() != frameSize {
		return errors.Errorf("frame size mismatch: %s has %d, %s has %d",
			src.Name(), frameSize, dst.Name(), dst.FrameSize())
	}

	for i := uint64(0); i < frameSize; i++ {
		data, err := src.Read(srcFPN*frameSize + i)
		if err != nil {
			return err
		}

		err = dst.Write(dstFPN*frameSize+i, data)
		if err != nil {
			return err
		}
	}

	return nil
}

// ZeroFrame clears a frame.
func ZeroFrame(d Device, fpn uint64) error {
	frameSize := d.FrameSize()
	for i := uint64(0); i < frameSize; i++ {
		if err := d.Write(fpn*frameSize+i, 0); err != nil {
			return err
		}
	}

	return nil
}
