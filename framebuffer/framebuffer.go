// Package framebuffer maps the linear frame buffer through a Linux frame buffer
// device (fbdev), such as the ones provided by the vesafb and bochs-drm kernel
// drivers, instead of through /dev/mem.
//
// The device only covers the linear frame buffer. Requests for other physical
// memory, such as the banked window at A000:0000, go to a fallback.
package framebuffer

import (
	"errors"
	"fmt"

	"github.com/BeatGlow/vbe"
	"github.com/BeatGlow/vbe/conn"
)

// Errors
var (
	ErrNotSupported = errors.New("framebuffer: not supported")
	ErrOutside      = errors.New("framebuffer: address outside of the frame buffer")
)

// realModeLimit is the end of the real-mode address space. Drivers that hide
// the physical address report a start of 0; such devices serve every request
// above this limit from the start of the frame buffer.
const realModeLimit = 1 << 20

// Info describes the frame buffer device.
type Info struct {
	ID           string
	Start        uint64 // physical address, 0 if hidden by the driver
	Size         int
	LineLength   int
	Width        int
	Height       int
	BitsPerPixel int
}

func (info Info) String() string {
	return fmt.Sprintf("%s %dx%dx%d, %d KiB at %#x", info.ID, info.Width, info.Height, info.BitsPerPixel, info.Size>>10, info.Start)
}

// Device is a mapped frame buffer device.
type Device struct {
	info     Info
	pix      []byte
	fallback vbe.Memory
	close    func() error
}

// New returns a device on already mapped frame buffer memory.
func New(info Info, pix []byte, fallback vbe.Memory) *Device {
	info.Size = len(pix)
	return &Device{
		info:     info,
		pix:      pix,
		fallback: fallback,
	}
}

// Info about the device.
func (d *Device) Info() Info {
	return d.info
}

func (d *Device) String() string {
	return "framebuffer " + d.info.String()
}

// Map returns a window on the frame buffer if it holds the requested range,
// otherwise the request is passed to the fallback.
func (d *Device) Map(base uint64, size int) (vbe.Window, error) {
	if size >= 0 && size <= len(d.pix) {
		start := d.info.Start
		if start == 0 && base >= realModeLimit {
			start = base
		}
		if start != 0 && base >= start && base-start <= uint64(len(d.pix)-size) {
			off := int(base - start)
			return &conn.Window{Pix: d.pix[off : off+size]}, nil
		}
	}
	if d.fallback != nil {
		return d.fallback.Map(base, size)
	}
	return nil, fmt.Errorf("%w: %d bytes at %#x", ErrOutside, size, base)
}

// Close unmaps the frame buffer.
func (d *Device) Close() error {
	if d.close == nil {
		return nil
	}
	err := d.close()
	d.close = nil
	d.pix = nil
	return err
}

var _ vbe.Memory = (*Device)(nil)
