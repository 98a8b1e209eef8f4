package framebuffer

import (
	"bytes"
	"fmt"
	"os"
	"syscall"

	"github.com/BeatGlow/vbe"
	"github.com/BeatGlow/vbe/internal/ioctl"
)

const (
	// From <linux/fb.h>
	fbioGetVScreenInfo = 0x4600
	fbioGetFScreenInfo = 0x4602
)

// Open a Linux frame buffer device by name, typically /dev/fb0. Requests the
// device can not serve are passed to fallback, which may be nil.
func Open(name string, fallback vbe.Memory) (*Device, error) {
	f, err := os.OpenFile(name, os.O_RDWR, os.ModeDevice)
	if err != nil {
		return nil, err
	}

	var (
		fd     = f.Fd()
		fix    linuxFixScreenInfo
		screen linuxVarScreenInfo
	)
	if err = ioctl.Do(fd, fbioGetFScreenInfo, &fix); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err = ioctl.Do(fd, fbioGetVScreenInfo, &screen); err != nil {
		_ = f.Close()
		return nil, err
	}

	pix, err := syscall.Mmap(int(fd), 0, int(fix.SmemLen), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("framebuffer: map %s: %w", name, err)
	}

	d := New(Info{
		ID:           string(bytes.TrimRight(fix.ID[:], "\x00")),
		Start:        uint64(fix.SmemStart),
		LineLength:   int(fix.LineLength),
		Width:        int(screen.Xres),
		Height:       int(screen.Yres),
		BitsPerPixel: int(screen.BitsPerPixel),
	}, pix, fallback)
	d.close = func() error {
		if err := syscall.Munmap(pix); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	}
	return d, nil
}

// linuxFixScreenInfo is struct fb_fix_screeninfo.
type linuxFixScreenInfo struct {
	ID         [16]byte  // Identification string eg "TT Builtin"
	SmemStart  uintptr   // Start of frame buffer mem
	SmemLen    uint32    // Length of frame buffer mem
	Type       uint32    // FB_TYPE_
	TypeAux    uint32    // Interleave for interleaved Planes
	Visual     uint32    // FB_VISUAL_
	Xpanstep   uint16    // Zero if no hardware panning
	Ypanstep   uint16    // Zero if no hardware panning
	Ywrapstep  uint16    // Zero if no hardware ywrap
	LineLength uint32    // Length of a line in bytes
	MmioStart  uintptr   // Start of Memory Mapped I/O (physical address)
	MmioLen    uint32    // Length of Memory Mapped I/O
	Accel      uint32    // Type of acceleration available
	Capability uint16    // See FB_CAP_
	Reserved   [2]uint16 // Reserved for future compatibility
}

type linuxBitField struct {
	Offset   uint32 // Beginning of bitfield
	Length   uint32 // Length of bitfield
	MsbRight uint32 // != 0 : Most significant bit is right
}

// linuxVarScreenInfo is struct fb_var_screeninfo.
type linuxVarScreenInfo struct {
	Xres                    uint32
	Yres                    uint32
	XresVirtual             uint32
	YresVirtual             uint32
	Xoffset                 uint32
	Yoffset                 uint32
	BitsPerPixel            uint32
	Grayscale               uint32
	Red, Green, Blue, Alpha linuxBitField
	Nonstd                  uint32
	Activate                uint32
	Height                  uint32
	Width                   uint32
	AccelFlags              uint32
	Pixclock                uint32
	LeftMargin              uint32
	RightMargin             uint32
	UpperMargin             uint32
	LowerMargin             uint32
	HsyncLen                uint32
	VsyncLen                uint32
	Sync                    uint32
	Vmode                   uint32
	Rotate                  uint32
	Colorspace              uint32
	Reserved                [4]uint32
}
