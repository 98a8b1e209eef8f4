package emu

import (
	"image"
	"image/color"

	"github.com/BeatGlow/vbe/pixel"
)

// VGA register ports.
const (
	portSequencerIndex = 0x3C4
	portSequencerData  = 0x3C5
	portDACMask        = 0x3C6
	portDACReadIndex   = 0x3C7
	portDACWriteIndex  = 0x3C8
	portDACData        = 0x3C9
	portGraphicsIndex  = 0x3CE
	portGraphicsData   = 0x3CF
)

// Sequencer and graphics controller registers.
const (
	seqMapMask   = 0x02
	gcSetReset   = 0x00
	gcEnableSet  = 0x01
	gcDataRotate = 0x03
	gcReadMap    = 0x04
	gcMode       = 0x05
	gcBitMask    = 0x08
)

// Data rotate register logical operations.
const (
	opReplace = iota
	opAnd
	opOr
	opXor
)

type vgaState struct {
	seqIndex uint8
	seq      [8]uint8
	gcIndex  uint8
	gc       [16]uint8
	latch    [4]uint8

	dacMask       uint8
	dacWriteIndex uint8
	dacWritePhase uint8 // 0=R, 1=G, 2=B
	dacReadIndex  uint8
	dacReadPhase  uint8
}

// reset puts the registers in the state the BIOS leaves them after a mode set.
func (v *vgaState) reset() {
	*v = vgaState{dacMask: 0xff}
	v.seq[seqMapMask] = 0x0f
	v.gc[gcBitMask] = 0xff
}

// Out writes a byte to a VGA register port. Writes to other ports are ignored.
func (a *Adapter) Out(port uint16, value byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.out(port, value)
	return nil
}

// OutWord writes the low byte to port and the high byte to port+1.
func (a *Adapter) OutWord(port uint16, value uint16) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.out(port, byte(value))
	a.out(port+1, byte(value>>8))
	return nil
}

// In reads a byte from a VGA register port.
func (a *Adapter) In(port uint16) (byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.in(port), nil
}

// InWord reads the low byte from port and the high byte from port+1.
func (a *Adapter) InWord(port uint16) (uint16, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	lo := a.in(port)
	hi := a.in(port + 1)
	return uint16(hi)<<8 | uint16(lo), nil
}

func (a *Adapter) out(port uint16, value byte) {
	v := &a.vga
	switch port {
	case portSequencerIndex:
		v.seqIndex = value & 0x07
	case portSequencerData:
		v.seq[v.seqIndex] = value
	case portGraphicsIndex:
		v.gcIndex = value & 0x0f
	case portGraphicsData:
		v.gc[v.gcIndex] = value
	case portDACMask:
		v.dacMask = value
	case portDACReadIndex:
		v.dacReadIndex = value
		v.dacReadPhase = 0
	case portDACWriteIndex:
		v.dacWriteIndex = value
		v.dacWritePhase = 0
	case portDACData:
		c := &a.dac[v.dacWriteIndex]
		switch v.dacWritePhase {
		case 0:
			c.R = value & 0x3f
		case 1:
			c.G = value & 0x3f
		case 2:
			c.B = value & 0x3f
		}
		if v.dacWritePhase++; v.dacWritePhase == 3 {
			v.dacWritePhase = 0
			v.dacWriteIndex++
		}
	}
}

func (a *Adapter) in(port uint16) byte {
	v := &a.vga
	switch port {
	case portSequencerIndex:
		return v.seqIndex
	case portSequencerData:
		return v.seq[v.seqIndex]
	case portGraphicsIndex:
		return v.gcIndex
	case portGraphicsData:
		return v.gc[v.gcIndex]
	case portDACMask:
		return v.dacMask
	case portDACWriteIndex:
		return v.dacWriteIndex
	case portDACData:
		var (
			c     = a.dac[v.dacReadIndex]
			value byte
		)
		switch v.dacReadPhase {
		case 0:
			value = c.R
		case 1:
			value = c.G
		case 2:
			value = c.B
		}
		if v.dacReadPhase++; v.dacReadPhase == 3 {
			v.dacReadPhase = 0
			v.dacReadIndex++
		}
		return value
	default:
		return 0xff
	}
}

// planeSize is the size of a single bit plane.
func (a *Adapter) planeSize() int {
	return len(a.vram) / 4
}

// readPlanar loads the latches from all planes at offset and returns the byte
// of the plane selected by the read map register.
func (a *Adapter) readPlanar(offset int) byte {
	v := &a.vga
	size := a.planeSize()
	for plane := range v.latch {
		v.latch[plane] = a.vram[plane*size+offset]
	}
	return v.latch[v.gc[gcReadMap]&3]
}

// writePlanar writes a byte to the planes enabled in the map mask, combining
// the data with the latches through the bit mask.
func (a *Adapter) writePlanar(offset int, value byte) {
	var (
		v       = &a.vga
		size    = a.planeSize()
		mapMask = v.seq[seqMapMask]
		bitMask = v.gc[gcBitMask]
		op      = v.gc[gcDataRotate] >> 3 & 3
		mode    = v.gc[gcMode] & 3
	)
	for plane := 0; plane < 4; plane++ {
		if mapMask&(1<<plane) == 0 {
			continue
		}

		var data byte
		switch mode {
		case 2:
			// The color bit of the plane is expanded to all bits.
			if value&(1<<plane) != 0 {
				data = 0xff
			}
		case 1:
			data = v.latch[plane]
		default:
			data = value
			if v.gc[gcEnableSet]&(1<<plane) != 0 {
				data = 0
				if v.gc[gcSetReset]&(1<<plane) != 0 {
					data = 0xff
				}
			}
		}

		latch := v.latch[plane]
		if mode != 1 {
			switch op {
			case opAnd:
				data &= latch
			case opOr:
				data |= latch
			case opXor:
				data ^= latch
			}
			data = data&bitMask | latch&^bitMask
		}
		a.vram[plane*size+offset] = data
	}
}

// Palette returns the DAC palette.
func (a *Adapter) Palette() color.Palette {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.palette()
}

func (a *Adapter) palette() color.Palette {
	p := make(color.Palette, len(a.dac))
	for i, c := range a.dac {
		p[i] = c
	}
	return p
}

// Image returns a copy of the visible screen. In text mode and in modes that
// can not be rendered, an empty image is returned.
func (a *Adapter) Image() image.Image {
	a.mu.Lock()
	defer a.mu.Unlock()

	m := a.mode
	if m == nil {
		return image.NewRGBA(image.Rectangle{})
	}

	switch {
	case m.Planar():
		size := a.planeSize()
		img := &pixel.PlanarImage{
			Buffer: pixel.Buffer{
				Rect:   image.Rect(0, 0, m.Width, m.Height),
				Pix:    append([]byte(nil), a.vram...),
				Stride: m.BytesPerLine(),
			},
			PlaneSize: size,
			Palette:   a.palette()[:16],
		}
		return img
	case m.BitsPerPixel == 8:
		pitch := m.BytesPerLine()
		return &pixel.IndexedImage{
			Buffer: pixel.Buffer{
				Rect:   image.Rect(0, 0, m.Width, m.Height),
				Pix:    append([]byte(nil), a.vram[:pitch*m.Height]...),
				Stride: pitch,
			},
			Palette: a.palette(),
		}
	default:
		return image.NewRGBA(image.Rectangle{})
	}
}
