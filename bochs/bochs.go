// Package bochs implements the VBE firmware functions on top of the Bochs and
// QEMU "DISPI" display interface.
//
// The DISPI registers are programmed through a pair of I/O ports, so the
// firmware works without calling into the video BIOS.
package bochs

import (
	"errors"
	"fmt"

	"github.com/BeatGlow/vbe"
)

// DISPI I/O ports.
const (
	PortIndex = 0x01CE
	PortData  = 0x01CF
)

// DISPI register indices.
const (
	indexID          = 0x0
	indexXRes        = 0x1
	indexYRes        = 0x2
	indexBPP         = 0x3
	indexEnable      = 0x4
	indexBank        = 0x5
	indexVirtWidth   = 0x6
	indexVirtHeight  = 0x7
	indexXOffset     = 0x8
	indexYOffset     = 0x9
	indexVideoMemory = 0xA // in 64 KiB units
)

// DISPI register values.
const (
	ID0 = 0xB0C0
	ID4 = 0xB0C4
	ID5 = 0xB0C5

	disabled   = 0x00
	enabled    = 0x01
	lfbEnabled = 0x40
	noClearMem = 0x80
)

const (
	// DefaultLinearBase is the default address of the linear frame buffer
	// (PCI BAR 0 of the QEMU standard VGA).
	DefaultLinearBase = 0xE0000000

	// DefaultMemory is the video memory size assumed when the interface does
	// not report it.
	DefaultMemory = 4 << 20

	windowSegment = 0xA000
	windowSize    = 64 << 10
)

// ErrNotFound is returned if no DISPI interface responds.
var ErrNotFound = errors.New("bochs: no DISPI interface found")

// Mode is a DISPI video mode.
type Mode struct {
	Number       vbe.ModeNumber
	Width        int
	Height       int
	BitsPerPixel int
}

func (m Mode) planar() bool {
	return m.BitsPerPixel == 4
}

func (m Mode) bytesPerLine() int {
	if m.planar() {
		return (m.Width + 7) / 8
	}
	return m.Width * ((m.BitsPerPixel + 7) / 8)
}

func (m Mode) memory() int {
	size := m.bytesPerLine() * m.Height
	if m.planar() {
		size *= 4
	}
	return size
}

// DefaultModes are the 4 and 8 bits per pixel modes of the Bochs VGA BIOS.
var DefaultModes = []Mode{
	{0x100, 640, 400, 8},
	{0x101, 640, 480, 8},
	{0x102, 800, 600, 4},
	{0x103, 800, 600, 8},
	{0x104, 1024, 768, 4},
	{0x105, 1024, 768, 8},
	{0x107, 1280, 1024, 8},
	{0x11C, 1600, 1200, 8},
}

// Config is the firmware configuration.
type Config struct {
	// Modes are the advertised modes, defaults to DefaultModes.
	Modes []Mode

	// LinearBase is the physical address of the linear frame buffer, zero
	// disables the linear frame buffer.
	LinearBase uint32
}

// DefaultConfig is used for nil configurations.
var DefaultConfig = Config{
	Modes:      DefaultModes,
	LinearBase: DefaultLinearBase,
}

// Firmware implements vbe.Gateway on the DISPI registers.
type Firmware struct {
	conn       vbe.Conn
	id         uint16
	memory     int
	modes      []Mode
	linearBase uint32
	current    vbe.ModeNumber
}

// New detects the DISPI interface on conn.
func New(conn vbe.Conn, config *Config) (*Firmware, error) {
	if config == nil {
		config = &DefaultConfig
	}

	fw := &Firmware{
		conn:       conn,
		modes:      config.Modes,
		linearBase: config.LinearBase,
		memory:     DefaultMemory,
		current:    0x03,
	}
	if fw.modes == nil {
		fw.modes = DefaultModes
	}

	var err error
	if fw.id, err = fw.read(indexID); err != nil {
		return nil, err
	}
	if fw.id&0xFFF0 != ID0 {
		return nil, fmt.Errorf("%w (ID %#04x)", ErrNotFound, fw.id)
	}
	if fw.id >= ID4 {
		var blocks uint16
		if blocks, err = fw.read(indexVideoMemory); err != nil {
			return nil, err
		}
		if blocks != 0 {
			fw.memory = int(blocks) * windowSize
		}
	}
	return fw, nil
}

func (fw *Firmware) String() string {
	return fmt.Sprintf("Bochs DISPI %#04x, %d KiB", fw.id, fw.memory>>10)
}

// ID is the interface version.
func (fw *Firmware) ID() uint16 {
	return fw.id
}

func (fw *Firmware) read(index uint16) (uint16, error) {
	if err := fw.conn.OutWord(PortIndex, index); err != nil {
		return 0, err
	}
	return fw.conn.InWord(PortData)
}

func (fw *Firmware) write(index, value uint16) error {
	if err := fw.conn.OutWord(PortIndex, index); err != nil {
		return err
	}
	return fw.conn.OutWord(PortData, value)
}

var _ vbe.Gateway = (*Firmware)(nil)
