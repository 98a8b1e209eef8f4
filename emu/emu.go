// Package emu emulates a VESA compatible video adapter: the VBE firmware, the
// VGA register ports and the video memory, behind the interfaces the vbe
// driver uses to talk to real hardware.
//
// The adapter keeps everything in memory. It is used by the tests and by
// cmd/vbe-emu, which shows the emulated screen in a window.
package emu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/BeatGlow/vbe"
	"github.com/BeatGlow/vbe/pixel"
)

// Physical addresses of the emulated memory.
const (
	// WindowBase is the start of the banked window.
	WindowBase = 0xA0000

	// DefaultLinearBase is the default address of the linear frame buffer.
	DefaultLinearBase = 0xE0000000

	windowSize = 64 << 10

	// The protected mode interface table lives in the video BIOS ROM.
	romSegment = 0xC000
	romOffset  = 0x0100
	romBase    = romSegment<<4 + romOffset
)

// Errors
var (
	ErrNoMode  = errors.New("emu: no graphics mode set")
	ErrMapping = errors.New("emu: no memory at address")
)

// Mode is an emulated video mode.
type Mode struct {
	Number       vbe.ModeNumber
	Width        int
	Height       int
	BitsPerPixel int
	Model        vbe.MemoryModel

	// Disabled modes are listed but report as not supported by the hardware.
	Disabled bool
}

// Planar reports if the mode uses four bit planes.
func (m *Mode) Planar() bool {
	return m.Model == vbe.ModelPlanar
}

// BytesPerLine is the mode's scan line length.
func (m *Mode) BytesPerLine() int {
	if m.Planar() {
		return (m.Width + 7) / 8
	}
	return m.Width * ((m.BitsPerPixel + 7) / 8)
}

func (m *Mode) String() string {
	return fmt.Sprintf("%s %dx%dx%d %s", m.Number, m.Width, m.Height, m.BitsPerPixel, m.Model)
}

// DefaultModes are the standard VESA modes.
var DefaultModes = []Mode{
	{Number: 0x100, Width: 640, Height: 400, BitsPerPixel: 8, Model: vbe.ModelPacked},
	{Number: 0x101, Width: 640, Height: 480, BitsPerPixel: 8, Model: vbe.ModelPacked},
	{Number: 0x102, Width: 800, Height: 600, BitsPerPixel: 4, Model: vbe.ModelPlanar},
	{Number: 0x103, Width: 800, Height: 600, BitsPerPixel: 8, Model: vbe.ModelPacked},
	{Number: 0x104, Width: 1024, Height: 768, BitsPerPixel: 4, Model: vbe.ModelPlanar},
	{Number: 0x105, Width: 1024, Height: 768, BitsPerPixel: 8, Model: vbe.ModelPacked},
	{Number: 0x106, Width: 1280, Height: 1024, BitsPerPixel: 4, Model: vbe.ModelPlanar},
	{Number: 0x107, Width: 1280, Height: 1024, BitsPerPixel: 8, Model: vbe.ModelPacked},
	{Number: 0x111, Width: 640, Height: 480, BitsPerPixel: 16, Model: vbe.ModelDirectColor},
	{Number: 0x112, Width: 640, Height: 480, BitsPerPixel: 24, Model: vbe.ModelDirectColor},
}

// Config is the adapter configuration.
type Config struct {
	// Modes advertised by the firmware, in list order.
	Modes []Mode

	// Memory is the video memory size in bytes, a multiple of 64 KiB.
	Memory int

	// Granularity of the windows in KiB.
	Granularity int

	// LinearBase is the physical address of the linear frame buffer, zero
	// disables the linear frame buffer.
	LinearBase uint32

	// Version is the BCD VBE version reported.
	Version vbe.Version

	OEM      string
	Vendor   string
	Product  string
	Revision string
}

// DefaultConfig is used for nil configurations.
var DefaultConfig = Config{
	Modes:       DefaultModes,
	Memory:      2 << 20,
	Granularity: 64,
	LinearBase:  DefaultLinearBase,
	Version:     0x0200,
	OEM:         "BeatGlow emulated VBE adapter",
	Vendor:      "BeatGlow",
	Product:     "vbe/emu",
	Revision:    "1.0",
}

// Call is a recorded firmware call.
type Call struct {
	Function vbe.Function
	BX       uint16
	CX       uint16
	DX       uint16
	Status   vbe.Status
}

func (c Call) String() string {
	return fmt.Sprintf("%s BX=%#04x CX=%#04x DX=%#04x: %s", c.Function, c.BX, c.CX, c.DX, c.Status)
}

// Adapter is an emulated video adapter. It is safe for concurrent use.
type Adapter struct {
	mu     sync.Mutex
	config Config
	modes  []Mode
	vram   []byte

	// active mode, nil in text mode
	mode    *Mode
	current vbe.ModeNumber
	linear  bool
	window  [2]int // window A and B position in granularity units

	vga   vgaState
	dac   [256]pixel.DAC
	rom   []byte
	calls []Call
	fail  func(fn vbe.Function, regs *vbe.Regs) bool
}

// New returns an adapter in text mode 0x03.
func New(config *Config) (*Adapter, error) {
	if config == nil {
		config = &DefaultConfig
	}
	c := *config
	if c.Memory <= 0 || c.Memory%windowSize != 0 {
		return nil, fmt.Errorf("emu: memory size %d is not a multiple of 64 KiB", c.Memory)
	}
	if _, err := vbe.BankShift(c.Granularity); err != nil {
		return nil, err
	}
	if c.Version == 0 {
		c.Version = DefaultConfig.Version
	}

	a := &Adapter{
		config:  c,
		modes:   append([]Mode(nil), c.Modes...),
		vram:    make([]byte, c.Memory),
		current: 0x03,
		rom:     makeROM(),
	}
	for i, p := range pixel.VGAPalette {
		a.dac[i] = p.(pixel.DAC)
	}
	a.vga.reset()
	return a, nil
}

func (a *Adapter) String() string {
	return fmt.Sprintf("emulated VBE %s adapter, %d KiB", a.config.Version, a.config.Memory>>10)
}

// Close does nothing.
func (a *Adapter) Close() error {
	return nil
}

// Mode returns the active graphics mode, or nil in text mode.
func (a *Adapter) Mode() *Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode == nil {
		return nil
	}
	m := *a.mode
	return &m
}

// Calls returns the recorded firmware calls.
func (a *Adapter) Calls() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Call(nil), a.calls...)
}

// Count returns how often fn has been called.
func (a *Adapter) Count(fn vbe.Function) (n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, call := range a.calls {
		if call.Function == fn {
			n++
		}
	}
	return
}

// ResetCalls clears the call log.
func (a *Adapter) ResetCalls() {
	a.mu.Lock()
	a.calls = a.calls[:0]
	a.mu.Unlock()
}

// FailWhen makes every firmware call for which f returns true fail. A nil f
// removes the hook.
func (a *Adapter) FailWhen(f func(fn vbe.Function, regs *vbe.Regs) bool) {
	a.mu.Lock()
	a.fail = f
	a.mu.Unlock()
}

// Interface checks.
var (
	_ vbe.Gateway = (*Adapter)(nil)
	_ vbe.Conn    = (*Adapter)(nil)
	_ vbe.Memory  = (*Adapter)(nil)
)
