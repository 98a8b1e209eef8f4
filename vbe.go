// Package vbe contains a driver for VESA BIOS Extension (VBE) graphics modes.
//
// The driver talks to the video firmware through a [Gateway], discovers the
// controller capabilities and the supported modes, activates a mode matching a
// requested resolution and draws into the bank-switched (windowed) or linear
// frame buffer. Packed 8 bits per pixel and 4-plane planar modes are supported.
//
// A [Driver] is the context object holding all video state; it is not safe for
// concurrent use.
package vbe

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"

	"github.com/BeatGlow/vbe/draw"
	"github.com/BeatGlow/vbe/pixel"
	"periph.io/x/conn/v3/display"
)

var debug bool

func init() {
	debug = os.Getenv("VBE_DEBUG") != ""
}

// Errors
var (
	ErrNotSupported    = errors.New("vbe: VESA BIOS extensions not supported")
	ErrNoMatchingMode  = errors.New("vbe: no matching video mode")
	ErrBankSwitch      = errors.New("vbe: bank switch failed")
	ErrModeUnsupported = errors.New("vbe: mode not supported")
	ErrBounds          = errors.New("vbe: out of display bounds")
	ErrNotActive       = errors.New("vbe: no active mode")
	ErrNoConn          = errors.New("vbe: planar mode requires an I/O port connection")
)

// Config is the driver configuration.
type Config struct {
	// Width of the requested mode in pixels, used by Open.
	Width int

	// Height of the requested mode in pixels, used by Open.
	Height int

	// Linear requests the linear frame buffer if the mode supports it.
	Linear bool

	// NoClear asks the firmware to preserve video memory on mode set.
	NoClear bool

	// Memory maps the frame buffer.
	Memory Memory

	// Conn is the VGA register port connection, required for planar modes
	// and palette programming.
	Conn Conn

	// Report receives diagnostic messages, defaults to log.Printf.
	Report func(format string, args ...any)

	// Fatal is called after reporting an unrecoverable discovery or
	// selection failure. If it returns, the error is returned to the caller.
	Fatal func(error)
}

// Driver is a VBE graphics driver.
type Driver struct {
	fw      Gateway
	mem     Memory
	conn    Conn
	report  func(format string, args ...any)
	fatal   func(error)
	linear  bool
	noClear bool

	// scratch buffers, valid until the next query
	infoBuf [infoBlockSize]byte
	modeBuf [modeInfoSize]byte
	mode    ModeInfo

	info    *ControllerInfo
	state   VideoState
	window  Window
	palette color.Palette
	mask    int
	pix     [1]byte
}

// New returns a driver for the firmware, no mode is activated.
func New(fw Gateway, config *Config) *Driver {
	if config == nil {
		config = new(Config)
	}
	d := &Driver{
		fw:      fw,
		mem:     config.Memory,
		conn:    config.Conn,
		report:  config.Report,
		fatal:   config.Fatal,
		linear:  config.Linear,
		noClear: config.NoClear,
		palette: append(color.Palette(nil), pixel.VGAPalette...),
		mask:    bitMaskUnknown,
	}
	if d.report == nil {
		d.report = log.Printf
	}
	d.state.reset()
	return d
}

// Open returns a driver with the mode matching config.Width x config.Height
// activated.
func Open(fw Gateway, config *Config) (*Driver, error) {
	if config == nil {
		return nil, ErrNoMatchingMode
	}
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("vbe: invalid mode size %dx%d", config.Width, config.Height)
	}
	d := New(fw, config)
	if err := d.Activate(config.Width, config.Height); err != nil {
		return nil, err
	}
	return d, nil
}

// State returns a copy of the current video state.
func (d *Driver) State() VideoState {
	return d.state
}

func (d *Driver) String() string {
	if !d.state.Active() {
		return "VBE (inactive)"
	}
	kind := "packed"
	if d.state.Planar {
		kind = "planar"
	}
	if d.state.Linear {
		kind += ", linear"
	}
	return fmt.Sprintf("VBE mode %s %dx%d (%s)", d.state.Mode, d.state.Width, d.state.Height, kind)
}

// Bounds is the display bounding box (dimensions).
func (d *Driver) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.state.Width, d.state.Height)
}

// ColorModel used by the display, the active palette.
func (d *Driver) ColorModel() color.Model {
	return d.palette
}

// At returns the color of the pixel at (x, y).
func (d *Driver) At(x, y int) color.Color {
	index, err := d.ColorIndexAt(x, y)
	if err != nil {
		return color.Transparent
	}
	return d.palette[int(index)%len(d.palette)]
}

// Set the pixel color at (x, y). Failed writes are skipped.
func (d *Driver) Set(x, y int, c color.Color) {
	d.plot(x, y, uint32(d.palette.Index(c)))
}

// Draw implements the periph.io display.Drawer interface.
func (d *Driver) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if !d.state.Active() {
		return ErrNotActive
	}
	draw.Draw(d, r, src, sp, draw.Src)
	return nil
}

// Halt restores the mode that was active before Activate.
func (d *Driver) Halt() error {
	return d.Restore()
}

func (d *Driver) debugf(format string, args ...any) {
	if debug {
		d.report(format, args...)
	}
}

// Interface checks.
var (
	_ draw.Image     = (*Driver)(nil)
	_ display.Drawer = (*Driver)(nil)
	_ fmt.Stringer   = (*Driver)(nil)
)
