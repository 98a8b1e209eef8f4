package vbe

import (
	"fmt"
	"iter"
)

const (
	// windowBase is the physical address of the banked window at A000:0000.
	windowBase = 0xA0000

	// windowSize is the size of a bank, the driver always moves the window
	// in 64 KiB steps.
	windowShift = 16
	windowSize  = 1 << windowShift
	windowMask  = windowSize - 1

	noBank = -1
)

// VideoState is the state of the active mode.
type VideoState struct {
	Mode         ModeNumber
	Width        int
	Height       int
	BytesPerLine int
	Bank         int  // current bank in 64 KiB units, -1 if unknown
	BankShift    uint // 64 >> BankShift == window granularity in KiB
	Base         uint64
	PreviousMode ModeNumber
	Planar       bool
	Linear       bool
}

// Active reports if a mode has been activated.
func (s VideoState) Active() bool {
	return s.Width > 0 && s.Height > 0
}

func (s *VideoState) reset() {
	*s = VideoState{Bank: noBank}
}

// BankShift returns the shift factor that converts a 64 KiB bank number into
// window granularity units.
func BankShift(granularity int) (uint, error) {
	if granularity <= 0 || granularity > 64 {
		return 0, fmt.Errorf("vbe: window granularity %d KiB is not a power of two divisor of 64", granularity)
	}
	var shift uint
	for 64>>shift != granularity {
		if 64>>shift == 0 {
			return 0, fmt.Errorf("vbe: window granularity %d KiB is not a power of two divisor of 64", granularity)
		}
		shift++
	}
	return shift, nil
}

// Activate selects and sets the first mode in firmware order that matches the
// requested resolution exactly. Discovery and selection failures are fatal:
// they are reported and passed to Config.Fatal.
func (d *Driver) Activate(width, height int) error {
	info, err := d.Probe()
	if err != nil {
		d.report("vbe: no VESA VBE detected: %v", err)
		return d.abort(err)
	}
	d.debugf("vbe: controller %s", info)

	for _, mode := range info.Modes {
		mi, err := d.Inspect(mode)
		if err != nil {
			d.debugf("vbe: skip mode %s: %v", mode, err)
			continue
		}
		if !mi.Suitable() || int(mi.Width) != width || int(mi.Height) != height {
			continue
		}
		if err = d.activate(mode, mi); err != nil {
			d.report("vbe: activate mode %s: %v", mode, err)
			return d.abort(err)
		}
		return nil
	}

	err = fmt.Errorf("%w for %dx%d", ErrNoMatchingMode, width, height)
	d.report("vbe: valid video mode not found: %v", err)
	return d.abort(err)
}

func (d *Driver) abort(err error) error {
	if d.fatal != nil {
		d.fatal(err)
	}
	return err
}

func (d *Driver) activate(mode ModeNumber, mi *ModeInfo) error {
	shift, err := BankShift(int(mi.WinGranularity))
	if err != nil && !(d.linear && mi.LinearCapable()) {
		return err
	}

	if mi.Planar() && d.conn == nil {
		return ErrNoConn
	}

	state := VideoState{
		Mode:         mode,
		Width:        int(mi.Width),
		Height:       int(mi.Height),
		BytesPerLine: int(mi.BytesPerScanLine),
		Bank:         noBank,
		BankShift:    shift,
		Base:         windowBase,
		Planar:       mi.Planar(),
	}
	if mi.WinASegment != 0 {
		state.Base = uint64(mi.WinASegment) << 4
	}

	size := windowSize
	if d.linear && mi.LinearCapable() && mi.Packed() {
		state.Linear = true
		state.Base = uint64(mi.PhysBase)
		size = state.BytesPerLine * state.Height
	}

	if state.PreviousMode, err = d.CurrentMode(); err != nil {
		d.report("vbe: unable to query current mode: %v", err)
	}

	set := mode
	if state.Linear {
		set |= ModeLinear
	}
	if d.noClear {
		set |= ModePreserve
	}
	regs := Regs{BX: uint16(set)}
	if status := d.fw.Call(FuncSetMode, &regs); !status.Supported() {
		return fmt.Errorf("%w: set mode %s (%s)", ErrModeUnsupported, set, status)
	}

	// The firmware left the previous mode, so the old state is stale from here.
	d.state.reset()
	d.window = nil

	var window Window
	if d.mem != nil {
		if window, err = d.mem.Map(state.Base, size); err != nil {
			d.revert(state.PreviousMode)
			return fmt.Errorf("vbe: map frame buffer at %#x: %w", state.Base, err)
		}
	}
	if state.Planar {
		if err = d.initPlanar(); err != nil {
			d.revert(state.PreviousMode)
			return err
		}
	}

	// Only a fully set up mode becomes the active state.
	d.state = state
	d.window = window
	d.mask = bitMaskUnknown

	d.debugf("vbe: activated %s, %d bytes per line, bank shift %d, base %#x", d, state.BytesPerLine, shift, state.Base)
	return nil
}

// revert sets the previous mode after a failed activation.
func (d *Driver) revert(previous ModeNumber) {
	regs := Regs{BX: uint16(previous.Number())}
	if status := d.fw.Call(FuncSetMode, &regs); !status.Supported() {
		d.report("vbe: unable to restore mode %s (%s)", previous.Number(), status)
	}
}

// CurrentMode returns the active mode as reported by the firmware.
func (d *Driver) CurrentMode() (ModeNumber, error) {
	var regs Regs
	if status := d.fw.Call(FuncGetMode, &regs); !status.Supported() {
		return 0, fmt.Errorf("%w: %s (%s)", ErrNotSupported, FuncGetMode, status)
	}
	return ModeNumber(regs.BX), nil
}

// Restore sets the mode that was active before Activate and resets the video
// state.
func (d *Driver) Restore() error {
	if !d.state.Active() {
		return nil
	}
	previous := d.state.PreviousMode.Number()
	regs := Regs{BX: uint16(previous)}
	status := d.fw.Call(FuncSetMode, &regs)
	d.state.reset()
	d.window = nil
	d.mask = bitMaskUnknown
	if !status.Supported() {
		return fmt.Errorf("%w: restore mode %s (%s)", ErrModeUnsupported, previous, status)
	}
	return nil
}

// ModeSummary describes an advertised mode.
type ModeSummary struct {
	Mode         ModeNumber
	Width        int
	Height       int
	BitsPerPixel int
	MemoryModel  MemoryModel
	Suitable     bool
	Linear       bool
}

func (s ModeSummary) String() string {
	return fmt.Sprintf("%s %dx%dx%d %s", s.Mode, s.Width, s.Height, s.BitsPerPixel, s.MemoryModel)
}

// EnumerateModes probes the controller and returns the advertised modes that
// can be inspected, in firmware order. Modes are inspected lazily while the
// sequence is consumed; the sequence can be consumed once.
func (d *Driver) EnumerateModes() (iter.Seq[ModeSummary], error) {
	info, err := d.Probe()
	if err != nil {
		return nil, err
	}
	var (
		modes    = append([]ModeNumber(nil), info.Modes...)
		consumed bool
	)
	return func(yield func(ModeSummary) bool) {
		if consumed {
			return
		}
		consumed = true
		for _, mode := range modes {
			mi, err := d.Inspect(mode)
			if err != nil {
				d.debugf("vbe: skip mode %s: %v", mode, err)
				continue
			}
			if !yield(ModeSummary{
				Mode:         mode,
				Width:        int(mi.Width),
				Height:       int(mi.Height),
				BitsPerPixel: int(mi.BitsPerPixel),
				MemoryModel:  mi.MemoryModel,
				Suitable:     mi.Suitable(),
				Linear:       mi.LinearCapable(),
			}) {
				return
			}
		}
	}, nil
}
