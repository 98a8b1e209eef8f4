package emu

import (
	"encoding/binary"

	"github.com/BeatGlow/vbe"
)

// Call implements the VBE firmware functions.
func (a *Adapter) Call(fn vbe.Function, regs *vbe.Regs) vbe.Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	call := Call{
		Function: fn,
		BX:       regs.BX,
		CX:       regs.CX,
		DX:       regs.DX,
	}

	if a.fail != nil && a.fail(fn, regs) {
		call.Status = vbe.StatusFailed
	} else {
		call.Status = a.call(fn, regs)
	}

	a.calls = append(a.calls, call)
	return call.Status
}

func (a *Adapter) call(fn vbe.Function, regs *vbe.Regs) vbe.Status {
	switch fn {
	case vbe.FuncGetInfo:
		return a.getInfo(regs)
	case vbe.FuncGetModeInfo:
		return a.getModeInfo(regs)
	case vbe.FuncSetMode:
		return a.setMode(regs)
	case vbe.FuncGetMode:
		regs.BX = uint16(a.current)
		return vbe.StatusSupported
	case vbe.FuncWindowControl:
		return a.windowControl(regs)
	case vbe.FuncGetPMInterface:
		if regs.BX&0xff != 0 {
			return vbe.StatusFailed
		}
		regs.ES = romSegment
		regs.DI = romOffset
		regs.CX = uint16(len(a.rom))
		return vbe.StatusSupported
	default:
		return vbe.StatusFailed
	}
}

func (a *Adapter) getInfo(regs *vbe.Regs) vbe.Status {
	info := &vbe.ControllerInfo{
		Signature:   string(vbe.SignatureVESA[:]),
		Version:     a.config.Version,
		TotalMemory: a.config.Memory,
		OEM:         a.config.OEM,
		Vendor:      a.config.Vendor,
		Product:     a.config.Product,
		Revision:    a.config.Revision,
	}
	for _, m := range a.modes {
		info.Modes = append(info.Modes, m.Number)
	}
	if err := info.Encode(regs); err != nil {
		return vbe.StatusFailed
	}
	return vbe.StatusSupported
}

func (a *Adapter) lookup(number vbe.ModeNumber) *Mode {
	number = number.Number()
	for i := range a.modes {
		if a.modes[i].Number == number {
			return &a.modes[i]
		}
	}
	return nil
}

func (a *Adapter) linearCapable(m *Mode) bool {
	return a.config.LinearBase != 0 && !m.Planar()
}

func (a *Adapter) getModeInfo(regs *vbe.Regs) vbe.Status {
	m := a.lookup(vbe.ModeNumber(regs.CX))
	if m == nil {
		return vbe.StatusFailed
	}

	windowAttr := uint8(vbe.WindowExists | vbe.WindowReadable | vbe.WindowWritable)
	mi := &vbe.ModeInfo{
		Attributes:       vbe.AttrColor | vbe.AttrGraphics,
		WinAAttributes:   windowAttr,
		WinBAttributes:   windowAttr,
		WinGranularity:   uint16(a.config.Granularity),
		WinSize:          windowSize >> 10,
		WinASegment:      WindowBase >> 4,
		WinBSegment:      WindowBase >> 4,
		BytesPerScanLine: uint16(m.BytesPerLine()),
		Width:            uint16(m.Width),
		Height:           uint16(m.Height),
		CharWidth:        8,
		CharHeight:       16,
		Planes:           1,
		BitsPerPixel:     uint8(m.BitsPerPixel),
		Banks:            1,
		MemoryModel:      m.Model,
		Reserved1:        1,
	}
	if !m.Disabled && a.fits(m) {
		mi.Attributes |= vbe.AttrSupported
	}
	if m.Planar() {
		mi.Planes = 4
	}
	if size := a.pageSize(m); size > 0 {
		mi.ImagePages = uint8(min(a.config.Memory/size-1, 0xff))
	}
	if m.Model == vbe.ModelDirectColor {
		switch m.BitsPerPixel {
		case 15:
			mi.RedMaskSize, mi.RedPosition = 5, 10
			mi.GreenMaskSize, mi.GreenPosition = 5, 5
			mi.BlueMaskSize, mi.BluePosition = 5, 0
		case 16:
			mi.RedMaskSize, mi.RedPosition = 5, 11
			mi.GreenMaskSize, mi.GreenPosition = 6, 5
			mi.BlueMaskSize, mi.BluePosition = 5, 0
		default:
			mi.RedMaskSize, mi.RedPosition = 8, 16
			mi.GreenMaskSize, mi.GreenPosition = 8, 8
			mi.BlueMaskSize, mi.BluePosition = 8, 0
		}
	}
	if a.linearCapable(m) {
		mi.Attributes |= vbe.AttrLinear
		mi.PhysBase = a.config.LinearBase
	}

	if err := mi.Encode(regs); err != nil {
		return vbe.StatusFailed
	}
	return vbe.StatusSupported
}

// pageSize is the memory used by one screen of the mode.
func (a *Adapter) pageSize(m *Mode) int {
	size := m.BytesPerLine() * m.Height
	if m.Planar() {
		size *= 4
	}
	return size
}

func (a *Adapter) fits(m *Mode) bool {
	return a.pageSize(m) <= a.config.Memory
}

func (a *Adapter) setMode(regs *vbe.Regs) vbe.Status {
	var (
		request = vbe.ModeNumber(regs.BX)
		number  = request.Number()
		linear  = request&vbe.ModeLinear != 0
		clear   = request&vbe.ModePreserve == 0
	)

	if number < vbe.ModeMin {
		// Legacy VGA modes all end up as text mode.
		a.mode = nil
		a.current = number
		a.linear = false
		a.window = [2]int{}
		a.vga.reset()
		return vbe.StatusSupported
	}

	m := a.lookup(number)
	if m == nil || m.Disabled || !a.fits(m) {
		return vbe.StatusFailed
	}
	if linear && !a.linearCapable(m) {
		return vbe.StatusFailed
	}

	if clear {
		for i := range a.vram {
			a.vram[i] = 0
		}
	}
	a.mode = m
	a.current = number
	if linear {
		a.current |= vbe.ModeLinear
	}
	a.linear = linear
	a.window = [2]int{}
	a.vga.reset()
	return vbe.StatusSupported
}

func (a *Adapter) windowControl(regs *vbe.Regs) vbe.Status {
	var (
		window = int(regs.BX & 0xff)
		get    = regs.BX>>8 == 0x01
	)
	if window > 1 || regs.BX>>8 > 0x01 {
		return vbe.StatusFailed
	}
	if a.mode == nil || a.linear {
		return vbe.StatusNotInMode
	}

	if get {
		regs.DX = uint16(a.window[window])
		return vbe.StatusSupported
	}

	position := int(regs.DX)
	if position*a.config.Granularity<<10 >= a.memoryLimit() {
		return vbe.StatusFailed
	}
	a.window[window] = position
	return vbe.StatusSupported
}

// memoryLimit is the addressable memory through a window: a single plane in
// planar modes.
func (a *Adapter) memoryLimit() int {
	if a.mode != nil && a.mode.Planar() {
		return len(a.vram) / 4
	}
	return len(a.vram)
}

// makeROM builds the protected mode interface table: three entry points, each
// a near return, followed by the I/O port table and the (empty) memory list.
func makeROM() []byte {
	ports := []uint16{0x3C4, 0x3C5, 0x3CE, 0x3CF, 0xFFFF, 0xFFFF}
	rom := make([]byte, 12+len(ports)*2)
	binary.LittleEndian.PutUint16(rom[0:], 8)  // set window
	binary.LittleEndian.PutUint16(rom[2:], 9)  // set display start
	binary.LittleEndian.PutUint16(rom[4:], 10) // set palette
	binary.LittleEndian.PutUint16(rom[6:], 12) // port table
	rom[8], rom[9], rom[10] = 0xC3, 0xC3, 0xC3
	for i, port := range ports {
		binary.LittleEndian.PutUint16(rom[12+i*2:], port)
	}
	return rom
}
