package bochs

import (
	"github.com/BeatGlow/vbe"
)

// Call implements the VBE firmware functions.
func (fw *Firmware) Call(fn vbe.Function, regs *vbe.Regs) vbe.Status {
	var err error
	switch fn {
	case vbe.FuncGetInfo:
		err = fw.getInfo(regs)
	case vbe.FuncGetModeInfo:
		err = fw.getModeInfo(regs)
	case vbe.FuncSetMode:
		err = fw.setMode(regs)
	case vbe.FuncGetMode:
		regs.BX = uint16(fw.current)
	case vbe.FuncWindowControl:
		return fw.windowControl(regs)
	default:
		return vbe.StatusFailed
	}
	if err != nil {
		return vbe.StatusFailed
	}
	return vbe.StatusSupported
}

func (fw *Firmware) lookup(number vbe.ModeNumber) (Mode, bool) {
	number = number.Number()
	for _, m := range fw.modes {
		if m.Number == number && m.memory() <= fw.memory {
			return m, true
		}
	}
	return Mode{}, false
}

func (fw *Firmware) getInfo(regs *vbe.Regs) error {
	info := &vbe.ControllerInfo{
		Signature:   string(vbe.SignatureVESA[:]),
		Version:     0x0200,
		TotalMemory: fw.memory,
		OEM:         "Bochs/QEMU VBE",
		Vendor:      "Bochs/QEMU",
		Product:     "DISPI",
		Revision:    "1",
	}
	for _, m := range fw.modes {
		if m.memory() <= fw.memory {
			info.Modes = append(info.Modes, m.Number)
		}
	}
	return info.Encode(regs)
}

func (fw *Firmware) getModeInfo(regs *vbe.Regs) error {
	m, ok := fw.lookup(vbe.ModeNumber(regs.CX))
	if !ok {
		return vbe.ErrModeUnsupported
	}

	windowAttr := uint8(vbe.WindowExists | vbe.WindowReadable | vbe.WindowWritable)
	mi := &vbe.ModeInfo{
		Attributes:       vbe.AttrSupported | vbe.AttrColor | vbe.AttrGraphics,
		WinAAttributes:   windowAttr,
		WinGranularity:   windowSize >> 10,
		WinSize:          windowSize >> 10,
		WinASegment:      windowSegment,
		BytesPerScanLine: uint16(m.bytesPerLine()),
		Width:            uint16(m.Width),
		Height:           uint16(m.Height),
		CharWidth:        8,
		CharHeight:       16,
		Planes:           1,
		BitsPerPixel:     uint8(m.BitsPerPixel),
		Banks:            1,
		MemoryModel:      vbe.ModelPacked,
		ImagePages:       uint8(min(fw.memory/m.memory()-1, 0xff)),
		Reserved1:        1,
	}
	if m.planar() {
		mi.Planes = 4
		mi.MemoryModel = vbe.ModelPlanar
	} else if fw.linearBase != 0 {
		mi.Attributes |= vbe.AttrLinear
		mi.PhysBase = fw.linearBase
	}
	return mi.Encode(regs)
}

func (fw *Firmware) setMode(regs *vbe.Regs) error {
	var (
		request = vbe.ModeNumber(regs.BX)
		number  = request.Number()
	)
	if number < vbe.ModeMin {
		// Back to VGA compatible mode.
		if err := fw.write(indexEnable, disabled); err != nil {
			return err
		}
		fw.current = number
		return nil
	}

	m, ok := fw.lookup(number)
	if !ok {
		return vbe.ErrModeUnsupported
	}
	enable := uint16(enabled)
	if request&vbe.ModeLinear != 0 {
		if m.planar() || fw.linearBase == 0 {
			return vbe.ErrModeUnsupported
		}
		enable |= lfbEnabled
	}
	if request&vbe.ModePreserve != 0 {
		enable |= noClearMem
	}

	for _, r := range []struct {
		index, value uint16
	}{
		{indexEnable, disabled},
		{indexXRes, uint16(m.Width)},
		{indexYRes, uint16(m.Height)},
		{indexBPP, uint16(m.BitsPerPixel)},
		{indexVirtWidth, uint16(m.Width)},
		{indexVirtHeight, uint16(m.Height)},
		{indexXOffset, 0},
		{indexYOffset, 0},
		{indexBank, 0},
		{indexEnable, enable},
	} {
		if err := fw.write(r.index, r.value); err != nil {
			return err
		}
	}

	fw.current = number
	if enable&lfbEnabled != 0 {
		fw.current |= vbe.ModeLinear
	}
	return nil
}

// windowControl maps both windows to the single DISPI bank register.
func (fw *Firmware) windowControl(regs *vbe.Regs) vbe.Status {
	if regs.BX&0xff > 1 || regs.BX>>8 > 1 {
		return vbe.StatusFailed
	}
	if fw.current.Number() < vbe.ModeMin || fw.current&vbe.ModeLinear != 0 {
		return vbe.StatusNotInMode
	}

	if regs.BX>>8 == 1 {
		bank, err := fw.read(indexBank)
		if err != nil {
			return vbe.StatusFailed
		}
		regs.DX = bank
		return vbe.StatusSupported
	}

	if int(regs.DX)*windowSize >= fw.memory {
		return vbe.StatusFailed
	}
	if err := fw.write(indexBank, regs.DX); err != nil {
		return vbe.StatusFailed
	}
	return vbe.StatusSupported
}
