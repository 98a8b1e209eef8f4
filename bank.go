package vbe

import (
	"encoding/binary"
	"fmt"
)

// Windows addressed by FuncWindowControl (BL).
const (
	WindowA = 0x00
	WindowB = 0x01
)

// Window control sub functions (BH).
const (
	windowSet = 0x00 << 8
	windowGet = 0x01 << 8
)

// ensureBank makes sure the bank holding the linear byte offset is mapped in
// both windows and returns the offset inside the window. The firmware is only
// called if the bank differs from the current bank. On failure the current
// bank is left unchanged.
func (d *Driver) ensureBank(offset int) (int, error) {
	if d.state.Linear {
		return offset, nil
	}

	bank := offset >> windowShift
	if bank == d.state.Bank {
		return offset & windowMask, nil
	}

	value := uint16(bank << d.state.BankShift)
	for _, window := range []uint16{WindowA, WindowB} {
		regs := Regs{
			BX: windowSet | window,
			DX: value,
		}
		if status := d.fw.Call(FuncWindowControl, &regs); !status.Supported() {
			return 0, fmt.Errorf("%w: window %c bank %d (%s)", ErrBankSwitch, 'A'+rune(window), bank, status)
		}
	}

	d.state.Bank = bank
	return offset & windowMask, nil
}

// Window returns the position of a window, in window granularity units, as
// reported by the firmware.
func (d *Driver) Window(window int) (int, error) {
	regs := Regs{BX: windowGet | uint16(window&1)}
	if status := d.fw.Call(FuncWindowControl, &regs); !status.Supported() {
		return 0, fmt.Errorf("%w: get window %c (%s)", ErrNotSupported, 'A'+rune(window&1), status)
	}
	return int(regs.DX), nil
}

// PMInterface is the VBE 2.0 protected mode interface table.
type PMInterface struct {
	SetWindow       uint16 // offset of the FuncWindowControl code
	SetDisplayStart uint16 // offset of the set display start code
	SetPalette      uint16 // offset of the set palette code
	Ports           []uint16
	Code            []byte
}

// ProtectedModeInterface queries the protected mode interface table. The
// table lives in firmware memory, the gateway has to implement io.ReaderAt.
func (d *Driver) ProtectedModeInterface() (*PMInterface, error) {
	regs := Regs{BX: 0x0000}
	if status := d.fw.Call(FuncGetPMInterface, &regs); !status.Supported() {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNotSupported, FuncGetPMInterface, status)
	}

	size := int(regs.CX)
	if size < 8 {
		return nil, fmt.Errorf("%w: protected mode table of %d bytes", ErrNotSupported, size)
	}

	var (
		ptr   = MakeFarPtr(regs.ES, regs.DI)
		table = make([]byte, size)
		none  Regs
	)
	if err := d.readFar(&none, ptr, 0, table); err != nil {
		return nil, fmt.Errorf("%w: protected mode table at %s: %v", ErrNotSupported, ptr, err)
	}

	pmi := &PMInterface{
		SetWindow:       binary.LittleEndian.Uint16(table[0:]),
		SetDisplayStart: binary.LittleEndian.Uint16(table[2:]),
		SetPalette:      binary.LittleEndian.Uint16(table[4:]),
		Code:            table,
	}
	if ports := int(binary.LittleEndian.Uint16(table[6:])); ports != 0 {
		for i := ports; i+2 <= size; i += 2 {
			port := binary.LittleEndian.Uint16(table[i:])
			if port == 0xFFFF {
				break
			}
			pmi.Ports = append(pmi.Ports, port)
		}
	}
	return pmi, nil
}
