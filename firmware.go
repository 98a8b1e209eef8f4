package vbe

import "fmt"

// Function is a VBE function code, passed to the firmware in AX.
type Function uint16

// Supported function codes.
const (
	FuncGetInfo        Function = 0x4F00 // Return VBE controller information
	FuncGetModeInfo    Function = 0x4F01 // Return VBE mode information
	FuncSetMode        Function = 0x4F02 // Set VBE mode
	FuncGetMode        Function = 0x4F03 // Return current VBE mode
	FuncWindowControl  Function = 0x4F05 // Display window control
	FuncGetPMInterface Function = 0x4F0A // Return protected mode interface
)

func (fn Function) String() string {
	switch fn {
	case FuncGetInfo:
		return "get controller info"
	case FuncGetModeInfo:
		return "get mode info"
	case FuncSetMode:
		return "set mode"
	case FuncGetMode:
		return "get mode"
	case FuncWindowControl:
		return "window control"
	case FuncGetPMInterface:
		return "get protected mode interface"
	default:
		return fmt.Sprintf("function %#04x", uint16(fn))
	}
}

// Status is the value the firmware returns in AX.
type Status uint16

// Status values. Only StatusSupported means success; the driver does not
// distinguish between the failure causes.
const (
	StatusSupported Status = 0x004F
	StatusFailed    Status = 0x014F
	StatusNotInMode Status = 0x034F
)

// Supported reports if the call succeeded.
func (s Status) Supported() bool {
	return s == StatusSupported
}

func (s Status) String() string {
	if s.Supported() {
		return "supported"
	}
	return fmt.Sprintf("status %#04x", uint16(s))
}

// Regs is the register file handed to the firmware. Inputs are set by the
// caller, outputs are written back by the firmware for the function codes that
// define them.
type Regs struct {
	BX uint16
	CX uint16
	DX uint16
	ES uint16
	DI uint16

	// Buf is the memory at ES:DI.
	Buf []byte
}

// Gateway performs synchronous calls into the video firmware.
//
// Implementations do not retry and do not interpret status codes. A Gateway
// that also implements io.ReaderAt gives access to firmware memory (linear
// real-mode addresses), used to dereference far pointers that point outside
// the caller's buffer.
type Gateway interface {
	Call(fn Function, regs *Regs) Status
}

// FarPtr is a real-mode segment:offset pointer as stored in VBE structures.
type FarPtr uint32

// MakeFarPtr builds a far pointer from a segment and offset.
func MakeFarPtr(segment, offset uint16) FarPtr {
	return FarPtr(uint32(segment)<<16 | uint32(offset))
}

// Segment of the pointer.
func (p FarPtr) Segment() uint16 { return uint16(p >> 16) }

// Offset of the pointer.
func (p FarPtr) Offset() uint16 { return uint16(p) }

// Linear is the 20-bit physical address the pointer refers to.
func (p FarPtr) Linear() uint32 {
	return uint32(p.Segment())<<4 + uint32(p.Offset())
}

func (p FarPtr) String() string {
	return fmt.Sprintf("%04x:%04x", p.Segment(), p.Offset())
}

// Linear returns the linear address of ES:DI.
func (r *Regs) Linear() uint32 {
	return MakeFarPtr(r.ES, r.DI).Linear()
}
