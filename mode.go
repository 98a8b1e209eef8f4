package vbe

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const modeInfoSize = 256

// ModeNumber is a VBE mode number. Bits 0-13 are the mode, bit 14 and 15 are
// flags for FuncSetMode.
type ModeNumber uint16

// Mode number flags.
const (
	// ModeLinear enables the linear frame buffer.
	ModeLinear ModeNumber = 1 << 14

	// ModePreserve keeps the video memory contents on mode set.
	ModePreserve ModeNumber = 1 << 15

	// ModeMin is the first VBE mode number, lower numbers are VGA modes.
	ModeMin ModeNumber = 0x100

	modeNumberMask ModeNumber = 0x3FFF
)

// Number is the mode without flags.
func (m ModeNumber) Number() ModeNumber {
	return m & modeNumberMask
}

func (m ModeNumber) String() string {
	return fmt.Sprintf("0x%02x", uint16(m))
}

// MemoryModel is the memory layout of a mode.
type MemoryModel uint8

// Memory models.
const (
	ModelText        MemoryModel = 0x00
	ModelCGA         MemoryModel = 0x01
	ModelHercules    MemoryModel = 0x02
	ModelPlanar      MemoryModel = 0x03
	ModelPacked      MemoryModel = 0x04
	ModelNonChain4   MemoryModel = 0x05
	ModelDirectColor MemoryModel = 0x06
	ModelYUV         MemoryModel = 0x07
)

func (m MemoryModel) String() string {
	switch m {
	case ModelText:
		return "text"
	case ModelCGA:
		return "CGA"
	case ModelHercules:
		return "Hercules"
	case ModelPlanar:
		return "planar"
	case ModelPacked:
		return "packed pixel"
	case ModelNonChain4:
		return "non-chain 4"
	case ModelDirectColor:
		return "direct color"
	case ModelYUV:
		return "YUV"
	default:
		return fmt.Sprintf("model %#02x", uint8(m))
	}
}

// Attributes is the mode attributes bit field.
type Attributes uint16

// Mode attributes.
const (
	AttrSupported Attributes = 1 << 0
	AttrTTY       Attributes = 1 << 2
	AttrColor     Attributes = 1 << 3
	AttrGraphics  Attributes = 1 << 4
	AttrNoVGA     Attributes = 1 << 5
	AttrNoWindow  Attributes = 1 << 6
	AttrLinear    Attributes = 1 << 7
)

// Has reports if all bits in a are set.
func (attr Attributes) Has(a Attributes) bool {
	return attr&a == a
}

// Window attributes.
const (
	WindowExists   = 1 << 0
	WindowReadable = 1 << 1
	WindowWritable = 1 << 2
)

// ModeInfo is the ModeInfoBlock returned by FuncGetModeInfo.
type ModeInfo struct {
	Attributes       Attributes
	WinAAttributes   uint8
	WinBAttributes   uint8
	WinGranularity   uint16 // KiB
	WinSize          uint16 // KiB
	WinASegment      uint16
	WinBSegment      uint16
	WinFuncPtr       FarPtr
	BytesPerScanLine uint16
	Width            uint16
	Height           uint16
	CharWidth        uint8
	CharHeight       uint8
	Planes           uint8
	BitsPerPixel     uint8
	Banks            uint8
	MemoryModel      MemoryModel
	BankSize         uint8 // KiB
	ImagePages       uint8
	Reserved1        uint8
	RedMaskSize      uint8
	RedPosition      uint8
	GreenMaskSize    uint8
	GreenPosition    uint8
	BlueMaskSize     uint8
	BluePosition     uint8
	RsvdMaskSize     uint8
	RsvdPosition     uint8
	DirectColorInfo  uint8
	PhysBase         uint32
	OffScreenOffset  uint32
	OffScreenSize    uint16 // KiB
	Reserved2        [206]byte
}

// Packed reports if the mode is an 8 bits per pixel single plane packed pixel mode.
func (mi *ModeInfo) Packed() bool {
	return mi.MemoryModel == ModelPacked && mi.BitsPerPixel == 8 && mi.Planes == 1
}

// Planar reports if the mode is a 4 plane, 4 bits per pixel planar mode.
func (mi *ModeInfo) Planar() bool {
	return mi.MemoryModel == ModelPlanar && mi.BitsPerPixel == 4 && mi.Planes == 4
}

// Suitable reports if the mode is supported by the hardware and has a memory
// layout the driver can draw into.
func (mi *ModeInfo) Suitable() bool {
	return mi.Attributes.Has(AttrSupported) && (mi.Packed() || mi.Planar())
}

// LinearCapable reports if the mode can be used with a linear frame buffer.
func (mi *ModeInfo) LinearCapable() bool {
	return mi.Attributes.Has(AttrLinear) && mi.PhysBase != 0
}

func (mi *ModeInfo) String() string {
	return fmt.Sprintf("%dx%dx%d %s", mi.Width, mi.Height, mi.BitsPerPixel, mi.MemoryModel)
}

// Encode writes the mode information into the caller's buffer in regs, as a
// firmware does for FuncGetModeInfo.
func (mi *ModeInfo) Encode(regs *Regs) error {
	if len(regs.Buf) < modeInfoSize {
		return io.ErrShortBuffer
	}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, mi); err != nil {
		return err
	}
	copy(regs.Buf, buf.Bytes())
	return nil
}

// Inspect queries the mode information for a mode.
//
// The returned value is scratch state owned by the driver and is only valid
// until the next call to Inspect. Success means the firmware answered the
// query, use [ModeInfo.Suitable] to check if the driver can use the mode.
func (d *Driver) Inspect(mode ModeNumber) (*ModeInfo, error) {
	if mode.Number() < ModeMin {
		return nil, fmt.Errorf("%w: %s is not a VBE mode", ErrModeUnsupported, mode)
	}

	for i := range d.modeBuf {
		d.modeBuf[i] = 0
	}
	d.mode = ModeInfo{}

	regs := Regs{
		CX:  uint16(mode),
		ES:  scratchSegment,
		DI:  0,
		Buf: d.modeBuf[:],
	}
	if status := d.fw.Call(FuncGetModeInfo, &regs); !status.Supported() {
		return nil, fmt.Errorf("%w: %s (%s)", ErrModeUnsupported, mode, status)
	}
	if err := binary.Read(bytes.NewReader(d.modeBuf[:]), binary.LittleEndian, &d.mode); err != nil {
		return nil, err
	}
	return &d.mode, nil
}
