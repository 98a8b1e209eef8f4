package vbe

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	infoBlockSize = 512

	// Offsets inside the info block where firmware may store the mode list
	// and OEM strings.
	infoReservedOffset = 34
	infoOEMDataOffset  = 256

	// Segment used for the scratch buffers handed to the firmware.
	scratchSegment = 0x07E0

	// Upper bound of a mode list, guards against a missing terminator.
	maxModes = 1024

	// ModeListEnd terminates the mode list.
	ModeListEnd ModeNumber = 0xFFFF
)

// Signatures exchanged in the info block.
var (
	SignatureRequest = [4]byte{'V', 'B', 'E', '2'}
	SignatureVESA    = [4]byte{'V', 'E', 'S', 'A'}
)

// InfoBlock is the VbeInfoBlock returned by FuncGetInfo.
type InfoBlock struct {
	Signature      [4]byte
	Version        uint16
	OEMString      FarPtr
	Capabilities   uint32
	VideoModes     FarPtr
	TotalMemory    uint16 // 64 KiB blocks
	OEMSoftwareRev uint16
	OEMVendorName  FarPtr
	OEMProductName FarPtr
	OEMProductRev  FarPtr
	Reserved       [222]byte
	OEMData        [256]byte
}

// Version is a BCD encoded VBE version.
type Version uint16

// Major version number.
func (v Version) Major() int { return int(v >> 8) }

// Minor version number.
func (v Version) Minor() int { return int(v & 0xff) }

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
}

// ControllerInfo is the resolved controller information.
type ControllerInfo struct {
	Signature    string
	Version      Version
	Capabilities uint32
	Modes        []ModeNumber
	TotalMemory  int // bytes
	SoftwareRev  uint16
	OEM          string
	Vendor       string
	Product      string
	Revision     string
}

func (info *ControllerInfo) String() string {
	return fmt.Sprintf("%s %s, %d KiB, %d modes, %s %s %s", info.Signature, info.Version,
		info.TotalMemory>>10, len(info.Modes), info.Vendor, info.Product, info.Revision)
}

// Info returns the controller information of the last successful probe.
func (d *Driver) Info() *ControllerInfo {
	return d.info
}

// Probe queries the controller capabilities and the supported mode list.
func (d *Driver) Probe() (*ControllerInfo, error) {
	for i := range d.infoBuf {
		d.infoBuf[i] = 0
	}
	copy(d.infoBuf[:], SignatureRequest[:])

	regs := Regs{
		ES:  scratchSegment,
		DI:  0,
		Buf: d.infoBuf[:],
	}
	if status := d.fw.Call(FuncGetInfo, &regs); !status.Supported() {
		return nil, fmt.Errorf("%w (%s)", ErrNotSupported, status)
	}

	var block InfoBlock
	if err := binary.Read(bytes.NewReader(d.infoBuf[:]), binary.LittleEndian, &block); err != nil {
		return nil, err
	}
	if block.Signature != SignatureVESA {
		return nil, fmt.Errorf("%w (signature %q)", ErrNotSupported, block.Signature[:])
	}

	modes, err := d.readModes(&regs, block.VideoModes)
	if err != nil {
		return nil, err
	}

	info := &ControllerInfo{
		Signature:    string(block.Signature[:]),
		Version:      Version(block.Version),
		Capabilities: block.Capabilities,
		Modes:        modes,
		TotalMemory:  int(block.TotalMemory) << 16,
		SoftwareRev:  block.OEMSoftwareRev,
		OEM:          d.readString(&regs, block.OEMString),
		Vendor:       d.readString(&regs, block.OEMVendorName),
		Product:      d.readString(&regs, block.OEMProductName),
		Revision:     d.readString(&regs, block.OEMProductRev),
	}
	d.info = info
	return info, nil
}

func (d *Driver) readModes(regs *Regs, ptr FarPtr) ([]ModeNumber, error) {
	var (
		modes []ModeNumber
		word  [2]byte
	)
	for i := 0; i < maxModes; i++ {
		if err := d.readFar(regs, ptr, i*2, word[:]); err != nil {
			return nil, fmt.Errorf("%w: mode list at %s: %v", ErrNotSupported, ptr, err)
		}
		mode := ModeNumber(binary.LittleEndian.Uint16(word[:]))
		if mode == ModeListEnd {
			return modes, nil
		}
		modes = append(modes, mode)
	}
	return modes, nil
}

func (d *Driver) readString(regs *Regs, ptr FarPtr) string {
	if ptr == 0 {
		return ""
	}
	var (
		s []byte
		c [1]byte
	)
	for i := 0; i < 256; i++ {
		if err := d.readFar(regs, ptr, i, c[:]); err != nil || c[0] == 0 {
			break
		}
		s = append(s, c[0])
	}
	return string(s)
}

// readFar reads from the buffer at ES:DI if ptr points into it, otherwise from
// firmware memory.
func (d *Driver) readFar(regs *Regs, ptr FarPtr, off int, p []byte) error {
	var (
		addr = int64(ptr.Linear()) + int64(off)
		base = int64(regs.Linear())
	)
	if addr >= base && addr+int64(len(p)) <= base+int64(len(regs.Buf)) {
		copy(p, regs.Buf[addr-base:])
		return nil
	}
	r, ok := d.fw.(io.ReaderAt)
	if !ok {
		return fmt.Errorf("pointer %s outside of buffer", ptr)
	}
	_, err := r.ReadAt(p, addr)
	return err
}

// Encode writes the controller information into the caller's buffer in regs,
// as a firmware does for FuncGetInfo. The mode list is stored in the reserved
// area and the strings in the OEM data area of the block.
func (info *ControllerInfo) Encode(regs *Regs) error {
	if len(regs.Buf) < infoBlockSize {
		return io.ErrShortBuffer
	}
	if len(info.Modes)*2+2 > len(InfoBlock{}.Reserved) {
		return fmt.Errorf("vbe: too many modes (%d)", len(info.Modes))
	}

	var block InfoBlock
	copy(block.Signature[:], info.Signature)
	block.Version = uint16(info.Version)
	block.Capabilities = info.Capabilities
	block.TotalMemory = uint16(info.TotalMemory >> 16)
	block.OEMSoftwareRev = info.SoftwareRev

	var (
		base = regs.Linear()
		ptr  = func(off int) FarPtr {
			addr := base + uint32(off)
			return MakeFarPtr(uint16(addr>>4), uint16(addr&0xf))
		}
	)

	for i, mode := range info.Modes {
		binary.LittleEndian.PutUint16(block.Reserved[i*2:], uint16(mode))
	}
	binary.LittleEndian.PutUint16(block.Reserved[len(info.Modes)*2:], uint16(ModeListEnd))
	block.VideoModes = ptr(infoReservedOffset)

	var (
		off  int
		strs = []struct {
			s   string
			ptr *FarPtr
		}{
			{info.OEM, &block.OEMString},
			{info.Vendor, &block.OEMVendorName},
			{info.Product, &block.OEMProductName},
			{info.Revision, &block.OEMProductRev},
		}
	)
	for _, s := range strs {
		if s.s == "" {
			continue
		}
		if off+len(s.s)+1 > len(block.OEMData) {
			return fmt.Errorf("vbe: OEM strings too long")
		}
		copy(block.OEMData[off:], s.s)
		*s.ptr = ptr(infoOEMDataOffset + off)
		off += len(s.s) + 1
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &block); err != nil {
		return err
	}
	copy(regs.Buf, buf.Bytes())
	return nil
}
