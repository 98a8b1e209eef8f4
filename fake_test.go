package vbe

import (
	"io"
)

type fakeCall struct {
	Function Function
	BX       uint16
	CX       uint16
	DX       uint16
}

// fakeFirmware is a scripted VBE firmware.
type fakeFirmware struct {
	signature string
	list      []ModeNumber
	modes     map[ModeNumber]*ModeInfo
	current   ModeNumber
	calls     []fakeCall

	// fail forces a failure status for matching calls.
	fail func(fn Function, regs *Regs) bool
}

func newFakeFirmware(modes ...*fakeMode) *fakeFirmware {
	fw := &fakeFirmware{
		signature: "VESA",
		modes:     make(map[ModeNumber]*ModeInfo),
		current:   0x03,
	}
	for _, m := range modes {
		fw.list = append(fw.list, m.number)
		if m.info != nil {
			fw.modes[m.number] = m.info
		}
	}
	return fw
}

type fakeMode struct {
	number ModeNumber
	info   *ModeInfo
}

func packedMode(number ModeNumber, w, h, pitch int) *fakeMode {
	return &fakeMode{number, &ModeInfo{
		Attributes:       AttrSupported | AttrColor | AttrGraphics,
		WinAAttributes:   WindowExists | WindowReadable | WindowWritable,
		WinGranularity:   64,
		WinSize:          64,
		WinASegment:      0xA000,
		BytesPerScanLine: uint16(pitch),
		Width:            uint16(w),
		Height:           uint16(h),
		Planes:           1,
		BitsPerPixel:     8,
		MemoryModel:      ModelPacked,
	}}
}

func planarMode(number ModeNumber, w, h int) *fakeMode {
	m := packedMode(number, w, h, (w+7)/8)
	m.info.Planes = 4
	m.info.BitsPerPixel = 4
	m.info.MemoryModel = ModelPlanar
	return m
}

func (fw *fakeFirmware) count(fn Function) (n int) {
	for _, call := range fw.calls {
		if call.Function == fn {
			n++
		}
	}
	return
}

func (fw *fakeFirmware) callsTo(fn Function) (calls []fakeCall) {
	for _, call := range fw.calls {
		if call.Function == fn {
			calls = append(calls, call)
		}
	}
	return
}

func (fw *fakeFirmware) Call(fn Function, regs *Regs) Status {
	fw.calls = append(fw.calls, fakeCall{fn, regs.BX, regs.CX, regs.DX})
	if fw.fail != nil && fw.fail(fn, regs) {
		return StatusFailed
	}

	switch fn {
	case FuncGetInfo:
		info := &ControllerInfo{
			Signature:   fw.signature,
			Version:     0x0200,
			Modes:       fw.list,
			TotalMemory: 1 << 20,
			OEM:         "fake",
		}
		if info.Encode(regs) != nil {
			return StatusFailed
		}
	case FuncGetModeInfo:
		mi, ok := fw.modes[ModeNumber(regs.CX)]
		if !ok || mi.Encode(regs) != nil {
			return StatusFailed
		}
	case FuncSetMode:
		fw.current = ModeNumber(regs.BX)
	case FuncGetMode:
		regs.BX = uint16(fw.current)
	case FuncWindowControl:
	default:
		return StatusFailed
	}
	return StatusSupported
}

type portWrite struct {
	Port  uint16
	Value uint16
	Word  bool
}

// fakeConn records port writes.
type fakeConn struct {
	writes []portWrite
	err    error
}

func (c *fakeConn) String() string { return "fake ports" }
func (c *fakeConn) Close() error   { return nil }

func (c *fakeConn) Out(port uint16, value byte) error {
	c.writes = append(c.writes, portWrite{port, uint16(value), false})
	return c.err
}

func (c *fakeConn) OutWord(port uint16, value uint16) error {
	c.writes = append(c.writes, portWrite{port, value, true})
	return c.err
}

func (c *fakeConn) In(port uint16) (byte, error)       { return 0, c.err }
func (c *fakeConn) InWord(port uint16) (uint16, error) { return 0, c.err }

type memoryOp struct {
	Write  bool
	Offset int64
}

// fakeWindow is a window on plain memory.
type fakeWindow struct {
	mem []byte
	ops []memoryOp
}

func (w *fakeWindow) ReadAt(p []byte, off int64) (int, error) {
	w.ops = append(w.ops, memoryOp{false, off})
	if off < 0 || off >= int64(len(w.mem)) {
		return 0, io.EOF
	}
	return copy(p, w.mem[off:]), nil
}

func (w *fakeWindow) WriteAt(p []byte, off int64) (int, error) {
	w.ops = append(w.ops, memoryOp{true, off})
	if off < 0 || off >= int64(len(w.mem)) {
		return 0, io.ErrShortWrite
	}
	return copy(w.mem[off:], p), nil
}

// fakeMemory maps every request on a single window.
type fakeMemory struct {
	base   uint64
	size   int
	window *fakeWindow
	err    error
}

func (m *fakeMemory) Map(base uint64, size int) (Window, error) {
	m.base, m.size = base, size
	if m.err != nil {
		return nil, m.err
	}
	m.window = &fakeWindow{mem: make([]byte, size)}
	return m.window, nil
}
