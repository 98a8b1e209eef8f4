package vbe

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"
)

type recorder struct {
	reports []string
	fatals  []error
}

func (r *recorder) config(fw *fakeFirmware, mem Memory, conn Conn) *Config {
	config := &Config{
		Memory: mem,
		Report: func(format string, args ...any) {
			r.reports = append(r.reports, fmt.Sprintf(format, args...))
		},
		Fatal: func(err error) {
			r.fatals = append(r.fatals, err)
		},
	}
	if conn != nil {
		config.Conn = conn
	}
	return config
}

func activated(t *testing.T, fw *fakeFirmware, width, height int) (*Driver, *fakeMemory, *fakeConn) {
	t.Helper()
	var (
		r    recorder
		mem  = new(fakeMemory)
		conn = new(fakeConn)
		d    = New(fw, r.config(fw, mem, conn))
	)
	if err := d.Activate(width, height); err != nil {
		t.Fatalf("Activate(%d, %d): %v", width, height, err)
	}
	fw.calls = nil
	conn.writes = nil
	mem.window.ops = nil
	return d, mem, conn
}

func TestBankShift(t *testing.T) {
	tests := []struct {
		Granularity int
		Want        uint
		Err         bool
	}{
		{64, 0, false},
		{32, 1, false},
		{16, 2, false},
		{8, 3, false},
		{4, 4, false},
		{2, 5, false},
		{1, 6, false},
		{0, 0, true},
		{3, 0, true},
		{48, 0, true},
		{128, 0, true},
		{-64, 0, true},
		{65, 0, true},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d", test.Granularity), func(it *testing.T) {
			shift, err := BankShift(test.Granularity)
			if test.Err {
				if err == nil {
					it.Fatalf("expected error, got shift %d", shift)
				}
				return
			}
			if err != nil {
				it.Fatal(err)
			}
			if shift != test.Want {
				it.Fatalf("expected shift %d, got %d", test.Want, shift)
			}
			if 64>>shift != test.Granularity {
				it.Fatalf("64 >> %d != %d", shift, test.Granularity)
			}
		})
	}
}

func TestProbe(t *testing.T) {
	fw := newFakeFirmware(packedMode(0x101, 640, 480, 640), packedMode(0x105, 1024, 768, 1024))
	d := New(fw, nil)

	info, err := d.Probe()
	if err != nil {
		t.Fatal(err)
	}
	if info.Signature != "VESA" {
		t.Errorf("expected signature VESA, got %q", info.Signature)
	}
	if info.Version != 0x0200 || info.Version.String() != "2.0" {
		t.Errorf("expected version 2.0, got %s", info.Version)
	}
	if info.TotalMemory != 1<<20 {
		t.Errorf("expected 1 MiB, got %d", info.TotalMemory)
	}
	if info.OEM != "fake" {
		t.Errorf("expected OEM string %q, got %q", "fake", info.OEM)
	}
	if len(info.Modes) != 2 || info.Modes[0] != 0x101 || info.Modes[1] != 0x105 {
		t.Errorf("unexpected mode list %v", info.Modes)
	}
	if d.Info() != info {
		t.Error("expected Info to return the last probe result")
	}

	calls := fw.callsTo(FuncGetInfo)
	if len(calls) != 1 {
		t.Fatalf("expected 1 controller info call, got %d", len(calls))
	}
}

func TestProbeSignature(t *testing.T) {
	fw := newFakeFirmware(packedMode(0x101, 640, 480, 640))
	fw.signature = "VBE2"

	if _, err := New(fw, nil).Probe(); !errors.Is(err, ErrNotSupported) {
		t.Fatalf("expected ErrNotSupported, got %v", err)
	}
}

func TestInspect(t *testing.T) {
	fw := newFakeFirmware(packedMode(0x101, 640, 480, 640))
	d := New(fw, nil)

	t.Run("vga", func(it *testing.T) {
		if _, err := d.Inspect(0x13); !errors.Is(err, ErrModeUnsupported) {
			it.Fatalf("expected ErrModeUnsupported, got %v", err)
		}
		if len(fw.calls) != 0 {
			it.Fatalf("expected no firmware calls, got %v", fw.calls)
		}
	})

	t.Run("supported", func(it *testing.T) {
		mi, err := d.Inspect(0x101)
		if err != nil {
			it.Fatal(err)
		}
		if mi.Width != 640 || mi.Height != 480 || mi.BytesPerScanLine != 640 {
			it.Fatalf("unexpected mode %s", mi)
		}
		if !mi.Suitable() || !mi.Packed() || mi.Planar() {
			it.Fatalf("expected a suitable packed mode, got %s", mi)
		}
	})

	t.Run("unknown", func(it *testing.T) {
		if _, err := d.Inspect(0x1FF); !errors.Is(err, ErrModeUnsupported) {
			it.Fatalf("expected ErrModeUnsupported, got %v", err)
		}
		if d.mode != (ModeInfo{}) {
			it.Fatal("expected scratch mode info to be zeroed")
		}
	})
}

func TestActivate(t *testing.T) {
	t.Run("resolution", func(it *testing.T) {
		fw := newFakeFirmware(packedMode(0x101, 640, 480, 640), packedMode(0x118, 1024, 768, 1024))
		d, _, _ := activated(it, fw, 1024, 768)

		state := d.State()
		if state.Mode != 0x118 {
			it.Fatalf("expected mode 0x118, got %s", state.Mode)
		}
		if state.BytesPerLine != 1024 || state.Width != 1024 || state.Height != 768 {
			it.Fatalf("unexpected state %+v", state)
		}
		if state.Bank != noBank {
			it.Fatalf("expected unknown bank, got %d", state.Bank)
		}
		if state.PreviousMode != 0x03 {
			it.Fatalf("expected previous mode 0x03, got %s", state.PreviousMode)
		}
		if fw.current != 0x118 {
			it.Fatalf("expected firmware mode 0x118, got %s", fw.current)
		}
	})

	t.Run("first match", func(it *testing.T) {
		for i := 0; i < 3; i++ {
			fw := newFakeFirmware(
				packedMode(0x101, 640, 480, 640),
				packedMode(0x105, 1024, 768, 1024),
				packedMode(0x118, 1024, 768, 1024),
			)
			d, _, _ := activated(it, fw, 1024, 768)
			if mode := d.State().Mode; mode != 0x105 {
				it.Fatalf("run %d: expected mode 0x105, got %s", i, mode)
			}
		}
	})

	t.Run("skip unusable", func(it *testing.T) {
		direct := packedMode(0x110, 1024, 768, 2048)
		direct.info.BitsPerPixel = 16
		direct.info.MemoryModel = ModelDirectColor
		disabled := packedMode(0x111, 1024, 768, 1024)
		disabled.info.Attributes &^= AttrSupported

		fw := newFakeFirmware(
			&fakeMode{number: 0x50},
			direct,
			disabled,
			&fakeMode{number: 0x112},
			packedMode(0x118, 1024, 768, 1024),
		)
		var (
			r   recorder
			mem = new(fakeMemory)
			d   = New(fw, r.config(fw, mem, nil))
		)
		if err := d.Activate(1024, 768); err != nil {
			it.Fatal(err)
		}
		if mode := d.State().Mode; mode != 0x118 {
			it.Fatalf("expected mode 0x118, got %s", mode)
		}
		for _, call := range fw.callsTo(FuncGetModeInfo) {
			if call.CX < uint16(ModeMin) {
				it.Fatalf("unexpected mode info query for VGA mode %#04x", call.CX)
			}
		}
		if calls := fw.callsTo(FuncSetMode); len(calls) != 1 || calls[0].BX != 0x118 {
			it.Fatalf("expected a single set mode 0x118, got %v", calls)
		}
	})

	t.Run("planar", func(it *testing.T) {
		fw := newFakeFirmware(planarMode(0x102, 800, 600))
		var (
			r    recorder
			mem  = new(fakeMemory)
			conn = new(fakeConn)
			d    = New(fw, r.config(fw, mem, conn))
		)
		if err := d.Activate(800, 600); err != nil {
			it.Fatal(err)
		}
		if !d.State().Planar || d.State().BytesPerLine != 100 {
			it.Fatalf("unexpected state %+v", d.State())
		}
		want := []portWrite{
			{0x3C4, 0x0F02, true},
			{0x3CE, 0x0003, true},
			{0x3CE, 0x0205, true},
			{0x3CE, 0x0001, true},
		}
		if len(conn.writes) != len(want) {
			it.Fatalf("expected %d port writes, got %v", len(want), conn.writes)
		}
		for i, w := range want {
			if conn.writes[i] != w {
				it.Errorf("write %d: expected %+v, got %+v", i, w, conn.writes[i])
			}
		}
	})

	t.Run("planar without conn", func(it *testing.T) {
		fw := newFakeFirmware(planarMode(0x102, 800, 600))
		var (
			r recorder
			d = New(fw, r.config(fw, new(fakeMemory), nil))
		)
		if err := d.Activate(800, 600); !errors.Is(err, ErrNoConn) {
			it.Fatalf("expected ErrNoConn, got %v", err)
		}
		if fw.count(FuncSetMode) != 0 {
			it.Fatal("expected no mode set")
		}
	})

	t.Run("flags", func(it *testing.T) {
		mode := packedMode(0x118, 1024, 768, 1024)
		mode.info.Attributes |= AttrLinear
		mode.info.PhysBase = 0xE0000000

		fw := newFakeFirmware(mode)
		var (
			r      recorder
			mem    = new(fakeMemory)
			config = r.config(fw, mem, nil)
		)
		config.Linear = true
		config.NoClear = true
		d := New(fw, config)
		if err := d.Activate(1024, 768); err != nil {
			it.Fatal(err)
		}
		calls := fw.callsTo(FuncSetMode)
		if len(calls) != 1 || calls[0].BX != 0xC118 {
			it.Fatalf("expected set mode 0xc118, got %v", calls)
		}
		if mem.base != 0xE0000000 || mem.size != 1024*768 {
			it.Fatalf("expected linear map at 0xe0000000 of %d bytes, got %#x of %d", 1024*768, mem.base, mem.size)
		}
		if !d.State().Linear {
			it.Fatal("expected linear state")
		}
	})
}

func TestActivateFatal(t *testing.T) {
	tests := []struct {
		Name  string
		Setup func(*fakeFirmware)
		Err   error
	}{
		{"no vbe", func(fw *fakeFirmware) {
			fw.fail = func(fn Function, _ *Regs) bool { return fn == FuncGetInfo }
		}, ErrNotSupported},
		{"bad signature", func(fw *fakeFirmware) { fw.signature = "VBE2" }, ErrNotSupported},
		{"no match", func(fw *fakeFirmware) {}, ErrNoMatchingMode},
		{"set mode fails", func(fw *fakeFirmware) {
			fw.modes[0x103] = packedMode(0x103, 800, 600, 800).info
			fw.list = append(fw.list, 0x103)
			fw.fail = func(fn Function, _ *Regs) bool { return fn == FuncSetMode }
		}, ErrModeUnsupported},
	}
	for _, test := range tests {
		t.Run(test.Name, func(it *testing.T) {
			fw := newFakeFirmware(packedMode(0x101, 640, 480, 640))
			test.Setup(fw)

			var (
				r recorder
				d = New(fw, r.config(fw, new(fakeMemory), nil))
			)
			err := d.Activate(800, 600)
			if !errors.Is(err, test.Err) {
				it.Fatalf("expected %v, got %v", test.Err, err)
			}
			if len(r.fatals) != 1 || r.fatals[0] != err {
				it.Fatalf("expected fatal hook with %v, got %v", err, r.fatals)
			}
			if len(r.reports) == 0 {
				it.Fatal("expected a diagnostic report")
			}
			if d.State().Active() {
				it.Fatal("expected no active mode")
			}
			if test.Err != ErrModeUnsupported && fw.count(FuncSetMode) != 0 {
				it.Fatalf("expected no set mode calls, got %d", fw.count(FuncSetMode))
			}
		})
	}
}

func TestOpen(t *testing.T) {
	for _, config := range []*Config{
		nil,
		{Width: 0, Height: 480},
		{Width: 640, Height: -1},
	} {
		fw := newFakeFirmware(packedMode(0x101, 640, 480, 640))
		if _, err := Open(fw, config); err == nil {
			t.Errorf("expected error for config %+v", config)
		}
		if len(fw.calls) != 0 {
			t.Errorf("expected no firmware calls, got %v", fw.calls)
		}
	}

	fw := newFakeFirmware(packedMode(0x101, 640, 480, 640))
	d, err := Open(fw, &Config{Width: 640, Height: 480, Memory: new(fakeMemory)})
	if err != nil {
		t.Fatal(err)
	}
	if want := image.Rect(0, 0, 640, 480); d.Bounds() != want {
		t.Fatalf("expected bounds %s, got %s", want, d.Bounds())
	}
	if s := d.String(); s != "VBE mode 0x101 640x480 (packed)" {
		t.Fatalf("unexpected string %q", s)
	}
}

func TestActivateRevert(t *testing.T) {
	t.Run("map", func(it *testing.T) {
		fw := newFakeFirmware(packedMode(0x101, 640, 480, 640))
		var (
			r   recorder
			mem = &fakeMemory{err: errors.New("no such memory")}
			d   = New(fw, r.config(fw, mem, nil))
		)
		if err := d.Activate(640, 480); err == nil {
			it.Fatal("expected mapping failure")
		}
		if d.State().Active() {
			it.Fatalf("expected no active mode, got %+v", d.State())
		}
		if err := d.PutPixel(0, 0, 1); !errors.Is(err, ErrNotActive) {
			it.Fatalf("expected ErrNotActive, got %v", err)
		}
		calls := fw.callsTo(FuncSetMode)
		if len(calls) != 2 || calls[0].BX != 0x101 || calls[1].BX != 0x03 {
			it.Fatalf("expected set mode 0x101 then 0x03, got %v", calls)
		}
		if len(r.fatals) != 1 {
			it.Fatalf("expected fatal hook, got %v", r.fatals)
		}
	})

	t.Run("planar", func(it *testing.T) {
		fw := newFakeFirmware(planarMode(0x102, 800, 600))
		var (
			r    recorder
			conn = &fakeConn{err: errors.New("port failure")}
			d    = New(fw, r.config(fw, new(fakeMemory), conn))
		)
		if err := d.Activate(800, 600); err == nil {
			it.Fatal("expected planar setup failure")
		}
		if d.State().Active() {
			it.Fatalf("expected no active mode, got %+v", d.State())
		}
		if fw.current != 0x03 {
			it.Fatalf("expected firmware back in mode 0x03, got %s", fw.current)
		}
	})

	t.Run("replaces active mode", func(it *testing.T) {
		fw := newFakeFirmware(packedMode(0x101, 640, 480, 640), planarMode(0x102, 800, 600))
		var (
			r    recorder
			conn = new(fakeConn)
			d    = New(fw, r.config(fw, new(fakeMemory), conn))
		)
		if err := d.Activate(640, 480); err != nil {
			it.Fatal(err)
		}
		conn.err = errors.New("port failure")
		if err := d.Activate(800, 600); err == nil {
			it.Fatal("expected planar setup failure")
		}
		if state := d.State(); state.Active() || state.Mode != 0 {
			it.Fatalf("expected the stale 0x101 state to be dropped, got %+v", state)
		}
	})
}

func TestRestore(t *testing.T) {
	fw := newFakeFirmware(packedMode(0x101, 640, 480, 640))
	d, _, _ := activated(t, fw, 640, 480)

	if err := d.Restore(); err != nil {
		t.Fatal(err)
	}
	if calls := fw.callsTo(FuncSetMode); len(calls) != 1 || calls[0].BX != 0x03 {
		t.Fatalf("expected set mode 0x03, got %v", calls)
	}
	if d.State().Active() || d.State().Bank != noBank {
		t.Fatalf("expected reset state, got %+v", d.State())
	}
	if err := d.PutPixel(0, 0, 1); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}

	fw.calls = nil
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if len(fw.calls) != 0 {
		t.Fatalf("expected no calls restoring twice, got %v", fw.calls)
	}
}

func TestEnumerateModes(t *testing.T) {
	direct := packedMode(0x110, 640, 480, 1280)
	direct.info.BitsPerPixel = 16
	direct.info.MemoryModel = ModelDirectColor

	fw := newFakeFirmware(
		packedMode(0x101, 640, 480, 640),
		planarMode(0x102, 800, 600),
		&fakeMode{number: 0x103},
		direct,
	)
	d := New(fw, nil)

	modes, err := d.EnumerateModes()
	if err != nil {
		t.Fatal(err)
	}
	var got []ModeSummary
	for mode := range modes {
		got = append(got, mode)
	}
	want := []ModeSummary{
		{Mode: 0x101, Width: 640, Height: 480, BitsPerPixel: 8, MemoryModel: ModelPacked, Suitable: true},
		{Mode: 0x102, Width: 800, Height: 600, BitsPerPixel: 4, MemoryModel: ModelPlanar, Suitable: true},
		{Mode: 0x110, Width: 640, Height: 480, BitsPerPixel: 16, MemoryModel: ModelDirectColor},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d modes, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("mode %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	t.Run("single use", func(it *testing.T) {
		var n int
		for range modes {
			n++
		}
		if n != 0 {
			it.Fatalf("expected an exhausted sequence, got %d modes", n)
		}
	})

	t.Run("break", func(it *testing.T) {
		modes, err := d.EnumerateModes()
		if err != nil {
			it.Fatal(err)
		}
		fw.calls = nil
		for range modes {
			break
		}
		if n := fw.count(FuncGetModeInfo); n != 1 {
			it.Fatalf("expected 1 mode info query, got %d", n)
		}
	})
}

func TestEnsureBank(t *testing.T) {
	t.Run("granularity 64", func(it *testing.T) {
		fw := newFakeFirmware(packedMode(0x105, 1024, 768, 1024))
		d, _, _ := activated(it, fw, 1024, 768)

		offset, err := d.ensureBank(100)
		if err != nil {
			it.Fatal(err)
		}
		if offset != 100 {
			it.Fatalf("expected offset 100, got %d", offset)
		}
		calls := fw.callsTo(FuncWindowControl)
		if len(calls) != 2 || calls[0].BX != WindowA || calls[1].BX != WindowB || calls[0].DX != 0 || calls[1].DX != 0 {
			it.Fatalf("expected window A and B set to 0, got %v", calls)
		}

		fw.calls = nil
		if _, err = d.ensureBank(0xFFFF); err != nil {
			it.Fatal(err)
		}
		if len(fw.calls) != 0 {
			it.Fatalf("expected no calls for the current bank, got %v", fw.calls)
		}

		if offset, err = d.ensureBank(0x10000 + 7); err != nil {
			it.Fatal(err)
		}
		if offset != 7 || d.State().Bank != 1 {
			it.Fatalf("expected offset 7 in bank 1, got %d in bank %d", offset, d.State().Bank)
		}
		for _, call := range fw.callsTo(FuncWindowControl) {
			if call.DX != 1 {
				it.Fatalf("expected window position 1, got %d", call.DX)
			}
		}
	})

	t.Run("granularity 4", func(it *testing.T) {
		mode := packedMode(0x105, 1024, 768, 1024)
		mode.info.WinGranularity = 4
		fw := newFakeFirmware(mode)
		d, _, _ := activated(it, fw, 1024, 768)

		if _, err := d.ensureBank(3 << 16); err != nil {
			it.Fatal(err)
		}
		for _, call := range fw.callsTo(FuncWindowControl) {
			if call.DX != 3<<4 {
				it.Fatalf("expected window position %d, got %d", 3<<4, call.DX)
			}
		}
	})

	t.Run("failure", func(it *testing.T) {
		fw := newFakeFirmware(packedMode(0x105, 1024, 768, 1024))
		d, mem, _ := activated(it, fw, 1024, 768)

		if err := d.PutPixel(0, 0, 1); err != nil {
			it.Fatal(err)
		}
		fw.fail = func(fn Function, _ *Regs) bool { return fn == FuncWindowControl }
		mem.window.ops = nil

		if err := d.PutPixel(0, 128, 1); !errors.Is(err, ErrBankSwitch) {
			it.Fatalf("expected ErrBankSwitch, got %v", err)
		}
		if bank := d.State().Bank; bank != 0 {
			it.Fatalf("expected bank 0 after failure, got %d", bank)
		}
		if len(mem.window.ops) != 0 {
			it.Fatalf("expected no memory access, got %v", mem.window.ops)
		}

		// Lines skip the pixels that can not be written.
		d.DrawLine(0, 64, 10, 64, 2)
		if len(mem.window.ops) != 0 {
			it.Fatalf("expected no memory access, got %v", mem.window.ops)
		}
	})
}

func TestPutPixel(t *testing.T) {
	fw := newFakeFirmware(packedMode(0x105, 1000, 768, 1024))
	d, mem, _ := activated(t, fw, 1000, 768)

	if err := d.PutPixel(3, 2, 9); err != nil {
		t.Fatal(err)
	}
	if v := mem.window.mem[2*1024+3]; v != 9 {
		t.Fatalf("expected 9 at offset %d, got %d", 2*1024+3, v)
	}
	index, err := d.ColorIndexAt(3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if index != 9 {
		t.Fatalf("expected index 9, got %d", index)
	}

	mem.window.ops = nil
	for _, p := range []image.Point{{-1, 0}, {0, -1}, {1000, 0}, {0, 768}, {1023, 0}} {
		if err := d.PutPixel(p.X, p.Y, 1); !errors.Is(err, ErrBounds) {
			t.Errorf("%s: expected ErrBounds, got %v", p, err)
		}
	}
	if len(mem.window.ops) != 0 {
		t.Fatalf("expected no memory access, got %v", mem.window.ops)
	}

	if err := New(fw, nil).PutPixel(0, 0, 1); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}
}

func TestPutPixelLinear(t *testing.T) {
	mode := packedMode(0x105, 1024, 768, 1024)
	mode.info.Attributes |= AttrLinear
	mode.info.PhysBase = 0xE0000000
	fw := newFakeFirmware(mode)

	mem := new(fakeMemory)
	d := New(fw, &Config{Memory: mem, Linear: true, Report: func(string, ...any) {}})
	if err := d.Activate(1024, 768); err != nil {
		t.Fatal(err)
	}
	fw.calls = nil

	if err := d.PutPixel(5, 700, 3); err != nil {
		t.Fatal(err)
	}
	if v := mem.window.mem[700*1024+5]; v != 3 {
		t.Fatalf("expected 3, got %d", v)
	}
	if len(fw.calls) != 0 {
		t.Fatalf("expected no firmware calls, got %v", fw.calls)
	}
}

func TestPutPixelPlanar(t *testing.T) {
	fw := newFakeFirmware(planarMode(0x101, 640, 480))
	d, mem, conn := activated(t, fw, 640, 480)

	if err := d.PutPixelPlanar(0, 0, 5); err != nil {
		t.Fatal(err)
	}
	want := []portWrite{{0x3CE, gcBitMask, false}, {0x3CF, 0x80, false}}
	if len(conn.writes) != 2 || conn.writes[0] != want[0] || conn.writes[1] != want[1] {
		t.Fatalf("expected bit mask writes %v, got %v", want, conn.writes)
	}
	if ops := mem.window.ops; len(ops) != 2 || ops[0] != (memoryOp{false, 0}) || ops[1] != (memoryOp{true, 0}) {
		t.Fatalf("expected latch read then write at 0, got %v", ops)
	}

	// Same mask, next line.
	conn.writes = nil
	mem.window.ops = nil
	if err := d.PutPixelPlanar(8, 1, 5); err != nil {
		t.Fatal(err)
	}
	if len(conn.writes) != 0 {
		t.Fatalf("expected no bit mask writes, got %v", conn.writes)
	}
	if ops := mem.window.ops; len(ops) != 2 || ops[1].Offset != 80+1 {
		t.Fatalf("expected write at offset 81, got %v", ops)
	}

	conn.writes = nil
	if err := d.PutPixelPlanar(7, 1, 5); err != nil {
		t.Fatal(err)
	}
	if len(conn.writes) != 2 || conn.writes[1].Value != 0x01 {
		t.Fatalf("expected bit mask 0x01, got %v", conn.writes)
	}

	conn.writes = nil
	d.DrawLine(7, 10, 7, 20, 3)
	if len(conn.writes) != 0 {
		t.Fatalf("expected no bit mask writes for a vertical line, got %v", conn.writes)
	}

	conn.err = errors.New("port failure")
	if err := d.PutPixelPlanar(0, 0, 1); err == nil {
		t.Fatal("expected port failure")
	}
	conn.err = nil
	conn.writes = nil
	if err := d.PutPixelPlanar(0, 0, 1); err != nil {
		t.Fatal(err)
	}
	if len(conn.writes) != 2 {
		t.Fatalf("expected bit mask to be reprogrammed after a failure, got %v", conn.writes)
	}
}

func TestDrawLine(t *testing.T) {
	fw := newFakeFirmware(packedMode(0x105, 1024, 768, 1024))

	t.Run("point", func(it *testing.T) {
		d, mem, _ := activated(it, fw, 1024, 768)
		d.DrawLine(5, 5, 5, 5, 7)
		if len(mem.window.ops) != 1 {
			it.Fatalf("expected a single write, got %v", mem.window.ops)
		}
		if v := mem.window.mem[5*1024+5]; v != 7 {
			it.Fatalf("expected 7, got %d", v)
		}
	})

	for _, line := range []struct {
		Name   string
		X1, X2 int
	}{
		{"horizontal", 0, 100},
		{"horizontal reversed", 100, 0},
	} {
		t.Run(line.Name, func(it *testing.T) {
			d, mem, _ := activated(it, fw, 1024, 768)
			d.DrawLine(line.X1, 10, line.X2, 10, 1)
			if len(mem.window.ops) != 101 {
				it.Fatalf("expected 101 writes, got %d", len(mem.window.ops))
			}
			for x, op := range mem.window.ops {
				if want := int64(10*1024 + x); op.Offset != want {
					it.Fatalf("write %d: expected offset %d (%d,10), got %d", x, want, x, op.Offset)
				}
				if mem.window.mem[op.Offset] != 1 {
					it.Fatalf("pixel (%d,10) not set", x)
				}
			}
		})
	}

	t.Run("clipped", func(it *testing.T) {
		d, mem, _ := activated(it, fw, 1024, 768)
		d.DrawLine(-10, 0, 9, 0, 1)
		if len(mem.window.ops) != 10 {
			it.Fatalf("expected 10 writes, got %d", len(mem.window.ops))
		}
	})
}

func TestDrawMoire(t *testing.T) {
	fw := newFakeFirmware(packedMode(0x120, 64, 48, 64))
	d, mem, _ := activated(t, fw, 64, 48)

	d.DrawMoire()
	for _, p := range []image.Point{{0, 0}, {63, 0}, {0, 47}, {63, 47}, {10, 0}, {0, 10}, {63, 20}, {20, 47}} {
		if v := mem.window.mem[p.Y*64+p.X]; v != 15 {
			t.Errorf("%s: expected border colour 15, got %d", p, v)
		}
	}
}

func TestDrawImage(t *testing.T) {
	fw := newFakeFirmware(packedMode(0x120, 64, 48, 64))
	d, mem, _ := activated(t, fw, 64, 48)

	c := d.palette[4]
	d.Set(1, 1, c)
	want := uint8(d.palette.Index(c))
	if v := mem.window.mem[64+1]; v != want {
		t.Fatalf("expected index %d, got %d", want, v)
	}
	if got := d.At(1, 1); got != d.palette[want] {
		t.Fatalf("expected %v, got %v", d.palette[want], got)
	}
	if got := d.At(64, 0); got != color.Transparent {
		t.Fatalf("expected transparent out of bounds, got %v", got)
	}

	white := d.palette[15]
	if err := d.Draw(image.Rect(8, 8, 16, 16), image.NewUniform(white), image.Point{}); err != nil {
		t.Fatal(err)
	}
	index := uint8(d.palette.Index(white))
	for y := 8; y < 16; y++ {
		for x := 8; x < 16; x++ {
			if v := mem.window.mem[y*64+x]; v != index {
				t.Fatalf("(%d,%d): expected %d, got %d", x, y, index, v)
			}
		}
	}

	if err := New(fw, nil).Draw(image.Rect(0, 0, 1, 1), image.NewUniform(white), image.Point{}); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}
}

func TestSetPaletteColor(t *testing.T) {
	conn := new(fakeConn)
	d := New(newFakeFirmware(), &Config{Conn: conn})

	if err := d.SetPaletteColor(1, color.RGBA{R: 0xFF, G: 0x00, B: 0x80, A: 0xFF}); err != nil {
		t.Fatal(err)
	}
	want := []portWrite{
		{0x3C8, 1, false},
		{0x3C9, 0x3F, false},
		{0x3C9, 0x00, false},
		{0x3C9, 0x20, false},
	}
	if len(conn.writes) != len(want) {
		t.Fatalf("expected %v, got %v", want, conn.writes)
	}
	for i := range want {
		if conn.writes[i] != want[i] {
			t.Errorf("write %d: expected %+v, got %+v", i, want[i], conn.writes[i])
		}
	}
	if got, want := d.palette[1], (color.RGBA{R: 0xFF, G: 0x00, B: 0x82, A: 0xFF}); got != want {
		t.Errorf("expected palette entry %v, got %v", want, got)
	}

	if err := New(newFakeFirmware(), nil).SetPaletteColor(1, color.RGBA{}); !errors.Is(err, ErrNoConn) {
		t.Fatalf("expected ErrNoConn, got %v", err)
	}
}

func TestProtectedModeInterfaceUnsupported(t *testing.T) {
	if _, err := New(newFakeFirmware(), nil).ProtectedModeInterface(); !errors.Is(err, ErrNotSupported) {
		t.Fatalf("expected ErrNotSupported, got %v", err)
	}
}

func TestModeNumber(t *testing.T) {
	m := ModeNumber(0x105) | ModeLinear | ModePreserve
	if m.Number() != 0x105 {
		t.Fatalf("expected 0x105, got %s", m.Number())
	}
	for _, test := range []struct {
		Mode ModeNumber
		Want string
	}{
		{0x03, "0x03"},
		{0x105, "0x105"},
		{0x118 | ModeLinear | ModePreserve, "0xc118"},
	} {
		if s := test.Mode.String(); s != test.Want {
			t.Errorf("expected %q, got %q", test.Want, s)
		}
	}
}
