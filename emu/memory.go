package emu

import (
	"fmt"
	"io"

	"github.com/BeatGlow/vbe"
)

// Map returns a view on the banked window at WindowBase or on the linear frame
// buffer.
func (a *Adapter) Map(base uint64, size int) (vbe.Window, error) {
	switch {
	case base == WindowBase && size <= windowSize:
		return &bankedWindow{a: a, size: size}, nil
	case a.config.LinearBase != 0 && base == uint64(a.config.LinearBase) && size <= a.config.Memory:
		return &linearWindow{a: a, size: size}, nil
	default:
		return nil, fmt.Errorf("%w %#x (%d bytes)", ErrMapping, base, size)
	}
}

// ReadAt reads firmware memory at a linear real-mode address.
func (a *Adapter) ReadAt(p []byte, off int64) (int, error) {
	if off < romBase || off >= romBase+int64(len(a.rom)) {
		return 0, fmt.Errorf("%w %#x", ErrMapping, off)
	}
	n := copy(p, a.rom[off-romBase:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// bankedWindow accesses video memory through window A.
type bankedWindow struct {
	a    *Adapter
	size int
}

func (w *bankedWindow) ReadAt(p []byte, off int64) (n int, err error) {
	w.a.mu.Lock()
	defer w.a.mu.Unlock()

	var addr int
	for ; n < len(p); n++ {
		if addr, err = w.address(off + int64(n)); err != nil {
			return
		}
		if w.a.mode.Planar() {
			p[n] = w.a.readPlanar(addr)
		} else {
			p[n] = w.a.vram[addr]
		}
	}
	return
}

func (w *bankedWindow) WriteAt(p []byte, off int64) (n int, err error) {
	w.a.mu.Lock()
	defer w.a.mu.Unlock()

	var addr int
	for ; n < len(p); n++ {
		if addr, err = w.address(off + int64(n)); err != nil {
			return
		}
		if w.a.mode.Planar() {
			w.a.writePlanar(addr, p[n])
		} else {
			w.a.vram[addr] = p[n]
		}
	}
	return
}

// address translates a window offset to a video memory offset.
func (w *bankedWindow) address(off int64) (int, error) {
	a := w.a
	if a.mode == nil || a.linear {
		return 0, ErrNoMode
	}
	if off < 0 || off >= int64(w.size) {
		return 0, io.EOF
	}
	addr := a.window[vbe.WindowA]*a.config.Granularity<<10 + int(off)
	if addr >= a.memoryLimit() {
		return 0, io.EOF
	}
	return addr, nil
}

// linearWindow accesses the linear frame buffer.
type linearWindow struct {
	a    *Adapter
	size int
}

func (w *linearWindow) ReadAt(p []byte, off int64) (int, error) {
	w.a.mu.Lock()
	defer w.a.mu.Unlock()
	if !w.a.linear {
		return 0, ErrNoMode
	}
	if off < 0 || off >= int64(w.size) {
		return 0, io.EOF
	}
	n := copy(p, w.a.vram[off:w.size])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (w *linearWindow) WriteAt(p []byte, off int64) (int, error) {
	w.a.mu.Lock()
	defer w.a.mu.Unlock()
	if !w.a.linear {
		return 0, ErrNoMode
	}
	if off < 0 || off >= int64(w.size) {
		return 0, io.ErrShortWrite
	}
	n := copy(w.a.vram[off:w.size], p)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}
