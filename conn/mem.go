package conn

import (
	"fmt"
	"io"
	"sync"

	"github.com/BeatGlow/vbe"
	"periph.io/x/host/v3/pmem"
)

// Memory maps physical memory through /dev/mem.
type Memory struct {
	mu    sync.Mutex
	views []*pmem.View
}

// Map size bytes of physical memory at base.
func (m *Memory) Map(base uint64, size int) (vbe.Window, error) {
	view, err := pmem.Map(base, size)
	if err != nil {
		return nil, fmt.Errorf("conn: map %d bytes at %#x: %w", size, base, err)
	}

	m.mu.Lock()
	m.views = append(m.views, view)
	m.mu.Unlock()

	return &Window{Pix: view.Bytes()}, nil
}

// Close unmaps all mapped views. Windows returned by Map are invalid afterwards.
func (m *Memory) Close() (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, view := range m.views {
		if cerr := view.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	m.views = nil
	return
}

// Window is a mapped memory region.
type Window struct {
	Pix []byte
}

func (w *Window) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(w.Pix)) {
		return 0, io.EOF
	}
	n := copy(p, w.Pix[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (w *Window) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(w.Pix)) {
		return 0, io.ErrShortWrite
	}
	n := copy(w.Pix[off:], p)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// Interface checks.
var (
	_ vbe.Memory = (*Memory)(nil)
	_ vbe.Window = (*Window)(nil)
	_ vbe.Conn   = (*Port)(nil)
)
