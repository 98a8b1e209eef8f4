// Package conn implements the connections to the video hardware: I/O ports,
// physical memory and the Linux console.
package conn

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
)

// DefaultPortPath is the Linux I/O port device.
const DefaultPortPath = "/dev/port"

// Port gives access to the I/O port space through a port device, where the
// file offset is the port number.
type Port struct {
	mu   sync.Mutex
	f    *os.File
	name string
	buf  [2]byte
}

// OpenPort opens the port device. An empty name opens DefaultPortPath.
func OpenPort(name string) (*Port, error) {
	if name == "" {
		name = DefaultPortPath
	}
	f, err := os.OpenFile(name, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &Port{
		f:    f,
		name: name,
	}, nil
}

func (p *Port) String() string {
	return fmt.Sprintf("I/O ports on %s", p.name)
}

func (p *Port) Close() error {
	return p.f.Close()
}

func (p *Port) Out(port uint16, value byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buf[0] = value
	return p.write(port, p.buf[:1])
}

func (p *Port) OutWord(port uint16, value uint16) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	binary.LittleEndian.PutUint16(p.buf[:], value)
	return p.write(port, p.buf[:])
}

func (p *Port) In(port uint16) (byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.read(port, p.buf[:1]); err != nil {
		return 0, err
	}
	return p.buf[0], nil
}

func (p *Port) InWord(port uint16) (uint16, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.read(port, p.buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(p.buf[:]), nil
}

func (p *Port) write(port uint16, b []byte) error {
	if _, err := p.f.WriteAt(b, int64(port)); err != nil {
		return fmt.Errorf("conn: out %#04x: %w", port, err)
	}
	return nil
}

func (p *Port) read(port uint16, b []byte) error {
	if _, err := p.f.ReadAt(b, int64(port)); err != nil {
		return fmt.Errorf("conn: in %#04x: %w", port, err)
	}
	return nil
}
