package vbe

import "io"

// VGA register ports used by the planar and palette paths.
const (
	portSequencerIndex = 0x3C4
	portGraphicsIndex  = 0x3CE
	portGraphicsData   = 0x3CF
	portDACWriteIndex  = 0x3C8
	portDACData        = 0x3C9
)

// Sequencer and graphics controller register indices.
const (
	seqMapMask     = 0x02
	gcSetReset     = 0x00
	gcEnableSet    = 0x01
	gcDataRotate   = 0x03
	gcReadMap      = 0x04
	gcMode         = 0x05
	gcBitMask      = 0x08
	gcWriteMode2   = 0x02
	allPlanes      = 0x0F
	planeCount     = 4
	bitMaskUnknown = -1
)

// Conn is the connection to the adapter's I/O register ports.
type Conn interface {
	String() string

	// Close the connection.
	Close() error

	// Out writes a byte to a port.
	Out(port uint16, value byte) error

	// OutWord writes a 16-bit word to a port; the low byte goes to port and
	// the high byte to port+1, which is how index/data register pairs are
	// programmed in one go.
	OutWord(port uint16, value uint16) error

	// In reads a byte from a port.
	In(port uint16) (byte, error)

	// InWord reads a 16-bit word from a port.
	InWord(port uint16) (uint16, error)
}

// Window is a mapped slice of video memory.
type Window interface {
	io.ReaderAt
	io.WriterAt
}

// Memory maps physical video memory.
type Memory interface {
	// Map size bytes of physical memory starting at base.
	Map(base uint64, size int) (Window, error)
}
