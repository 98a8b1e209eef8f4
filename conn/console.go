package conn

import (
	"fmt"
	"os"

	"github.com/BeatGlow/vbe/internal/ioctl"
)

// DefaultConsolePath is the active virtual terminal.
const DefaultConsolePath = "/dev/tty0"

// From <linux/kd.h>
const (
	kdSetMode = 0x4B3A
	kdGetMode = 0x4B3B
)

// ConsoleMode is the display mode of a virtual terminal.
type ConsoleMode int32

// Console modes.
const (
	ConsoleText     ConsoleMode = 0x00
	ConsoleGraphics ConsoleMode = 0x01
)

func (m ConsoleMode) String() string {
	switch m {
	case ConsoleText:
		return "text"
	case ConsoleGraphics:
		return "graphics"
	default:
		return fmt.Sprintf("mode %d", int32(m))
	}
}

// Console is a Linux virtual terminal. In graphics mode the kernel stops
// drawing to the screen, so it does not overwrite the frame buffer.
type Console struct {
	f        *os.File
	fd       uintptr
	previous ConsoleMode
}

// OpenConsole opens a virtual terminal. An empty name opens DefaultConsolePath.
func OpenConsole(name string) (*Console, error) {
	if name == "" {
		name = DefaultConsolePath
	}
	f, err := os.OpenFile(name, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	c := &Console{
		f:  f,
		fd: f.Fd(),
	}
	if c.previous, err = c.Mode(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return c, nil
}

func (c *Console) String() string {
	return fmt.Sprintf("console %s", c.f.Name())
}

// Mode returns the current console mode.
func (c *Console) Mode() (ConsoleMode, error) {
	var mode ConsoleMode
	if err := ioctl.Do(c.fd, ioctl.Command(kdGetMode), &mode); err != nil {
		return 0, err
	}
	return mode, nil
}

// SetMode switches the console mode.
func (c *Console) SetMode(mode ConsoleMode) error {
	return ioctl.Call(c.fd, kdSetMode, uintptr(mode))
}

// Close restores the console mode found when opening and closes the terminal.
func (c *Console) Close() error {
	if err := c.SetMode(c.previous); err != nil {
		_ = c.f.Close()
		return err
	}
	return c.f.Close()
}
