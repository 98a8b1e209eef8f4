// Package backend opens the hardware (or emulated hardware) the commands
// drive.
package backend

import (
	"fmt"

	"periph.io/x/host/v3"

	"github.com/BeatGlow/vbe"
	"github.com/BeatGlow/vbe/bochs"
	"github.com/BeatGlow/vbe/conn"
	"github.com/BeatGlow/vbe/emu"
	"github.com/BeatGlow/vbe/framebuffer"
)

// Names of the supported backends.
const (
	Emulated = "emu"
	Bochs    = "bochs"
)

// Config selects and configures a backend.
type Config struct {
	// Name of the backend.
	Name string

	// Port is the I/O port device, used by the bochs backend.
	Port string

	// Console is the virtual terminal switched to graphics mode, used by the
	// bochs backend. Empty leaves the console alone.
	Console string

	// Framebuffer is a Linux frame buffer device that maps the linear frame
	// buffer, used by the bochs backend. Empty maps all memory through
	// /dev/mem.
	Framebuffer string

	// Emulator configures the emulated backend.
	Emulator *emu.Config
}

// Backend is an opened backend.
type Backend struct {
	Firmware vbe.Gateway
	Conn     vbe.Conn
	Memory   vbe.Memory

	// Adapter is the emulated adapter, nil for hardware backends.
	Adapter *emu.Adapter

	closers []func() error
}

// Open a backend.
func Open(config *Config) (*Backend, error) {
	switch config.Name {
	case Emulated, "":
		a, err := emu.New(config.Emulator)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Firmware: a,
			Conn:     a,
			Memory:   a,
			Adapter:  a,
		}, nil

	case Bochs:
		if _, err := host.Init(); err != nil {
			return nil, err
		}

		port, err := conn.OpenPort(config.Port)
		if err != nil {
			return nil, err
		}
		b := &Backend{
			Conn:    port,
			closers: []func() error{port.Close},
		}

		if b.Firmware, err = bochs.New(port, nil); err != nil {
			_ = b.Close()
			return nil, err
		}

		mem := new(conn.Memory)
		b.Memory = mem
		b.closers = append(b.closers, mem.Close)

		if config.Framebuffer != "" {
			fb, err := framebuffer.Open(config.Framebuffer, mem)
			if err != nil {
				_ = b.Close()
				return nil, err
			}
			b.Memory = fb
			b.closers = append(b.closers, fb.Close)
		}

		if config.Console != "" {
			console, err := conn.OpenConsole(config.Console)
			if err != nil {
				_ = b.Close()
				return nil, err
			}
			b.closers = append(b.closers, console.Close)
			if err = console.SetMode(conn.ConsoleGraphics); err != nil {
				_ = b.Close()
				return nil, err
			}
		}
		return b, nil

	default:
		return nil, fmt.Errorf("unsupported backend %q", config.Name)
	}
}

func (b *Backend) String() string {
	return fmt.Sprint(b.Firmware)
}

// Close releases the backend resources in reverse order of opening.
func (b *Backend) Close() (err error) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if cerr := b.closers[i](); cerr != nil && err == nil {
			err = cerr
		}
	}
	b.closers = nil
	return
}
