//go:build !linux

package framebuffer

import "github.com/BeatGlow/vbe"

// Open is not supported on this platform.
func Open(_ string, _ vbe.Memory) (*Device, error) {
	return nil, ErrNotSupported
}
