package pixel

import "image/color"

// DACModel converts colors to 6-bit DAC colors.
var DACModel color.Model = color.ModelFunc(dacModel)

// EGAPalette are the 16 colors of the EGA and VGA planar modes.
var EGAPalette = color.Palette{
	DAC{0, 0, 0},    // black
	DAC{0, 0, 42},   // blue
	DAC{0, 42, 0},   // green
	DAC{0, 42, 42},  // cyan
	DAC{42, 0, 0},   // red
	DAC{42, 0, 42},  // magenta
	DAC{42, 21, 0},  // brown
	DAC{42, 42, 42}, // light gray
	DAC{21, 21, 21}, // dark gray
	DAC{21, 21, 63}, // light blue
	DAC{21, 63, 21}, // light green
	DAC{21, 63, 63}, // light cyan
	DAC{63, 21, 21}, // light red
	DAC{63, 21, 63}, // light magenta
	DAC{63, 63, 21}, // yellow
	DAC{63, 63, 63}, // white
}

// VGAPalette is the default 256 color palette: the EGA colors, a 6x6x6 color
// cube and a 24 step gray ramp.
var VGAPalette = makeVGAPalette()

func makeVGAPalette() color.Palette {
	p := make(color.Palette, 0, 256)
	p = append(p, EGAPalette...)
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				p = append(p, DAC{
					R: uint8(r * 63 / 5),
					G: uint8(g * 63 / 5),
					B: uint8(b * 63 / 5),
				})
			}
		}
	}
	for i := 0; i < 24; i++ {
		y := uint8(i * 63 / 23)
		p = append(p, DAC{y, y, y})
	}
	return p
}

// Expand6 converts a 6-bit DAC component to 8 bits.
func Expand6(v uint8) uint8 {
	v &= 0x3f
	return v<<2 | v>>4
}

// Reduce6 converts an 8-bit component to a 6-bit DAC component.
func Reduce6(v uint8) uint8 {
	return v >> 2
}

// DAC represents a color as programmed in the VGA DAC, 6 bits per component.
type DAC struct {
	R, G, B uint8
}

func (c DAC) RGBA() (r, g, b, a uint32) {
	r = uint32(Expand6(c.R))
	g = uint32(Expand6(c.G))
	b = uint32(Expand6(c.B))
	// Duplicate the whole value in the high byte.
	r |= r << 8
	g |= g << 8
	b |= b << 8
	return r, g, b, 0xffff
}

func dacModel(c color.Color) color.Color {
	if _, ok := c.(DAC); ok {
		return c
	}
	r, g, b, _ := c.RGBA()
	return DAC{
		R: uint8(r >> 10),
		G: uint8(g >> 10),
		B: uint8(b >> 10),
	}
}
