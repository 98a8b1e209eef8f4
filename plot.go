package vbe

import (
	"image/color"

	"github.com/BeatGlow/vbe/draw"
	"github.com/BeatGlow/vbe/pixel"
)

// PutPixel writes a palette index at (x, y) in a packed pixel mode.
func (d *Driver) PutPixel(x, y int, colour uint32) error {
	if err := d.check(x, y); err != nil {
		return err
	}

	offset, err := d.ensureBank(y*d.state.BytesPerLine + x)
	if err != nil {
		return err
	}
	d.pix[0] = byte(colour)
	_, err = d.window.WriteAt(d.pix[:], int64(offset))
	return err
}

// PutPixelPlanar writes a colour at (x, y) in a planar mode. The graphics
// controller is in write mode 2, the bit mask selects the pixel in the byte
// and the low four bits of the colour go to the four planes.
func (d *Driver) PutPixelPlanar(x, y int, colour uint32) error {
	if err := d.check(x, y); err != nil {
		return err
	}

	offset, err := d.ensureBank(y*d.state.BytesPerLine + x/8)
	if err != nil {
		return err
	}
	if err = d.setBitMask(0x80 >> (x & 7)); err != nil {
		return err
	}

	// Load the latches, so the pixels outside the bit mask are preserved.
	if _, err = d.window.ReadAt(d.pix[:], int64(offset)); err != nil {
		return err
	}
	d.pix[0] = byte(colour)
	_, err = d.window.WriteAt(d.pix[:], int64(offset))
	return err
}

// DrawLine draws a line between (x1, y1) and (x2, y2). Pixels that can not be
// written are skipped.
func (d *Driver) DrawLine(x1, y1, x2, y2 int, colour uint32) {
	draw.Bresenham(x1, y1, x2, y2, func(x, y int) {
		d.plot(x, y, colour)
	})
}

func (d *Driver) plot(x, y int, colour uint32) {
	var err error
	if d.state.Planar {
		err = d.PutPixelPlanar(x, y, colour)
	} else {
		err = d.PutPixel(x, y, colour)
	}
	if err != nil {
		d.debugf("vbe: skip pixel (%d,%d): %v", x, y, err)
	}
}

func (d *Driver) check(x, y int) error {
	if d.window == nil {
		return ErrNotActive
	}
	if x < 0 || y < 0 || x >= d.state.Width || y >= d.state.Height {
		return ErrBounds
	}
	return nil
}

// ColorIndexAt reads back the palette index at (x, y).
func (d *Driver) ColorIndexAt(x, y int) (uint8, error) {
	if err := d.check(x, y); err != nil {
		return 0, err
	}

	if !d.state.Planar {
		offset, err := d.ensureBank(y*d.state.BytesPerLine + x)
		if err != nil {
			return 0, err
		}
		if _, err = d.window.ReadAt(d.pix[:], int64(offset)); err != nil {
			return 0, err
		}
		return d.pix[0], nil
	}

	offset, err := d.ensureBank(y*d.state.BytesPerLine + x/8)
	if err != nil {
		return 0, err
	}
	var (
		index uint8
		bit   = byte(0x80 >> (x & 7))
	)
	for plane := 0; plane < planeCount; plane++ {
		if err = d.conn.OutWord(portGraphicsIndex, uint16(plane)<<8|gcReadMap); err != nil {
			return 0, err
		}
		if _, err = d.window.ReadAt(d.pix[:], int64(offset)); err != nil {
			return 0, err
		}
		if d.pix[0]&bit != 0 {
			index |= 1 << plane
		}
	}
	return index, nil
}

// initPlanar puts the graphics controller in write mode 2 with all planes
// enabled.
func (d *Driver) initPlanar() error {
	for _, v := range []struct {
		port  uint16
		value uint16
	}{
		{portSequencerIndex, allPlanes<<8 | seqMapMask},
		{portGraphicsIndex, 0x00<<8 | gcDataRotate},
		{portGraphicsIndex, gcWriteMode2<<8 | gcMode},
		{portGraphicsIndex, 0x00<<8 | gcEnableSet},
	} {
		if err := d.conn.OutWord(v.port, v.value); err != nil {
			return err
		}
	}
	d.mask = bitMaskUnknown
	return nil
}

// setBitMask programs the graphics controller bit mask register, unless it
// already holds mask.
func (d *Driver) setBitMask(mask int) error {
	if d.mask == mask {
		return nil
	}
	if err := d.conn.Out(portGraphicsIndex, gcBitMask); err != nil {
		d.mask = bitMaskUnknown
		return err
	}
	if err := d.conn.Out(portGraphicsData, byte(mask)); err != nil {
		d.mask = bitMaskUnknown
		return err
	}
	d.mask = mask
	return nil
}

// Clear fills the visible screen with palette index 0.
func (d *Driver) Clear() {
	d.Fill(d.palette[0])
}

// Fill the visible screen with a single color.
func (d *Driver) Fill(c color.Color) {
	index := uint32(d.palette.Index(c))
	for y := 0; y < d.state.Height; y++ {
		for x := 0; x < d.state.Width; x++ {
			d.plot(x, y, index)
		}
	}
}

// SetPaletteColor programs a DAC palette entry. The DAC takes 6 bits per
// component.
func (d *Driver) SetPaletteColor(index uint8, c color.RGBA) error {
	if d.conn == nil {
		return ErrNoConn
	}
	if err := d.conn.Out(portDACWriteIndex, index); err != nil {
		return err
	}
	for _, v := range []uint8{c.R, c.G, c.B} {
		if err := d.conn.Out(portDACData, pixel.Reduce6(v)); err != nil {
			return err
		}
	}
	d.palette[index] = color.RGBA{
		R: pixel.Expand6(pixel.Reduce6(c.R)),
		G: pixel.Expand6(pixel.Reduce6(c.G)),
		B: pixel.Expand6(pixel.Reduce6(c.B)),
		A: 0xff,
	}
	return nil
}
