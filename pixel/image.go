package pixel

import (
	"image"
	"image/color"

	"github.com/BeatGlow/vbe/draw"
)

type Image interface {
	draw.Image

	// Clear the image.
	Clear()

	// Fill the image with a single color.
	Fill(color.Color)
}

// Paletted is an image that stores palette indexes.
type Paletted interface {
	Image

	// ColorIndexAt returns the palette index of the pixel at (x, y).
	ColorIndexAt(x, y int) uint8

	// SetColorIndex sets the palette index of the pixel at (x, y).
	SetColorIndex(x, y int, index uint8)
}

// Buffer holds the pixel values and is a container that is used by most image formats in this package.
type Buffer struct {
	// Rect is the image bounding box.
	Rect image.Rectangle

	// Pix are the image pixels.
	Pix []byte

	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int
}

func (p *Buffer) Bounds() image.Rectangle {
	return p.Rect
}

func (p *Buffer) Clear() {
	for i := range p.Pix {
		p.Pix[i] = 0x00
	}
}

func makeBuffer(w, h, stride, size int) Buffer {
	return Buffer{
		Rect:   image.Rect(0, 0, w, h),
		Pix:    make([]byte, size),
		Stride: stride,
	}
}

// IndexedImage is an 8-bits per pixel packed pixel image, the layout of the
// 256 color VESA modes. Stride is the number of bytes per scan line, which may
// be larger than the width.
type IndexedImage struct {
	Buffer
	Palette color.Palette
}

// NewIndexedImage returns an image with a stride of w bytes. If p is nil, the
// VGAPalette is used.
func NewIndexedImage(w, h int, p color.Palette) *IndexedImage {
	return NewIndexedImageStride(w, h, w, p)
}

// NewIndexedImageStride returns an image with stride bytes per scan line.
func NewIndexedImageStride(w, h, stride int, p color.Palette) *IndexedImage {
	if p == nil {
		p = VGAPalette
	}
	if stride < w {
		stride = w
	}
	return &IndexedImage{
		Buffer:  makeBuffer(w, h, stride, stride*h),
		Palette: p,
	}
}

func (p *IndexedImage) ColorModel() color.Model {
	return p.Palette
}

func (p *IndexedImage) PixOffset(x, y int) int {
	return y*p.Stride + x
}

func (p *IndexedImage) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) || len(p.Palette) == 0 {
		return color.Transparent
	}
	return p.Palette[int(p.Pix[p.PixOffset(x, y)])%len(p.Palette)]
}

func (p *IndexedImage) Set(x, y int, c color.Color) {
	p.SetColorIndex(x, y, uint8(p.Palette.Index(c)))
}

func (p *IndexedImage) ColorIndexAt(x, y int) uint8 {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return 0
	}
	return p.Pix[p.PixOffset(x, y)]
}

func (p *IndexedImage) SetColorIndex(x, y int, index uint8) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}
	p.Pix[p.PixOffset(x, y)] = index
}

func (p *IndexedImage) Fill(c color.Color) {
	value := uint8(p.Palette.Index(c))
	for i := range p.Pix {
		p.Pix[i] = value
	}
}

// PlanarImage is a 4-bits per pixel image stored in four bit planes, the
// layout of the 16 color VGA and VESA modes. Each plane holds one bit of the
// palette index, eight pixels per byte with the leftmost pixel in the most
// significant bit. Plane n starts at Pix[n*PlaneSize].
type PlanarImage struct {
	Buffer
	PlaneSize int
	Palette   color.Palette
}

// PlaneCount is the number of bit planes of a PlanarImage.
const PlaneCount = 4

// NewPlanarImage returns a planar image. If p is nil, the EGAPalette is used.
func NewPlanarImage(w, h int, p color.Palette) *PlanarImage {
	if p == nil {
		p = EGAPalette
	}
	var (
		stride = ((w + 7) & ^7) / 8 // round up to whole bytes
		size   = stride * h
	)
	return &PlanarImage{
		Buffer:    makeBuffer(w, h, stride, size*PlaneCount),
		PlaneSize: size,
		Palette:   p,
	}
}

func (p *PlanarImage) ColorModel() color.Model {
	return p.Palette
}

// Plane returns the bytes of a single plane.
func (p *PlanarImage) Plane(n int) []byte {
	return p.Pix[n*p.PlaneSize : (n+1)*p.PlaneSize]
}

func (p *PlanarImage) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) || len(p.Palette) == 0 {
		return color.Transparent
	}
	return p.Palette[int(p.ColorIndexAt(x, y))%len(p.Palette)]
}

func (p *PlanarImage) Set(x, y int, c color.Color) {
	p.SetColorIndex(x, y, uint8(p.Palette.Index(c)))
}

func (p *PlanarImage) ColorIndexAt(x, y int) uint8 {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return 0
	}

	var (
		index uint8
		pos   = y*p.Stride + x/8
		bit   = byte(0x80) >> uint(x&7)
	)
	for n := 0; n < PlaneCount; n++ {
		if p.Pix[n*p.PlaneSize+pos]&bit != 0 {
			index |= 1 << n
		}
	}
	return index
}

func (p *PlanarImage) SetColorIndex(x, y int, index uint8) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}

	var (
		pos = y*p.Stride + x/8
		bit = byte(0x80) >> uint(x&7)
	)
	for n := 0; n < PlaneCount; n++ {
		if index&(1<<n) != 0 {
			p.Pix[n*p.PlaneSize+pos] |= bit
		} else {
			p.Pix[n*p.PlaneSize+pos] &^= bit
		}
	}
}

func (p *PlanarImage) Fill(c color.Color) {
	index := uint8(p.Palette.Index(c))
	for n := 0; n < PlaneCount; n++ {
		var value byte
		if index&(1<<n) != 0 {
			value = 0xff
		}
		plane := p.Plane(n)
		for i := range plane {
			plane[i] = value
		}
	}
}

// Interface checks.
var (
	_ Paletted = (*IndexedImage)(nil)
	_ Paletted = (*PlanarImage)(nil)
)
