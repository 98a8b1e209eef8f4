// Package text renders labels onto any draw.Image, including a live video
// mode.
package text

import (
	"image"
	"image/color"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"

	"github.com/BeatGlow/vbe/draw"
)

// DefaultDPI is the resolution used to scale point sizes to pixels.
const DefaultDPI = 72

// Face is a TrueType font at a given size.
type Face struct {
	font *truetype.Font
	size float64
	dpi  float64
	face font.Face
}

// Parse a TrueType font.
func Parse(ttf []byte, size float64) (*Face, error) {
	f, err := freetype.ParseFont(ttf)
	if err != nil {
		return nil, err
	}
	return &Face{
		font: f,
		size: size,
		dpi:  DefaultDPI,
		face: truetype.NewFace(f, &truetype.Options{
			Size:    size,
			DPI:     DefaultDPI,
			Hinting: font.HintingFull,
		}),
	}, nil
}

// Default returns the Go Regular font at size points.
func Default(size float64) (*Face, error) {
	return Parse(goregular.TTF, size)
}

// Size in points.
func (f *Face) Size() float64 {
	return f.size
}

// Measure returns the size of the rendered string in pixels.
func (f *Face) Measure(s string) image.Point {
	m := f.face.Metrics()
	return image.Pt(
		font.MeasureString(f.face, s).Ceil(),
		(m.Ascent + m.Descent).Ceil(),
	)
}

// Draw s with its baseline starting at p. It returns the point where the next
// character would be drawn.
func (f *Face) Draw(dst draw.Image, p image.Point, s string, c color.Color) (image.Point, error) {
	ctx := freetype.NewContext()
	ctx.SetDPI(f.dpi)
	ctx.SetFont(f.font)
	ctx.SetFontSize(f.size)
	ctx.SetHinting(font.HintingFull)
	ctx.SetClip(dst.Bounds())
	ctx.SetDst(dst)
	ctx.SetSrc(image.NewUniform(c))

	end, err := ctx.DrawString(s, freetype.Pt(p.X, p.Y))
	if err != nil {
		return p, err
	}
	return image.Pt(end.X.Round(), end.Y.Round()), nil
}

// Small draws s in the 7x13 fixed bitmap font with its baseline starting at p.
// It returns the point where the next character would be drawn.
func Small(dst draw.Image, p image.Point, s string, c color.Color) image.Point {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(p.X, p.Y),
	}
	d.DrawString(s)
	return image.Pt(d.Dot.X.Round(), d.Dot.Y.Round())
}

// SmallSize returns the size of s in the 7x13 fixed bitmap font.
func SmallSize(s string) image.Point {
	return image.Pt(font.MeasureString(basicfont.Face7x13, s).Ceil(), basicfont.Face7x13.Height)
}
