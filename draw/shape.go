package draw

import (
	"image"
	"image/color"
)

// Line draws a line between two points.
func Line(dst Image, a, b image.Point, c color.Color) {
	Bresenham(a.X, a.Y, b.X, b.Y, func(x, y int) {
		dst.Set(x, y, c)
	})
}

// HorizontalLine draws a line between (x,y) and (x+w-1,y).
func HorizontalLine(dst Image, x, y, w int, c color.Color) {
	if w > 0 {
		Line(dst, image.Pt(x, y), image.Pt(x+w-1, y), c)
	}
}

// VerticalLine draws a line between (x,y) and (x,y+h-1).
func VerticalLine(dst Image, x, y, h int, c color.Color) {
	if h > 0 {
		Line(dst, image.Pt(x, y), image.Pt(x, y+h-1), c)
	}
}

// Rectangle draws the outline of a rectangle, Max is exclusive.
func Rectangle(dst Image, rect image.Rectangle, c color.Color) {
	var (
		w = rect.Dx()
		h = rect.Dy()
	)
	HorizontalLine(dst, rect.Min.X, rect.Min.Y, w, c)
	HorizontalLine(dst, rect.Min.X, rect.Max.Y-1, w, c)
	VerticalLine(dst, rect.Min.X, rect.Min.Y, h, c)
	VerticalLine(dst, rect.Max.X-1, rect.Min.Y, h, c)
}

// RoundedRectangle draws a rectangle with radius pixels rounded corners.
func RoundedRectangle(dst Image, rect image.Rectangle, radius int, c color.Color) {
	var (
		r = radius
		x = rect.Min.X
		y = rect.Min.Y
		w = rect.Dx()
		h = rect.Dy()
	)
	HorizontalLine(dst, x, y, w, c)
	HorizontalLine(dst, x, y+h-1, w, c)
	VerticalLine(dst, x, y, h, c)
	VerticalLine(dst, x+w-1, y, h, c)
	roundedCorner(dst, x+0+r+0, y+0+r+0, r, 1, c)
	roundedCorner(dst, x+w-r-1, y+0+r+0, r, 2, c)
	roundedCorner(dst, x+w-r-1, y+h-r-1, r, 4, c)
	roundedCorner(dst, x+0+r+0, y+h-r-1, r, 8, c)
}

// Box draws a filled rectangle.
func Box(dst Image, rect image.Rectangle, c color.Color) {
	var (
		y = rect.Min.Y
		h = rect.Dy()
	)
	for x := rect.Min.X; x < rect.Max.X; x++ {
		VerticalLine(dst, x, y, h, c)
	}
}

// RoundedBox draws a filled rectangle with radius pixels rounded corners.
func RoundedBox(dst Image, rect image.Rectangle, radius int, c color.Color) {
	var (
		r = radius
		x = rect.Min.X
		y = rect.Min.Y
		w = rect.Dx()
		h = rect.Dy()
	)
	Box(dst, image.Rectangle{
		Min: image.Point{X: x + r, Y: y},
		Max: image.Point{X: x + r + w - 2*r, Y: y + h - 1},
	}, c)
	filledRoundedCorner(dst, x+w-r-1, y+r, r, 1, h-2*r-1, c)
	filledRoundedCorner(dst, x+r, y+r, r, 2, h-2*r-1, c)
}

func roundedCorner(dst Image, x0, y0, radius, quadrant int, c color.Color) {
	var (
		f    = 1 - radius
		ddFx = 1
		ddFy = -2 * radius
		x    = 0
		y    = radius
	)
	for x < y {
		if f >= 0 {
			y--
			ddFy += 2
			f += ddFy
		}

		x++
		ddFx += 2
		f += ddFx

		if quadrant&4 != 0 {
			dst.Set(x0+x, y0+y, c)
			dst.Set(x0+y, y0+x, c)
		}
		if quadrant&2 != 0 {
			dst.Set(x0+x, y0-y, c)
			dst.Set(x0+y, y0-x, c)
		}
		if quadrant&8 != 0 {
			dst.Set(x0-y, y0+x, c)
			dst.Set(x0-x, y0+y, c)
		}
		if quadrant&1 != 0 {
			dst.Set(x0-y, y0-x, c)
			dst.Set(x0-x, y0-y, c)
		}
	}
}

func filledRoundedCorner(dst Image, x0, y0, radius, quadrant, delta int, c color.Color) {
	var (
		f    = 1 - radius
		ddFx = 1
		ddFy = -2 * radius
		x    = 0
		y    = radius
	)
	for x < y {
		if f >= 0 {
			y--
			ddFy += 2
			f += ddFy
		}

		x++
		ddFx += 2
		f += ddFx

		if quadrant&1 != 0 {
			VerticalLine(dst, x0+x, y0-y, 2*y+1+delta, c)
			VerticalLine(dst, x0+y, y0-x, 2*x+1+delta, c)
		}

		if quadrant&2 != 0 {
			VerticalLine(dst, x0-x, y0-y, 2*y+1+delta, c)
			VerticalLine(dst, x0-y, y0-x, 2*x+1+delta, c)
		}
	}
}

// Bresenham calls plot for every pixel of the line between (x1, y1) and
// (x2, y2), using integer arithmetic only.
//
// The endpoints are ordered so the line is always scanned left to right when
// it is wider than high and top to bottom otherwise, drawing P0 -> P1 gives
// the same pixels as P1 -> P0.
func Bresenham(x1, y1, x2, y2 int, plot func(x, y int)) {
	var (
		dx = abs(x2 - x1)
		dy = abs(y2 - y1)
	)

	if dy <= dx {
		if x2 < x1 {
			x1, y1, x2, y2 = x2, y2, x1, y1
		}
		step := 1
		if y2 < y1 {
			step = -1
		}

		// d is the decision variable, incrE and incrNE are its increments
		// for a straight and a diagonal step.
		var (
			d      = 2*dy - dx
			incrE  = 2 * dy
			incrNE = 2 * (dy - dx)
		)
		plot(x1, y1)
		for x1++; x1 <= x2; x1++ {
			if d < 0 {
				d += incrE
			} else {
				d += incrNE
				y1 += step
			}
			plot(x1, y1)
		}
		return
	}

	if y2 < y1 {
		x1, y1, x2, y2 = x2, y2, x1, y1
	}
	step := 1
	if x2 < x1 {
		step = -1
	}

	var (
		d      = 2*dx - dy
		incrE  = 2 * dx
		incrNE = 2 * (dx - dy)
	)
	plot(x1, y1)
	for y1++; y1 <= y2; y1++ {
		if d < 0 {
			d += incrE
		} else {
			d += incrNE
			x1 += step
		}
		plot(x1, y1)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
