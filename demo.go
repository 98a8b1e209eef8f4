package vbe

// DrawMoire draws lines from the center of the screen to every fifth pixel on
// the screen edges, cycling through the palette, and a white border.
func (d *Driver) DrawMoire() {
	var (
		w  = d.state.Width
		h  = d.state.Height
		cx = w / 2
		cy = h / 2
	)
	for i := 0; i < w; i += 5 {
		d.DrawLine(cx, cy, i, 0, uint32(i%0xff))
		d.DrawLine(cx, cy, i, h-1, uint32((i+1)%0xff))
	}
	for i := 0; i < h; i += 5 {
		d.DrawLine(cx, cy, 0, i, uint32((i+2)%0xff))
		d.DrawLine(cx, cy, w-1, i, uint32((i+3)%0xff))
	}
	d.DrawBorder(15)
}

// DrawBorder draws a one pixel border around the screen.
func (d *Driver) DrawBorder(colour uint32) {
	var (
		r = d.state.Width - 1
		b = d.state.Height - 1
	)
	d.DrawLine(0, 0, r, 0, colour)
	d.DrawLine(0, 0, 0, b, colour)
	d.DrawLine(r, 0, r, b, colour)
	d.DrawLine(0, b, r, b, colour)
}
