// Package pixel implements the colors and image layouts used by VGA and VESA
// graphics modes.
//
// The palette and images are compatible with Go's native [color.Color] and
// [image.Image] / [draw.Image] interfaces, so they can be used as an off-screen
// representation of video memory.
package pixel
