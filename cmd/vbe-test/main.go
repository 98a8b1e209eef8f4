package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/BeatGlow/vbe"
	"github.com/BeatGlow/vbe/draw"
	"github.com/BeatGlow/vbe/internal/backend"
	"github.com/BeatGlow/vbe/pixel"
	"github.com/BeatGlow/vbe/text"
)

func main() {
	widthFlag := flag.Int("width", 640, "Mode width")
	heightFlag := flag.Int("height", 480, "Mode height")
	backendFlag := flag.String("backend", backend.Emulated, "Backend (emu or bochs)")
	portFlag := flag.String("port", "", "I/O port device (default: /dev/port)")
	consoleFlag := flag.String("console", "/dev/tty0", "Console switched to graphics mode, empty to disable")
	fbFlag := flag.String("fb", "", "Frame buffer device mapping the linear frame buffer, e.g. /dev/fb0")
	linearFlag := flag.Bool("linear", false, "Use the linear frame buffer")
	noClearFlag := flag.Bool("no-clear", false, "Preserve video memory on mode set")
	listFlag := flag.Bool("list", false, "List the available modes")
	outputFlag := flag.String("output", "vbe-test.png", "Write the emulated screen to this PNG file")
	durationFlag := flag.Duration("duration", 5*time.Second, "Time to show the test pattern on hardware")
	flag.Parse()

	b, err := backend.Open(&backend.Config{
		Name:        *backendFlag,
		Port:        *portFlag,
		Console:     *consoleFlag,
		Framebuffer: *fbFlag,
	})
	if err != nil {
		fatal(err)
	}
	defer b.Close()
	fmt.Printf("using backend: %s\n", b)

	config := &vbe.Config{
		Linear:  *linearFlag,
		NoClear: *noClearFlag,
		Memory:  b.Memory,
		Conn:    b.Conn,
	}
	output := vbe.New(b.Firmware, config)

	if *listFlag {
		modes, err := output.EnumerateModes()
		if err != nil {
			fatal(err)
		}
		fmt.Printf("controller: %s\n", output.Info())
		for mode := range modes {
			mark := " "
			if mode.Suitable {
				mark = "*"
			}
			fmt.Printf("%s %s\n", mark, mode)
		}
	}

	if err = output.Activate(*widthFlag, *heightFlag); err != nil {
		fatal(err)
	}
	fmt.Printf("using driver: %s\n", output)

	output.DrawMoire()
	if err = label(output); err != nil {
		fatal(err)
	}

	if b.Adapter != nil {
		if err = writePNG(*outputFlag, b.Adapter.Image()); err != nil {
			fatal(err)
		}
		fmt.Printf("wrote screen to %s\n", *outputFlag)
	} else {
		time.Sleep(*durationFlag)
	}

	if err = output.Halt(); err != nil {
		fatal(err)
	}
}

// label draws a box with the mode description in the top left corner.
func label(output *vbe.Driver) error {
	face, err := text.Default(18)
	if err != nil {
		return err
	}

	var (
		title = "VESA BIOS Extensions"
		mode  = output.String()
		size  = face.Measure(title)
		small = text.SmallSize(mode)
		box   = image.Rect(8, 8, 8+max(size.X, small.X)+16, 8+size.Y+small.Y+16)
	)
	draw.RoundedBox(output, box, 5, pixel.EGAPalette[1])
	draw.RoundedRectangle(output, box, 5, pixel.EGAPalette[15])

	pos := box.Min.Add(image.Pt(8, 8+size.Y*3/4))
	if _, err = face.Draw(output, pos, title, pixel.EGAPalette[14]); err != nil {
		return err
	}
	text.Small(output, image.Pt(pos.X, box.Max.Y-8-small.Y/4), mode, pixel.EGAPalette[15])
	return nil
}

func writePNG(name string, img image.Image) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err = png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fatal: "+err.Error())
	os.Exit(1)
}
