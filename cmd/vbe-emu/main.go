package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/BeatGlow/vbe"
	"github.com/BeatGlow/vbe/draw"
	"github.com/BeatGlow/vbe/emu"
)

// viewer shows the screen of an emulated adapter.
type viewer struct {
	adapter *emu.Adapter
	width   int
	height  int
	frame   *ebiten.Image
	rgba    *image.RGBA
}

func (v *viewer) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) || ebiten.IsKeyPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	src := v.adapter.Image()
	if src.Bounds().Empty() {
		screen.Fill(color.Black)
		return
	}
	draw.Draw(v.rgba, v.rgba.Bounds(), src, image.Point{}, draw.Src)
	v.frame.WritePixels(v.rgba.Pix)
	screen.DrawImage(v.frame, nil)
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.width, v.height
}

func main() {
	widthFlag := flag.Int("width", 640, "Mode width")
	heightFlag := flag.Int("height", 480, "Mode height")
	granularityFlag := flag.Int("granularity", emu.DefaultConfig.Granularity, "Window granularity in KiB")
	memoryFlag := flag.Int("memory", emu.DefaultConfig.Memory>>10, "Video memory in KiB")
	linearFlag := flag.Bool("linear", false, "Use the linear frame buffer")
	scaleFlag := flag.Int("scale", 1, "Window scale")
	cycleFlag := flag.Duration("cycle", 50*time.Millisecond, "Palette cycle interval, 0 to disable")
	flag.Parse()

	config := emu.DefaultConfig
	config.Granularity = *granularityFlag
	config.Memory = *memoryFlag << 10
	a, err := emu.New(&config)
	if err != nil {
		fatal(err)
	}

	output, err := vbe.Open(a, &vbe.Config{
		Width:  *widthFlag,
		Height: *heightFlag,
		Linear: *linearFlag,
		Memory: a,
		Conn:   a,
	})
	if err != nil {
		fatal(err)
	}
	fmt.Printf("using driver: %s\n", output)
	output.DrawMoire()

	if *cycleFlag > 0 {
		go cycle(output, *cycleFlag)
	}

	v := &viewer{
		adapter: a,
		width:   *widthFlag,
		height:  *heightFlag,
		frame:   ebiten.NewImage(*widthFlag, *heightFlag),
		rgba:    image.NewRGBA(image.Rect(0, 0, *widthFlag, *heightFlag)),
	}
	ebiten.SetWindowSize(*widthFlag**scaleFlag, *heightFlag**scaleFlag)
	ebiten.SetWindowTitle(output.String())
	if err = ebiten.RunGame(v); err != nil && !errors.Is(err, ebiten.Termination) {
		fatal(err)
	}
}

// cycle rotates the colors of the 6x6x6 color cube.
func cycle(output *vbe.Driver, interval time.Duration) {
	const first, count = 16, 216

	var (
		ticker = time.NewTicker(interval)
		colors = make([]color.RGBA, count)
		model  = output.ColorModel().(color.Palette)
	)
	defer ticker.Stop()
	for i := range colors {
		colors[i] = color.RGBAModel.Convert(model[first+i]).(color.RGBA)
	}

	for offset := 0; ; offset++ {
		<-ticker.C
		for i := range colors {
			if err := output.SetPaletteColor(uint8(first+i), colors[(i+offset)%count]); err != nil {
				fmt.Fprintln(os.Stderr, "palette:", err)
				return
			}
		}
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fatal: "+err.Error())
	os.Exit(1)
}
