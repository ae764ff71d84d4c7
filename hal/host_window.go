//go:build !tinygo && cgo

package hal

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"ubit/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
)

const (
	ledCell   = 48
	ledMargin = 10
)

var (
	ledOn  = color.RGBA{R: 0xff, G: 0x20, B: 0x10, A: 0xff}
	ledOff = color.RGBA{R: 0x30, G: 0x08, B: 0x06, A: 0xff}
	board  = color.RGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xff}
)

// RunWindow opens a desktop window showing the LED matrix. It blocks until the window closes.
func RunWindow(newApp func(HAL) func() error, cfg HostConfig) error {
	hh, err := New(cfg)
	if err != nil {
		return err
	}
	h := hh.(*hostHAL)
	defer h.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	step := newApp(h)
	h.start(ctx)

	g := &hostGame{h: h, step: step}
	w, ht := g.Layout(0, 0)
	ebiten.SetWindowTitle("ubit (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(w*2, ht*2)
	ebiten.SetTPS(60)
	return ebiten.RunGame(g)
}

type hostGame struct {
	h     *hostHAL
	img   *image.RGBA
	ebImg *ebiten.Image
	step  func() error
}

func (g *hostGame) Update() error {
	if g.step != nil {
		return g.step()
	}
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	w, h := g.Layout(0, 0)
	if g.img == nil {
		g.img = image.NewRGBA(image.Rect(0, 0, w, h))
		g.ebImg = ebiten.NewImage(w, h)
	}
	draw.Draw(g.img, g.img.Bounds(), image.NewUniform(board), image.Point{}, draw.Src)

	m := g.h.matrix
	rows := m.Snapshot()
	for y := 0; y < m.Rows(); y++ {
		for x := 0; x < m.Cols(); x++ {
			c := ledOff
			if rows[y]&(1<<x) != 0 {
				c = ledOn
			}
			x0 := ledMargin + x*ledCell + ledCell/4
			y0 := ledMargin + y*ledCell + ledCell/4
			r := image.Rect(x0, y0, x0+ledCell/2, y0+ledCell/2)
			draw.Draw(g.img, r, image.NewUniform(c), image.Point{}, draw.Src)
		}
	}

	g.ebImg.WritePixels(g.img.Pix)
	screen.DrawImage(g.ebImg, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return 2*ledMargin + matrixCols*ledCell, 2*ledMargin + matrixRows*ledCell
}
