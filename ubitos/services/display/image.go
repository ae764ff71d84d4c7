package display

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

const (
	Width  = 5
	Height = 5
)

// Image is a 5x5 picture stored as one bitmap per row: bit x of row y lights LED (x, y).
//
// *Image is a drivers.Displayer, so tinyfont and tinydraw can render into it.
type Image [Height]uint8

var _ drivers.Displayer = (*Image)(nil)

// Set switches LED (x, y) on or off. Points off the matrix are ignored.
func (img *Image) Set(x, y int, on bool) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return
	}
	if on {
		img[y] |= 1 << x
	} else {
		img[y] &^= 1 << x
	}
}

// Get reports whether LED (x, y) is on.
func (img *Image) Get(x, y int) bool {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return false
	}
	return img[y]&(1<<x) != 0
}

// Clear switches every LED off.
func (img *Image) Clear() { *img = Image{} }

func (img *Image) Size() (x, y int16) { return Width, Height }

// SetPixel lights the LED for any colour that is not black.
func (img *Image) SetPixel(x, y int16, c color.RGBA) {
	img.Set(int(x), int(y), c.R|c.G|c.B != 0)
}

func (img *Image) Display() error { return nil }

var lit = color.RGBA{R: 0xff, A: 0xff}

// Glyph renders r in the 3x5 TomThumb font, centred on the matrix.
func Glyph(r rune) Image {
	var img Image
	tinyfont.DrawChar(&img, &tinyfont.TomThumb, 1, Height, r, lit)
	return img
}

// Parse builds an image from five rows of five characters; anything but '.' or ' ' is lit.
func Parse(rows [Height]string) Image {
	var img Image
	for y, row := range rows {
		for x := 0; x < Width && x < len(row); x++ {
			img.Set(x, y, row[x] != '.' && row[x] != ' ')
		}
	}
	return img
}
