package imaging

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/effect"
)

// ITU-R BT.601 luma weights, the conversion the extraction threshold was
// tuned against.
const (
	LumaR = 0.299
	LumaG = 0.587
	LumaB = 0.114
)

// Grayscale converts img to 8-bit intensity with BT.601 weights, rounded to
// the nearest level. Fully transparent pixels read as white. The result has
// the same bounds as img.
func Grayscale(img image.Image) *image.Gray {
	rgba := effect.GrayscaleWithWeights(img, LumaR, LumaG, LumaB)
	bounds := rgba.Bounds()
	gray := image.NewGray(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			i := rgba.PixOffset(x, y)
			v := rgba.Pix[i]
			if rgba.Pix[i+3] == 0 {
				v = 0xff
			}
			gray.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return gray
}
