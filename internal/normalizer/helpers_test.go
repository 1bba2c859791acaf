package normalizer

import (
	"image"
	"image/color"
)

// createTestImage creates a solid image for testing purposes
func createTestImage(width, height int, fill color.NRGBA) RawImage {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = fill.R
		img.Pix[i+1] = fill.G
		img.Pix[i+2] = fill.B
		img.Pix[i+3] = fill.A
	}
	return RawImage{pix: img}
}

// fillRect paints r with c directly in the pixel buffer
func fillRect(img RawImage, r image.Rectangle, c color.NRGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			i := img.pix.PixOffset(x, y)
			img.pix.Pix[i] = c.R
			img.pix.Pix[i+1] = c.G
			img.pix.Pix[i+2] = c.B
			img.pix.Pix[i+3] = c.A
		}
	}
}

func gray(v uint8) color.NRGBA {
	return color.NRGBA{R: v, G: v, B: v, A: 255}
}

var white = gray(255)
