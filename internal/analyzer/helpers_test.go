package analyzer

import (
	"image"
	"image/color"
	"math"
)

// createTestImage creates a solid test image
func createTestImage(width, height int, fillColor color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fillColor)
		}
	}
	return img
}

// createTextPage draws a regular grid of short dark strokes on white paper
func createTextPage(width, height int) *image.RGBA {
	img := createTestImage(width, height, color.RGBA{255, 255, 255, 255})
	black := color.RGBA{0, 0, 0, 255}
	for y := 40; y+3 < height-40; y += 25 {
		for x := 40; x+20 < width-40; x += 30 {
			for dy := 0; dy < 3; dy++ {
				for dx := 0; dx < 20; dx++ {
					img.Set(x+dx, y+dy, black)
				}
			}
		}
	}
	return img
}

// createTiltedLine draws a thick dark line at the given angle
func createTiltedLine(width, height int, degrees float64) *image.Gray {
	gray := image.NewGray(image.Rect(0, 0, width, height))
	for i := range gray.Pix {
		gray.Pix[i] = 255
	}
	slope := math.Tan(degrees * math.Pi / 180)
	for x := 0; x < width; x++ {
		cy := int(math.Round(float64(height)/4 + float64(x)*slope))
		for y := cy - 1; y <= cy+1; y++ {
			if y >= 0 && y < height {
				gray.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return gray
}
