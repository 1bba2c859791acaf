package normalizer

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"testing"
)

func TestCorrectBrightnessContrast_NoOpaquePixels(t *testing.T) {
	n := NewDefault()
	img := createTestImage(32, 16, color.NRGBA{R: 10, G: 20, B: 30, A: 0})

	out := n.CorrectBrightnessContrast(img)

	if !bytes.Equal(out.pix.Pix, img.pix.Pix) {
		t.Fatal("Expected pixels to be unchanged for an image without opaque pixels")
	}
	if out.pix == img.pix {
		t.Fatal("Expected a copy, got the input buffer")
	}
}

func TestBrightness_ConvergesTowardTarget(t *testing.T) {
	for _, l := range []uint8{1, 10, 50, 100, 159, 161, 200, 250, 255} {
		img := createTestImage(20, 20, gray(l))
		pix := img.Clone().pix.Pix

		factor, ok := brightnessFactor(pix, 160)
		if !ok {
			t.Fatalf("luma %d: expected opaque pixels", l)
		}
		applyBrightness(pix, factor)

		after, _ := meanLuma(pix)
		before := float64(l)
		if math.Abs(after-160) >= math.Abs(before-160) {
			t.Errorf("luma %d: expected mean to move closer to 160, got %.2f", l, after)
		}
	}
}

func TestCorrectBrightnessContrast_SolidGray(t *testing.T) {
	n := NewDefault()
	img := createTestImage(10, 10, gray(80))

	out := n.CorrectBrightnessContrast(img)

	// 80 * 2 = 160, then (160-128)*1.2+128 = 166.4
	for i := 0; i < len(out.pix.Pix); i += 4 {
		if out.pix.Pix[i] != 166 || out.pix.Pix[i+1] != 166 || out.pix.Pix[i+2] != 166 {
			t.Fatalf("Expected 166, got %v", out.pix.Pix[i:i+4])
		}
		if out.pix.Pix[i+3] != 255 {
			t.Fatalf("Expected alpha to be preserved, got %d", out.pix.Pix[i+3])
		}
	}
}

func TestCorrectBrightnessContrast_TransparentPixelsUntouched(t *testing.T) {
	n := NewDefault()
	img := createTestImage(10, 10, gray(40))
	fillRect(img, image.Rect(0, 0, 5, 10), color.NRGBA{R: 7, G: 8, B: 9, A: 0})

	out := n.CorrectBrightnessContrast(img)

	for y := 0; y < 10; y++ {
		for x := 0; x < 5; x++ {
			i := out.pix.PixOffset(x, y)
			got := out.pix.Pix[i : i+4]
			if got[0] != 7 || got[1] != 8 || got[2] != 9 || got[3] != 0 {
				t.Fatalf("Expected transparent pixel at (%d,%d) to be untouched, got %v", x, y, got)
			}
		}
	}
	// opaque half: 40 * 4 = 160 -> 166
	if v := out.pix.Pix[out.pix.PixOffset(7, 3)]; v != 166 {
		t.Errorf("Expected corrected opaque pixel to be 166, got %d", v)
	}
}

func TestCorrectBrightnessContrast_DoesNotMutateInput(t *testing.T) {
	n := NewDefault()
	img := createTestImage(16, 16, gray(30))
	before := append([]uint8(nil), img.pix.Pix...)

	n.CorrectBrightnessContrast(img)

	if !bytes.Equal(before, img.pix.Pix) {
		t.Fatal("Expected input pixels to be unchanged")
	}
}

func TestClamp8(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{-3, 0},
		{0, 0},
		{12.5, 12},
		{13.5, 14},
		{254.6, 255},
		{300, 255},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := clamp8(tt.in); got != tt.want {
			t.Errorf("clamp8(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
