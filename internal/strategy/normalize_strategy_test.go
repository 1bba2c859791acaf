package strategy

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"go-exam-scanner/internal/normalizer"
)

func whitePage(w, h int) normalizer.RawImage {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	return normalizer.NewRawImage(img)
}

func TestForRequest(t *testing.T) {
	n := normalizer.NewDefault()

	tests := []struct {
		name        string
		crop        *normalizer.CropRequest
		wantName    string
		wantQuality int
		wantW       int
	}{
		{"auto", nil, "auto", 90, 300},
		{"manual", &normalizer.CropRequest{X: 10, Y: 10, Width: 100, Height: 50}, "manual", 95, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ForRequest(n, tt.crop)
			if s.GetStrategyName() != tt.wantName {
				t.Errorf("Expected strategy %s, got %s", tt.wantName, s.GetStrategyName())
			}
			out, err := s.Normalize(whitePage(300, 200))
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if out.Quality != tt.wantQuality || out.Width != tt.wantW {
				t.Errorf("Unexpected output %dx%d q%d", out.Width, out.Height, out.Quality)
			}
		})
	}
}

func TestManualCropStrategy_TooSmall(t *testing.T) {
	s := NewManualCropStrategy(normalizer.NewDefault(), normalizer.CropRequest{Width: 5, Height: 5})
	_, err := s.Normalize(whitePage(100, 100))
	var cropErr *normalizer.InvalidCropError
	if !errors.As(err, &cropErr) {
		t.Errorf("Expected InvalidCropError, got %v", err)
	}
}
