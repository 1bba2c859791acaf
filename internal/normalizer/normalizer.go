// Package normalizer turns a photographed answer sheet into an opaque,
// cropped and exposure corrected page image.
package normalizer

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// Normalizer holds no state besides its thresholds and is safe for
// concurrent use.
type Normalizer struct {
	th Thresholds
}

// New creates a normalizer with the given thresholds.
func New(th Thresholds) *Normalizer {
	return &Normalizer{th: th}
}

// NewDefault creates a normalizer with DefaultThresholds.
func NewDefault() *Normalizer {
	return New(DefaultThresholds())
}

func (n *Normalizer) Thresholds() Thresholds {
	return n.th
}

// AutoNormalize corrects exposure, detects the sheet, crops to it with
// padding and encodes the result. Detection never fails; without a
// convincing region the whole frame is kept.
func (n *Normalizer) AutoNormalize(img RawImage) (NormalizedImage, error) {
	if img.Width() == 0 || img.Height() == 0 {
		return NormalizedImage{}, &DecodeError{Err: errEmptyPayload}
	}
	corrected := n.CorrectBrightnessContrast(img)
	box, kind, found := n.DetectDocument(corrected)
	region, used := n.CropRegion(corrected.Width(), corrected.Height(), box, found)
	if !used {
		kind = DetectorNone
	}
	canvas := paste(corrected, region)
	return n.encode(canvas, region, kind, n.th.AutoQuality)
}

// AutoNormalizeBytes decodes data and runs AutoNormalize.
func (n *Normalizer) AutoNormalizeBytes(data []byte) (NormalizedImage, error) {
	img, err := Decode(data)
	if err != nil {
		return NormalizedImage{}, err
	}
	return n.AutoNormalize(img)
}

// ClampCrop fits req inside a w x h image. The result always satisfies
// 0 <= x, 0 <= y, x+width <= w and y+height <= h; width and height may be 0.
func ClampCrop(req CropRequest, w, h int) BoundingBox {
	x := clampInt(req.X, 0, max(w-1, 0))
	y := clampInt(req.Y, 0, max(h-1, 0))
	return BoundingBox{
		X:      x,
		Y:      y,
		Width:  clampInt(req.Width, 0, w-x),
		Height: clampInt(req.Height, 0, h-y),
	}
}

// ManualCrop copies the clamped request region onto a white canvas. Regions
// smaller than the minimum on either side fail with *InvalidCropError.
func (n *Normalizer) ManualCrop(img RawImage, req CropRequest) (NormalizedImage, error) {
	box := ClampCrop(req, img.Width(), img.Height())
	if box.Width < n.th.MinCropSize || box.Height < n.th.MinCropSize {
		return NormalizedImage{}, &InvalidCropError{Requested: req, Clamped: box, Minimum: n.th.MinCropSize}
	}
	canvas := paste(img, box)
	return n.encode(canvas, box, DetectorNone, n.th.ManualQuality)
}

// ManualCropBytes decodes data and runs ManualCrop.
func (n *Normalizer) ManualCropBytes(data []byte, req CropRequest) (NormalizedImage, error) {
	img, err := Decode(data)
	if err != nil {
		return NormalizedImage{}, err
	}
	return n.ManualCrop(img, req)
}

func (n *Normalizer) encode(canvas *image.RGBA, region BoundingBox, kind DetectorKind, quality int) (NormalizedImage, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: quality}); err != nil {
		return NormalizedImage{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return NormalizedImage{
		Data:     buf.Bytes(),
		Format:   "jpeg",
		Width:    canvas.Rect.Dx(),
		Height:   canvas.Rect.Dy(),
		Quality:  quality,
		Region:   region,
		Detector: kind,
		pixels:   canvas,
	}, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
