package normalizer

import (
	"image"
	"image/draw"
)

// RawImage is a decoded bitmap held as non-premultiplied RGBA samples with
// its origin at (0,0). Operations in this package never modify it.
type RawImage struct {
	pix *image.NRGBA
}

// NewRawImage copies src into a fresh RawImage.
func NewRawImage(src image.Image) RawImage {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return RawImage{pix: dst}
}

func (r RawImage) Width() int {
	if r.pix == nil {
		return 0
	}
	return r.pix.Rect.Dx()
}

func (r RawImage) Height() int {
	if r.pix == nil {
		return 0
	}
	return r.pix.Rect.Dy()
}

// Image exposes the pixels read-only.
func (r RawImage) Image() image.Image {
	return r.pix
}

// Clone returns a deep copy that the caller may modify.
func (r RawImage) Clone() RawImage {
	if r.pix == nil {
		return RawImage{}
	}
	cp := &image.NRGBA{
		Pix:    make([]uint8, len(r.pix.Pix)),
		Stride: r.pix.Stride,
		Rect:   r.pix.Rect,
	}
	copy(cp.Pix, r.pix.Pix)
	return RawImage{pix: cp}
}

// BoundingBox is a region in source pixel coordinates.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (b BoundingBox) Area() int {
	return b.Width * b.Height
}

func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Within reports whether the box is non-empty and fits a w x h image.
func (b BoundingBox) Within(w, h int) bool {
	return b.X >= 0 && b.Y >= 0 && b.Width > 0 && b.Height > 0 &&
		b.X+b.Width <= w && b.Y+b.Height <= h
}

// CropRequest is an operator supplied crop rectangle. It is always clamped
// to the source bounds before use.
type CropRequest struct {
	X      int `json:"x" form:"x"`
	Y      int `json:"y" form:"y"`
	Width  int `json:"width" form:"width"`
	Height int `json:"height" form:"height"`
}

// DetectorKind names the detector whose region was used for an automatic crop.
type DetectorKind string

const (
	DetectorEdge  DetectorKind = "edge"
	DetectorColor DetectorKind = "color"
	DetectorNone  DetectorKind = "none"
)

// NormalizedImage is the encoded result of a normalization.
type NormalizedImage struct {
	Data     []byte       `json:"-"`
	Format   string       `json:"format"`
	Width    int          `json:"width"`
	Height   int          `json:"height"`
	Quality  int          `json:"quality"`
	Region   BoundingBox  `json:"region"`
	Detector DetectorKind `json:"detector"`

	pixels *image.RGBA
}

// Pixels returns the composed canvas before encoding. It is nil on values
// returned by Compact.
func (n NormalizedImage) Pixels() image.Image {
	if n.pixels == nil {
		return nil
	}
	return n.pixels
}

// Compact drops the decoded canvas so only the encoded bytes are retained.
func (n NormalizedImage) Compact() NormalizedImage {
	n.pixels = nil
	return n
}
