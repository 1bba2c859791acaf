package normalizer

import (
	"image"
	"image/color"
	"image/draw"
)

// CropRegion picks the region to keep: the detected box grown by the padding
// and clamped to the image when it is large enough, otherwise the full frame.
// The boolean reports whether the detected box was used.
func (n *Normalizer) CropRegion(w, h int, box BoundingBox, found bool) (BoundingBox, bool) {
	if !found || float64(box.Area()) <= float64(w*h)*n.th.MinAreaFraction {
		return BoundingBox{Width: w, Height: h}, false
	}
	pad := n.th.Padding
	x := max(0, box.X-pad)
	y := max(0, box.Y-pad)
	return BoundingBox{
		X:      x,
		Y:      y,
		Width:  min(w-x, box.Width+2*pad),
		Height: min(h-y, box.Height+2*pad),
	}, true
}

// paste fills a canvas of the region's size with opaque white and draws the
// region of src over it at (0,0).
func paste(src RawImage, region BoundingBox) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, region.Width, region.Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), src.pix, image.Pt(region.X, region.Y), draw.Over)
	return canvas
}
