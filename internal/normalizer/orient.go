package normalizer

import "image"

// Orient applies an EXIF orientation tag (1-8) so the image is upright.
// Unknown values return an unchanged copy.
func Orient(img RawImage, orientation int) RawImage {
	if orientation < 2 || orientation > 8 || img.pix == nil {
		return img.Clone()
	}
	w, h := img.Width(), img.Height()
	dw, dh := w, h
	if orientation >= 5 {
		dw, dh = h, w
	}
	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	src := img.pix
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch orientation {
			case 2:
				dx, dy = w-1-x, y
			case 3:
				dx, dy = w-1-x, h-1-y
			case 4:
				dx, dy = x, h-1-y
			case 5:
				dx, dy = y, x
			case 6:
				dx, dy = h-1-y, x
			case 7:
				dx, dy = h-1-y, w-1-x
			case 8:
				dx, dy = y, w-1-x
			}
			si := y*src.Stride + x*4
			di := dy*dst.Stride + dx*4
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return RawImage{pix: dst}
}
