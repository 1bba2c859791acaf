package normalizer

import "math"

// CorrectBrightnessContrast scales every opaque pixel so the mean luma moves
// to the target brightness, then applies a fixed contrast stretch around
// mid-gray. Transparent pixels are left untouched, and an image without
// opaque pixels comes back as an unchanged copy.
func (n *Normalizer) CorrectBrightnessContrast(img RawImage) RawImage {
	out := img.Clone()
	if out.pix == nil {
		return out
	}
	factor, ok := brightnessFactor(out.pix.Pix, n.th.TargetBrightness)
	if !ok {
		return out
	}
	applyBrightness(out.pix.Pix, factor)
	applyContrast(out.pix.Pix, n.th.Contrast)
	return out
}

// meanLuma averages the unweighted channel mean over pixels with nonzero alpha.
func meanLuma(pix []uint8) (float64, bool) {
	var total float64
	count := 0
	for i := 0; i+3 < len(pix); i += 4 {
		if pix[i+3] == 0 {
			continue
		}
		total += (float64(pix[i]) + float64(pix[i+1]) + float64(pix[i+2])) / 3
		count++
	}
	if count == 0 {
		return 0, false
	}
	return total / float64(count), true
}

func brightnessFactor(pix []uint8, target float64) (float64, bool) {
	avg, ok := meanLuma(pix)
	if !ok {
		return 0, false
	}
	return target / math.Max(avg, 1), true
}

func applyBrightness(pix []uint8, factor float64) {
	for i := 0; i+3 < len(pix); i += 4 {
		if pix[i+3] == 0 {
			continue
		}
		pix[i] = clamp8(float64(pix[i]) * factor)
		pix[i+1] = clamp8(float64(pix[i+1]) * factor)
		pix[i+2] = clamp8(float64(pix[i+2]) * factor)
	}
}

func applyContrast(pix []uint8, factor float64) {
	for i := 0; i+3 < len(pix); i += 4 {
		if pix[i+3] == 0 {
			continue
		}
		pix[i] = clamp8((float64(pix[i])-128)*factor + 128)
		pix[i+1] = clamp8((float64(pix[i+1])-128)*factor + 128)
		pix[i+2] = clamp8((float64(pix[i+2])-128)*factor + 128)
	}
}

// clamp8 stores v the way an 8-bit clamped canvas buffer does: clamp to
// [0,255] and round half to even.
func clamp8(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.RoundToEven(v))
}
