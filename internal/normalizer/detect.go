package normalizer

// envelope tracks the minimal axis-aligned box around flagged pixels.
type envelope struct {
	minX, minY, maxX, maxY int
	points                 int
}

func newEnvelope(w, h int) envelope {
	return envelope{minX: w, minY: h}
}

func (e *envelope) add(x, y int) {
	e.points++
	if x < e.minX {
		e.minX = x
	}
	if y < e.minY {
		e.minY = y
	}
	if x > e.maxX {
		e.maxX = x
	}
	if y > e.maxY {
		e.maxY = y
	}
}

// accept applies the point-count and span checks. Spans are max-min, so a
// single flagged column yields width 0 and is rejected.
func (e envelope) accept(w, h, minPoints int, minSpan float64) (BoundingBox, bool) {
	if e.points < minPoints {
		return BoundingBox{}, false
	}
	spanX, spanY := e.maxX-e.minX, e.maxY-e.minY
	if float64(spanX) < float64(w)*minSpan || float64(spanY) < float64(h)*minSpan {
		return BoundingBox{}, false
	}
	if spanX <= 0 || spanY <= 0 {
		return BoundingBox{}, false
	}
	return BoundingBox{X: e.minX, Y: e.minY, Width: spanX, Height: spanY}, true
}

// grayscale converts to a single channel buffer with Rec. 601 weights.
func grayscale(img RawImage) []uint8 {
	w, h := img.Width(), img.Height()
	gray := make([]uint8, w*h)
	p := img.pix
	for y := 0; y < h; y++ {
		row := p.Pix[y*p.Stride : y*p.Stride+w*4]
		for x := 0; x < w; x++ {
			i := x * 4
			gray[y*w+x] = clamp8(float64(row[i])*0.299 + float64(row[i+1])*0.587 + float64(row[i+2])*0.114)
		}
	}
	return gray
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// DetectEdges flags interior pixels whose left/right or top/bottom
// neighbours differ by more than the gradient threshold.
func (n *Normalizer) DetectEdges(img RawImage) (BoundingBox, bool) {
	w, h := img.Width(), img.Height()
	if w < 3 || h < 3 {
		return BoundingBox{}, false
	}
	gray := grayscale(img)
	env := newEnvelope(w, h)
	for y := 1; y < h-1; y++ {
		row := y * w
		for x := 1; x < w-1; x++ {
			i := row + x
			horizontal := absDiff(gray[i-1], gray[i+1])
			vertical := absDiff(gray[i-w], gray[i+w])
			if horizontal > n.th.EdgeGradient || vertical > n.th.EdgeGradient {
				env.add(x, y)
			}
		}
	}
	return env.accept(w, h, n.th.EdgeMinPoints, n.th.EdgeMinSpan)
}

// DetectColor samples the image on a sparse grid and flags any pixel with a
// channel below the near-white level.
func (n *Normalizer) DetectColor(img RawImage) (BoundingBox, bool) {
	w, h := img.Width(), img.Height()
	if w == 0 || h == 0 {
		return BoundingBox{}, false
	}
	stride := n.th.ColorStride
	if stride < 1 {
		stride = 1
	}
	p := img.pix
	env := newEnvelope(w, h)
	for y := 0; y < h; y += stride {
		for x := 0; x < w; x += stride {
			i := y*p.Stride + x*4
			if p.Pix[i] < n.th.NearWhite || p.Pix[i+1] < n.th.NearWhite || p.Pix[i+2] < n.th.NearWhite {
				env.add(x, y)
			}
		}
	}
	return env.accept(w, h, n.th.ColorMinPoints, n.th.ColorMinSpan)
}

// DetectDocument runs both detectors and keeps the larger candidate. On equal
// areas the color candidate wins.
func (n *Normalizer) DetectDocument(img RawImage) (BoundingBox, DetectorKind, bool) {
	edge, edgeOK := n.DetectEdges(img)
	col, colOK := n.DetectColor(img)
	switch {
	case edgeOK && colOK:
		if edge.Area() > col.Area() {
			return edge, DetectorEdge, true
		}
		return col, DetectorColor, true
	case edgeOK:
		return edge, DetectorEdge, true
	case colOK:
		return col, DetectorColor, true
	default:
		return BoundingBox{}, DetectorNone, false
	}
}
