package normalizer

// Thresholds holds the empirically chosen constants of the document
// heuristics. They are configuration, not derived values.
type Thresholds struct {
	// Brightness/contrast correction
	TargetBrightness float64
	Contrast         float64

	// Edge detector
	EdgeGradient  int
	EdgeMinPoints int
	EdgeMinSpan   float64

	// Color detector
	NearWhite      uint8
	ColorStride    int
	ColorMinPoints int
	ColorMinSpan   float64

	// Crop and compose
	MinAreaFraction float64
	Padding         int
	MinCropSize     int

	// Encoding
	AutoQuality   int
	ManualQuality int
}

// DefaultThresholds returns the constants used by the capture pipeline.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TargetBrightness: 160,
		Contrast:         1.2,
		EdgeGradient:     30,
		EdgeMinPoints:    100,
		EdgeMinSpan:      0.2,
		NearWhite:        240,
		ColorStride:      2,
		ColorMinPoints:   500,
		ColorMinSpan:     0.3,
		MinAreaFraction:  0.1,
		Padding:          20,
		MinCropSize:      20,
		AutoQuality:      90,
		ManualQuality:    95,
	}
}
