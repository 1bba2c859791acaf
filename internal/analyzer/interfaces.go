package analyzer

import "image"

// PageInspector measures a normalized page and advises whether it should be
// retaken.
type PageInspector interface {
	Inspect(img image.Image) PageQuality
	InspectWithOptions(img image.Image, options InspectOptions) PageQuality
}

// MetricsCalculator handles page metrics computation. Gray images are
// expected to have their origin at (0,0).
type MetricsCalculator interface {
	CalculateLaplacianVariance(gray *image.Gray) float64
	CalculateBrightness(gray *image.Gray) (mean, stddev float64)
	DetectSkew(gray *image.Gray) *float64
}
