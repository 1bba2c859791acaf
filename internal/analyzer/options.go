package analyzer

import "go-exam-scanner/pkg/validation"

// InspectOptions configures page inspection.
type InspectOptions struct {
	Thresholds validation.PageThresholds

	// Skew estimation walks every pixel with two Sobel kernels; batch
	// jobs may skip it.
	SkipSkew bool
}

// DefaultOptions returns default inspection options
func DefaultOptions() InspectOptions {
	return InspectOptions{
		Thresholds: validation.DefaultPageThresholds(),
	}
}

// FastOptions skips skew estimation.
func FastOptions() InspectOptions {
	opts := DefaultOptions()
	opts.SkipSkew = true
	return opts
}

// OCROptions tightens sharpness and resolution for pages that will be run
// through text recognition.
func OCROptions() InspectOptions {
	opts := DefaultOptions()
	opts.Thresholds.MinLaplacianVariance = 300
	opts.Thresholds.MinWidth = 800
	opts.Thresholds.MinHeight = 1000
	return opts
}

// WithBlurThreshold overrides the minimum Laplacian variance.
func (opts InspectOptions) WithBlurThreshold(v float64) InspectOptions {
	opts.Thresholds.MinLaplacianVariance = v
	return opts
}

// WithoutSkew disables skew estimation.
func (opts InspectOptions) WithoutSkew() InspectOptions {
	opts.SkipSkew = true
	return opts
}
