package analyzer

import (
	"image"
	"image/draw"
	"math"

	"go-exam-scanner/pkg/validation"
)

// Inspector implements PageInspector.
type Inspector struct {
	metrics MetricsCalculator
	options InspectOptions
}

// NewInspector creates an inspector with the given options.
func NewInspector(options InspectOptions) *Inspector {
	return &Inspector{
		metrics: NewMetricsCalculator(),
		options: options,
	}
}

// Inspect uses the options the inspector was built with.
func (in *Inspector) Inspect(img image.Image) PageQuality {
	return in.InspectWithOptions(img, in.options)
}

func (in *Inspector) InspectWithOptions(img image.Image, options InspectOptions) PageQuality {
	gray := toGray(img)
	w, h := gray.Rect.Dx(), gray.Rect.Dy()

	q := PageQuality{Width: w, Height: h}
	q.LaplacianVar = in.metrics.CalculateLaplacianVariance(gray)
	q.Brightness, q.Contrast = in.metrics.CalculateBrightness(gray)
	if !options.SkipSkew {
		q.SkewAngle = in.metrics.DetectSkew(gray)
	}

	th := options.Thresholds
	q.Blurry = q.LaplacianVar < th.MinLaplacianVariance
	q.TooDark = q.Brightness < th.MinBrightness
	q.TooBright = q.Brightness > th.MaxBrightness
	q.Skewed = q.SkewAngle != nil && math.Abs(*q.SkewAngle) > th.MaxSkewAngle
	q.LowResolution = w < th.MinWidth || h < th.MinHeight

	validator := validation.NewPageValidatorWithThresholds(th)
	q.Issues = validator.Validate(validation.PageMetrics{
		Width:        w,
		Height:       h,
		LaplacianVar: q.LaplacianVar,
		Brightness:   q.Brightness,
		Contrast:     q.Contrast,
		SkewAngle:    q.SkewAngle,
	})
	q.RetakeAdvised = validator.HasCriticalIssues(q.Issues)
	return q
}

func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Rect, img, b.Min, draw.Src)
	return gray
}
