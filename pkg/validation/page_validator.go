package validation

import (
	"math"
)

// PageThresholds are the limits a normalized answer sheet page is checked
// against before the operator is advised to retake it.
type PageThresholds struct {
	// Sharpness
	MinLaplacianVariance float64

	// Mean gray level, 0-255
	MinBrightness float64
	MaxBrightness float64

	// Standard deviation of the gray level; blank or washed out pages
	// score low
	MinContrast float64

	// Skew threshold (in degrees)
	MaxSkewAngle float64

	// Resolution thresholds
	MinWidth  int
	MinHeight int
}

// DefaultPageThresholds returns the default page thresholds
func DefaultPageThresholds() PageThresholds {
	return PageThresholds{
		MinLaplacianVariance: 100.0,
		MinBrightness:        80.0,
		MaxBrightness:        250.0,
		MinContrast:          8.0,
		MaxSkewAngle:         5.0,
		MinWidth:             500,
		MinHeight:            700,
	}
}

// Severity of an issue. Only errors advise a retake.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// QualityIssue represents a quality validation issue
type QualityIssue struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"`
	ActualValue float64 `json:"actual_value,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

// PageMetrics are the measurements the validator needs.
type PageMetrics struct {
	Width        int
	Height       int
	LaplacianVar float64
	Brightness   float64
	Contrast     float64
	SkewAngle    *float64
}

// PageValidator turns page measurements into operator facing issues.
type PageValidator struct {
	thresholds PageThresholds
}

// NewPageValidator creates a new page validator with default thresholds
func NewPageValidator() *PageValidator {
	return &PageValidator{thresholds: DefaultPageThresholds()}
}

// NewPageValidatorWithThresholds creates a page validator with custom thresholds
func NewPageValidatorWithThresholds(thresholds PageThresholds) *PageValidator {
	return &PageValidator{thresholds: thresholds}
}

func (pv *PageValidator) Thresholds() PageThresholds {
	return pv.thresholds
}

// Validate checks a page and returns its issues in a stable order.
func (pv *PageValidator) Validate(m PageMetrics) []QualityIssue {
	var issues []QualityIssue
	th := pv.thresholds

	// 1. Blur
	if m.LaplacianVar < th.MinLaplacianVariance {
		issues = append(issues, QualityIssue{
			Type:        "blurriness",
			Message:     "Page is blurry. Hold the camera steady and scan again.",
			Severity:    SeverityError,
			ActualValue: m.LaplacianVar,
			Threshold:   th.MinLaplacianVariance,
		})
	}

	// 2. Exposure
	if m.Brightness < th.MinBrightness {
		issues = append(issues, QualityIssue{
			Type:        "too_dark",
			Message:     "Page is too dark. Scan it in more light.",
			Severity:    SeverityError,
			ActualValue: m.Brightness,
			Threshold:   th.MinBrightness,
		})
	} else if m.Brightness > th.MaxBrightness {
		issues = append(issues, QualityIssue{
			Type:        "too_bright",
			Message:     "Page is washed out. Avoid flash and direct sunlight.",
			Severity:    SeverityWarning,
			ActualValue: m.Brightness,
			Threshold:   th.MaxBrightness,
		})
	}

	// 3. Contrast
	if m.Contrast < th.MinContrast {
		issues = append(issues, QualityIssue{
			Type:        "low_contrast",
			Message:     "Page looks blank. Check that the written side is facing the camera.",
			Severity:    SeverityWarning,
			ActualValue: m.Contrast,
			Threshold:   th.MinContrast,
		})
	}

	// 4. Skew
	if m.SkewAngle != nil && math.Abs(*m.SkewAngle) > th.MaxSkewAngle {
		issues = append(issues, QualityIssue{
			Type:        "skew",
			Message:     "Page is tilted. Hold the camera parallel to the sheet.",
			Severity:    SeverityWarning,
			ActualValue: math.Abs(*m.SkewAngle),
			Threshold:   th.MaxSkewAngle,
		})
	}

	// 5. Resolution
	if m.Width < th.MinWidth || m.Height < th.MinHeight {
		issues = append(issues, QualityIssue{
			Type:        "low_resolution",
			Message:     "Page is too small to read. Move the camera closer.",
			Severity:    SeverityWarning,
			ActualValue: float64(m.Width * m.Height),
			Threshold:   float64(th.MinWidth * th.MinHeight),
		})
	}

	return issues
}

// ConvertIssuesToMessages converts quality issues to plain messages
func (pv *PageValidator) ConvertIssuesToMessages(issues []QualityIssue) []string {
	var messages []string
	for _, issue := range issues {
		messages = append(messages, issue.Message)
	}
	return messages
}

// HasCriticalIssues checks if there are any critical (error severity) issues
func (pv *PageValidator) HasCriticalIssues(issues []QualityIssue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}
