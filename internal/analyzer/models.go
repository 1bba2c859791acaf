package analyzer

import (
	"errors"

	"go-exam-scanner/pkg/validation"
)

var errPoolClosed = errors.New("worker pool closed")

// PageQuality is the inspection result attached to every collected page.
type PageQuality struct {
	Width        int      `json:"width"`
	Height       int      `json:"height"`
	LaplacianVar float64  `json:"laplacian_var"`
	Brightness   float64  `json:"brightness"`
	Contrast     float64  `json:"contrast"`
	SkewAngle    *float64 `json:"skew_angle,omitempty"`

	Blurry        bool `json:"blurry"`
	TooDark       bool `json:"too_dark"`
	TooBright     bool `json:"too_bright"`
	Skewed        bool `json:"skewed"`
	LowResolution bool `json:"low_resolution"`

	Issues        []validation.QualityIssue `json:"issues,omitempty"`
	RetakeAdvised bool                      `json:"retake_advised"`
}

// Messages returns the issue messages in order.
func (q PageQuality) Messages() []string {
	out := make([]string, 0, len(q.Issues))
	for _, i := range q.Issues {
		out = append(out, i.Message)
	}
	return out
}
