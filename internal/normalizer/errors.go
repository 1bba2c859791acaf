package normalizer

import (
	"errors"
	"fmt"
)

var errEmptyPayload = errors.New("empty image payload")

// DecodeError reports an input payload that is not a decodable image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// InvalidCropError reports a manual crop that collapses below the minimum
// size once clamped to the image.
type InvalidCropError struct {
	Requested CropRequest
	Clamped   BoundingBox
	Minimum   int
}

func (e *InvalidCropError) Error() string {
	return fmt.Sprintf("crop region %dx%d (requested %dx%d at %d,%d) is below the %dx%d minimum",
		e.Clamped.Width, e.Clamped.Height,
		e.Requested.Width, e.Requested.Height, e.Requested.X, e.Requested.Y,
		e.Minimum, e.Minimum)
}
