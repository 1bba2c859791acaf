package capture

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxSize is the upload limit used when none is configured.
const DefaultMaxSize = 10 << 20

// ValidationError rejects a payload before decoding is attempted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid image payload: " + e.Reason
}

// Validate checks that data is non-empty, within maxSize (DefaultMaxSize
// when maxSize <= 0) and sniffs as an image. It returns the detected MIME
// type.
func Validate(data []byte, maxSize int64) (string, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if len(data) == 0 {
		return "", &ValidationError{Reason: "empty payload"}
	}
	if int64(len(data)) > maxSize {
		return "", &ValidationError{Reason: fmt.Sprintf("payload is %d bytes, limit is %d", len(data), maxSize)}
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", &ValidationError{Reason: fmt.Sprintf("content type %s is not an image", mt.String())}
	}
	return mt.String(), nil
}
