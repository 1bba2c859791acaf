package normalizer

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode turns an encoded still image into a RawImage. Any failure,
// including a zero sized image, is returned as *DecodeError.
func Decode(data []byte) (RawImage, error) {
	if len(data) == 0 {
		return RawImage{}, &DecodeError{Err: errEmptyPayload}
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return RawImage{}, &DecodeError{Err: err}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return RawImage{}, &DecodeError{Err: errors.New("image has no pixels")}
	}
	return NewRawImage(img), nil
}
