package verify

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// TesseractRecognizer runs Tesseract through gosseract. A fresh client is
// created per call because gosseract clients are not goroutine-safe.
type TesseractRecognizer struct {
	Language string
}

func (t TesseractRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	lang := t.Language
	if lang == "" {
		lang = "eng"
	}
	if err := client.SetLanguage(lang); err != nil {
		return "", fmt.Errorf("set ocr language: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("load ocr image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	return text, ctx.Err()
}
