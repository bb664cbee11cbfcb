//go:build cgo
// +build cgo

package extract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// TesseractRecognizer runs OCR through libtesseract. A client is created per call so decoded
// images are released when the call returns.
type TesseractRecognizer struct{}

// NewTesseractRecognizer returns a Tesseract-backed Recognizer.
func NewTesseractRecognizer() Recognizer {
	return &TesseractRecognizer{}
}

// Recognize decodes image and returns its text using the given language model.
func (t *TesseractRecognizer) Recognize(ctx context.Context, image []byte, language string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(language); err != nil {
		return "", fmt.Errorf("tesseract language %q: %w", language, err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("tesseract image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return text, nil
}
