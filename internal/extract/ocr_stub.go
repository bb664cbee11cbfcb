//go:build !cgo
// +build !cgo

package extract

import (
	"context"
	"fmt"
)

// TesseractRecognizer stub type when built without CGO (see ocr_tesseract.go for real implementation).
type TesseractRecognizer struct{}

// NewTesseractRecognizer returns a Recognizer that always fails when built without CGO.
func NewTesseractRecognizer() Recognizer {
	return &TesseractRecognizer{}
}

// Recognize returns ErrOCRUnavailable.
func (t *TesseractRecognizer) Recognize(_ context.Context, _ []byte, _ string) (string, error) {
	return "", fmt.Errorf("%w: Tesseract requires CGO; build with CGO_ENABLED=1 and libtesseract", ErrOCRUnavailable)
}
