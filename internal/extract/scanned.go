package extract

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// extractScannedPDF renders every page to an image and OCRs it, prefixing each page with a
// "\n--- Page <n> ---\n" marker (1-indexed).
func (e *Extractor) extractScannedPDF(ctx context.Context, content []byte) (string, error) {
	if e.rasterizer == nil {
		return "", fmt.Errorf("no rasterizer configured")
	}
	if e.recognizer == nil {
		return "", ErrOCRUnavailable
	}
	pages, err := e.rasterizer.Rasterize(ctx, content)
	if err != nil {
		return "", fmt.Errorf("rasterize: %w", err)
	}
	var b strings.Builder
	for i, img := range pages {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		pageText, err := e.recognizer.Recognize(ctx, img, e.ocrLanguage)
		if err != nil {
			return "", fmt.Errorf("OCR page %d: %w", i+1, err)
		}
		fmt.Fprintf(&b, "\n--- Page %d ---\n", i+1)
		b.WriteString(pageText)
	}
	e.logger.Debug("scanned PDF OCR complete", zap.Int("pages", len(pages)), zap.Int("chars", b.Len()))
	return b.String(), nil
}
