// Package extract converts attachment bytes (digital PDF, scanned PDF, image, DOCX) to plain text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Extraction methods reported in Result.Method.
const (
	MethodPDF        = "pdf"
	MethodScannedPDF = "pdf-ocr"
	MethodDOCX       = "docx"
	MethodImage      = "image-ocr"
)

// DefaultMinDigitalChars is the stripped text length under which a digital PDF extraction is
// treated as failed and the OCR fallback runs.
const DefaultMinDigitalChars = 100

// DefaultOCRLanguage is the Tesseract language model used for OCR.
const DefaultOCRLanguage = "eng"

var imageExtensions = map[string]bool{"png": true, "jpg": true, "jpeg": true, "tiff": true}

// Result is the outcome of extracting one attachment.
type Result struct {
	Text   string `json:"text"`
	Ext    string `json:"ext"`
	Method string `json:"method,omitempty"`
	// Unsupported is set when the extension has no extractor; Text is then empty and no
	// extraction was attempted.
	Unsupported bool `json:"unsupported"`
}

// Empty reports whether the extracted text is blank after trimming whitespace.
func (r *Result) Empty() bool {
	return strings.TrimSpace(r.Text) == ""
}

// Extractor extracts plain text from attachment bytes.
type Extractor struct {
	recognizer      Recognizer
	rasterizer      Rasterizer
	minDigitalChars int
	ocrLanguage     string
	logger          *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRecognizer sets the OCR engine used for images and scanned PDFs.
func WithRecognizer(r Recognizer) Option {
	return func(e *Extractor) { e.recognizer = r }
}

// WithRasterizer sets the PDF page renderer used by the scanned PDF fallback.
func WithRasterizer(r Rasterizer) Option {
	return func(e *Extractor) { e.rasterizer = r }
}

// WithMinDigitalChars sets the OCR fallback threshold. Values <= 0 are ignored.
func WithMinDigitalChars(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.minDigitalChars = n
		}
	}
}

// WithOCRLanguage sets the OCR language model. Empty values are ignored.
func WithOCRLanguage(lang string) Option {
	return func(e *Extractor) {
		if lang != "" {
			e.ocrLanguage = lang
		}
	}
}

// WithLogger sets a logger for debug output (method chosen, fallback triggered, etc.).
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor returns an Extractor. Without options it uses Tesseract for OCR and pdftoppm
// at DefaultRenderDPI for rasterization.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		recognizer:      NewTesseractRecognizer(),
		rasterizer:      NewPdftoppmRasterizer("", DefaultRenderDPI),
		minDigitalChars: DefaultMinDigitalChars,
		ocrLanguage:     DefaultOCRLanguage,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// ExtOf returns the lower-cased text after the final "." in filename, or "" when there is none.
func ExtOf(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

// Supported reports whether ext (as returned by ExtOf) has an extractor.
func Supported(ext string) bool {
	return ext == "pdf" || ext == "docx" || imageExtensions[ext]
}

// SupportedExtensions lists the extensions with an extractor.
func SupportedExtensions() []string {
	return []string{"pdf", "docx", "png", "jpg", "jpeg", "tiff"}
}

// Extract dispatches on the extension of filename and returns the extracted text.
// Unsupported extensions yield Result.Unsupported with empty text and a nil error.
func (e *Extractor) Extract(ctx context.Context, filename string, content []byte) (*Result, error) {
	ext := ExtOf(filename)
	res := &Result{Ext: ext}
	var err error
	switch {
	case ext == "pdf":
		res.Text, res.Method, err = e.extractPDFWithFallback(ctx, content)
	case ext == "docx":
		res.Method = MethodDOCX
		res.Text, err = extractDOCX(content)
	case imageExtensions[ext]:
		res.Method = MethodImage
		res.Text, err = e.extractImage(ctx, content)
	default:
		res.Unsupported = true
		e.logger.Debug("unsupported attachment type", zap.String("filename", filename), zap.String("ext", ext))
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filename, err)
	}
	e.logger.Debug("extracted attachment",
		zap.String("filename", filename),
		zap.String("method", res.Method),
		zap.Int("chars", len(res.Text)),
	)
	return res, nil
}

// extractPDFWithFallback runs the digital path and, when it yields too little text, the OCR path.
// The OCR output is final even when it is also short.
func (e *Extractor) extractPDFWithFallback(ctx context.Context, content []byte) (string, string, error) {
	text, err := extractPDF(content)
	if err != nil {
		return "", "", err
	}
	stripped := len(strings.TrimSpace(text))
	if stripped >= e.minDigitalChars {
		return text, MethodPDF, nil
	}
	e.logger.Debug("digital PDF text below threshold, running OCR fallback",
		zap.Int("chars", stripped),
		zap.Int("threshold", e.minDigitalChars),
	)
	scanned, err := e.extractScannedPDF(ctx, content)
	if err != nil {
		return "", "", fmt.Errorf("scanned PDF fallback: %w", err)
	}
	return scanned, MethodScannedPDF, nil
}

func (e *Extractor) extractImage(ctx context.Context, content []byte) (string, error) {
	if e.recognizer == nil {
		return "", ErrOCRUnavailable
	}
	text, err := e.recognizer.Recognize(ctx, content, e.ocrLanguage)
	if err != nil {
		return "", fmt.Errorf("OCR image: %w", err)
	}
	return text, nil
}

// ErrOCRUnavailable is returned when OCR is needed but no engine is compiled in or configured.
var ErrOCRUnavailable = errors.New("OCR engine unavailable")
