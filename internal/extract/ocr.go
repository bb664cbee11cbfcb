package extract

import "context"

// Recognizer runs optical character recognition on an encoded image (PNG, JPEG, TIFF).
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, language string) (string, error)
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, image []byte, language string) (string, error)

// Recognize calls f.
func (f RecognizerFunc) Recognize(ctx context.Context, image []byte, language string) (string, error) {
	return f(ctx, image, language)
}
