// Package llm streams chat completions from a language model provider.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/tenderlens/internal/config"
	"go.uber.org/zap"
)

// Provider names accepted by New.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Streamer sends a single-turn prompt and delivers the completion as text fragments in arrival
// order. onChunk is never called with an empty fragment; an error it returns aborts the stream
// and is returned by Stream.
type Streamer interface {
	Stream(ctx context.Context, prompt string, onChunk func(chunk string) error) error
	Model() string
}

// Collect runs one stream to completion and returns the fragments concatenated with no
// separator. onChunk, when non-nil, sees every fragment as it arrives.
func Collect(ctx context.Context, s Streamer, prompt string, onChunk func(chunk string) error) (string, error) {
	var b strings.Builder
	err := s.Stream(ctx, prompt, func(chunk string) error {
		b.WriteString(chunk)
		if onChunk != nil {
			return onChunk(chunk)
		}
		return nil
	})
	if err != nil {
		return b.String(), err
	}
	return b.String(), nil
}

type settings struct {
	logger *zap.Logger
}

// Option configures a Streamer built by New.
type Option func(*settings)

// WithLogger sets a logger for request-level debug output.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// New returns the Streamer for cfg.Provider.
func New(cfg config.LLMConfig, opts ...Option) (Streamer, error) {
	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	switch cfg.Provider {
	case ProviderOllama, "":
		return NewOllama(cfg, s.logger)
	case ProviderOpenAI:
		return NewOpenAI(cfg, s.logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
