package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hyperjump/tenderlens/internal/config"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// Ollama streams completions from an Ollama server's chat endpoint.
type Ollama struct {
	client      *api.Client
	model       string
	temperature float64
	logger      *zap.Logger
}

// NewOllama connects to cfg.BaseURL, or to OLLAMA_HOST when BaseURL is empty.
func NewOllama(cfg config.LLMConfig, logger *zap.Logger) (*Ollama, error) {
	var client *api.Client
	if cfg.BaseURL != "" {
		base, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama base URL: %w", err)
		}
		client = api.NewClient(base, http.DefaultClient)
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("ollama client: %w", err)
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ollama{client: client, model: cfg.Model, temperature: cfg.Temperature, logger: logger}, nil
}

// Model returns the configured model name.
func (o *Ollama) Model() string {
	return o.model
}

// Stream sends prompt as a single user message and forwards each content fragment.
func (o *Ollama) Stream(ctx context.Context, prompt string, onChunk func(chunk string) error) error {
	stream := true
	req := &api.ChatRequest{
		Model:    o.model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
	}
	if o.temperature > 0 {
		req.Options = map[string]any{"temperature": o.temperature}
	}
	o.logger.Debug("ollama chat", zap.String("model", o.model), zap.Int("prompt_chars", len(prompt)))

	err := o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		if resp.Message.Content == "" {
			return nil
		}
		return onChunk(resp.Message.Content)
	})
	if err != nil {
		return fmt.Errorf("ollama chat: %w", err)
	}
	return nil
}
