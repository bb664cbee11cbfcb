package llm

import (
	"context"
	"fmt"

	"github.com/hyperjump/tenderlens/internal/config"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// OpenAI streams completions from the OpenAI chat completions API or any compatible server.
type OpenAI struct {
	client      openai.Client
	model       string
	temperature float64
	logger      *zap.Logger
}

// NewOpenAI builds a client from cfg. Retries are disabled: a failed stream fails the run.
func NewOpenAI(cfg config.LLMConfig, logger *zap.Logger) (*OpenAI, error) {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAI{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger,
	}, nil
}

// Model returns the configured model name.
func (o *OpenAI) Model() string {
	return o.model
}

// Stream sends prompt as a single user message and forwards each delta's content.
func (o *OpenAI) Stream(ctx context.Context, prompt string, onChunk func(chunk string) error) error {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	}
	if o.temperature > 0 {
		params.Temperature = openai.Float(o.temperature)
	}
	o.logger.Debug("openai chat", zap.String("model", o.model), zap.Int("prompt_chars", len(prompt)))

	stream := o.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()
	for stream.Next() {
		chunk := stream.Current()
		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			if err := onChunk(choice.Delta.Content); err != nil {
				return err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("openai chat: %w", err)
	}
	return nil
}
