package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chat-gateway/pkg/api"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient serves the assistant protocol directly from an OpenAI
// compatible completions API.
type OpenAIClient struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIClient(apiKey, baseURL, model string, timeout time.Duration) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIClient{
		client:  openai.NewClient(opts...),
		model:   model,
		timeout: timeout,
	}
}

func (c *OpenAIClient) Chat(ctx context.Context, req api.ModelRequest) (*api.ModelResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var messages []openai.ChatCompletionMessageParamUnion
	for _, m := range req.Messages {
		messages = append(messages, openai.UserMessage(m.Question))
		if m.Answer != nil {
			messages = append(messages, openai.AssistantMessage(*m.Answer))
		}
	}

	cfg := req.ModelConfiguration
	params := openai.ChatCompletionNewParams{
		Model:            c.model,
		Messages:         messages,
		MaxTokens:        openai.Int(int64(cfg.MaxTokens)),
		Temperature:      openai.Float(cfg.Temperature),
		TopP:             openai.Float(cfg.TopP),
		PresencePenalty:  openai.Float(cfg.PresencePenalty),
		FrequencyPenalty: openai.Float(cfg.FrequencyPenalty),
	}

	res, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		slog.Error("openai error: chat completions failed", "model", c.model, "error", err)
		return nil, convertOpenAIError(err)
	}

	out := &api.ModelResponse{
		Usage: api.Usage{
			PromptTokens:     int(res.Usage.PromptTokens),
			CompletionTokens: int(res.Usage.CompletionTokens),
			TotalTokens:      int(res.Usage.TotalTokens),
		},
		Metadata: map[string]any{"model": res.Model, "id": res.ID},
	}
	for _, choice := range res.Choices {
		out.Choices = append(out.Choices, api.Choice{
			Index:        int(choice.Index),
			Message:      api.Message{Role: "assistant", Content: choice.Message.Content},
			FinishReason: string(choice.FinishReason),
		})
	}
	return out, nil
}

func (c *OpenAIClient) HealthCheck(ctx context.Context) (*api.ModelHealth, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	model, err := c.client.Models.Get(ctx, c.model)
	if err != nil {
		slog.Error("openai error: model lookup failed", "model", c.model, "error", err)
		return nil, convertOpenAIError(err)
	}

	now := time.Now().UTC()
	return &api.ModelHealth{Model: model.ID, Status: api.HealthyStatus, Timestamp: &now}, nil
}

func convertOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &UpstreamError{StatusCode: apiErr.StatusCode, Body: apiErr.Error()}
	}
	return fmt.Errorf("openai request failed: %w", err)
}
