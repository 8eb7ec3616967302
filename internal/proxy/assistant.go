package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"chat-gateway/pkg/api"

	"github.com/go-resty/resty/v2"
)

// AssistantClient talks to the assistant's own HTTP API. The resty client is
// shared across calls so connections are pooled.
type AssistantClient struct {
	client  *resty.Client
	timeout time.Duration
}

func NewAssistantClient(baseURL string, timeout time.Duration) *AssistantClient {
	return &AssistantClient{
		client: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Accept", "application/json"),
		timeout: timeout,
	}
}

func (c *AssistantClient) Chat(ctx context.Context, req api.ModelRequest) (*api.ModelResponse, error) {
	var out api.ModelResponse
	if err := c.do(ctx, resty.MethodPost, "/chat", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *AssistantClient) HealthCheck(ctx context.Context) (*api.ModelHealth, error) {
	var out api.ModelHealth
	if err := c.do(ctx, resty.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *AssistantClient) do(ctx context.Context, method, endpoint string, body any, dest any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := c.client.R().SetContext(ctx)
	if body != nil {
		req = req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	res, err := req.Execute(method, endpoint)
	if err != nil {
		slog.Error("unable to reach assistant", "method", method, "endpoint", endpoint, "error", err)
		return fmt.Errorf("assistant request %s %s failed: %w", method, endpoint, err)
	}

	if !res.IsSuccess() {
		slog.Error("assistant returned error", "endpoint", endpoint, "status_code", res.StatusCode(), "body", res.String())
		return &UpstreamError{StatusCode: res.StatusCode(), Body: res.String()}
	}

	if err := json.Unmarshal(res.Body(), dest); err != nil {
		slog.Error("error parsing response from assistant", "endpoint", endpoint, "error", err)
		return fmt.Errorf("error parsing assistant response from %s: %w", endpoint, err)
	}

	return nil
}
