package proxy

import (
	"context"
	"fmt"
	"net/http"

	"chat-gateway/pkg/api"
)

// ModelProxy issues calls to the upstream assistant. Transport and decoding
// failures are returned as errors, a non-2xx reply as *UpstreamError.
type ModelProxy interface {
	Chat(ctx context.Context, req api.ModelRequest) (*api.ModelResponse, error)
	HealthCheck(ctx context.Context) (*api.ModelHealth, error)
}

type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream assistant returned %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}
