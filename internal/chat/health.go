package chat

import (
	"context"
	"time"

	"chat-gateway/internal/metrics"
	"chat-gateway/internal/proxy"
	"chat-gateway/internal/result"
	"chat-gateway/pkg/api"
)

type HealthService struct {
	proxy proxy.ModelProxy
}

func NewHealthService(proxy proxy.ModelProxy) *HealthService {
	return &HealthService{proxy: proxy}
}

// ModelStatus returns the upstream health report as is.
func (s *HealthService) ModelStatus(ctx context.Context) (*api.ModelHealth, error) {
	start := time.Now()
	health, err := s.proxy.HealthCheck(ctx)
	metrics.ObserveUpstream("health", start, err)
	return health, err
}

// ModelHealth reports whether the assistant considers itself healthy. Failing
// to reach the assistant is an error, not an unhealthy status.
func (s *HealthService) ModelHealth(ctx context.Context) (bool, error) {
	health, err := s.ModelStatus(ctx)
	if err != nil {
		return false, err
	}
	return health != nil && health.Status == api.HealthyStatus, nil
}

func (s *HealthService) Health(ctx context.Context) result.Result[api.HealthResponse] {
	available, err := s.ModelHealth(ctx)
	if err != nil {
		return result.Err[api.HealthResponse](result.Wrap(result.Unavailable, err, "unable to check assistant health"))
	}

	return result.Ok(api.HealthResponse{
		ModelAvailable: available,
		Healthy:        available,
		Timestamp:      time.Now().UTC(),
	})
}
