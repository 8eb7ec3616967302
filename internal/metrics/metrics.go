package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess          = "success"
	OutcomeInvalid          = "invalid"
	OutcomeUnavailable      = "unavailable"
	OutcomeUpstreamError    = "upstream_error"
	OutcomeBadModelResponse = "bad_model_response"
	OutcomePersistenceError = "persistence_error"
)

var (
	chatTurnsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_gateway_turns_total",
		Help: "Number of chat turns handled, by outcome.",
	}, []string{"outcome"})
	upstreamDurationMetric = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chat_gateway_upstream_seconds",
		Help:    "Duration of calls to the upstream assistant.",
		Buckets: prometheus.DefBuckets,
	}, []string{"call", "success"})
)

func ObserveTurn(outcome string) {
	chatTurnsMetric.WithLabelValues(outcome).Inc()
}

func ObserveUpstream(call string, start time.Time, err error) {
	success := "true"
	if err != nil {
		success = "false"
	}
	upstreamDurationMetric.WithLabelValues(call, success).Observe(time.Since(start).Seconds())
}
