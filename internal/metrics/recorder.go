package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bradenpan/whisk-ai-prototype/internal/shared"
)

// Recorder observes the outcome of each model call.
type Recorder interface {
	ObserveCall(meta shared.CallMeta)
}

// Nop discards observations.
type Nop struct{}

func (Nop) ObserveCall(shared.CallMeta) {}

// Fanout forwards each observation to every recorder in order.
type Fanout []Recorder

func (f Fanout) ObserveCall(meta shared.CallMeta) {
	for _, r := range f {
		if r != nil {
			r.ObserveCall(meta)
		}
	}
}

// Prometheus exposes generation and HTTP metrics on its own registry.
type Prometheus struct {
	Registry *prometheus.Registry

	generationRequests *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	generationTokens   *prometheus.CounterVec
	recoveryPartial    *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewPrometheus registers the collectors on a fresh registry.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Prometheus{
		Registry: reg,
		generationRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whisk_generation_requests_total",
				Help: "Total number of model calls by task and outcome",
			},
			[]string{"task", "outcome"},
		),
		generationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "whisk_generation_duration_seconds",
				Help:    "Model call duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
			},
			[]string{"task"},
		),
		generationTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whisk_generation_tokens_total",
				Help: "Tokens consumed by task and kind",
			},
			[]string{"task", "kind"},
		),
		recoveryPartial: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whisk_recovery_partial_total",
				Help: "Responses recovered from truncation",
			},
			[]string{"task"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whisk_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "whisk_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

func (p *Prometheus) ObserveCall(meta shared.CallMeta) {
	p.generationRequests.WithLabelValues(meta.Task, string(meta.Outcome)).Inc()
	p.generationDuration.WithLabelValues(meta.Task).Observe(meta.Latency.Seconds())
	p.generationTokens.WithLabelValues(meta.Task, "prompt").Add(float64(meta.Usage.PromptTokens))
	p.generationTokens.WithLabelValues(meta.Task, "completion").Add(float64(meta.Usage.CompletionTokens))
	if meta.Outcome == shared.OutcomePartial {
		p.recoveryPartial.WithLabelValues(meta.Task).Inc()
	}
}
