package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "codeforge"

// Registry holds the service's collectors on a private prometheus registry.
type Registry struct {
	reg *prometheus.Registry

	RequestsTotal  *prometheus.CounterVec
	RequestLatency *prometheus.HistogramVec
	CostUSD        *prometheus.CounterVec
	Tokens         *prometheus.CounterVec
	StreamsTotal   *prometheus.CounterVec
	ProjectsTotal  *prometheus.CounterVec
}

func New() *Registry {
	reg := prometheus.NewRegistry()
	m := &Registry{
		reg: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Model calls dispatched, by task type, provider, model and outcome.",
		}, []string{"task_type", "provider", "model", "status"}),
		RequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_latency_ms",
			Help:      "Model call latency in milliseconds.",
			Buckets:   prometheus.ExponentialBuckets(50, 2, 10),
		}, []string{"task_type", "provider", "model"}),
		CostUSD: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cost_usd_total",
			Help:      "Estimated USD cost of completed calls.",
		}, []string{"provider", "model"}),
		Tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Tokens reported by vendors.",
		}, []string{"provider", "model", "direction"}),
		StreamsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streams_total",
			Help:      "Streaming calls opened, by provider and model.",
		}, []string{"provider", "model"}),
		ProjectsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "projects_created_total",
			Help:      "Projects created, by DNA source (model or template).",
		}, []string{"source"}),
	}
	reg.MustRegister(m.RequestsTotal, m.RequestLatency, m.CostUSD, m.Tokens, m.StreamsTotal, m.ProjectsTotal)
	return m
}

// ObserveCall records one completed or failed blocking call.
func (m *Registry) ObserveCall(taskType, provider, model, status string, latencyMs float64, costUSD float64, in, out int) {
	m.RequestsTotal.WithLabelValues(taskType, provider, model, status).Inc()
	m.RequestLatency.WithLabelValues(taskType, provider, model).Observe(latencyMs)
	if costUSD > 0 {
		m.CostUSD.WithLabelValues(provider, model).Add(costUSD)
	}
	if in > 0 {
		m.Tokens.WithLabelValues(provider, model, "input").Add(float64(in))
	}
	if out > 0 {
		m.Tokens.WithLabelValues(provider, model, "output").Add(float64(out))
	}
}

func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
