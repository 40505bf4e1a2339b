package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prediction endpoint collectors.
type Metrics struct {
	requests  *prometheus.CounterVec
	latency   prometheus.Histogram
	predicted prometheus.Histogram
	gatherer  prometheus.Gatherer
}

// NewMetrics registers the collectors on reg. Pass prometheus.NewRegistry()
// in tests to keep them isolated.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lifexp",
			Name:      "predict_requests_total",
			Help:      "Prediction requests by HTTP status code.",
		}, []string{"code"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lifexp",
			Name:      "predict_duration_seconds",
			Help:      "Time spent serving a prediction, bundle load included.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		predicted: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lifexp",
			Name:      "predicted_life_expectancy_years",
			Help:      "Distribution of served predictions.",
			Buckets:   prometheus.LinearBuckets(40, 5, 10),
		}),
		gatherer: reg,
	}
	reg.MustRegister(m.requests, m.latency, m.predicted)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
