// Package handler exposes the prediction service over HTTP.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/your-org/lifexp-predictor/internal/serving"
)

// NewRouter wires /predict, /health, /ready and /metrics.
func NewRouter(predict *PredictHandler, src serving.Source, metrics *Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", HealthCheckHandler)
	r.Get("/ready", ReadinessHandler(src))
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}
	predict.RegisterRoutes(r)
	return r
}
