package handler

import (
	"net/http"

	"github.com/your-org/lifexp-predictor/internal/serving"
)

// HealthCheckHandler is a simple handler that returns HTTP 200 OK.
// It can be used for liveness checks by Docker or other services.
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// ReadinessHandler returns 200 once a valid bundle can be loaded from src
// and 503 otherwise.
func ReadinessHandler(src serving.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := src.Load(r.Context()); err != nil {
			http.Error(w, "bundle unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("READY"))
	}
}
