package middleware

import (
	"net/http"
	"time"

	"github.com/crucial707/irrigation-dashboard/internal/metrics"
	"github.com/go-chi/chi/v5"
)

// Prometheus records request duration and count for each request.
// The path label is the chi route pattern when one matched, so /schedules/{id} is one series.
func Prometheus(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := wrap(w)
		next.ServeHTTP(sw, r)
		if r.URL.Path == "/metrics" {
			return
		}
		path := metrics.NormalizePath(r.URL.Path)
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		metrics.RecordRequest(r.Method, path, sw.status, time.Since(start).Seconds())
	})
}
