package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/worklog/internal/auth/service"
	"github.com/aussiebroadwan/worklog/pkg/httpx"
)

// instrument records request count and latency under route, the mux
// pattern, so path parameters do not explode label cardinality.
func instrument(m *service.Metrics, route string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			m.ObserveHTTP(route, sw.status, time.Since(start).Seconds())
		})
	}
}

type statusWriter struct {
	http.ResponseWriter

	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
