package middleware

import (
	"net/http"
	"strconv"
	"time"

	"RapperDashboard/internal/metrics"

	"github.com/go-chi/chi/v5"
)

// WithMetrics считает запросы и их длительность. В качестве метки path
// используется шаблон маршрута chi, а не сырой URL, чтобы не раздувать
// кардинальность метрик.
func WithMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		data := &responseData{}
		lw := &loggingResponseWriter{ResponseWriter: w, data: data}

		next.ServeHTTP(lw, r)

		if data.status == 0 {
			data.status = http.StatusOK
		}

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				path = p
			}
		}

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(data.status)).Inc()
		metrics.HTTPRequestDurationSeconds.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
