package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

var logger *zap.SugaredLogger = zap.NewNop().Sugar()

// SetLogger передаёт логгер в middleware (вызывается из main).
func SetLogger(l *zap.SugaredLogger) {
	logger = l
}

type responseData struct {
	status int
	size   int
}

type loggingResponseWriter struct {
	http.ResponseWriter
	data *responseData
}

func (w *loggingResponseWriter) Write(b []byte) (int, error) {
	if w.data.status == 0 {
		w.data.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.data.size += n
	return n, err
}

func (w *loggingResponseWriter) WriteHeader(statusCode int) {
	w.data.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// WithLogging логирует метод, путь, статус, размер ответа и длительность.
func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		data := &responseData{}
		lw := &loggingResponseWriter{ResponseWriter: w, data: data}

		next.ServeHTTP(lw, r)

		if data.status == 0 {
			data.status = http.StatusOK
		}

		logger.Infow("request",
			"method", r.Method,
			"uri", r.RequestURI,
			"status", data.status,
			"size", data.size,
			"duration", time.Since(start),
		)
	})
}
