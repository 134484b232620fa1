package http

import (
	"net/http"
	"time"

	"github.com/fayad123/bcards-server/internal/common/httpmetrics"
	"github.com/fayad123/bcards-server/internal/common/logger"
)

type accessRecorder struct {
	http.ResponseWriter
	status int
}

func (r *accessRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// AccessLogMiddleware writes one line per request; responses with status
// >= 400 are logged at WARNING.
func AccessLogMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &accessRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			entry := log.WithFields(r.Context(), logger.Fields{
				"method":     r.Method,
				"path":       httpmetrics.NormalizePath(r.URL.Path),
				"status":     rec.status,
				"latency_ms": time.Since(start).Milliseconds(),
			})
			if rec.status >= http.StatusBadRequest {
				entry.Warn("request completed")
				return
			}
			entry.Info("request completed")
		})
	}
}
