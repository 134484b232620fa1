package httpmetrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/fayad123/bcards-server/internal/observability/metrics"
)

type Collector struct {
	prefix string
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func New(prefix string) *Collector {
	return &Collector{
		prefix: prefix,
	}
}

func (c *Collector) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		method := r.Method
		path := NormalizePath(r.URL.Path)

		metrics.APIRequestsTotal.WithLabelValues(c.prefix, method, path).Inc()
		metrics.APIRequestsInFlight.WithLabelValues(c.prefix).Inc()
		defer metrics.APIRequestsInFlight.WithLabelValues(c.prefix).Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		statusClass := fmt.Sprintf("%dxx", rec.status/100)
		metrics.APIRequestDurationSeconds.WithLabelValues(c.prefix, method, path, statusClass).Observe(time.Since(start).Seconds())
	})
}
