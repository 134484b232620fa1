package http

import (
	"net/http"

	"github.com/fayad123/bcards-server/internal/common/constants"
	"github.com/fayad123/bcards-server/internal/common/httpmetrics"
	"github.com/fayad123/bcards-server/internal/common/logger"
)

func BuildBaseHandler(appName string, log *logger.Logger, handler http.Handler) http.Handler {
	metrics := httpmetrics.New(appName)
	recovery := RecoveryMiddleware(log)
	traceID := TraceIDMiddleware
	maxRequestSize := MaxRequestSizeMiddleware(constants.DefaultMaxRequestSize)
	securityHeaders := SecurityHeadersMiddleware
	accessLog := AccessLogMiddleware(log)

	return securityHeaders(traceID(accessLog(recovery(maxRequestSize(metrics.Wrap(handler))))))
}
