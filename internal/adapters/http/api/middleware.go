package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/platecheck/pkg/metrics"
)

// MetricsMiddleware records the request count, latency and error class of
// next under endpoint.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		code := strconv.Itoa(sw.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, code, float64(time.Since(start).Milliseconds()))
		if sw.status >= http.StatusBadRequest {
			metrics.RecordHTTPError(endpoint, r.Method, errorClass(sw.status))
		}
	}
}

// errorClass buckets failing status codes into metric labels.
func errorClass(status int) string {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return "access_denied"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusRequestEntityTooLarge:
		return "payload_too_large"
	case http.StatusTooManyRequests:
		return "backpressure"
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return "upstream_unavailable"
	}
	if status >= http.StatusInternalServerError {
		return "server_error"
	}
	return "client_error"
}

// statusWriter remembers the status code written through it.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.status = code
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	sw.wroteHeader = true
	return sw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}
