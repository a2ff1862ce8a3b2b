package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/snapgrade/internal/jobs"
	"github.com/fpang/snapgrade/internal/metrics"
)

// withOriginVerify is middleware that rejects requests lacking the correct
// x-origin-verify header. CloudFront injects the header via a custom origin
// header, so direct API Gateway access is blocked.
func withOriginVerify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if originVerifySecret == "" {
			// Secret not configured — allow through (dev/initial deploy)
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("x-origin-verify") != originVerifySecret {
			log.Warn().Str("path", r.URL.Path).Msg("Blocked request: missing or invalid x-origin-verify header")
			httpError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// withMetrics is middleware that emits per-request EMF metrics:
// RequestLatencyMs, RequestCount (with an Endpoint dimension).
func withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(sr, r)

		elapsed := time.Since(start)

		metrics.New("SnapGrade").
			Dimension("Endpoint", normalizeEndpoint(r.URL.Path)).
			Metric("RequestLatencyMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
			Count("RequestCount").
			Property("method", r.Method).
			Property("statusCode", sr.statusCode).
			Property("path", r.URL.Path).
			Flush()
	})
}

// normalizeEndpoint maps request paths to low-cardinality endpoint names to
// avoid creating excessive CloudWatch metric dimensions. Parameterized
// routes collapse their ID segment: /api/compare/{id}/results becomes
// /api/compare/*/results.
func normalizeEndpoint(path string) string {
	switch path {
	case "/api/health", "/api/upload-url", "/api/images",
		"/api/images/confirm", "/api/compare/start", "/api/download/start":
		return path
	}

	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p == "" {
			continue
		}
		if looksLikeID(p) {
			parts = append(parts, "*")
		} else {
			parts = append(parts, p)
		}
	}
	return "/" + strings.Join(parts, "/")
}

// looksLikeID reports whether a path segment looks like a random ID
// (hex job ID, UUID) rather than a fixed route word.
func looksLikeID(s string) bool {
	s = strings.TrimPrefix(strings.TrimPrefix(s, jobs.CompareIDPrefix), jobs.BundleIDPrefix)
	if len(s) < 8 {
		return false
	}
	hexCount := 0
	for _, c := range s {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || c == '-' {
			hexCount++
		}
	}
	return float64(hexCount)/float64(len(s)) > 0.8
}
