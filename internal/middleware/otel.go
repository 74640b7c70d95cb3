package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"haulpulse/internal/infrastructure"
)

// untracedPaths are probed often and carry no business signal.
var untracedPaths = []string{"/api/health", "/api/health/live", "/metrics"}

// Tracing wraps the router in otelhttp. Spans are named after the matched chi
// route pattern once routing has happened, so session IDs stay out of span names.
func Tracing(service string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, service,
			otelhttp.WithFilter(func(r *http.Request) bool {
				for _, p := range untracedPaths {
					if r.URL.Path == p {
						return false
					}
				}
				return true
			}),
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	}
}

// SpanTraceID replaces the log trace ID with the active span's trace ID and
// renames the span after the chi route. Mount it inside the router.
func SpanTraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		span := trace.SpanFromContext(r.Context())
		if span.SpanContext().IsValid() {
			r = r.WithContext(infrastructure.WithTraceID(r.Context(), span.SpanContext().TraceID().String()))
		}

		next.ServeHTTP(w, r)

		if rctx := chi.RouteContext(r.Context()); rctx != nil && span.IsRecording() {
			if pattern := rctx.RoutePattern(); pattern != "" && !strings.HasSuffix(pattern, "/*") {
				span.SetName(r.Method + " " + pattern)
			}
		}
	})
}
