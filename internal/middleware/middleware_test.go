package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	apierrors "haulpulse/internal/errors"
	"haulpulse/internal/infrastructure"
	"haulpulse/internal/shared/testutil"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		wantSame bool
	}{
		{name: "generated", incoming: ""},
		{name: "propagated", incoming: "client-id-1", wantSame: true},
		{name: "oversized header is replaced", incoming: strings.Repeat("x", 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seenReqID, seenTraceID string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenReqID = GetReqID(r.Context())
				seenTraceID = infrastructure.GetTraceID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.NotEmpty(t, seenReqID)
			assert.Equal(t, seenReqID, seenTraceID)
			assert.Equal(t, seenReqID, rec.Header().Get(RequestIDHeader))
			if tt.wantSame {
				assert.Equal(t, tt.incoming, seenReqID)
			} else {
				assert.Len(t, seenReqID, 36)
			}
		})
	}
}

func TestStructuredLogger(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel slog.Level
	}{
		{"success", http.StatusOK, slog.LevelInfo},
		{"client error", http.StatusUnprocessableEntity, slog.LevelWarn},
		{"server error", http.StatusInternalServerError, slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := RequestID(StructuredLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})))

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/sessions?x=1", nil))

			records := logs.GetRecordsByLevel(tt.wantLevel)
			require.Len(t, records, 1)
			assert.Equal(t, "http request", records[0].Message)
			assert.Equal(t, int64(tt.status), records[0].Attrs["status"])
			assert.Equal(t, "x=1", records[0].Attrs["query"])
			assert.NotEmpty(t, records[0].Attrs["request_id"])
		})
	}
}

func TestTimeout(t *testing.T) {
	var deadline time.Time
	var ok bool
	h := Timeout(time.Second)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)

	Timeout(0)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, ok = r.Context().Deadline()
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok, "zero disables the deadline")
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(okHandler)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestRateLimiter(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	rl := NewRateLimiter(0.001, 2, apierrors.NewErrorHandler(logger, false), logger)
	h := rl.Handler(http.HandlerFunc(okHandler))

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1001").Code, "port does not matter")

	limited := send("10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.Equal(t, "application/problem+json", limited.Header().Get("Content-Type"))
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "rate limit exceeded")

	assert.Equal(t, http.StatusOK, send("10.0.0.2:1000").Code, "clients have separate budgets")
	assert.Equal(t, 2, rl.Clients())
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	logger := testutil.DiscardLogger()
	rl := NewRateLimiter(1, 1, apierrors.NewErrorHandler(logger, false), logger)

	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.limiter("10.0.0.1")
	rl.limiter("10.0.0.2")
	require.Equal(t, 2, rl.Clients())

	now = now.Add(clientIdleTTL + time.Second)
	rl.limiter("10.0.0.3")
	assert.Equal(t, 1, rl.Clients())
}

func TestRateLimiterSweepsAtMostOncePerInterval(t *testing.T) {
	logger := testutil.DiscardLogger()
	rl := NewRateLimiter(1, 1, apierrors.NewErrorHandler(logger, false), logger)

	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	now := start
	rl.now = func() time.Time { return now }

	rl.limiter("10.0.0.1")

	now = start.Add(clientIdleTTL - 30*time.Second)
	rl.limiter("10.0.0.2")

	// 10.0.0.1 is idle past the TTL, but the last sweep was under a minute ago.
	now = start.Add(clientIdleTTL + time.Second)
	rl.limiter("10.0.0.2")
	assert.Equal(t, 2, rl.Clients())

	now = start.Add(clientIdleTTL + sweepInterval)
	rl.limiter("10.0.0.3")
	assert.Equal(t, 2, rl.Clients(), "only 10.0.0.1 is evicted")
}

func TestContentTypeValidator(t *testing.T) {
	eh := apierrors.NewErrorHandler(testutil.DiscardLogger(), false)
	h := ContentTypeValidator(eh, "multipart/form-data", "text/csv")(http.HandlerFunc(okHandler))

	tests := []struct {
		name        string
		method      string
		contentType string
		want        int
	}{
		{"multipart", http.MethodPost, "multipart/form-data; boundary=abc", http.StatusOK},
		{"csv any case", http.MethodPost, "Text/CSV; charset=utf-8", http.StatusOK},
		{"json rejected", http.MethodPost, "application/json", http.StatusUnsupportedMediaType},
		{"missing rejected", http.MethodPost, "", http.StatusUnsupportedMediaType},
		{"get passes", http.MethodGet, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestSpanTraceID(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	ctx, span := tp.Tracer("test").Start(context.Background(), "GET /api/v1/sessions/abc")

	var seen string
	r := chi.NewRouter()
	r.Use(SpanTraceID)
	r.Get("/api/v1/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		seen = infrastructure.GetTraceID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/abc", nil).WithContext(ctx)
	r.ServeHTTP(httptest.NewRecorder(), req)
	span.End()

	assert.Equal(t, trace.SpanContextFromContext(ctx).TraceID().String(), seen)
	require.Len(t, recorder.Ended(), 1)
	assert.Equal(t, "GET /api/v1/sessions/{id}", recorder.Ended()[0].Name())
}
