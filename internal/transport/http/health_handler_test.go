package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haulpulse/internal/config"
	apierrors "haulpulse/internal/errors"
	"haulpulse/internal/services"
	"haulpulse/internal/shared/testutil"
)

func newHealthRouter(t *testing.T, store *services.SessionStore) http.Handler {
	t.Helper()
	logger := testutil.DiscardLogger()
	h := NewHealthHandler(services.NewHealthService("1.2.3", "", "abc123", store, logger), logger)

	r := chi.NewRouter()
	r.Route("/api", h.Routes)
	return r
}

func TestHealthHandler(t *testing.T) {
	store := services.NewSessionStore(config.SessionConfig{TTL: time.Hour}, nil, testutil.DiscardLogger())
	t.Cleanup(func() { _ = store.Close() })
	router := newHealthRouter(t, store)

	tests := []struct {
		path       string
		wantStatus string
		wantKey    string
	}{
		{"/api/health", "ok", "services"},
		{"/api/health/live", "alive", "runtime"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := serve(router, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tt.wantStatus, body["status"])
			assert.Contains(t, body, tt.wantKey)
		})
	}

	version := decodeBody(t, serve(router, httptest.NewRequest(http.MethodGet, "/api/version", nil)))
	assert.Equal(t, "1.2.3", version["version"])
	assert.Equal(t, "abc123", version["build_id"])
}

func TestHealthHandlerDegraded(t *testing.T) {
	store := services.NewSessionStore(config.SessionConfig{TTL: time.Hour}, nil, testutil.DiscardLogger())
	require.NoError(t, store.Close())

	rec := serve(newHealthRouter(t, store), httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", decodeBody(t, rec)["status"])
}

func TestMetricsHandler(t *testing.T) {
	eh := apierrors.NewErrorHandler(testutil.DiscardLogger(), false)

	exposition := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("haul_uploads_total 1\n"))
	})
	rec := serve(NewMetricsHandler(exposition, eh), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "haul_uploads_total 1\n", rec.Body.String())

	disabled := serve(NewMetricsHandler(nil, eh), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, disabled.Code)
	assert.Equal(t, "application/problem+json", disabled.Header().Get("Content-Type"))
}
