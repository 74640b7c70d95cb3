package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"haulpulse/internal/config"
	"haulpulse/internal/dataprocessing"
	apierrors "haulpulse/internal/errors"
	"haulpulse/internal/middleware"
	"haulpulse/internal/services"
	"haulpulse/internal/shared/testutil"
	"haulpulse/pkg/contracts/domain"
)

// MockAnalyticsService is a mock implementation of AnalyticsService
type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) CreateSession(ctx context.Context, filename string, r io.Reader) (services.SessionInfo, error) {
	args := m.Called(filename)
	return args.Get(0).(services.SessionInfo), args.Error(1)
}

func (m *MockAnalyticsService) GetSession(ctx context.Context, id string) (services.SessionInfo, error) {
	args := m.Called(id)
	return args.Get(0).(services.SessionInfo), args.Error(1)
}

func (m *MockAnalyticsService) DeleteSession(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func (m *MockAnalyticsService) DayReport(ctx context.Context, id string, day time.Time) (domain.DayReport, error) {
	args := m.Called(id, day)
	return args.Get(0).(domain.DayReport), args.Error(1)
}

func (m *MockAnalyticsService) Aggregate(ctx context.Context, id string, q services.RangeQuery) (services.AggregateResult, error) {
	args := m.Called(id, q)
	return args.Get(0).(services.AggregateResult), args.Error(1)
}

func (m *MockAnalyticsService) Trend(ctx context.Context, id string, p services.Period) (services.TrendResult, error) {
	args := m.Called(id, p)
	return args.Get(0).(services.TrendResult), args.Error(1)
}

func (m *MockAnalyticsService) Compare(ctx context.Context, id string, q services.CompareQuery) (services.CompareResult, error) {
	args := m.Called(id, q)
	return args.Get(0).(services.CompareResult), args.Error(1)
}

func (m *MockAnalyticsService) Export(ctx context.Context, id string, q services.ExportQuery, w io.Writer) error {
	return m.Called(id, q, w).Error(0)
}

const testMaxUpload = 1 << 20

// newTestRouter mounts the analytics routes the way the application does.
func newTestRouter(svc AnalyticsService, maxUpload int64) http.Handler {
	logger := testutil.DiscardLogger()
	errorHandler := apierrors.NewErrorHandler(logger, false)
	h := NewAnalyticsHandler(svc, middleware.NewRequestValidator(), errorHandler, maxUpload, 4, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Mount("/api/v1/sessions", h.Routes(middleware.ContentTypeValidator(errorHandler, "multipart/form-data")))
	return r
}

// newRealService builds the analytics service on a real pipeline and store.
func newRealService(t *testing.T) *services.AnalyticsService {
	t.Helper()
	pipeline, err := dataprocessing.NewPipeline(dataprocessing.DefaultConfig(), testutil.DiscardLogger(), nil)
	require.NoError(t, err)

	store := services.NewSessionStore(config.SessionConfig{TTL: time.Hour, MaxSessions: 4}, nil, testutil.DiscardLogger())
	t.Cleanup(func() { _ = store.Close() })
	return services.NewAnalyticsService(pipeline, store, nil, testutil.DiscardLogger())
}

// uploadRequest builds a multipart upload of content under the given field.
func uploadRequest(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "weekly dispatch log"))
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func day(s string) time.Time {
	t, err := time.Parse(dataprocessing.DateLayoutISO, s)
	if err != nil {
		panic(err)
	}
	return t
}
