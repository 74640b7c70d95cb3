package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"haulpulse/internal/config"
	"haulpulse/internal/dataprocessing"
	"haulpulse/internal/infrastructure"
	"haulpulse/internal/shared/testutil"
)

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{TTL: time.Hour, MaxSessions: 4}
}

func newTestStore(t *testing.T, cfg config.SessionConfig) *SessionStore {
	t.Helper()
	store := NewSessionStore(cfg, nil, testutil.DiscardLogger())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestService(t *testing.T, metrics *infrastructure.BusinessMetrics) (*AnalyticsService, *SessionStore) {
	t.Helper()
	pipeline, err := dataprocessing.NewPipeline(dataprocessing.DefaultConfig(), testutil.DiscardLogger(), nil)
	require.NoError(t, err)

	store := NewSessionStore(testSessionConfig(), metrics, testutil.DiscardLogger())
	t.Cleanup(func() { _ = store.Close() })
	return NewAnalyticsService(pipeline, store, metrics, testutil.DiscardLogger()), store
}

// uploadFixture creates a session from the shared shipment CSV.
func uploadFixture(t *testing.T, svc *AnalyticsService) SessionInfo {
	t.Helper()
	info, err := svc.CreateSession(context.Background(), "despachos.csv", strings.NewReader(testutil.ShipmentCSV))
	require.NoError(t, err)
	return info
}

func day(s string) time.Time {
	t, err := time.Parse(dataprocessing.DateLayoutISO, s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestBatch(t *testing.T) *dataprocessing.Batch {
	t.Helper()
	pipeline, err := dataprocessing.NewPipeline(dataprocessing.DefaultConfig(), testutil.DiscardLogger(), nil)
	require.NoError(t, err)
	batch, err := pipeline.LoadReaderAndRun(context.Background(), strings.NewReader(testutil.ShipmentCSV), "despachos.csv")
	require.NoError(t, err)
	return batch
}
