package http

import (
	"context"
	"io"
	"time"

	"haulpulse/internal/services"
	"haulpulse/pkg/contracts/domain"
)

// AnalyticsService defines the session and analytics operations used by the handlers
type AnalyticsService interface {
	CreateSession(ctx context.Context, filename string, r io.Reader) (services.SessionInfo, error)
	GetSession(ctx context.Context, id string) (services.SessionInfo, error)
	DeleteSession(ctx context.Context, id string) error

	DayReport(ctx context.Context, id string, day time.Time) (domain.DayReport, error)
	Aggregate(ctx context.Context, id string, q services.RangeQuery) (services.AggregateResult, error)
	Trend(ctx context.Context, id string, p services.Period) (services.TrendResult, error)
	Compare(ctx context.Context, id string, q services.CompareQuery) (services.CompareResult, error)
	Export(ctx context.Context, id string, q services.ExportQuery, w io.Writer) error
}
