package http

import (
	"net/url"
	"time"

	"haulpulse/internal/dataprocessing"
	"haulpulse/internal/exporter"
	"haulpulse/internal/services"
	"haulpulse/pkg/contracts/domain"
)

// RangeRequest is the query string of aggregate, trend and export requests.
type RangeRequest struct {
	From      string `query:"from" validate:"omitempty,isodate"`
	To        string `query:"to" validate:"omitempty,isodate"`
	Dimension string `query:"dimension" validate:"omitempty,dimension"`
	Metrics   string `query:"metrics" validate:"omitempty,metric"`
}

func rangeRequestFrom(q url.Values) RangeRequest {
	return RangeRequest{
		From:      q.Get("from"),
		To:        q.Get("to"),
		Dimension: q.Get("dimension"),
		Metrics:   q.Get("metrics"),
	}
}

// period converts validated bounds; empty bounds stay open.
func (req RangeRequest) period() services.Period {
	return services.Period{From: parseDay(req.From), To: parseDay(req.To)}
}

// query converts a validated request.
func (req RangeRequest) query() services.RangeQuery {
	q := services.RangeQuery{Period: req.period()}
	if req.Dimension != "" {
		q.Dimension, _ = domain.ParseDimension(req.Dimension)
	}
	q.Metrics, _ = dataprocessing.ParseMetrics(req.Metrics)
	return q
}

// PeriodRequest is an inclusive day range in a comparison body.
type PeriodRequest struct {
	From string `json:"from" validate:"required,isodate"`
	To   string `json:"to" validate:"required,isodate"`
}

func (p PeriodRequest) period() services.Period {
	return services.Period{From: parseDay(p.From), To: parseDay(p.To)}
}

// CompareRequest is the body of POST /sessions/{id}/compare.
type CompareRequest struct {
	Period1   PeriodRequest `json:"period_1" validate:"required"`
	Period2   PeriodRequest `json:"period_2" validate:"required"`
	Dimension string        `json:"dimension" validate:"required,dimension"`
}

func (req CompareRequest) query() services.CompareQuery {
	dim, _ := domain.ParseDimension(req.Dimension)
	return services.CompareQuery{
		Period1:   req.Period1.period(),
		Period2:   req.Period2.period(),
		Dimension: dim,
	}
}

// ExportRequest is the query string of GET /sessions/{id}/export. The p1_* and
// p2_* bounds apply to the comparison table only.
type ExportRequest struct {
	RangeRequest
	Table  string `query:"table" validate:"omitempty,oneof=aggregate trend comparison"`
	Format string `query:"format" validate:"omitempty,oneof=csv xlsx"`
	P1From string `query:"p1_from" validate:"omitempty,isodate"`
	P1To   string `query:"p1_to" validate:"omitempty,isodate"`
	P2From string `query:"p2_from" validate:"omitempty,isodate"`
	P2To   string `query:"p2_to" validate:"omitempty,isodate"`
}

func exportRequestFrom(q url.Values) ExportRequest {
	return ExportRequest{
		RangeRequest: rangeRequestFrom(q),
		Table:        q.Get("table"),
		Format:       q.Get("format"),
		P1From:       q.Get("p1_from"),
		P1To:         q.Get("p1_to"),
		P2From:       q.Get("p2_from"),
		P2To:         q.Get("p2_to"),
	}
}

func (req ExportRequest) query() services.ExportQuery {
	table, _ := services.ParseExportTable(req.Table)
	format, _ := exporter.ParseFormat(req.Format)

	q := services.ExportQuery{
		Table:  table,
		Format: format,
		Range:  req.RangeRequest.query(),
		Compare: services.CompareQuery{
			Period1: services.Period{From: parseDay(req.P1From), To: parseDay(req.P1To)},
			Period2: services.Period{From: parseDay(req.P2From), To: parseDay(req.P2To)},
		},
	}
	q.Compare.Dimension = q.Range.Dimension
	if q.Compare.Dimension == "" {
		q.Compare.Dimension = domain.DimensionCarrier
	}
	return q
}

// parseDay reads an already validated ISO date; empty gives the zero time.
func parseDay(s string) time.Time {
	t, _ := time.Parse(dataprocessing.DateLayoutISO, s)
	return t
}
