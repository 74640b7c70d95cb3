// Package services implements the business logic layer of haulpulse.
// It sits between the HTTP handlers and the data processing pipeline.
//
// # Sessions
//
// An upload is normalized once and kept in memory as a session. Every later
// query (day reports, aggregations, trends, comparisons, exports) is answered
// from the session's immutable batch without re-reading the file:
//
//	store := services.NewSessionStore(cfg.Sessions, metrics, logger)
//	defer store.Close()
//
//	svc := services.NewAnalyticsService(pipeline, store, metrics, logger)
//	info, err := svc.CreateSession(ctx, "despachos.xlsx", file)
//	report, err := svc.DayReport(ctx, info.ID, day)
//
// Sessions expire after the configured TTL of inactivity. A background
// janitor removes them until the store is closed.
//
// # Error Handling
//
// Services return sentinel errors (ErrSessionNotFound, ErrSessionLimit,
// ErrInvalidInput, ErrUnknownTable) or the pipeline's errors, wrapped with
// context. Handlers translate them to problem responses.
//
// # Available Services
//
//	- AnalyticsService: upload sessions and analytics queries
//	- HealthService: health, liveness and version information
package services
