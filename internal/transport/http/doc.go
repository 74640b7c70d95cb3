// Package http implements the HTTP handlers of the haulpulse web service.
// Handlers stay thin: they decode and validate requests, call a service and
// render the result. Business rules live in internal/services.
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → Handler → Service → Pipeline
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// # Error Handling
//
// Every failure is written as an RFC 7807 problem through the shared
// apierrors.ErrorHandler. Service sentinel errors are translated to API
// errors here so the errors package does not depend on the services layer:
//
//	services.ErrSessionNotFound → 404 SESSION_NOT_FOUND
//	services.ErrSessionLimit    → 503 SESSION_LIMIT_REACHED
//	services.ErrInvalidInput    → 400 INVALID_REQUEST
//	*http.MaxBytesError         → 413 PAYLOAD_TOO_LARGE
//
// Pipeline errors (missing columns, empty or unreadable uploads, unsupported
// formats) are mapped by the error handler itself.
//
// # Endpoints
//
//	POST   /api/v1/sessions                    upload a shipment sheet
//	GET    /api/v1/sessions/{id}               session summary
//	DELETE /api/v1/sessions/{id}               drop a session
//	GET    /api/v1/sessions/{id}/days/{date}   day report
//	GET    /api/v1/sessions/{id}/aggregate     aggregate table and ranking
//	GET    /api/v1/sessions/{id}/trend         daily trend
//	POST   /api/v1/sessions/{id}/compare       two-period comparison
//	GET    /api/v1/sessions/{id}/export        CSV or XLSX download
//	GET    /api/health, /api/health/live, /api/version
//	GET    /metrics
package http
