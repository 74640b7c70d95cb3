package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"haulpulse/internal/dataprocessing"
	apierrors "haulpulse/internal/errors"
	"haulpulse/internal/exporter"
	"haulpulse/internal/middleware"
	"haulpulse/internal/services"
)

// uploadField is the multipart form field carrying the shipment file.
const uploadField = "file"

// maxJSONBody bounds request bodies other than uploads.
const maxJSONBody = 1 << 20

// AnalyticsHandler handles session and analytics HTTP requests
type AnalyticsHandler struct {
	service        AnalyticsService
	validator      *middleware.RequestValidator
	errorHandler   *apierrors.ErrorHandler
	maxUploadBytes int64
	maxSessions    int
	logger         *slog.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(service AnalyticsService, validator *middleware.RequestValidator, errorHandler *apierrors.ErrorHandler,
	maxUploadBytes int64, maxSessions int, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service:        service,
		validator:      validator,
		errorHandler:   errorHandler,
		maxUploadBytes: maxUploadBytes,
		maxSessions:    maxSessions,
		logger:         logger.With(slog.String("component", "analytics_handler")),
	}
}

// Routes returns the session routes. The upload middlewares wrap POST / only.
func (h *AnalyticsHandler) Routes(upload ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.With(upload...).Post("/", h.CreateSession)

	r.Route("/{sessionID}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.DeleteSession)
		r.Get("/days/{date}", h.DayReport)
		r.Get("/aggregate", h.Aggregate)
		r.Get("/trend", h.Trend)
		r.Post("/compare", h.Compare)
		r.Get("/export", h.Export)
	})

	return r
}

// CreateSession handles POST /api/v1/sessions
func (h *AnalyticsHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	mr, err := r.MultipartReader()
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			h.fail(w, r, "", err)
			return
		}
		if part.FormName() != uploadField {
			_ = part.Close()
			continue
		}

		filename := part.FileName()
		if filename == "" {
			filename = uploadField
		}
		info, err := h.service.CreateSession(r.Context(), filename, part)
		_ = part.Close()
		if err != nil {
			h.fail(w, r, "", err)
			return
		}

		w.Header().Set("Location", r.URL.Path+"/"+info.ID)
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, info)
		return
	}

	h.errorHandler.HandleError(w, r, apierrors.InvalidParameter(uploadField,
		fmt.Errorf("multipart field %q is required", uploadField)))
}

// GetSession handles GET /api/v1/sessions/{sessionID}
func (h *AnalyticsHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	info, err := h.service.GetSession(r.Context(), id)
	if err != nil {
		h.fail(w, r, id, err)
		return
	}
	render.JSON(w, r, info)
}

// DeleteSession handles DELETE /api/v1/sessions/{sessionID}
func (h *AnalyticsHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := h.service.DeleteSession(r.Context(), id); err != nil {
		h.fail(w, r, id, err)
		return
	}
	render.NoContent(w, r)
}

// DayReport handles GET /api/v1/sessions/{sessionID}/days/{date}
func (h *AnalyticsHandler) DayReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	day, err := time.Parse(dataprocessing.DateLayoutISO, chi.URLParam(r, "date"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidParameter("date", err))
		return
	}

	report, err := h.service.DayReport(r.Context(), id, day)
	if err != nil {
		h.fail(w, r, id, err)
		return
	}
	render.JSON(w, r, report)
}

// Aggregate handles GET /api/v1/sessions/{sessionID}/aggregate
func (h *AnalyticsHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	req := rangeRequestFrom(r.URL.Query())
	if err := h.validator.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	res, err := h.service.Aggregate(r.Context(), id, req.query())
	if err != nil {
		h.fail(w, r, id, err)
		return
	}
	render.JSON(w, r, res)
}

// Trend handles GET /api/v1/sessions/{sessionID}/trend
func (h *AnalyticsHandler) Trend(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	req := rangeRequestFrom(r.URL.Query())
	if err := h.validator.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	res, err := h.service.Trend(r.Context(), id, req.period())
	if err != nil {
		h.fail(w, r, id, err)
		return
	}
	render.JSON(w, r, res)
}

// Compare handles POST /api/v1/sessions/{sessionID}/compare
func (h *AnalyticsHandler) Compare(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	var req CompareRequest
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxJSONBody), &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	res, err := h.service.Compare(r.Context(), id, req.query())
	if err != nil {
		h.fail(w, r, id, err)
		return
	}
	render.JSON(w, r, res)
}

// Export handles GET /api/v1/sessions/{sessionID}/export
func (h *AnalyticsHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	req := exportRequestFrom(r.URL.Query())
	if err := h.validator.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	q := req.query()

	// Rendered in memory so a failure can still be reported as a problem.
	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), id, q, &buf); err != nil {
		h.fail(w, r, id, err)
		return
	}

	w.Header().Set("Content-Type", q.Format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": q.Filename()}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export write failed",
			slog.String("session_id", id),
			slog.String("error", err.Error()))
	}
}

// fail translates service errors the error handler does not know about.
func (h *AnalyticsHandler) fail(w http.ResponseWriter, r *http.Request, id string, err error) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		err = apierrors.PayloadTooLarge(maxBytes.Limit)
	case errors.Is(err, services.ErrSessionNotFound):
		err = apierrors.SessionNotFound(id)
	case errors.Is(err, services.ErrSessionLimit):
		err = apierrors.SessionLimitReached(h.maxSessions)
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrUnknownTable),
		errors.Is(err, exporter.ErrUnknownFormat):
		err = apierrors.InvalidRequestWithError(err)
	}
	h.errorHandler.HandleError(w, r, err)
}
