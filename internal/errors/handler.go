package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"haulpulse/internal/dataprocessing"
	"haulpulse/pkg/contracts/domain"
)

// ErrorHandler converts errors into RFC 7807 responses and logs them.
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler. includeStack adds stack
// traces to panic responses and should only be set in development.
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError writes the problem response for err.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())
	problem := h.ErrorToProblem(err, r)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))

	if reqID != "" {
		problem.WithExtension("trace_id", reqID)
	}
	problem.Write(w)
}

// ErrorToProblem maps err to problem details.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	path := r.URL.Path

	var (
		apiErr    *APIError
		schemaErr *dataprocessing.SchemaError
		maxBytes  *http.MaxBytesError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return NewProblemDetails(http.StatusGatewayTimeout, TypeTimeout, "Request Timeout",
			"The request took too long to process and was cancelled", path)

	case errors.As(err, &apiErr):
		return apiErrorToProblem(apiErr, path)

	case errors.As(err, &schemaErr):
		return NewProblemDetails(http.StatusUnprocessableEntity, TypeMissingColumns, "Missing Columns",
			schemaErr.Error(), path).
			WithExtension("error_code", CodeMissingColumns).
			WithExtension("missing_columns", schemaErr.Missing)

	case errors.Is(err, dataprocessing.ErrEmptyWorkbook):
		return NewProblemDetails(http.StatusUnprocessableEntity, TypeEmptyWorkbook, "Empty Upload",
			"No sheet in the upload has a header row", path).
			WithExtension("error_code", CodeEmptyWorkbook)

	case errors.Is(err, dataprocessing.ErrUnreadableFile):
		return NewProblemDetails(http.StatusUnprocessableEntity, TypeUnreadableFile, "Unreadable File",
			err.Error(), path).
			WithExtension("error_code", CodeInvalidRequest)

	case errors.Is(err, dataprocessing.ErrUnsupportedFormat):
		return NewProblemDetails(http.StatusUnsupportedMediaType, TypeUnsupportedFormat, "Unsupported Format",
			"Upload an .xlsx, .xlsm or .csv file", path).
			WithExtension("error_code", CodeUnsupportedFormat)

	case errors.Is(err, domain.ErrUnknownDimension):
		return NewProblemDetails(http.StatusBadRequest, TypeValidation, "Invalid Dimension",
			err.Error(), path).
			WithExtension("error_code", CodeInvalidParameter).
			WithExtension("allowed", domain.Dimensions())

	case errors.As(err, &maxBytes):
		return NewProblemDetails(http.StatusRequestEntityTooLarge, TypePayloadTooLarge, "Payload Too Large",
			fmt.Sprintf("The upload exceeds the maximum of %d bytes", maxBytes.Limit), path).
			WithExtension("error_code", CodePayloadTooLarge)
	}

	return NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error",
		"An unexpected error occurred while processing your request", path)
}

func apiErrorToProblem(apiErr *APIError, path string) *ProblemDetails {
	problemType := TypeInternal
	switch apiErr.ErrorCode {
	case CodeInvalidRequest, CodeValidationFailed, CodeInvalidParameter:
		problemType = TypeValidation
	case CodeNotFound, CodeSessionNotFound:
		problemType = TypeNotFound
	case CodeRateLimitExceeded:
		problemType = TypeRateLimit
	case CodePayloadTooLarge:
		problemType = TypePayloadTooLarge
	case CodeServiceUnavailable, CodeSessionLimit:
		problemType = TypeServiceDown
	}

	problem := NewProblemDetails(apiErr.StatusCode, problemType, http.StatusText(apiErr.StatusCode),
		apiErr.Message, path).
		WithExtension("error_code", apiErr.ErrorCode)
	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}
	return problem
}

// HandlePanic logs a recovered panic and responds with a 500 problem.
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered any) {
	reqID := middleware.GetReqID(r.Context())
	stack := string(debug.Stack())

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", stack))

	problem := NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error",
		"An unexpected error occurred", r.URL.Path).
		WithExtension("trace_id", reqID)
	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
		problem.WithExtension("stack", stack)
	}
	problem.Write(w)
}

// NotFound returns a standard 404 error
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found",
		"The requested resource was not found", r.URL.Path).
		WithExtension("trace_id", middleware.GetReqID(r.Context())).
		Write(w)
}

// MethodNotAllowed returns a standard 405 error
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	NewProblemDetails(http.StatusMethodNotAllowed, TypeMethodNotAllowed, "Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method), r.URL.Path).
		WithExtension("trace_id", middleware.GetReqID(r.Context())).
		Write(w)
}

// JSON writes v with the given status.
func (h *ErrorHandler) JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// RecoveryMiddleware turns panics into 500 problem responses.
func RecoveryMiddleware(handler *ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					handler.HandlePanic(w, r, rec)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
