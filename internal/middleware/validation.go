package middleware

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"haulpulse/internal/dataprocessing"
	apierrors "haulpulse/internal/errors"
	"haulpulse/pkg/contracts/domain"
)

// RequestValidator validates decoded request structs using struct tags.
// Besides the built-in tags it understands isodate, dimension and metric.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a validator that reports fields by their
// query or json tag name.
func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("isodate", isISODate)
	_ = v.RegisterValidation("dimension", isDimension)
	_ = v.RegisterValidation("metric", isMetric)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	return &RequestValidator{validate: v}
}

// Struct validates s and returns an *APIError listing every invalid field.
func (v *RequestValidator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	out := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(out)
}

func formatValidationError(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_with":
		return fmt.Sprintf("%s is required when %s is set", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "uuid4":
		return fmt.Sprintf("%s must be a valid UUID", field)
	case "isodate":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD form", field)
	case "dimension":
		return fmt.Sprintf("%s must be one of: %s", field, joinDimensions())
	case "metric":
		return fmt.Sprintf("%s must be one of: volume, count, all", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func joinDimensions() string {
	dims := domain.Dimensions()
	names := make([]string, len(dims))
	for i, d := range dims {
		names[i] = string(d)
	}
	return strings.Join(names, ", ")
}

func isISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse(dataprocessing.DateLayoutISO, fl.Field().String())
	return err == nil
}

func isDimension(fl validator.FieldLevel) bool {
	_, err := domain.ParseDimension(fl.Field().String())
	return err == nil
}

func isMetric(fl validator.FieldLevel) bool {
	_, err := dataprocessing.ParseMetrics(fl.Field().String())
	return err == nil
}

// ContentTypeValidator rejects request bodies whose media type is not allowed.
// Bodiless methods pass through.
func ContentTypeValidator(errorHandler *apierrors.ErrorHandler, allowed ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodDelete, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil {
				errorHandler.HandleError(w, r, apierrors.New(http.StatusUnsupportedMediaType,
					apierrors.CodeUnsupportedFormat, "Content-Type header is missing or malformed"))
				return
			}
			for _, a := range allowed {
				if strings.EqualFold(mediaType, a) {
					next.ServeHTTP(w, r)
					return
				}
			}
			errorHandler.HandleError(w, r, apierrors.NewWithDetails(http.StatusUnsupportedMediaType,
				apierrors.CodeUnsupportedFormat, "Unsupported content type",
				map[string]any{"content_type": mediaType, "allowed": allowed}))
		})
	}
}
