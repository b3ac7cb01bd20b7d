package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tally-dashboard/internal/auth"
	"github.com/tally-dashboard/internal/forms"
	"github.com/tally-dashboard/internal/predict"
	"github.com/tally-dashboard/internal/service"
	"github.com/tally-dashboard/internal/spreadsheet"
	"github.com/tally-dashboard/internal/state"
	"github.com/tally-dashboard/internal/water"
)

var (
	errMissingFile    = errors.New("file upload is required")
	errUploadTooLarge = errors.New("file too large")
	errInvalidFilter  = errors.New("invalid filter")
	errInvalidBody    = errors.New("invalid request body")
)

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, forms.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, forms.ErrAccessDenied),
		errors.Is(err, auth.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, forms.ErrUnknownForm),
		errors.Is(err, state.ErrUnknownCollection),
		errors.Is(err, state.ErrRecordNotFound),
		errors.Is(err, service.ErrArchiveNotFound):
		return http.StatusNotFound
	case errors.Is(err, forms.ErrValidation),
		errors.Is(err, state.ErrSchemaViolation),
		errors.Is(err, state.ErrInvalidValue),
		errors.Is(err, state.ErrReadOnlyKey),
		errors.Is(err, spreadsheet.ErrImportSchemaMismatch),
		errors.Is(err, water.ErrInvalidRow),
		errors.Is(err, predict.ErrFeatureMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, state.ErrAppendOnly):
		return http.StatusConflict
	case errors.Is(err, spreadsheet.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, errUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, spreadsheet.ErrEmptyFile),
		errors.Is(err, errMissingFile),
		errors.Is(err, errInvalidFilter),
		errors.Is(err, errInvalidBody):
		return http.StatusBadRequest
	case errors.Is(err, predict.ErrModelUnavailable),
		errors.Is(err, service.ErrModelNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrArchiveDisabled):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

// errorBody builds the JSON error payload, adding field details when the
// error carries them
func errorBody(err error) gin.H {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}
	if status == http.StatusInternalServerError {
		body["error"] = "internal server error"
	}

	var (
		verr     *forms.ValidationError
		serr     *state.SchemaError
		mismatch *spreadsheet.MismatchError
	)
	switch {
	case errors.As(err, &verr):
		body["errors"] = verr.Errors
	case errors.As(err, &serr):
		body["errors"] = serr.Errors
		if serr.Row > 0 {
			body["row"] = serr.Row
		}
	case errors.As(err, &mismatch):
		body["mismatch"] = mismatch
	}
	return body
}

// respondError writes err as JSON with its mapped status
func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), errorBody(err))
}
