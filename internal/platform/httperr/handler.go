package httperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

var statusByKind = map[Kind]int{
	KindValidation: http.StatusBadRequest,
	KindAuth:       http.StatusUnauthorized,
	KindForbidden:  http.StatusForbidden,
	KindNotFound:   http.StatusNotFound,
	KindConflict:   http.StatusConflict,
	KindStorage:    http.StatusInternalServerError,
}

// StatusOf returns the HTTP status code for an error according to the
// taxonomy. Unclassified errors map to 500.
func StatusOf(err error) int {
	if code, ok := statusByKind[KindOf(err)]; ok {
		return code
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// ErrorHandler returns an echo.HTTPErrorHandler that serializes
// taxonomy errors as {"error": msg} with the mapped status code.
// Storage causes and unclassified errors are logged with full detail
// but surfaced to the client as a generic message.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := StatusOf(err)
		msg := "internal server error"

		var e *Error
		switch {
		case errors.As(err, &e):
			if e.Kind == KindStorage || e.Kind == KindUnknown {
				logger.Error().Err(err).
					Str("path", c.Request().URL.Path).
					Msg("storage failure")
				msg = "internal storage error"
			} else {
				msg = e.Msg
			}
		default:
			var he *echo.HTTPError
			if errors.As(err, &he) {
				if s, ok := he.Message.(string); ok {
					msg = s
				}
			} else {
				logger.Error().Err(err).
					Str("path", c.Request().URL.Path).
					Msg("unhandled error")
			}
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, map[string]string{"error": msg})
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("failed to write error response")
		}
	}
}
