package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"wedding-invitation/internal/apperror"
	"wedding-invitation/internal/i18n"
)

var displayKeys = map[string]string{
	apperror.ErrValidation.Code:   "message.error.validation",
	apperror.ErrBadRequest.Code:   "message.error.validation",
	apperror.ErrUnauthorized.Code: "message.error.unauthorized",
	apperror.ErrForbidden.Code:    "message.error.notFound",
	apperror.ErrNotFound.Code:     "message.error.notFound",
	apperror.ErrConflict.Code:     "message.error.conflict",
	apperror.ErrUpload.Code:       "message.error.uploadPhoto",
	apperror.ErrTransport.Code:    "message.error.transport",
}

var statusCodes = map[int]string{
	http.StatusBadRequest:            apperror.ErrBadRequest.Code,
	http.StatusUnauthorized:          apperror.ErrUnauthorized.Code,
	http.StatusForbidden:             apperror.ErrForbidden.Code,
	http.StatusNotFound:              apperror.ErrNotFound.Code,
	http.StatusMethodNotAllowed:      "method_not_allowed",
	http.StatusConflict:              apperror.ErrConflict.Code,
	http.StatusRequestEntityTooLarge: "payload_too_large",
	http.StatusUnprocessableEntity:   apperror.ErrValidation.Code,
}

// HTTPErrorHandler renders errors as {"error": {"code", "message", "display",
// "details"}}. display is a short message in the caller's language.
func HTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		errorObj := map[string]any{
			"code":    apperror.ErrInternal.Code,
			"message": apperror.ErrInternal.Message,
		}

		var he *echo.HTTPError
		if appErr := apperror.As(err); appErr != nil {
			status = appErr.HTTPStatus
			errorObj["code"] = appErr.Code
			errorObj["message"] = appErr.Message
			if len(appErr.Details) > 0 {
				errorObj["details"] = appErr.Details
			}
		} else if errors.As(err, &he) {
			status = he.Code
			if code, ok := statusCodes[status]; ok {
				errorObj["code"] = code
			}
			if msg, ok := he.Message.(string); ok {
				errorObj["message"] = msg
			} else {
				errorObj["message"] = http.StatusText(status)
			}
		}

		key, ok := displayKeys[errorObj["code"].(string)]
		if !ok {
			key = "message.error.generic"
		}
		errorObj["display"] = i18n.T(lang(c), key)

		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Int("status", status).Str("path", c.Path()).Msg("request error")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, map[string]any{"error": errorObj})
		}
		if err != nil {
			log.Error().Err(err).Msg("failed to write error response")
		}
	}
}
