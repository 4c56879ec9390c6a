package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dokanlabs/dokan/internal/domain"
)

// errorResponse is the envelope every error reply uses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusFromCode maps domain error codes to HTTP status.
func statusFromCode(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EPAYMENT:
		return http.StatusPaymentRequired
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler translates domain errors into the JSON error envelope. Internal
// errors are logged with their cause and returned with a generic message.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := domain.ErrorCode(err)
		message := domain.ErrorMessage(err)
		status := statusFromCode(code)

		// echo's own errors (route not found, method not allowed, bind
		// failures) are not domain errors.
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			switch status {
			case http.StatusNotFound:
				code, message = domain.ENOTFOUND, "Resource not found"
			case http.StatusMethodNotAllowed:
				code, message = domain.EINVALID, "Method not allowed"
			default:
				code, message = domain.EINVALID, http.StatusText(status)
			}
		}

		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		if sendErr := c.JSON(status, errorResponse{Error: errorBody{Code: code, Message: message}}); sendErr != nil {
			logger.Error().Err(sendErr).Msg("failed to write error response")
		}
	}
}
