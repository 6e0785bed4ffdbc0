package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/services/storeapi/internal/service"
	"github.com/Skotchmaster/storefront/services/storeapi/internal/transport"
)

func statusCode(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// fail writes the error envelope and logs 4xx at Warn, 5xx at Error.
func fail(c echo.Context, l *slog.Logger, event string, err error) error {
	status, code := statusCode(err)
	msg := err.Error()
	if status >= 500 {
		l.Error(event, "status", status, "error", err)
		msg = "internal server error"
	} else {
		l.Warn(event, "status", status, "error", err)
	}
	return c.JSON(status, transport.ErrorResponse{Error: code, Message: msg})
}

func badRequest(c echo.Context, l *slog.Logger, event, msg string) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", msg)
	return c.JSON(http.StatusBadRequest, transport.ErrorResponse{Error: "validation", Message: msg})
}

// ErrorHandler renders echo errors (auth middleware, routing) in the same envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := http.StatusText(status)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(status)
		}
	}

	var code string
	switch status {
	case http.StatusUnauthorized:
		code = "unauthorized"
	case http.StatusForbidden:
		code = "forbidden"
	case http.StatusNotFound:
		code = "not_found"
	case http.StatusMethodNotAllowed:
		code = "method_not_allowed"
	default:
		if status >= 500 {
			code = "internal"
		} else {
			code = "bad_request"
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, transport.ErrorResponse{Error: code, Message: msg})
}
