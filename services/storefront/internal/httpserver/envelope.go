package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/admin"
	"github.com/Skotchmaster/storefront/internal/authguard"
	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/mutation"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/orders"
	"github.com/Skotchmaster/storefront/internal/storeclient"
	"github.com/Skotchmaster/storefront/services/storefront/internal/engine"
)

// Envelope is the body of every BFF response. Notices and the redirect are
// whatever the engine recorded while serving the request.
type Envelope struct {
	Data     any              `json:"data,omitempty"`
	Error    string           `json:"error,omitempty"`
	Notices  []notify.Notice  `json:"notices"`
	Redirect *notify.Redirect `json:"redirect,omitempty"`
}

func respond(c echo.Context, eng *engine.Engine, status int, data any) error {
	notices, redirect := eng.Recorder.Drain()
	if notices == nil {
		notices = []notify.Notice{}
	}
	return c.JSON(status, Envelope{Data: data, Notices: notices, Redirect: redirect})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, authguard.ErrSessionExpired),
		errors.Is(err, cart.ErrSignInRequired),
		errors.Is(err, checkout.ErrSignInRequired),
		errors.Is(err, orders.ErrSignInRequired):
		return http.StatusUnauthorized
	case errors.Is(err, admin.ErrAdminRequired):
		return http.StatusForbidden
	case errors.Is(err, admin.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, admin.ErrNotConfirmed),
		errors.Is(err, catalog.ErrUnknownSort):
		return http.StatusBadRequest
	case errors.Is(err, cart.ErrOutOfStock),
		errors.Is(err, cart.ErrInsufficientStock),
		errors.Is(err, cart.ErrInactive),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrInvalidTransition),
		errors.Is(err, checkout.ErrSubmitInFlight),
		errors.Is(err, mutation.ErrInFlight):
		return http.StatusConflict
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, checkout.ErrShippingIncomplete),
		errors.Is(err, admin.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, authguard.ErrOperation):
		if storeclient.StatusOf(err) == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail answers with the mapped status while still draining the engine's notices.
// A lost session also drops the user's published cart.
func fail(c echo.Context, eng *engine.Engine, l *slog.Logger, event string, err error, data any) error {
	if errors.Is(err, authguard.ErrSessionExpired) {
		eng.Cart.Reset()
		data = nil
	}
	status := statusFor(err)
	msg := err.Error()
	if status >= 500 {
		l.Error(event, "status", status, "error", err)
		if status == http.StatusInternalServerError {
			msg = "internal server error"
		}
	} else {
		l.Warn(event, "status", status, "error", err)
	}

	notices, redirect := eng.Recorder.Drain()
	if notices == nil {
		notices = []notify.Notice{}
	}
	return c.JSON(status, Envelope{Data: data, Error: msg, Notices: notices, Redirect: redirect})
}

func badRequest(c echo.Context, eng *engine.Engine, l *slog.Logger, event, msg string) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", msg)
	notices, redirect := eng.Recorder.Drain()
	if notices == nil {
		notices = []notify.Notice{}
	}
	return c.JSON(http.StatusBadRequest, Envelope{Error: msg, Notices: notices, Redirect: redirect})
}
