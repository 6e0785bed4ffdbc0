package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
)

type OrdersHTTP struct{}

func (h *OrdersHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list.orders")
	sess, eng := sessionOf(c), engineOf(c)

	list, err := eng.Orders.Load(ctx, sess)
	if err != nil {
		return fail(c, eng, l, "list_orders_error", err, nil)
	}
	return respond(c, eng, http.StatusOK, list)
}
