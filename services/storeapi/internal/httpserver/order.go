package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	wire "github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/storeapi/internal/service"
)

const idempotencyHeader = "Idempotency-Key"

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "create.order")

	user, err := userID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	var req wire.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "create_order_error", "invalid body")
	}

	order, created, err := h.Svc.CreateOrder(ctx, user, c.Request().Header.Get(idempotencyHeader), req)
	if err != nil {
		return fail(c, l, "create_order_error", err)
	}
	if !created {
		l.Info("order_replayed", "order_id", order.ID)
		return c.JSON(http.StatusOK, order)
	}
	l.Info("order_created", "order_id", order.ID, "total", order.Total.String())
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list.orders")

	user, err := userID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	orders, err := h.Svc.ListOrders(ctx, user)
	if err != nil {
		return fail(c, l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}
