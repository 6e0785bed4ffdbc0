package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	wire "github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/storeapi/internal/service"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.cart")

	user, err := userID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	items, err := h.Svc.GetCart(ctx, user)
	if err != nil {
		return fail(c, l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "add.cart")

	user, err := userID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	var req wire.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "add_to_cart_error", "invalid body")
	}
	item, err := h.Svc.AddToCart(ctx, user, req)
	if err != nil {
		return fail(c, l, "add_to_cart_error", err)
	}
	l.Info("cart_item_added", "product_id", req.ProductID, "quantity", item.Quantity)
	return c.JSON(http.StatusCreated, item)
}

func (h *CartHTTP) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update.cart")

	user, err := userID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, l, "update_cart_error", "invalid line item id")
	}
	var req wire.UpdateQuantityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "update_cart_error", "invalid body")
	}
	item, err := h.Svc.UpdateQuantity(ctx, user, id, req.Quantity)
	if err != nil {
		return fail(c, l, "update_cart_error", err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "delete.cart.item")

	user, err := userID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, l, "delete_cart_item_error", "invalid line item id")
	}
	if err := h.Svc.RemoveItem(ctx, user, id); err != nil {
		return fail(c, l, "delete_cart_item_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}
