package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/pricing"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CartView struct {
	Items                    []models.CartLineItem `json:"items"`
	Version                  uint64                `json:"version"`
	ItemCount                int                   `json:"itemCount"`
	Pricing                  pricing.Display       `json:"pricing"`
	RemainingForFreeShipping string                `json:"remainingForFreeShipping"`
}

func cartView(snap models.CartSnapshot) CartView {
	items := snap.Items
	if items == nil {
		items = []models.CartLineItem{}
	}
	b := pricing.Calculate(snap)
	return CartView{
		Items:                    items,
		Version:                  snap.Version,
		ItemCount:                pricing.ItemCount(snap),
		Pricing:                  b.Display(),
		RemainingForFreeShipping: pricing.RemainingForFreeShipping(b.Subtotal).StringFixed(2),
	}
}

type CartHTTP struct{}

func (h *CartHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.cart")
	sess, eng := sessionOf(c), engineOf(c)

	eng.Cart.Activate()
	snap, err := eng.Cart.Load(ctx, sess)
	if err != nil {
		return fail(c, eng, l, "get_cart_error", err, cartView(snap))
	}
	return respond(c, eng, http.StatusOK, cartView(snap))
}

func (h *CartHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "add.cart")
	sess, eng := sessionOf(c), engineOf(c)

	var req models.AddToCartRequest
	if err := c.Bind(&req); err != nil || req.ProductID == uuid.Nil {
		return badRequest(c, eng, l, "add_to_cart_error", "productId and quantity required")
	}

	var product models.Product
	if sess.Authenticated() {
		p, err := eng.Catalog.Product(ctx, sess, req.ProductID)
		if err != nil {
			return fail(c, eng, l, "add_to_cart_error", err, nil)
		}
		product = p
	}
	if err := eng.Cart.Add(ctx, sess, product, req.Quantity); err != nil {
		return fail(c, eng, l, "add_to_cart_error", err, nil)
	}
	return respond(c, eng, http.StatusOK, cartView(eng.Cart.Snapshot()))
}

func (h *CartHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update.cart")
	sess, eng := sessionOf(c), engineOf(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, eng, l, "update_cart_error", "invalid line item id")
	}
	var req models.UpdateQuantityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, eng, l, "update_cart_error", "invalid body")
	}
	if err := eng.Cart.ChangeQuantity(ctx, sess, id, req.Quantity); err != nil {
		return fail(c, eng, l, "update_cart_error", err, cartView(eng.Cart.Snapshot()))
	}
	return respond(c, eng, http.StatusOK, cartView(eng.Cart.Snapshot()))
}

func (h *CartHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "remove.cart")
	sess, eng := sessionOf(c), engineOf(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, eng, l, "remove_cart_error", "invalid line item id")
	}
	if err := eng.Cart.Remove(ctx, sess, id); err != nil {
		return fail(c, eng, l, "remove_cart_error", err, cartView(eng.Cart.Snapshot()))
	}
	return respond(c, eng, http.StatusOK, cartView(eng.Cart.Snapshot()))
}
