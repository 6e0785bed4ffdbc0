package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/storefront/internal/engine"
)

type CheckoutView struct {
	checkout.View
	Cart CartView `json:"cart"`
}

func checkoutView(c echo.Context, eng *engine.Engine) CheckoutView {
	return CheckoutView{View: eng.Checkout.View(sessionOf(c)), Cart: cartView(eng.Cart.Snapshot())}
}

type CheckoutHTTP struct{}

func (h *CheckoutHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.checkout")
	sess, eng := sessionOf(c), engineOf(c)

	if sess.Authenticated() {
		eng.Cart.Activate()
		if _, err := eng.Cart.Load(ctx, sess); err != nil {
			return fail(c, eng, l, "get_checkout_error", err, nil)
		}
	}
	if err := eng.Checkout.Enter(sess, eng.Cart.Snapshot()); err != nil {
		return fail(c, eng, l, "get_checkout_error", err, nil)
	}
	return respond(c, eng, http.StatusOK, checkoutView(c, eng))
}

func (h *CheckoutHTTP) SetShipping(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "set.shipping")
	eng := engineOf(c)

	addr := models.NewShippingAddress()
	if err := c.Bind(&addr); err != nil {
		return badRequest(c, eng, l, "set_shipping_error", "invalid body")
	}
	if err := eng.Checkout.SetShipping(addr); err != nil {
		return fail(c, eng, l, "set_shipping_error", err, nil)
	}
	return respond(c, eng, http.StatusOK, checkoutView(c, eng))
}

func (h *CheckoutHTTP) Next(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "checkout.next")
	eng := engineOf(c)

	if _, err := eng.Checkout.Next(); err != nil {
		return fail(c, eng, l, "checkout_next_error", err, checkoutView(c, eng))
	}
	return respond(c, eng, http.StatusOK, checkoutView(c, eng))
}

func (h *CheckoutHTTP) Back(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "checkout.back")
	eng := engineOf(c)

	if _, err := eng.Checkout.Back(); err != nil {
		return fail(c, eng, l, "checkout_back_error", err, checkoutView(c, eng))
	}
	return respond(c, eng, http.StatusOK, checkoutView(c, eng))
}

func (h *CheckoutHTTP) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.submit")
	sess, eng := sessionOf(c), engineOf(c)

	if !sess.Authenticated() {
		return fail(c, eng, l, "checkout_submit_error", checkout.ErrSignInRequired, nil)
	}
	if _, err := eng.Checkout.Submit(ctx, sess); err != nil {
		return fail(c, eng, l, "checkout_submit_error", err, checkoutView(c, eng))
	}
	return respond(c, eng, http.StatusCreated, checkoutView(c, eng))
}
