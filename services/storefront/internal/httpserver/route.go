package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/services/storefront/internal/engine"
)

type Deps struct {
	Registry  *engine.Registry
	JWTSecret []byte
	SignInURL string
	// Ready reports whether the store API can take traffic.
	Ready func() bool
	// CSRF enables double-submit tokens on state-changing routes.
	CSRF         bool
	SecureCookie bool
}

const (
	CSRFCookie = "XSRF-TOKEN"
	CSRFHeader = "X-CSRF-Token"
)

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil && !d.Ready() {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	g := e.Group("")
	if d.CSRF {
		g.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
			TokenLookup:    "header:" + CSRFHeader,
			CookieName:     CSRFCookie,
			CookiePath:     "/",
			CookieSecure:   d.SecureCookie,
			CookieSameSite: http.SameSiteLaxMode,
			CookieMaxAge:   86400,
		}))
	}
	g.Use(Sessions(d.JWTSecret, d.SignInURL, d.Registry))

	cart := &CartHTTP{}
	g.GET("/cart", cart.Get)
	g.POST("/cart/items", cart.Add)
	g.PUT("/cart/items/:id", cart.Update)
	g.DELETE("/cart/items/:id", cart.Remove)

	co := &CheckoutHTTP{}
	g.GET("/checkout", co.Get)
	g.PUT("/checkout/shipping", co.SetShipping)
	g.POST("/checkout/next", co.Next)
	g.POST("/checkout/back", co.Back)
	g.POST("/checkout/submit", co.Submit)

	ord := &OrdersHTTP{}
	g.GET("/orders", ord.List)

	cat := &CatalogHTTP{}
	g.GET("/products", cat.List)
	g.GET("/products/:id", cat.Detail)

	adm := &AdminHTTP{}
	g.GET("/admin/products", adm.List)
	g.POST("/admin/products", adm.Create)
	g.GET("/admin/products/:id/form", adm.EditForm)
	g.PUT("/admin/products/:id", adm.Update)
	g.DELETE("/admin/products/:id", adm.Delete)
}
