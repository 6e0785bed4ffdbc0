package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	ProductHandler *ProductHTTP
	CartHandler    *CartHTTP
	OrderHandler   *OrderHTTP
	JWTSecret      []byte
	DB             Pinger
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := d.DB.Ping(c.Request().Context()); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	auth := middleware.NewAuth(d.JWTSecret)
	api := e.Group("/api")

	products := api.Group("/products")
	products.GET("", d.ProductHandler.List)
	products.GET("/:id", d.ProductHandler.Get)
	products.GET("/:id/reviews", d.ProductHandler.Reviews)
	products.POST("/:id/reviews", d.ProductHandler.AddReview, auth.RequireAuth)
	products.POST("", d.ProductHandler.Create, auth.RequireAdmin)
	products.PUT("/:id", d.ProductHandler.Update, auth.RequireAdmin)
	products.DELETE("/:id", d.ProductHandler.Delete, auth.RequireAdmin)

	cart := api.Group("/cart", auth.RequireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.PUT("/:id", d.CartHandler.UpdateQuantity)
	cart.DELETE("/:id", d.CartHandler.RemoveItem)

	orders := api.Group("/orders", auth.RequireAuth)
	orders.POST("", d.OrderHandler.Create)
	orders.GET("", d.OrderHandler.List)
}
