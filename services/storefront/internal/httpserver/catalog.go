package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CatalogHTTP struct{}

func (h *CatalogHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list.products")
	sess, eng := sessionOf(c), engineOf(c)

	category, err := catalog.ParseCategory(c.QueryParam("category"))
	if err != nil {
		return badRequest(c, eng, l, "list_products_error", err.Error())
	}
	by, err := catalog.ParseSort(c.QueryParam("sort"))
	if err != nil {
		return fail(c, eng, l, "list_products_error", err, nil)
	}
	products, err := eng.Catalog.List(ctx, sess, category, by)
	if err != nil {
		return fail(c, eng, l, "list_products_error", err, nil)
	}
	return respond(c, eng, http.StatusOK, products)
}

func (h *CatalogHTTP) Detail(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.product")
	sess, eng := sessionOf(c), engineOf(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, eng, l, "get_product_error", "invalid product id")
	}
	d, err := eng.Catalog.Detail(ctx, sess, id)
	if err != nil {
		return fail(c, eng, l, "get_product_error", err, nil)
	}
	return respond(c, eng, http.StatusOK, d)
}
