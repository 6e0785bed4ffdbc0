package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	wire "github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
	"github.com/Skotchmaster/storefront/services/storeapi/internal/service"
)

type ProductHTTP struct {
	Svc       *service.CatalogService
	JWTSecret []byte
}

// isAdmin reports whether the optional access token belongs to an admin.
func (h *ProductHTTP) isAdmin(c echo.Context) bool {
	cookie, err := c.Cookie(tokens.AccessCookie)
	if err != nil || cookie.Value == "" {
		return false
	}
	claims, err := tokens.AccessClaimsFromToken(cookie.Value, h.JWTSecret)
	return err == nil && claims.IsAdmin()
}

func (h *ProductHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list.products")

	products, err := h.Svc.ListProducts(ctx, c.QueryParam("category"), h.isAdmin(c))
	if err != nil {
		return fail(c, l, "list_products_error", err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *ProductHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.product")

	id, ok := pathID(c)
	if !ok {
		return badRequest(c, l, "get_product_error", "invalid product id")
	}
	p, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(c, l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHTTP) Reviews(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list.reviews")

	id, ok := pathID(c)
	if !ok {
		return badRequest(c, l, "list_reviews_error", "invalid product id")
	}
	reviews, err := h.Svc.ListReviews(ctx, id)
	if err != nil {
		return fail(c, l, "list_reviews_error", err)
	}
	return c.JSON(http.StatusOK, reviews)
}

func (h *ProductHTTP) AddReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "add.review")

	user, err := userID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, l, "add_review_error", "invalid product id")
	}
	var in service.ReviewInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, l, "add_review_error", "invalid body")
	}
	review, err := h.Svc.AddReview(ctx, id, user, in)
	if err != nil {
		return fail(c, l, "add_review_error", err)
	}
	l.Info("review_added", "product_id", id)
	return c.JSON(http.StatusCreated, review)
}

func (h *ProductHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "create.product")

	var in wire.ProductInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, l, "create_product_error", "invalid body")
	}
	p, err := h.Svc.CreateProduct(ctx, in)
	if err != nil {
		return fail(c, l, "create_product_error", err)
	}
	l.Info("product_created", "product_id", p.ID)
	return c.JSON(http.StatusCreated, p)
}

func (h *ProductHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update.product")

	id, ok := pathID(c)
	if !ok {
		return badRequest(c, l, "update_product_error", "invalid product id")
	}
	var in wire.ProductInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, l, "update_product_error", "invalid body")
	}
	p, err := h.Svc.UpdateProduct(ctx, id, in)
	if err != nil {
		return fail(c, l, "update_product_error", err)
	}
	l.Info("product_updated", "product_id", p.ID)
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "delete.product")

	id, ok := pathID(c)
	if !ok {
		return badRequest(c, l, "delete_product_error", "invalid product id")
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return fail(c, l, "delete_product_error", err)
	}
	l.Info("product_deleted", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}
