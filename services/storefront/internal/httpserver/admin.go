package httpserver

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/admin"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type AdminView struct {
	Products []models.Product `json:"products"`
	Stats    admin.Stats      `json:"stats"`
}

func adminView(products []models.Product) AdminView {
	if products == nil {
		products = []models.Product{}
	}
	return AdminView{Products: products, Stats: admin.DashboardStats(products)}
}

type AdminHTTP struct{}

func (h *AdminHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list.products")
	sess, eng := sessionOf(c), engineOf(c)

	products, err := eng.Admin.Products(ctx, sess)
	if err != nil {
		return fail(c, eng, l, "admin_list_products_error", err, nil)
	}
	return respond(c, eng, http.StatusOK, adminView(products))
}

func (h *AdminHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create.product")
	sess, eng := sessionOf(c), engineOf(c)

	var form admin.ProductForm
	if err := c.Bind(&form); err != nil {
		return badRequest(c, eng, l, "admin_create_product_error", "invalid body")
	}
	p, err := eng.Admin.Create(ctx, sess, form)
	if err != nil {
		return fail(c, eng, l, "admin_create_product_error", err, nil)
	}
	return respond(c, eng, http.StatusCreated, p)
}

func (h *AdminHTTP) EditForm(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.edit.product")
	sess, eng := sessionOf(c), engineOf(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, eng, l, "admin_edit_product_error", "invalid product id")
	}
	form, err := eng.Admin.EditForm(ctx, sess, id)
	if err != nil {
		return fail(c, eng, l, "admin_edit_product_error", err, nil)
	}
	return respond(c, eng, http.StatusOK, form)
}

func (h *AdminHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update.product")
	sess, eng := sessionOf(c), engineOf(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, eng, l, "admin_update_product_error", "invalid product id")
	}
	var form admin.ProductForm
	if err := c.Bind(&form); err != nil {
		return badRequest(c, eng, l, "admin_update_product_error", "invalid body")
	}
	p, err := eng.Admin.Update(ctx, sess, id, form)
	if err != nil {
		return fail(c, eng, l, "admin_update_product_error", err, nil)
	}
	return respond(c, eng, http.StatusOK, p)
}

// Delete needs ?confirm=true; the query flag answers the editor's confirmation prompt.
func (h *AdminHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete.product")
	sess, eng := sessionOf(c), engineOf(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, eng, l, "admin_delete_product_error", "invalid product id")
	}
	confirmed, _ := strconv.ParseBool(c.QueryParam("confirm"))
	if err := eng.Admin.Delete(ctx, sess, id, admin.ConfirmFunc(func(string) bool { return confirmed })); err != nil {
		return fail(c, eng, l, "admin_delete_product_error", err, nil)
	}
	return respond(c, eng, http.StatusOK, adminView(eng.Admin.Catalog()))
}
