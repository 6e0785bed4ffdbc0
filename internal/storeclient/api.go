package storeclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (c *Client) Cart(ctx context.Context, token string) ([]models.CartLineItem, error) {
	var items []models.CartLineItem
	err := c.do(ctx, call{method: http.MethodGet, path: "/api/cart", token: token, out: &items})
	return items, err
}

func (c *Client) AddToCart(ctx context.Context, token string, productID uuid.UUID, qty int) (models.CartLineItem, error) {
	var item models.CartLineItem
	err := c.do(ctx, call{
		method: http.MethodPost, path: "/api/cart", token: token,
		in:  models.AddToCartRequest{ProductID: productID, Quantity: qty},
		out: &item,
	})
	return item, err
}

func (c *Client) UpdateQuantity(ctx context.Context, token string, lineItemID uuid.UUID, qty int) (models.CartLineItem, error) {
	var item models.CartLineItem
	err := c.do(ctx, call{
		method: http.MethodPut, path: "/api/cart/" + lineItemID.String(), token: token,
		in:  models.UpdateQuantityRequest{Quantity: qty},
		out: &item,
	})
	return item, err
}

func (c *Client) RemoveLineItem(ctx context.Context, token string, lineItemID uuid.UUID) error {
	return c.do(ctx, call{method: http.MethodDelete, path: "/api/cart/" + lineItemID.String(), token: token})
}

func (c *Client) Products(ctx context.Context, token string, category models.Category) ([]models.Product, error) {
	path := "/api/products"
	if category != "" && category != models.CategoryAll {
		path += "?category=" + url.QueryEscape(string(category))
	}
	var products []models.Product
	err := c.do(ctx, call{method: http.MethodGet, path: path, token: token, out: &products})
	return products, err
}

func (c *Client) Product(ctx context.Context, id uuid.UUID) (models.Product, error) {
	var p models.Product
	err := c.do(ctx, call{method: http.MethodGet, path: "/api/products/" + id.String(), out: &p})
	return p, err
}

func (c *Client) Reviews(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	var reviews []models.Review
	err := c.do(ctx, call{method: http.MethodGet, path: "/api/products/" + productID.String() + "/reviews", out: &reviews})
	return reviews, err
}

func (c *Client) CreateProduct(ctx context.Context, token string, in models.ProductInput) (models.Product, error) {
	var p models.Product
	err := c.do(ctx, call{method: http.MethodPost, path: "/api/products", token: token, in: in, out: &p})
	return p, err
}

func (c *Client) UpdateProduct(ctx context.Context, token string, id uuid.UUID, in models.ProductInput) (models.Product, error) {
	var p models.Product
	err := c.do(ctx, call{method: http.MethodPut, path: "/api/products/" + id.String(), token: token, in: in, out: &p})
	return p, err
}

func (c *Client) DeleteProduct(ctx context.Context, token string, id uuid.UUID) error {
	return c.do(ctx, call{method: http.MethodDelete, path: "/api/products/" + id.String(), token: token})
}

func (c *Client) CreateOrder(ctx context.Context, token, idempotencyKey string, req models.CreateOrderRequest) (models.Order, error) {
	var o models.Order
	rc := call{method: http.MethodPost, path: "/api/orders", token: token, in: req, out: &o}
	if idempotencyKey != "" {
		rc.header = map[string]string{IdempotencyHeader: idempotencyKey}
	}
	err := c.do(ctx, rc)
	return o, err
}

func (c *Client) Orders(ctx context.Context, token string) ([]models.Order, error) {
	var orders []models.Order
	err := c.do(ctx, call{method: http.MethodGet, path: "/api/orders", token: token, out: &orders})
	return orders, err
}
