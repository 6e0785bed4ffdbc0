package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/authguard"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/storeclient"
	"github.com/Skotchmaster/storefront/pkg/tokens"
	"github.com/Skotchmaster/storefront/services/storefront/internal/engine"
)

var secret = []byte("bff-secret")

// fakeStore is an in-memory store API keyed by the caller's token.
type fakeStore struct {
	mu       sync.Mutex
	products map[uuid.UUID]models.Product
	carts    map[string][]models.CartLineItem
	orders   map[string][]models.Order
	keys     []string
	down     bool
	expired  bool
}

func newFakeStore(products ...models.Product) *fakeStore {
	s := &fakeStore{
		products: map[uuid.UUID]models.Product{},
		carts:    map[string][]models.CartLineItem{},
		orders:   map[string][]models.Order{},
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *fakeStore) check() error {
	switch {
	case s.expired:
		return &storeclient.APIError{Status: http.StatusUnauthorized, Code: "unauthorized"}
	case s.down:
		return &storeclient.APIError{Status: http.StatusServiceUnavailable, Code: "internal"}
	}
	return nil
}

func (s *fakeStore) Cart(_ context.Context, token string) ([]models.CartLineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	return append([]models.CartLineItem(nil), s.carts[token]...), nil
}

func (s *fakeStore) AddToCart(_ context.Context, token string, productID uuid.UUID, qty int) (models.CartLineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return models.CartLineItem{}, err
	}
	for i, it := range s.carts[token] {
		if it.ProductID == productID {
			s.carts[token][i].Quantity += qty
			return s.carts[token][i], nil
		}
	}
	line := models.CartLineItem{ID: uuid.New(), ProductID: productID, Quantity: qty, Product: s.products[productID]}
	s.carts[token] = append(s.carts[token], line)
	return line, nil
}

func (s *fakeStore) UpdateQuantity(_ context.Context, token string, id uuid.UUID, qty int) (models.CartLineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return models.CartLineItem{}, err
	}
	for i, it := range s.carts[token] {
		if it.ID == id {
			s.carts[token][i].Quantity = qty
			return s.carts[token][i], nil
		}
	}
	return models.CartLineItem{}, &storeclient.APIError{Status: http.StatusNotFound}
}

func (s *fakeStore) RemoveLineItem(_ context.Context, token string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	items := s.carts[token]
	for i, it := range items {
		if it.ID == id {
			s.carts[token] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return &storeclient.APIError{Status: http.StatusNotFound}
}

func (s *fakeStore) CreateOrder(_ context.Context, token, key string, req models.CreateOrderRequest) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return models.Order{}, err
	}
	s.keys = append(s.keys, key)
	o := models.Order{ID: uuid.New(), Items: req.Items, ShippingAddress: req.ShippingAddress, Status: models.OrderPending, CreatedAt: time.Now()}
	s.orders[token] = append(s.orders[token], o)
	delete(s.carts, token)
	return o, nil
}

func (s *fakeStore) Products(context.Context, string, models.Category) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *fakeStore) Product(_ context.Context, id uuid.UUID) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return models.Product{}, err
	}
	p, ok := s.products[id]
	if !ok {
		return models.Product{}, &storeclient.APIError{Status: http.StatusNotFound}
	}
	return p, nil
}

func (s *fakeStore) Reviews(context.Context, uuid.UUID) ([]models.Review, error) { return nil, nil }

func (s *fakeStore) CreateProduct(_ context.Context, _ string, in models.ProductInput) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := models.Product{ID: uuid.New(), Name: in.Name, Category: in.Category, Price: in.Price, Stock: in.Stock, IsActive: true}
	s.products[p.ID] = p
	return p, nil
}

func (s *fakeStore) UpdateProduct(_ context.Context, _ string, id uuid.UUID, in models.ProductInput) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[id]
	p.Name, p.Price, p.Stock = in.Name, in.Price, in.Stock
	s.products[id] = p
	return p, nil
}

func (s *fakeStore) DeleteProduct(_ context.Context, _ string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
	return nil
}

func (s *fakeStore) Orders(_ context.Context, token string) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.orders[token], nil
}

func (s *fakeStore) set(fn func(s *fakeStore)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

type envelope struct {
	Data     json.RawMessage  `json:"data"`
	Error    string           `json:"error"`
	Notices  []notify.Notice  `json:"notices"`
	Redirect *notify.Redirect `json:"redirect"`
}

func newServer(store *fakeStore) *echo.Echo {
	e := echo.New()
	Register(e, &Deps{
		Registry:  engine.NewRegistry(store, time.Minute),
		JWTSecret: secret,
		SignInURL: "/api/login",
	})
	return e
}

func accessToken(t *testing.T, role string) string {
	t.Helper()
	tok, err := tokens.SignAccessToken(uuid.NewString(), role, time.Now().Add(time.Hour), secret)
	require.NoError(t, err)
	return tok
}

func call(t *testing.T, e *echo.Echo, method, path, tok, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if tok != "" {
		req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: tok})
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func lamp() models.Product {
	return models.Product{
		ID: uuid.New(), Name: "Lamp", Category: models.CategoryHome,
		Price: decimal.RequireFromString("29.99"), Stock: 5, IsActive: true,
	}
}

func TestHealth(t *testing.T) {
	e := newServer(newFakeStore())
	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestAnonymousAddToCartAsksForSignIn(t *testing.T) {
	p := lamp()
	e := newServer(newFakeStore(p))

	status, env := call(t, e, http.MethodPost, "/cart/items", "", `{"productId":"`+p.ID.String()+`","quantity":1}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	require.Len(t, env.Notices, 1)
	assert.Equal(t, "Sign in required", env.Notices[0].Title)
	require.NotNil(t, env.Redirect)
	assert.Equal(t, "/api/login", env.Redirect.To)
	assert.Equal(t, int64(1000), env.Redirect.AfterMs)

	status, env = call(t, e, http.MethodGet, "/cart", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Empty(t, env.Notices)
}

func TestCartAndCheckoutFlow(t *testing.T) {
	p := lamp()
	store := newFakeStore(p)
	e := newServer(store)
	tok := accessToken(t, tokens.RoleUser)

	status, env := call(t, e, http.MethodPost, "/cart/items", tok, `{"productId":"`+p.ID.String()+`","quantity":2}`)
	require.Equal(t, http.StatusOK, status, env.Error)
	require.Len(t, env.Notices, 1)
	assert.Equal(t, "Added to cart", env.Notices[0].Title)

	status, env = call(t, e, http.MethodGet, "/cart", tok, "")
	require.Equal(t, http.StatusOK, status)
	var view CartView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.ItemCount)
	assert.Equal(t, "59.98", view.Pricing.Subtotal)
	assert.Equal(t, "4.80", view.Pricing.Tax)
	assert.Equal(t, "0.00", view.Pricing.Shipping)
	assert.Equal(t, "64.78", view.Pricing.Total)
	assert.Equal(t, "0.00", view.RemainingForFreeShipping)

	status, env = call(t, e, http.MethodPut, "/cart/items/"+view.Items[0].ID.String(), tok, `{"quantity":9}`)
	require.Equal(t, http.StatusOK, status, env.Error)

	status, _ = call(t, e, http.MethodGet, "/checkout", tok, "")
	require.Equal(t, http.StatusOK, status)

	status, env = call(t, e, http.MethodPost, "/checkout/next", tok, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	require.Len(t, env.Notices, 1)
	assert.Equal(t, "Missing information", env.Notices[0].Title)

	addr := `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","address":"1 Way","city":"London","zipCode":"12345"}`
	status, env = call(t, e, http.MethodPut, "/checkout/shipping", tok, addr)
	require.Equal(t, http.StatusOK, status, env.Error)
	var co CheckoutView
	require.NoError(t, json.Unmarshal(env.Data, &co))
	assert.True(t, co.ShippingValid)
	assert.Equal(t, models.DefaultCountry, co.Shipping.Country)

	status, _ = call(t, e, http.MethodPost, "/checkout/next", tok, "")
	require.Equal(t, http.StatusOK, status)
	status, _ = call(t, e, http.MethodPost, "/checkout/next", tok, "")
	require.Equal(t, http.StatusOK, status)

	status, env = call(t, e, http.MethodPost, "/checkout/submit", tok, "")
	require.Equal(t, http.StatusCreated, status, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, &co))
	require.NotNil(t, co.Order)
	assert.Empty(t, co.Cart.Items)
	require.NotNil(t, env.Redirect)
	assert.Equal(t, "/profile", env.Redirect.To)
	require.Len(t, env.Notices, 1)
	assert.Equal(t, "Order placed successfully!", env.Notices[0].Title)
	store.set(func(s *fakeStore) {
		require.Len(t, s.keys, 1)
		assert.NotEmpty(t, s.keys[0])
	})

	status, env = call(t, e, http.MethodGet, "/orders", tok, "")
	require.Equal(t, http.StatusOK, status)
	var summaries []struct {
		ShortID   string `json:"shortId"`
		ItemCount int    `json:"itemCount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, 9, summaries[0].ItemCount)
	assert.Len(t, summaries[0].ShortID, 8)
}

func TestExpiredSessionRedirectsToSignIn(t *testing.T) {
	store := newFakeStore(lamp())
	e := newServer(store)
	tok := accessToken(t, tokens.RoleUser)
	store.set(func(s *fakeStore) { s.expired = true })

	status, env := call(t, e, http.MethodGet, "/cart", tok, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	require.Len(t, env.Notices, 1)
	assert.Equal(t, authguard.UnauthorizedNotice.Description, env.Notices[0].Description)
	require.NotNil(t, env.Redirect)
	assert.Equal(t, authguard.SignInDelay.Milliseconds(), env.Redirect.AfterMs)
}

func TestExpiredSessionDropsPublishedCart(t *testing.T) {
	p := lamp()
	store := newFakeStore(p)
	e := newServer(store)
	tok := accessToken(t, tokens.RoleUser)

	status, _ := call(t, e, http.MethodPost, "/cart/items", tok, `{"productId":"`+p.ID.String()+`","quantity":2}`)
	require.Equal(t, http.StatusOK, status)

	store.set(func(s *fakeStore) { s.expired = true })
	status, env := call(t, e, http.MethodGet, "/cart", tok, "")
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Empty(t, env.Data)

	store.set(func(s *fakeStore) { s.expired, s.down = false, true })
	status, env = call(t, e, http.MethodGet, "/cart", tok, "")
	require.Equal(t, http.StatusBadGateway, status)
	var view CartView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Empty(t, view.Items)
	assert.Zero(t, view.ItemCount)
}

func TestMissingProductIsNotFound(t *testing.T) {
	e := newServer(newFakeStore(lamp()))

	status, env := call(t, e, http.MethodGet, "/products/"+uuid.NewString(), "", "")
	assert.Equal(t, http.StatusNotFound, status)
	require.Len(t, env.Notices, 1)
	assert.Equal(t, "Failed to load product. Please try again.", env.Notices[0].Description)
}

func TestStoreOutageIsBadGateway(t *testing.T) {
	store := newFakeStore(lamp())
	e := newServer(store)
	store.set(func(s *fakeStore) { s.down = true })

	status, env := call(t, e, http.MethodGet, "/products", "", "")
	assert.Equal(t, http.StatusBadGateway, status)
	require.Len(t, env.Notices, 1)
	assert.Equal(t, "Failed to load products. Please try again.", env.Notices[0].Description)
}

func TestProductsQueryValidation(t *testing.T) {
	e := newServer(newFakeStore(lamp()))

	status, _ := call(t, e, http.MethodGet, "/products?sort=cheapest", "", "")
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = call(t, e, http.MethodGet, "/products?category=toys", "", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, env := call(t, e, http.MethodGet, "/products?category=home&sort=price-low", "", "")
	require.Equal(t, http.StatusOK, status)
	var products []models.Product
	require.NoError(t, json.Unmarshal(env.Data, &products))
	assert.Len(t, products, 1)
}

func TestAdminRoutes(t *testing.T) {
	p := lamp()
	store := newFakeStore(p)
	e := newServer(store)
	user := accessToken(t, tokens.RoleUser)
	admin := accessToken(t, tokens.RoleAdmin)

	status, env := call(t, e, http.MethodGet, "/admin/products", user, "")
	assert.Equal(t, http.StatusForbidden, status)
	require.NotNil(t, env.Redirect)
	assert.Equal(t, "/", env.Redirect.To)

	status, env = call(t, e, http.MethodGet, "/admin/products", admin, "")
	require.Equal(t, http.StatusOK, status)
	var view AdminView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, 1, view.Stats.TotalProducts)
	assert.Equal(t, 1, view.Stats.LowStock)

	status, env = call(t, e, http.MethodGet, "/admin/products/"+p.ID.String()+"/form", admin, "")
	require.Equal(t, http.StatusOK, status, env.Error)
	var form struct {
		Name  string `json:"name"`
		Price string `json:"price"`
		Stock string `json:"stock"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &form))
	assert.Equal(t, "Lamp", form.Name)
	assert.Equal(t, "29.99", form.Price)
	assert.Equal(t, "5", form.Stock)

	status, _ = call(t, e, http.MethodGet, "/admin/products/"+uuid.NewString()+"/form", admin, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, e, http.MethodPost, "/admin/products", admin, `{"name":"","price":"abc","category":"home","stock":"1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, env = call(t, e, http.MethodPost, "/admin/products", admin, `{"name":"Rug","price":"80.00","category":"home","stock":"12"}`)
	require.Equal(t, http.StatusCreated, status, env.Error)
	assert.Equal(t, "Product created", env.Notices[0].Title)

	status, _ = call(t, e, http.MethodDelete, "/admin/products/"+p.ID.String(), admin, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = call(t, e, http.MethodDelete, "/admin/products/"+p.ID.String()+"?confirm=true", admin, "")
	require.Equal(t, http.StatusOK, status, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, 1, view.Stats.TotalProducts)
}

func TestCSRFGuardsMutations(t *testing.T) {
	p := lamp()
	e := echo.New()
	Register(e, &Deps{
		Registry:  engine.NewRegistry(newFakeStore(p), time.Minute),
		JWTSecret: secret,
		CSRF:      true,
	})
	tok := accessToken(t, tokens.RoleUser)

	get := httptest.NewRequest(http.MethodGet, "/products", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, get)
	require.Equal(t, http.StatusOK, rec.Code)

	var csrf *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == CSRFCookie {
			csrf = c
		}
	}
	require.NotNil(t, csrf)

	body := `{"productId":"` + p.ID.String() + `","quantity":1}`
	post := func(header string) int {
		req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: tok})
		req.AddCookie(csrf)
		if header != "" {
			req.Header.Set(CSRFHeader, header)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusBadRequest, post(""))
	assert.Equal(t, http.StatusForbidden, post("forged"))
	assert.Equal(t, http.StatusOK, post(csrf.Value))
}
