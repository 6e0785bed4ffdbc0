package repo

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/services/storeapi/internal/models"
)

func newRepo(t *testing.T) *GormRepo {
	t.Helper()
	db, err := pkgdb.Open(context.Background(), pkgdb.Options{SQLitePath: filepath.Join(t.TempDir(), "store.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pkgdb.Close(db) })

	r := &GormRepo{DB: db}
	require.NoError(t, r.Migrate(context.Background()))
	return r
}

func seedProduct(t *testing.T, r *GormRepo, name, category, price string, stock int) *models.Product {
	t.Helper()
	p, err := r.CreateProduct(context.Background(), &models.Product{
		Name: name, Category: category, Price: decimal.RequireFromString(price),
		Stock: stock, IsActive: true,
	})
	require.NoError(t, err)
	return p
}

func TestListProductsFilters(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	seedProduct(t, r, "Lamp", "home", "29.99", 3)
	seedProduct(t, r, "Scarf", "fashion", "15.00", 8)
	hidden := seedProduct(t, r, "Old Lamp", "home", "5.00", 1)
	_, err := r.UpdateProduct(ctx, hidden.ID, func(p *models.Product) { p.IsActive = false })
	require.NoError(t, err)

	all, err := r.ListProducts(ctx, ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	home, err := r.ListProducts(ctx, ProductFilter{Category: "home", IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, home, 2)

	got, err := r.GetProduct(ctx, all[0].ID)
	require.NoError(t, err)
	assert.Equal(t, all[0].Name, got.Name)

	_, err = r.GetProduct(ctx, uuid.New())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestAddToCartMergesQuantity(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	p := seedProduct(t, r, "Lamp", "home", "29.99", 10)
	user := uuid.New()

	first := &models.CartItem{UserID: user, ProductID: p.ID, Quantity: 1}
	require.NoError(t, r.AddToCart(ctx, first))
	second := &models.CartItem{UserID: user, ProductID: p.ID, Quantity: 2}
	require.NoError(t, r.AddToCart(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, second.Quantity)
	assert.Equal(t, "Lamp", second.Product.Name)

	items, err := r.GetCart(ctx, user)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Product.Price.Equal(decimal.RequireFromString("29.99")))

	var products int64
	require.NoError(t, r.DB.Model(&models.Product{}).Count(&products).Error)
	assert.EqualValues(t, 1, products, "adding to cart must not insert products")
}

func TestAddToCartCountsExistingQuantityAgainstStock(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	p := seedProduct(t, r, "Lamp", "home", "29.99", 8)
	user := uuid.New()

	require.NoError(t, r.AddToCart(ctx, &models.CartItem{UserID: user, ProductID: p.ID, Quantity: 5}))
	err := r.AddToCart(ctx, &models.CartItem{UserID: user, ProductID: p.ID, Quantity: 5})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	items, err := r.GetCart(ctx, user)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)

	require.NoError(t, r.AddToCart(ctx, &models.CartItem{UserID: user, ProductID: p.ID, Quantity: 3}))
	items, err = r.GetCart(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 8, items[0].Quantity)
}

func TestCartItemOwnership(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	p := seedProduct(t, r, "Lamp", "home", "29.99", 10)
	owner, stranger := uuid.New(), uuid.New()

	item := &models.CartItem{UserID: owner, ProductID: p.ID, Quantity: 1}
	require.NoError(t, r.AddToCart(ctx, item))

	_, err := r.UpdateCartQuantity(ctx, stranger, item.ID, 5)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, r.DeleteCartItem(ctx, stranger, item.ID), gorm.ErrRecordNotFound)

	updated, err := r.UpdateCartQuantity(ctx, owner, item.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)

	require.NoError(t, r.DeleteCartItem(ctx, owner, item.ID))
	items, err := r.GetCart(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDeleteProductRemovesCartLines(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	p := seedProduct(t, r, "Lamp", "home", "29.99", 10)
	keep := seedProduct(t, r, "Scarf", "fashion", "15.00", 10)
	user := uuid.New()

	require.NoError(t, r.AddToCart(ctx, &models.CartItem{UserID: user, ProductID: p.ID, Quantity: 1}))
	require.NoError(t, r.AddToCart(ctx, &models.CartItem{UserID: user, ProductID: keep.ID, Quantity: 1}))

	owners, err := r.CartOwners(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{user}, owners)

	require.NoError(t, r.DeleteProduct(ctx, p.ID))
	items, err := r.GetCart(ctx, user)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, keep.ID, items[0].ProductID)

	assert.ErrorIs(t, r.DeleteProduct(ctx, p.ID), gorm.ErrRecordNotFound)
}

func TestCreateOrderIdempotentAndClearsCart(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	p := seedProduct(t, r, "Lamp", "home", "29.99", 10)
	user := uuid.New()
	require.NoError(t, r.AddToCart(ctx, &models.CartItem{UserID: user, ProductID: p.ID, Quantity: 2}))

	key := "key-1"
	newOrder := func() *models.Order {
		return &models.Order{
			UserID: user, IdempotencyKey: &key, Status: models.OrderStatusPending,
			Total: decimal.RequireFromString("64.78"),
			Items: []models.OrderItem{{ProductID: p.ID, Quantity: 2, Price: p.Price}},
		}
	}

	first := newOrder()
	created, err := r.CreateOrder(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	items, err := r.GetCart(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, items)

	again := newOrder()
	created, err = r.CreateOrder(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	require.Len(t, again.Items, 1)

	orders, err := r.ListOrders(ctx, user)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.True(t, orders[0].Total.Equal(decimal.RequireFromString("64.78")))
}

func TestAddReviewUpdatesRating(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	p := seedProduct(t, r, "Lamp", "home", "29.99", 10)

	for _, rating := range []int{5, 4, 4} {
		require.NoError(t, r.AddReview(ctx, &models.Review{ProductID: p.ID, UserID: uuid.New(), Rating: rating}))
	}

	got, err := r.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.ReviewCount)
	assert.Equal(t, "4.3", got.Rating.StringFixed(1))

	reviews, err := r.ListReviews(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 3)
}
