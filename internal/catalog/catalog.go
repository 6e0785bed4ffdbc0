package catalog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/storefront/internal/authguard"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/session"
)

type Sort string

const (
	SortFeatured  Sort = "featured"
	SortPriceLow  Sort = "price-low"
	SortPriceHigh Sort = "price-high"
	SortRating    Sort = "rating"
	SortNewest    Sort = "newest"
)

var ErrUnknownSort = errors.New("unknown sort")

func ParseSort(s string) (Sort, error) {
	switch v := Sort(strings.TrimSpace(s)); v {
	case "":
		return SortFeatured, nil
	case SortFeatured, SortPriceLow, SortPriceHigh, SortRating, SortNewest:
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSort, s)
}

func ParseCategory(s string) (models.Category, error) {
	c := models.Category(strings.TrimSpace(s))
	if c == "" || c == models.CategoryAll || c.Valid() {
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

type Remote interface {
	Products(ctx context.Context, token string, category models.Category) ([]models.Product, error)
	Product(ctx context.Context, id uuid.UUID) (models.Product, error)
	Reviews(ctx context.Context, productID uuid.UUID) ([]models.Review, error)
}

type Browser struct {
	remote Remote
	guard  *authguard.Guard
}

func NewBrowser(remote Remote, guard *authguard.Guard) *Browser {
	return &Browser{remote: remote, guard: guard}
}

// SortProducts returns a sorted copy. Featured keeps the store's order.
func SortProducts(products []models.Product, by Sort) []models.Product {
	out := slices.Clone(products)
	switch by {
	case SortPriceLow:
		slices.SortStableFunc(out, func(a, b models.Product) int { return a.Price.Cmp(b.Price) })
	case SortPriceHigh:
		slices.SortStableFunc(out, func(a, b models.Product) int { return b.Price.Cmp(a.Price) })
	case SortRating:
		slices.SortStableFunc(out, func(a, b models.Product) int { return b.Rating.Cmp(a.Rating) })
	case SortNewest:
		slices.SortStableFunc(out, func(a, b models.Product) int { return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano()) })
	}
	return out
}

func (b *Browser) List(ctx context.Context, sess session.Session, category models.Category, by Sort) ([]models.Product, error) {
	products, err := b.remote.Products(ctx, sess.Token, category)
	if err != nil {
		return nil, b.guard.Handle(err, sess.SignIn(), notify.Failure("load products"))
	}
	return SortProducts(products, by), nil
}

// Product fetches one product, e.g. to check stock before adding it to the cart.
func (b *Browser) Product(ctx context.Context, sess session.Session, id uuid.UUID) (models.Product, error) {
	p, err := b.remote.Product(ctx, id)
	if err != nil {
		return models.Product{}, b.guard.Handle(err, sess.SignIn(), notify.Failure("load product"))
	}
	return p, nil
}

type Detail struct {
	Product  models.Product  `json:"product"`
	Reviews  []models.Review `json:"reviews"`
	InStock  bool            `json:"inStock"`
	LowStock bool            `json:"lowStock"`
	// MaxQuantity bounds the quantity picker.
	MaxQuantity int `json:"maxQuantity"`
}

func (b *Browser) Detail(ctx context.Context, sess session.Session, id uuid.UUID) (Detail, error) {
	var (
		p                   models.Product
		reviews             []models.Review
		productErr, revsErr error
	)
	// Neither call cancels the other, so each failure keeps its own notice.
	var g errgroup.Group
	g.Go(func() error {
		p, productErr = b.remote.Product(ctx, id)
		return productErr
	})
	g.Go(func() error {
		reviews, revsErr = b.remote.Reviews(ctx, id)
		return revsErr
	})
	_ = g.Wait()

	if productErr != nil {
		return Detail{}, b.guard.Handle(productErr, sess.SignIn(), notify.Failure("load product"))
	}
	if revsErr != nil {
		return Detail{}, b.guard.Handle(revsErr, sess.SignIn(), notify.Failure("load reviews"))
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return Detail{
		Product:     p,
		Reviews:     reviews,
		InStock:     p.InStock(),
		LowStock:    p.LowStock(),
		MaxQuantity: max(p.Stock, 0),
	}, nil
}
