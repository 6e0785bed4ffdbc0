package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	wire "github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/storeapi/internal/cache"
	"github.com/Skotchmaster/storefront/services/storeapi/internal/models"
	"github.com/Skotchmaster/storefront/services/storeapi/internal/repo"
	"github.com/Skotchmaster/storefront/services/storeapi/internal/transport"
)

type CatalogService struct {
	Repo   *repo.GormRepo
	Cache  cache.CartCache
	Events events.Publisher
}

func (s *CatalogService) ListProducts(ctx context.Context, category string, includeInactive bool) ([]wire.Product, error) {
	if category == string(wire.CategoryAll) {
		category = ""
	}
	if category != "" && !wire.Category(category).Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, category)
	}
	items, err := s.Repo.ListProducts(ctx, repo.ProductFilter{Category: category, IncludeInactive: includeInactive})
	if err != nil {
		return nil, err
	}
	return transport.Products(items), nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (wire.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return wire.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return wire.Product{}, err
	}
	return transport.Product(*p), nil
}

func (s *CatalogService) ListReviews(ctx context.Context, productID uuid.UUID) ([]wire.Review, error) {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	reviews, err := s.Repo.ListReviews(ctx, productID)
	if err != nil {
		return nil, err
	}
	return transport.Reviews(reviews), nil
}

func validateProduct(in wire.ProductInput) error {
	switch {
	case in.Name == "":
		return fmt.Errorf("%w: name required", ErrValidation)
	case !in.Category.Valid():
		return fmt.Errorf("%w: category must be one of electronics, fashion, home, accessories", ErrValidation)
	case in.Price.IsNegative():
		return fmt.Errorf("%w: price must be >= 0", ErrValidation)
	case in.OriginalPrice != nil && in.OriginalPrice.IsNegative():
		return fmt.Errorf("%w: originalPrice must be >= 0", ErrValidation)
	case in.Stock < 0:
		return fmt.Errorf("%w: stock must be >= 0", ErrValidation)
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in wire.ProductInput) (wire.Product, error) {
	if err := validateProduct(in); err != nil {
		return wire.Product{}, err
	}
	p := &models.Product{IsActive: true}
	transport.ApplyProductInput(p, in)

	created, err := s.Repo.CreateProduct(ctx, p)
	if err != nil {
		return wire.Product{}, err
	}
	out := transport.Product(*created)
	s.publish(ctx, "product_created", out.ID, out)
	return out, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, in wire.ProductInput) (wire.Product, error) {
	if err := validateProduct(in); err != nil {
		return wire.Product{}, err
	}
	updated, err := s.Repo.UpdateProduct(ctx, id, func(p *models.Product) {
		transport.ApplyProductInput(p, in)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return wire.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return wire.Product{}, err
	}
	s.dropCachedCarts(ctx, id)
	out := transport.Product(*updated)
	s.publish(ctx, "product_updated", out.ID, out)
	return out, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	owners, err := s.Repo.CartOwners(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return err
	}
	for _, u := range owners {
		if err := s.Cache.Delete(ctx, u); err != nil {
			logging.FromContext(ctx).Warn("cart_cache_delete_failed", "user_id", u, "error", err)
		}
	}
	s.publish(ctx, "product_deleted", id, map[string]any{"productId": id})
	return nil
}

// Cached carts embed product data, so a product change invalidates them.
func (s *CatalogService) dropCachedCarts(ctx context.Context, productID uuid.UUID) {
	owners, err := s.Repo.CartOwners(ctx, productID)
	if err != nil {
		logging.FromContext(ctx).Warn("cart_owners_failed", "product_id", productID, "error", err)
		return
	}
	for _, u := range owners {
		if err := s.Cache.Delete(ctx, u); err != nil {
			logging.FromContext(ctx).Warn("cart_cache_delete_failed", "user_id", u, "error", err)
		}
	}
}

func (s *CatalogService) publish(ctx context.Context, typ string, id uuid.UUID, data any) {
	ev := events.Event{Type: typ, OccurredAt: time.Now().UTC(), Data: data}
	if err := s.Events.Publish(ctx, events.TopicProducts, id.String(), ev); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "type", typ, "error", err)
	}
}

type ReviewInput struct {
	Rating  int     `json:"rating"`
	Comment *string `json:"comment"`
}

func (s *CatalogService) AddReview(ctx context.Context, productID, userID uuid.UUID, in ReviewInput) (wire.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return wire.Review{}, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return wire.Review{}, err
	}
	review := &models.Review{ProductID: productID, UserID: userID, Rating: in.Rating, Comment: in.Comment}
	if err := s.Repo.AddReview(ctx, review); err != nil {
		return wire.Review{}, err
	}
	s.dropCachedCarts(ctx, productID)
	return transport.Review(*review), nil
}
