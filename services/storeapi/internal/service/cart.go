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

type CartService struct {
	Repo   *repo.GormRepo
	Cache  cache.CartCache
	Events events.Publisher
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) ([]wire.CartLineItem, error) {
	l := logging.FromContext(ctx)

	items, err := s.Cache.Get(ctx, userID)
	if err == nil {
		return items, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		l.Warn("cart_cache_get_failed", "user_id", userID, "error", err)
	}

	stored, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	items = transport.CartItems(stored)
	if err := s.Cache.Set(ctx, userID, items); err != nil {
		l.Warn("cart_cache_set_failed", "user_id", userID, "error", err)
	}
	return items, nil
}

func (s *CartService) AddToCart(ctx context.Context, userID uuid.UUID, req wire.AddToCartRequest) (wire.CartLineItem, error) {
	if req.ProductID == uuid.Nil {
		return wire.CartLineItem{}, fmt.Errorf("%w: productId required", ErrValidation)
	}
	if req.Quantity < 1 {
		return wire.CartLineItem{}, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}

	p, err := s.Repo.GetProduct(ctx, req.ProductID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !p.IsActive) {
		return wire.CartLineItem{}, fmt.Errorf("product %s: %w", req.ProductID, ErrNotFound)
	}
	if err != nil {
		return wire.CartLineItem{}, err
	}

	item := models.CartItem{UserID: userID, ProductID: req.ProductID, Quantity: req.Quantity}
	if err := s.Repo.AddToCart(ctx, &item); err != nil {
		if errors.Is(err, repo.ErrInsufficientStock) {
			return wire.CartLineItem{}, fmt.Errorf("%w: only %d in stock", ErrConflict, p.Stock)
		}
		return wire.CartLineItem{}, err
	}
	s.changed(ctx, userID, "cart_item_added", item)
	return transport.CartItem(item), nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, id uuid.UUID, qty int) (wire.CartLineItem, error) {
	if qty < 1 {
		return wire.CartLineItem{}, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}
	existing, err := s.Repo.GetCartItem(ctx, userID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return wire.CartLineItem{}, fmt.Errorf("cart item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return wire.CartLineItem{}, err
	}
	if existing.Product.Stock < qty {
		return wire.CartLineItem{}, fmt.Errorf("%w: only %d in stock", ErrConflict, existing.Product.Stock)
	}

	item, err := s.Repo.UpdateCartQuantity(ctx, userID, id, qty)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return wire.CartLineItem{}, fmt.Errorf("cart item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return wire.CartLineItem{}, err
	}
	s.changed(ctx, userID, "cart_item_updated", *item)
	return transport.CartItem(*item), nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.Repo.DeleteCartItem(ctx, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("cart item %s: %w", id, ErrNotFound)
		}
		return err
	}
	s.changed(ctx, userID, "cart_item_removed", map[string]any{"id": id})
	return nil
}

func (s *CartService) changed(ctx context.Context, userID uuid.UUID, typ string, data any) {
	l := logging.FromContext(ctx)
	if err := s.Cache.Delete(ctx, userID); err != nil {
		l.Warn("cart_cache_delete_failed", "user_id", userID, "error", err)
	}
	ev := events.Event{Type: typ, OccurredAt: time.Now().UTC(), Data: data}
	if err := s.Events.Publish(ctx, events.TopicCart, userID.String(), ev); err != nil {
		l.Warn("publish_event_failed", "type", typ, "error", err)
	}
}
