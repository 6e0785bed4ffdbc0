package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	wire "github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/pricing"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/storeapi/internal/cache"
	"github.com/Skotchmaster/storefront/services/storeapi/internal/models"
	"github.com/Skotchmaster/storefront/services/storeapi/internal/repo"
	"github.com/Skotchmaster/storefront/services/storeapi/internal/transport"
)

const maxIdempotencyKey = 128

type OrderService struct {
	Repo   *repo.GormRepo
	Cache  cache.CartCache
	Events events.Publisher
}

// CreateOrder records the prices the client saw and derives the totals with the
// same pricing policy the storefront displays. A repeated idempotency key returns
// the earlier order with created false.
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, idempotencyKey string, req wire.CreateOrderRequest) (wire.Order, bool, error) {
	if len(req.Items) == 0 {
		return wire.Order{}, false, fmt.Errorf("%w: items required", ErrValidation)
	}
	if !req.ShippingAddress.Complete() {
		return wire.Order{}, false, fmt.Errorf("%w: shipping address incomplete", ErrValidation)
	}
	if len(idempotencyKey) > maxIdempotencyKey {
		return wire.Order{}, false, fmt.Errorf("%w: idempotency key too long", ErrValidation)
	}

	lines := make([]wire.CartLineItem, 0, len(req.Items))
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		if it.ProductID == uuid.Nil {
			return wire.Order{}, false, fmt.Errorf("%w: productId required", ErrValidation)
		}
		if it.Quantity < 1 {
			return wire.Order{}, false, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
		if it.Price.IsNegative() {
			return wire.Order{}, false, fmt.Errorf("%w: price must be >= 0", ErrValidation)
		}
		items = append(items, models.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
		lines = append(lines, wire.CartLineItem{Quantity: it.Quantity, Product: wire.Product{Price: it.Price}})
	}

	b := pricing.Calculate(wire.CartSnapshot{Items: lines})
	order := &models.Order{
		UserID:   userID,
		Status:   models.OrderStatusPending,
		Subtotal: b.Subtotal,
		Tax:      b.Tax,
		Shipping: b.Shipping,
		Total:    b.Total,
		Address:  transport.StoredAddress(req.ShippingAddress),
		Items:    items,
	}
	if idempotencyKey != "" {
		order.IdempotencyKey = &idempotencyKey
	}

	created, err := s.Repo.CreateOrder(ctx, order)
	if err != nil {
		return wire.Order{}, false, err
	}
	out := transport.Order(*order)

	if created {
		l := logging.FromContext(ctx)
		if err := s.Cache.Delete(ctx, userID); err != nil {
			l.Warn("cart_cache_delete_failed", "user_id", userID, "error", err)
		}
		ev := events.Event{Type: "order_placed", OccurredAt: time.Now().UTC(), Data: out}
		if err := s.Events.Publish(ctx, events.TopicOrders, out.ID.String(), ev); err != nil {
			l.Warn("publish_event_failed", "type", ev.Type, "error", err)
		}
	}
	return out, created, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]wire.Order, error) {
	orders, err := s.Repo.ListOrders(ctx, userID)
	if err != nil {
		return nil, err
	}
	return transport.Orders(orders), nil
}
