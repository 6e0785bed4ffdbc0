package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/services/storeapi/internal/models"
)

// CreateOrder stores the order and empties the user's cart in one transaction.
// When the order carries an idempotency key already used by the same user, the
// earlier order is returned and created is false.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) (created bool, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if order.IdempotencyKey != nil {
			var existing models.Order
			err := tx.Preload("Items").
				Where("user_id = ? AND idempotency_key = ?", order.UserID, *order.IdempotencyKey).
				First(&existing).Error
			if err == nil {
				*order = existing
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		if err := tx.Create(order).Error; err != nil {
			return err
		}
		if err := clearCart(tx, order.UserID); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

func (r *GormRepo) ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
