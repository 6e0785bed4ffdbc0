package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/services/storeapi/internal/models"
)

func (r *GormRepo) GetCart(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

var ErrInsufficientStock = errors.New("insufficient stock")

// AddToCart merges into the user's existing line for the product, if any. The
// merged quantity may not exceed the product's stock.
func (r *GormRepo) AddToCart(ctx context.Context, item *models.CartItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prod models.Product
		if err := tx.Select("id", "stock").Where("id = ?", item.ProductID).First(&prod).Error; err != nil {
			return err
		}
		var inCart int
		if err := tx.Model(&models.CartItem{}).
			Select("COALESCE(SUM(quantity), 0)").
			Where("user_id = ? AND product_id = ?", item.UserID, item.ProductID).
			Scan(&inCart).Error; err != nil {
			return err
		}
		if inCart+item.Quantity > prod.Stock {
			return fmt.Errorf("%w: %d in cart, %d in stock", ErrInsufficientStock, inCart, prod.Stock)
		}

		res := tx.Model(&models.CartItem{}).
			Where("user_id = ? AND product_id = ?", item.UserID, item.ProductID).
			Update("quantity", gorm.Expr("quantity + ?", item.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Omit("Product").Create(item).Error; err != nil {
				return err
			}
		}
		return tx.Preload("Product").
			Where("user_id = ? AND product_id = ?", item.UserID, item.ProductID).
			First(item).Error
	})
}

func (r *GormRepo) GetCartItem(ctx context.Context, userID, id uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.DB.WithContext(ctx).Preload("Product").
		Where("id = ? AND user_id = ?", id, userID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) UpdateCartQuantity(ctx context.Context, userID, id uuid.UUID, qty int) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("id = ? AND user_id = ?", id, userID).
			Update("quantity", qty)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Preload("Product").Where("id = ?", id).First(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) DeleteCartItem(ctx context.Context, userID, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func clearCart(tx *gorm.DB, userID uuid.UUID) error {
	return tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
