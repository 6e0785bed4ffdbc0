package repo

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/services/storeapi/internal/models"
)

type ProductFilter struct {
	// Category empty means every category.
	Category        string
	IncludeInactive bool
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if !f.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}

	var items []models.Product
	if err := q.Order("created_at DESC").Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) (*models.Product, error) {
	if err := r.DB.WithContext(ctx).Create(prod).Error; err != nil {
		return nil, err
	}
	return prod, nil
}

// UpdateProduct loads the product, lets apply change it and saves it in one transaction.
func (r *GormRepo) UpdateProduct(ctx context.Context, id uuid.UUID, apply func(p *models.Product)) (*models.Product, error) {
	var prod models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&prod).Error; err != nil {
			return err
		}
		apply(&prod)
		return tx.Save(&prod).Error
	})
	if err != nil {
		return nil, err
	}
	return &prod, nil
}

// DeleteProduct also drops every cart line that references the product.
func (r *GormRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Product{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// CartOwners lists the users whose carts hold the product, so their cached carts can be dropped.
func (r *GormRepo) CartOwners(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error) {
	var owners []uuid.UUID
	if err := r.DB.WithContext(ctx).Model(&models.CartItem{}).
		Where("product_id = ?", productID).
		Distinct().Pluck("user_id", &owners).Error; err != nil {
		return nil, err
	}
	return owners, nil
}

func (r *GormRepo) ListReviews(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	var reviews []models.Review
	if err := r.DB.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

// AddReview stores the review and refreshes the product's rating aggregate.
func (r *GormRepo) AddReview(ctx context.Context, review *models.Review) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(review).Error; err != nil {
			return err
		}
		var agg struct {
			Count int
			Avg   float64
		}
		if err := tx.Model(&models.Review{}).
			Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS avg").
			Where("product_id = ?", review.ProductID).
			Scan(&agg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Product{}).Where("id = ?", review.ProductID).Updates(map[string]any{
			"review_count": agg.Count,
			"rating":       roundRating(agg.Avg),
		}).Error
	})
}

func roundRating(avg float64) decimal.Decimal {
	if math.IsNaN(avg) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(avg).Round(1)
}
