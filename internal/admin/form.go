package admin

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
)

var ErrValidation = errors.New("invalid product")

// ProductForm holds the values exactly as typed into the product editor.
type ProductForm struct {
	Name          string `json:"name" form:"name"`
	Description   string `json:"description" form:"description"`
	Price         string `json:"price" form:"price"`
	OriginalPrice string `json:"originalPrice" form:"originalPrice"`
	ImageURL      string `json:"imageUrl" form:"imageUrl"`
	Category      string `json:"category" form:"category"`
	Brand         string `json:"brand" form:"brand"`
	Stock         string `json:"stock" form:"stock"`
}

// FormFromProduct pre-fills the editor for an existing product.
func FormFromProduct(p models.Product) ProductForm {
	f := ProductForm{
		Name:     p.Name,
		Price:    p.Price.StringFixed(2),
		Category: string(p.Category),
		Stock:    strconv.Itoa(p.Stock),
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.OriginalPrice != nil {
		f.OriginalPrice = p.OriginalPrice.StringFixed(2)
	}
	if p.ImageURL != nil {
		f.ImageURL = *p.ImageURL
	}
	if p.Brand != nil {
		f.Brand = *p.Brand
	}
	return f
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func fieldErr(field, msg string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, msg)
}

// Validate converts the form into a create/update payload. Every problem is
// reported; each joined error matches ErrValidation.
func (f ProductForm) Validate() (models.ProductInput, error) {
	var errs []error
	in := models.ProductInput{
		Name:        strings.TrimSpace(f.Name),
		Description: optional(f.Description),
		Brand:       optional(f.Brand),
		ImageURL:    optional(f.ImageURL),
		Category:    models.Category(strings.TrimSpace(f.Category)),
	}

	if in.Name == "" {
		errs = append(errs, fieldErr("name", "is required"))
	}

	switch price := strings.TrimSpace(f.Price); {
	case price == "":
		errs = append(errs, fieldErr("price", "is required"))
	default:
		d, err := decimal.NewFromString(price)
		if err != nil || d.IsNegative() {
			errs = append(errs, fieldErr("price", "must be a non-negative amount"))
		} else {
			in.Price = d
		}
	}

	if in.Category == "" {
		errs = append(errs, fieldErr("category", "is required"))
	} else if !in.Category.Valid() {
		errs = append(errs, fieldErr("category", "is unknown"))
	}

	if op := optional(f.OriginalPrice); op != nil {
		d, err := decimal.NewFromString(*op)
		if err != nil || d.IsNegative() {
			errs = append(errs, fieldErr("originalPrice", "must be a non-negative amount"))
		} else {
			in.OriginalPrice = &d
		}
	}

	if s := strings.TrimSpace(f.Stock); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			errs = append(errs, fieldErr("stock", "must be a non-negative whole number"))
		} else {
			in.Stock = n
		}
	}

	if len(errs) > 0 {
		return models.ProductInput{}, errors.Join(errs...)
	}
	return in, nil
}
