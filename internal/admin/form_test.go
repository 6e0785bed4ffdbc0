package admin

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		form    ProductForm
		wantErr bool
		check   func(t *testing.T, in models.ProductInput)
	}{
		{
			name: "minimal form normalizes optionals to nil",
			form: ProductForm{Name: "Lamp", Price: "29.99", Category: "home"},
			check: func(t *testing.T, in models.ProductInput) {
				assert.Nil(t, in.Description)
				assert.Nil(t, in.Brand)
				assert.Nil(t, in.ImageURL)
				assert.Nil(t, in.OriginalPrice)
				assert.Equal(t, 0, in.Stock)
				assert.True(t, in.Price.Equal(decimal.RequireFromString("29.99")))
			},
		},
		{
			name: "full form",
			form: ProductForm{Name: " Lamp ", Description: "Warm light", Price: "29.99", OriginalPrice: "39.99",
				ImageURL: "https://img/lamp.png", Category: "home", Brand: "Lumen", Stock: "12"},
			check: func(t *testing.T, in models.ProductInput) {
				assert.Equal(t, "Lamp", in.Name)
				require.NotNil(t, in.Description)
				assert.Equal(t, "Warm light", *in.Description)
				require.NotNil(t, in.OriginalPrice)
				assert.Equal(t, "39.99", in.OriginalPrice.StringFixed(2))
				assert.Equal(t, 12, in.Stock)
			},
		},
		{name: "missing name", form: ProductForm{Price: "1", Category: "home"}, wantErr: true},
		{name: "missing price", form: ProductForm{Name: "x", Category: "home"}, wantErr: true},
		{name: "missing category", form: ProductForm{Name: "x", Price: "1"}, wantErr: true},
		{name: "negative price", form: ProductForm{Name: "x", Price: "-1", Category: "home"}, wantErr: true},
		{name: "price not a number", form: ProductForm{Name: "x", Price: "cheap", Category: "home"}, wantErr: true},
		{name: "unknown category", form: ProductForm{Name: "x", Price: "1", Category: "toys"}, wantErr: true},
		{name: "all is not a category", form: ProductForm{Name: "x", Price: "1", Category: "all"}, wantErr: true},
		{name: "negative stock", form: ProductForm{Name: "x", Price: "1", Category: "home", Stock: "-3"}, wantErr: true},
		{name: "fractional stock", form: ProductForm{Name: "x", Price: "1", Category: "home", Stock: "1.5"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in, err := tt.form.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			tt.check(t, in)
		})
	}
}

func TestValidateReportsEveryField(t *testing.T) {
	t.Parallel()

	_, err := ProductForm{}.Validate()
	require.Error(t, err)

	var joined interface{ Unwrap() []error }
	require.True(t, errors.As(err, &joined))
	assert.Len(t, joined.Unwrap(), 3)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "price is required")
	assert.Contains(t, err.Error(), "category is required")
}

func TestFormFromProductRoundTrips(t *testing.T) {
	t.Parallel()

	brand := "Lumen"
	p := models.Product{Name: "Lamp", Price: decimal.RequireFromString("29.9"), Category: models.CategoryHome, Brand: &brand, Stock: 4}
	f := FormFromProduct(p)
	assert.Equal(t, "29.90", f.Price)
	assert.Equal(t, "", f.Description)
	assert.Equal(t, "4", f.Stock)

	in, err := f.Validate()
	require.NoError(t, err)
	require.NotNil(t, in.Brand)
	assert.Equal(t, "Lumen", *in.Brand)
}
