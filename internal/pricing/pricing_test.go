package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
)

func line(price string, qty int) models.CartLineItem {
	return models.CartLineItem{
		Quantity: qty,
		Product:  models.Product{Price: decimal.RequireFromString(price)},
	}
}

func snap(items ...models.CartLineItem) models.CartSnapshot {
	return models.CartSnapshot{Items: items}
}

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		snap models.CartSnapshot
		want Display
	}{
		{
			name: "free shipping over threshold",
			snap: snap(line("29.99", 2)),
			want: Display{Subtotal: "59.98", Tax: "4.80", Shipping: "0.00", Total: "64.78"},
		},
		{
			name: "flat shipping under threshold",
			snap: snap(line("10.00", 1)),
			want: Display{Subtotal: "10.00", Tax: "0.80", Shipping: "9.99", Total: "20.79"},
		},
		{
			name: "empty cart still charges shipping",
			snap: snap(),
			want: Display{Subtotal: "0.00", Tax: "0.00", Shipping: "9.99", Total: "9.99"},
		},
		{
			name: "exactly at threshold is charged",
			snap: snap(line("25.00", 2)),
			want: Display{Subtotal: "50.00", Tax: "4.00", Shipping: "9.99", Total: "63.99"},
		},
		{
			name: "one cent past threshold is free",
			snap: snap(line("50.01", 1)),
			want: Display{Subtotal: "50.01", Tax: "4.00", Shipping: "0.00", Total: "54.01"},
		},
		{
			name: "mixed lines",
			snap: snap(line("19.99", 1), line("5.25", 3)),
			want: Display{Subtotal: "35.74", Tax: "2.86", Shipping: "9.99", Total: "48.59"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Calculate(tt.snap)
			assert.Equal(t, tt.want, got.Display())
		})
	}
}

func TestTotalIsSumOfParts(t *testing.T) {
	t.Parallel()

	prices := []string{"0.01", "0.99", "1.05", "3.33", "12.49", "17.77", "49.99", "199.95"}
	for _, p := range prices {
		for qty := 1; qty <= 7; qty++ {
			b := Calculate(snap(line(p, qty)))
			require.True(t, b.Total.Equal(b.Subtotal.Add(b.Tax).Add(b.Shipping)), "price %s qty %d", p, qty)
			require.True(t, b.Tax.Equal(b.Tax.Round(2)), "tax must be whole cents")
		}
	}
}

func TestTaxRoundsToCents(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0.80", Calculate(snap(line("10.06", 1))).Tax.StringFixed(2))
	assert.Equal(t, "0.81", Calculate(snap(line("10.07", 1))).Tax.StringFixed(2))
}

func TestItemCountAndLineTotal(t *testing.T) {
	t.Parallel()

	s := snap(line("2.50", 3), line("1.00", 4))
	assert.Equal(t, 7, ItemCount(s))
	assert.Equal(t, "7.50", LineTotal(s.Items[0]).StringFixed(2))
	assert.Equal(t, 0, ItemCount(snap()))
}

func TestRemainingForFreeShipping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		subtotal string
		want     string
	}{
		{"0.00", "50.01"},
		{"10.00", "40.01"},
		{"50.00", "0.01"},
		{"50.01", "0.00"},
		{"64.78", "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.subtotal, func(t *testing.T) {
			t.Parallel()
			sub := decimal.RequireFromString(tt.subtotal)
			got := RemainingForFreeShipping(sub)
			assert.Equal(t, tt.want, got.StringFixed(2))
			if got.IsPositive() {
				assert.True(t, Shipping(sub.Add(got)).IsZero())
			}
		})
	}
}
