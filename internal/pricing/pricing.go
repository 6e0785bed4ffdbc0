// Package pricing derives the cart's money breakdown from a snapshot. It performs no I/O.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
)

var (
	TaxRate               = decimal.RequireFromString("0.08")
	FreeShippingThreshold = decimal.RequireFromString("50.00")
	FlatShippingFee       = decimal.RequireFromString("9.99")

	cent = decimal.RequireFromString("0.01")
)

type Breakdown struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

type Display struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Shipping string `json:"shipping"`
	Total    string `json:"total"`
}

func (b Breakdown) Display() Display {
	return Display{
		Subtotal: b.Subtotal.StringFixed(2),
		Tax:      b.Tax.StringFixed(2),
		Shipping: b.Shipping.StringFixed(2),
		Total:    b.Total.StringFixed(2),
	}
}

func LineTotal(item models.CartLineItem) decimal.Decimal {
	return item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

func Subtotal(items []models.CartLineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(LineTotal(it))
	}
	return sum.Round(2)
}

func Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FlatShippingFee
}

// Calculate rounds tax to cents first and sums the rounded parts, so
// Total == Subtotal + Tax + Shipping holds exactly.
func Calculate(snap models.CartSnapshot) Breakdown {
	subtotal := Subtotal(snap.Items)
	tax := subtotal.Mul(TaxRate).Round(2)
	shipping := Shipping(subtotal)
	return Breakdown{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}

func ItemCount(snap models.CartSnapshot) int {
	n := 0
	for _, it := range snap.Items {
		n += it.Quantity
	}
	return n
}

// RemainingForFreeShipping is the smallest amount that pushes the subtotal
// strictly past the free-shipping threshold, zero once shipping is free.
func RemainingForFreeShipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FreeShippingThreshold.Sub(subtotal).Add(cent)
}
