package transport

import (
	"github.com/shopspring/decimal"

	wire "github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/services/storeapi/internal/models"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func Product(p models.Product) wire.Product {
	out := wire.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    wire.Category(p.Category),
		Brand:       p.Brand,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		Stock:       p.Stock,
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
	}
	if p.OriginalPrice.Valid {
		op := p.OriginalPrice.Decimal
		out.OriginalPrice = &op
	}
	return out
}

func Products(ps []models.Product) []wire.Product {
	out := make([]wire.Product, 0, len(ps))
	for _, p := range ps {
		out = append(out, Product(p))
	}
	return out
}

// ApplyProductInput copies a validated payload onto the stored product.
func ApplyProductInput(p *models.Product, in wire.ProductInput) {
	p.Name = in.Name
	p.Description = in.Description
	p.Category = string(in.Category)
	p.Brand = in.Brand
	p.Price = in.Price
	p.ImageURL = in.ImageURL
	p.Stock = in.Stock
	p.OriginalPrice = decimal.NullDecimal{}
	if in.OriginalPrice != nil {
		p.OriginalPrice = decimal.NewNullDecimal(*in.OriginalPrice)
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

func Review(r models.Review) wire.Review {
	return wire.Review{
		ID: r.ID, ProductID: r.ProductID, UserID: r.UserID,
		Rating: r.Rating, Comment: r.Comment, CreatedAt: r.CreatedAt,
	}
}

func Reviews(rs []models.Review) []wire.Review {
	out := make([]wire.Review, 0, len(rs))
	for _, r := range rs {
		out = append(out, Review(r))
	}
	return out
}

func CartItem(c models.CartItem) wire.CartLineItem {
	return wire.CartLineItem{
		ID:        c.ID,
		UserID:    c.UserID,
		ProductID: c.ProductID,
		Quantity:  c.Quantity,
		Product:   Product(c.Product),
	}
}

func CartItems(items []models.CartItem) []wire.CartLineItem {
	out := make([]wire.CartLineItem, 0, len(items))
	for _, it := range items {
		out = append(out, CartItem(it))
	}
	return out
}

func ShippingAddress(a models.ShippingAddress) wire.ShippingAddress {
	return wire.ShippingAddress{
		FirstName: a.FirstName, LastName: a.LastName, Email: a.Email,
		Address: a.Address, City: a.City, ZipCode: a.ZipCode, Country: a.Country,
	}
}

func StoredAddress(a wire.ShippingAddress) models.ShippingAddress {
	return models.ShippingAddress{
		FirstName: a.FirstName, LastName: a.LastName, Email: a.Email,
		Address: a.Address, City: a.City, ZipCode: a.ZipCode, Country: a.Country,
	}
}

func Order(o models.Order) wire.Order {
	items := make([]wire.OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, wire.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	return wire.Order{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           items,
		ShippingAddress: ShippingAddress(o.Address),
		Status:          wire.OrderStatus(o.Status),
		Total:           o.Total,
		CreatedAt:       o.CreatedAt,
	}
}

func Orders(os []models.Order) []wire.Order {
	out := make([]wire.Order, 0, len(os))
	for _, o := range os {
		out = append(out, Order(o))
	}
	return out
}
