package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryFashion     Category = "fashion"
	CategoryHome        Category = "home"
	CategoryAccessories Category = "accessories"

	// CategoryAll is a filter value only.
	CategoryAll Category = "all"
)

var Categories = []Category{CategoryElectronics, CategoryFashion, CategoryHome, CategoryAccessories}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

type Product struct {
	ID            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	Description   *string          `json:"description,omitempty"`
	Category      Category         `json:"category"`
	Brand         *string          `json:"brand,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	ImageURL      *string          `json:"imageUrl,omitempty"`
	Stock         int              `json:"stock"`
	Rating        decimal.Decimal  `json:"rating"`
	ReviewCount   int              `json:"reviewCount"`
	IsActive      bool             `json:"isActive"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// LowStockThreshold is the stock level below which an in-stock product counts as running low.
const LowStockThreshold = 10

func (p Product) InStock() bool { return p.Stock > 0 }

func (p Product) LowStock() bool { return p.InStock() && p.Stock < LowStockThreshold }

type Review struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	UserID    uuid.UUID `json:"userId"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type CartLineItem struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
	Product   Product   `json:"product"`
}

// CartSnapshot is never mutated after it is published.
type CartSnapshot struct {
	Items     []CartLineItem `json:"items"`
	Version   uint64         `json:"version"`
	FetchedAt time.Time      `json:"fetchedAt"`
}

func (s CartSnapshot) Empty() bool { return len(s.Items) == 0 }

func (s CartSnapshot) Find(lineItemID uuid.UUID) (CartLineItem, bool) {
	for _, it := range s.Items {
		if it.ID == lineItemID {
			return it, true
		}
	}
	return CartLineItem{}, false
}

const DefaultCountry = "US"

type ShippingAddress struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	City      string `json:"city"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
}

func NewShippingAddress() ShippingAddress {
	return ShippingAddress{Country: DefaultCountry}
}

// Complete reports whether every field is non-empty after trimming whitespace.
func (a ShippingAddress) Complete() bool {
	for _, v := range []string{a.FirstName, a.LastName, a.Email, a.Address, a.City, a.ZipCode, a.Country} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// Next returns the forward status in the fulfilment chain, false for terminal states.
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case OrderPending:
		return OrderProcessing, true
	case OrderProcessing:
		return OrderShipped, true
	case OrderShipped:
		return OrderDelivered, true
	}
	return s, false
}

type OrderItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"userId"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Status          OrderStatus     `json:"status"`
	Total           decimal.Decimal `json:"total"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type CreateOrderRequest struct {
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Items           []OrderItem     `json:"items"`
}

type AddToCartRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// ProductInput is the create/update payload; absent optionals are nil.
type ProductInput struct {
	Name          string           `json:"name"`
	Description   *string          `json:"description"`
	Category      Category         `json:"category"`
	Brand         *string          `json:"brand"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice"`
	ImageURL      *string          `json:"imageUrl"`
	Stock         int              `json:"stock"`
	IsActive      *bool            `json:"isActive,omitempty"`
}
