package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID            uuid.UUID           `gorm:"type:uuid;primaryKey"`
	Name          string              `gorm:"not null"`
	Description   *string
	Category      string              `gorm:"index;not null"`
	Brand         *string
	Price         decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	OriginalPrice decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	ImageURL      *string
	Stock         int             `gorm:"not null;check:stock >= 0"`
	Rating        decimal.Decimal `gorm:"type:numeric(2,1);not null"`
	ReviewCount   int             `gorm:"not null"`
	IsActive      bool            `gorm:"not null;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type Review struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"type:uuid;index;not null"`
	UserID    uuid.UUID `gorm:"type:uuid;not null"`
	Rating    int       `gorm:"not null;check:rating BETWEEN 1 AND 5"`
	Comment   *string
	CreatedAt time.Time
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_product;not null"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_product;not null"`
	Quantity  int       `gorm:"not null;check:quantity > 0"`
	Product   Product   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (CartItem) TableName() string {
	return "cart_items"
}

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

type ShippingAddress struct {
	FirstName string `gorm:"not null"`
	LastName  string `gorm:"not null"`
	Email     string `gorm:"not null"`
	Address   string `gorm:"not null"`
	City      string `gorm:"not null"`
	ZipCode   string `gorm:"not null"`
	Country   string `gorm:"not null"`
}

type Order struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID       `gorm:"type:uuid;index;uniqueIndex:idx_user_idempotency;not null"`
	IdempotencyKey *string         `gorm:"uniqueIndex:idx_user_idempotency"`
	Status         string          `gorm:"not null"`
	Subtotal       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Tax            decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Shipping       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Total          decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Address        ShippingAddress `gorm:"embedded;embeddedPrefix:ship_"`
	Items          []OrderItem     `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time       `gorm:"index"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type OrderItem struct {
	ID        uint            `gorm:"primaryKey"`
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity  int             `gorm:"not null;check:quantity > 0"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
}

// All lists the tables the store API migrates at startup.
func All() []any {
	return []any{&Product{}, &Review{}, &CartItem{}, &Order{}, &OrderItem{}}
}
