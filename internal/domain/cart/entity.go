// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

// Cart represents an ephemeral pre-purchase selection
type Cart struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	UserID       *string   `gorm:"size:36;index" json:"user_id"` // Nullable for guest carts
	SessionID    string    `gorm:"size:255;index" json:"session_id"`
	CurrencyCode string    `gorm:"size:3;default:'USD'" json:"currency_code"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relationships
	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// CartItem represents a (cart, variant, quantity) line
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    string    `gorm:"not null;size:36;index" json:"cart_id"`
	VariantID uint      `gorm:"not null;index" json:"variant_id"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Variant *product.ProductVariant `gorm:"foreignKey:VariantID" json:"variant,omitempty"`
}

// TableName overrides
func (Cart) TableName() string     { return "carts" }
func (CartItem) TableName() string { return "cart_items" }

// BeforeCreate assigns a UUID primary key
func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Business methods for Cart

// TotalQuantity returns the sum of all line quantities
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// SubtotalAmount returns the sum of all line totals. Items must be
// loaded with their variants.
func (c *Cart) SubtotalAmount() decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range c.Items {
		subtotal = subtotal.Add(item.TotalAmount())
	}
	return subtotal
}

// Business methods for CartItem

// TotalAmount returns price x quantity for the line, zero if the
// variant is not loaded.
func (i *CartItem) TotalAmount() decimal.Decimal {
	if i.Variant == nil {
		return decimal.Zero
	}
	return i.Variant.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
