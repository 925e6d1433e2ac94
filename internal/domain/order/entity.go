// internal/domain/order/entity.go
package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order status values
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
	StatusRefunded   = "refunded"
)

// Payment status values
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// Order represents a completed purchase
type Order struct {
	ID            string          `gorm:"primaryKey;size:36" json:"id"`
	OrderNumber   string          `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	UserID        *string         `gorm:"size:36;index" json:"user_id"`
	Email         string          `gorm:"not null;size:255" json:"email"`
	Status        string          `gorm:"not null;size:50;default:'pending';index" json:"status"`
	PaymentStatus string          `gorm:"not null;size:50;default:'pending'" json:"payment_status"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	Tax           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"tax"`
	Shipping      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"shipping"`
	Total         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	CurrencyCode  string          `gorm:"size:3;default:'USD'" json:"currency_code"`
	PaymentID     string          `gorm:"size:255" json:"payment_id,omitempty"`
	PaymentMethod string          `gorm:"size:100" json:"payment_method,omitempty"`
	ShippingAddr  string          `gorm:"type:text" json:"shipping_address,omitempty"`
	BillingAddr   string          `gorm:"type:text" json:"billing_address,omitempty"`
	Notes         string          `gorm:"type:text" json:"notes,omitempty"`
	ShippedAt     *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt   *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// Relationships
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// OrderItem represents an immutable purchase line. Product and variant
// details are copied at checkout so later catalog edits do not rewrite
// order history.
type OrderItem struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OrderID       string          `gorm:"not null;size:36;index" json:"order_id"`
	VariantID     uint            `gorm:"not null;index" json:"variant_id"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	ProductTitle  string          `gorm:"not null;size:500" json:"product_title"`
	VariantTitle  string          `gorm:"size:255" json:"variant_title"`
	ProductHandle string          `gorm:"size:255" json:"product_handle"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TableName overrides
func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }

// BeforeCreate assigns a UUID primary key
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// Business methods

// CanCancel checks whether the order can still be cancelled
func (o *Order) CanCancel() bool {
	return o.Status != StatusShipped && o.Status != StatusDelivered && o.Status != StatusCancelled
}

// IsPaid checks whether the order has been paid
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentPaid
}

// TotalQuantity returns the sum of all line quantities
func (o *Order) TotalQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// ValidStatus reports whether s is a recognized order status
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped,
		StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// ValidPaymentStatus reports whether s is a recognized payment status
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}
