// internal/domain/order/service.go
package order

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/pkg/errors"
	"gorm.io/gorm"
)

const orderNumberAttempts = 3

// Service handles order business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateOrderRequest represents checkout data. The billing address is
// optional and falls back to the shipping address.
type CreateOrderRequest struct {
	CartID          string  `json:"cart_id" binding:"required"`
	Email           string  `json:"email" binding:"required,email"`
	UserID          *string `json:"user_id,omitempty"`
	ShippingAddress string  `json:"shipping_address" binding:"required"`
	BillingAddress  string  `json:"billing_address,omitempty"`
	PaymentMethod   string  `json:"payment_method,omitempty"`
	Notes           string  `json:"notes,omitempty"`
}

// UpdateStatusRequest represents an order status change
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdatePaymentStatusRequest represents a payment status change
type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
	PaymentID     string `json:"payment_id,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

// OrderListResponse represents a paginated order list
type OrderListResponse struct {
	Orders  []Order `json:"orders"`
	Total   int64   `json:"total"`
	Page    int     `json:"page"`
	PerPage int     `json:"per_page"`
	Pages   int     `json:"pages"`
}

// CreateOrderFromCart converts a cart into an order. The whole workflow
// runs in one transaction: every line is validated before any write,
// inventory is decremented with a guarded update, and the cart is
// emptied only once the order exists. A concurrent checkout that loses
// the race on stock rolls the entire order back.
func (s *Service) CreateOrderFromCart(req *CreateOrderRequest) (*Order, error) {
	if req.ShippingAddress == "" {
		return nil, errors.Validation("shipping address is required")
	}

	billingAddress := req.BillingAddress
	if billingAddress == "" {
		billingAddress = req.ShippingAddress
	}

	var orderID string

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var c cart.Cart
		result := tx.Preload("Items.Variant.Product").Where("id = ?", req.CartID).First(&c)
		if result.Error != nil {
			if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
				return errors.NotFound("cart '%s' not found", req.CartID)
			}
			return errors.Internal(result.Error, "failed to retrieve cart")
		}

		if len(c.Items) == 0 {
			return errors.Validation("cart is empty")
		}

		// Validate every line before touching inventory
		for _, item := range c.Items {
			if item.Variant == nil {
				return errors.Validation("product variant %d no longer exists", item.VariantID)
			}
			if !item.Variant.AvailableForSale {
				return errors.Validation("product variant %d is not available for sale", item.VariantID)
			}
			if item.Variant.InventoryQuantity < item.Quantity {
				return errors.Validation("insufficient inventory for variant %d. Available: %d, Requested: %d",
					item.VariantID, item.Variant.InventoryQuantity, item.Quantity)
			}
		}

		subtotal := c.SubtotalAmount()
		tax := subtotal.Mul(s.config.Checkout.TaxRate).Round(2)
		shipping := s.shippingFor(subtotal)
		total := subtotal.Add(tax).Add(shipping)

		userID := req.UserID
		if userID == nil {
			userID = c.UserID
		}

		newOrder := Order{
			Email:         req.Email,
			UserID:        userID,
			Status:        StatusPending,
			PaymentStatus: PaymentPending,
			Subtotal:      subtotal,
			Tax:           tax,
			Shipping:      shipping,
			Total:         total,
			CurrencyCode:  c.CurrencyCode,
			PaymentMethod: req.PaymentMethod,
			ShippingAddr:  req.ShippingAddress,
			BillingAddr:   billingAddress,
			Notes:         req.Notes,
		}

		if err := s.createWithOrderNumber(tx, &newOrder); err != nil {
			return err
		}

		for _, item := range c.Items {
			orderItem := OrderItem{
				OrderID:      newOrder.ID,
				VariantID:    item.VariantID,
				Quantity:     item.Quantity,
				Price:        item.Variant.Price,
				TotalAmount:  item.TotalAmount(),
				VariantTitle: item.Variant.Title,
			}
			if item.Variant.Product != nil {
				orderItem.ProductTitle = item.Variant.Product.Title
				orderItem.ProductHandle = item.Variant.Product.Handle
			}
			if err := tx.Create(&orderItem).Error; err != nil {
				return errors.Internal(err, "failed to create order item")
			}

			// Guarded decrement: the WHERE clause re-checks stock so two
			// concurrent checkouts cannot both take the last units.
			res := tx.Model(&product.ProductVariant{}).
				Where("id = ? AND inventory_quantity >= ?", item.VariantID, item.Quantity).
				Update("inventory_quantity", gorm.Expr("inventory_quantity - ?", item.Quantity))
			if res.Error != nil {
				return errors.Internal(res.Error, "failed to decrement inventory")
			}
			if res.RowsAffected == 0 {
				return errors.Validation("insufficient inventory for variant %d", item.VariantID)
			}
		}

		if err := tx.Where("cart_id = ?", c.ID).Delete(&cart.CartItem{}).Error; err != nil {
			return errors.Internal(err, "failed to clear cart")
		}

		orderID = newOrder.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrder(orderID)
}

// GetOrder retrieves an order with its items
func (s *Service) GetOrder(orderID string) (*Order, error) {
	var o Order
	result := s.db.Preload("Items").Where("id = ?", orderID).First(&o)
	if result.Error != nil {
		if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("order '%s' not found", orderID)
		}
		return nil, errors.Internal(result.Error, "failed to retrieve order")
	}

	return &o, nil
}

// GetOrderByNumber retrieves an order by its public order number
func (s *Service) GetOrderByNumber(orderNumber string) (*Order, error) {
	var o Order
	result := s.db.Preload("Items").Where("order_number = ?", orderNumber).First(&o)
	if result.Error != nil {
		if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("order '%s' not found", orderNumber)
		}
		return nil, errors.Internal(result.Error, "failed to retrieve order")
	}

	return &o, nil
}

// GetUserOrders lists a user's orders, newest first
func (s *Service) GetUserOrders(userID string, page, perPage int) (*OrderListResponse, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := s.db.Model(&Order{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, errors.Internal(err, "failed to count orders")
	}

	var orders []Order
	offset := (page - 1) * perPage
	if err := query.Preload("Items").
		Order("created_at DESC").
		Offset(offset).Limit(perPage).
		Find(&orders).Error; err != nil {
		return nil, errors.Internal(err, "failed to retrieve orders")
	}

	pages := int((total + int64(perPage) - 1) / int64(perPage))

	return &OrderListResponse{
		Orders:  orders,
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   pages,
	}, nil
}

// UpdateOrderStatus sets the order status and stamps shipment timestamps
func (s *Service) UpdateOrderStatus(orderID string, req *UpdateStatusRequest) (*Order, error) {
	if !ValidStatus(req.Status) {
		return nil, errors.Validation("invalid order status '%s'", req.Status)
	}

	o, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"status": req.Status}
	now := time.Now()
	switch req.Status {
	case StatusShipped:
		if o.ShippedAt == nil {
			updates["shipped_at"] = now
		}
	case StatusDelivered:
		if o.DeliveredAt == nil {
			updates["delivered_at"] = now
		}
	}

	if err := s.db.Model(o).Updates(updates).Error; err != nil {
		return nil, errors.Internal(err, "failed to update order status")
	}

	return s.GetOrder(orderID)
}

// UpdatePaymentStatus sets the payment status. A payment marked paid
// while the order is still pending confirms the order.
func (s *Service) UpdatePaymentStatus(orderID string, req *UpdatePaymentStatusRequest) (*Order, error) {
	if !ValidPaymentStatus(req.PaymentStatus) {
		return nil, errors.Validation("invalid payment status '%s'", req.PaymentStatus)
	}

	o, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"payment_status": req.PaymentStatus}
	if req.PaymentID != "" {
		updates["payment_id"] = req.PaymentID
	}
	if req.PaymentMethod != "" {
		updates["payment_method"] = req.PaymentMethod
	}
	if req.PaymentStatus == PaymentPaid && o.Status == StatusPending {
		updates["status"] = StatusConfirmed
	}

	if err := s.db.Model(o).Updates(updates).Error; err != nil {
		return nil, errors.Internal(err, "failed to update payment status")
	}

	return s.GetOrder(orderID)
}

// CancelOrder cancels the order and restores the reserved inventory
func (s *Service) CancelOrder(orderID string) (*Order, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var o Order
		result := tx.Preload("Items").Where("id = ?", orderID).First(&o)
		if result.Error != nil {
			if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
				return errors.NotFound("order '%s' not found", orderID)
			}
			return errors.Internal(result.Error, "failed to retrieve order")
		}

		if !o.CanCancel() {
			return errors.Validation("order in status '%s' cannot be cancelled", o.Status)
		}

		for _, item := range o.Items {
			if err := tx.Model(&product.ProductVariant{}).
				Where("id = ?", item.VariantID).
				Update("inventory_quantity", gorm.Expr("inventory_quantity + ?", item.Quantity)).Error; err != nil {
				return errors.Internal(err, "failed to restore inventory")
			}
		}

		if err := tx.Model(&o).Update("status", StatusCancelled).Error; err != nil {
			return errors.Internal(err, "failed to cancel order")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrder(orderID)
}

// Private helper methods

// createWithOrderNumber inserts the order, regenerating the order
// number on a unique collision. Each attempt runs in a nested
// transaction so the enclosing one survives the failed insert.
func (s *Service) createWithOrderNumber(tx *gorm.DB, o *Order) error {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		o.OrderNumber = generateOrderNumber()
		err := tx.Transaction(func(inner *gorm.DB) error {
			return inner.Create(o).Error
		})
		if err == nil {
			return nil
		}
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			o.ID = ""
			continue
		}
		return errors.Internal(err, "failed to create order")
	}
	return errors.Conflict("could not generate a unique order number")
}

// generateOrderNumber builds a human-readable order reference,
// e.g. ORD-20260831-4F9C21AB.
func generateOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), suffix)
}

// shippingFor applies the flat-rate policy with a free-shipping threshold
func (s *Service) shippingFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(s.config.Checkout.FreeShippingThreshold) {
		return decimal.Zero
	}
	return s.config.Checkout.FlatShippingRate
}
