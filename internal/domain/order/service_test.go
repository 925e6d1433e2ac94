package order

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&product.Product{}, &product.ProductVariant{}, &product.ProductImage{}, &product.Collection{},
		&cart.Cart{}, &cart.CartItem{},
		&Order{}, &OrderItem{},
	))

	return db
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Checkout = config.CheckoutConfig{
		TaxRate:               decimal.RequireFromString("0.10"),
		FlatShippingRate:      decimal.RequireFromString("5.99"),
		FreeShippingThreshold: decimal.RequireFromString("50.00"),
		DefaultCurrency:       "USD",
	}
	return cfg
}

// seedVariant creates a product with one variant and returns the variant
func seedVariant(t *testing.T, db *gorm.DB, sku, price string, stock int) *product.ProductVariant {
	t.Helper()

	p := product.Product{
		Handle:           "product-" + sku,
		Title:            "Product " + sku,
		AvailableForSale: true,
		Variants: []product.ProductVariant{
			{Title: "Default", Price: decimal.RequireFromString(price), SKU: sku, InventoryQuantity: stock, AvailableForSale: true},
		},
	}
	require.NoError(t, db.Create(&p).Error)
	return &p.Variants[0]
}

// seedCart creates a cart holding the given (variant, quantity) lines
func seedCart(t *testing.T, db *gorm.DB, lines map[uint]int) *cart.Cart {
	t.Helper()

	c := cart.Cart{SessionID: "session-" + t.Name(), CurrencyCode: "USD"}
	require.NoError(t, db.Create(&c).Error)

	for variantID, quantity := range lines {
		item := cart.CartItem{CartID: c.ID, VariantID: variantID, Quantity: quantity}
		require.NoError(t, db.Create(&item).Error)
	}

	return &c
}

func variantStock(t *testing.T, db *gorm.DB, variantID uint) int {
	t.Helper()

	var v product.ProductVariant
	require.NoError(t, db.First(&v, variantID).Error)
	return v.InventoryQuantity
}

func TestCreateOrderFromCart(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testConfig())

	variant := seedVariant(t, db, "CHK-1", "20.00", 10)
	c := seedCart(t, db, map[uint]int{variant.ID: 2})

	o, err := svc.CreateOrderFromCart(&CreateOrderRequest{
		CartID:          c.ID,
		Email:           "buyer@example.com",
		ShippingAddress: "123 Main St",
	})
	require.NoError(t, err)

	// 40.00 subtotal, 10% tax, flat shipping under the threshold
	assert.True(t, o.Subtotal.Equal(decimal.RequireFromString("40.00")), "subtotal %s", o.Subtotal)
	assert.True(t, o.Tax.Equal(decimal.RequireFromString("4.00")), "tax %s", o.Tax)
	assert.True(t, o.Shipping.Equal(decimal.RequireFromString("5.99")), "shipping %s", o.Shipping)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("49.99")), "total %s", o.Total)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.Equal(t, "buyer@example.com", o.Email)
	assert.Equal(t, "USD", o.CurrencyCode)

	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.Equal(t, "Product CHK-1", o.Items[0].ProductTitle)
	assert.Equal(t, "Default", o.Items[0].VariantTitle)
	assert.True(t, o.Items[0].Price.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, o.Items[0].TotalAmount.Equal(decimal.RequireFromString("40.00")))

	// Inventory decremented and cart emptied
	assert.Equal(t, 8, variantStock(t, db, variant.ID))

	var remaining int64
	require.NoError(t, db.Model(&cart.CartItem{}).Where("cart_id = ?", c.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestCreateOrderBillingDefaultsToShipping(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testConfig())

	variant := seedVariant(t, db, "BILL-1", "10.00", 10)

	// No billing address: the shipping address is used for both
	c := seedCart(t, db, map[uint]int{variant.ID: 1})
	o, err := svc.CreateOrderFromCart(&CreateOrderRequest{
		CartID:          c.ID,
		Email:           "buyer@example.com",
		ShippingAddress: "123 Main St",
	})
	require.NoError(t, err)
	assert.Equal(t, "123 Main St", o.ShippingAddr)
	assert.Equal(t, "123 Main St", o.BillingAddr)

	// An explicit billing address is kept as given
	c2 := cart.Cart{SessionID: "session-billing-" + t.Name(), CurrencyCode: "USD"}
	require.NoError(t, db.Create(&c2).Error)
	item := cart.CartItem{CartID: c2.ID, VariantID: variant.ID, Quantity: 1}
	require.NoError(t, db.Create(&item).Error)

	o, err = svc.CreateOrderFromCart(&CreateOrderRequest{
		CartID:          c2.ID,
		Email:           "buyer@example.com",
		ShippingAddress: "123 Main St",
		BillingAddress:  "456 Billing Ave",
	})
	require.NoError(t, err)
	assert.Equal(t, "123 Main St", o.ShippingAddr)
	assert.Equal(t, "456 Billing Ave", o.BillingAddr)
}

func TestCreateOrderRequiresShippingAddress(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testConfig())

	variant := seedVariant(t, db, "NOSHIP-1", "10.00", 10)
	c := seedCart(t, db, map[uint]int{variant.ID: 1})

	_, err := svc.CreateOrderFromCart(&CreateOrderRequest{
		CartID: c.ID,
		Email:  "buyer@example.com",
	})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	// Nothing was created and no stock moved
	var orders int64
	require.NoError(t, db.Model(&Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
	assert.Equal(t, 10, variantStock(t, db, variant.ID))
}

func TestCreateOrderFreeShippingAtThreshold(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testConfig())

	variant := seedVariant(t, db, "FREE-1", "25.00", 10)
	c := seedCart(t, db, map[uint]int{variant.ID: 2})

	o, err := svc.CreateOrderFromCart(&CreateOrderRequest{CartID: c.ID, Email: "buyer@example.com", ShippingAddress: "1 Test Lane"})
	require.NoError(t, err)

	// 50.00 subtotal meets the threshold exactly
	assert.True(t, o.Shipping.IsZero(), "shipping %s", o.Shipping)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("55.00")), "total %s", o.Total)
}

func TestCreateOrderNumberFormat(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testConfig())

	variant := seedVariant(t, db, "NUM-1", "10.00", 10)
	c := seedCart(t, db, map[uint]int{variant.ID: 1})

	o, err := svc.CreateOrderFromCart(&CreateOrderRequest{CartID: c.ID, Email: "buyer@example.com", ShippingAddress: "1 Test Lane"})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^ORD-\d{8}-[0-9A-F]{8}$`), o.OrderNumber)

	found, err := svc.GetOrderByNumber(o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, o.ID, found.ID)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testConfig())

	c := seedCart(t, db, nil)

	_, err := svc.CreateOrderFromCart(&CreateOrderRequest{CartID: c.ID, Email: "buyer@example.com", ShippingAddress: "1 Test Lane"})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestCreateOrderMissingCart(t *testing.T) {
	svc := NewService(newTestDB(t), testConfig())

	_, err := svc.CreateOrderFromCart(&CreateOrderRequest{CartID: "no-such-cart", Email: "buyer@example.com", ShippingAddress: "1 Test Lane"})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestCreateOrderInsufficientStockRollsBackEverything(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testConfig())

	plenty := seedVariant(t, db, "ROLL-1", "10.00", 10)
	scarce := seedVariant(t, db, "ROLL-2", "10.00", 1)
	c := seedCart(t, db, map[uint]int{plenty.ID: 2, scarce.ID: 5})

	_, err := svc.CreateOrderFromCart(&CreateOrderRequest{CartID: c.ID, Email: "buyer@example.com", ShippingAddress: "1 Test Lane"})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	// No order, no stock movement, cart untouched
	var orders int64
	require.NoError(t, db.Model(&Order{}).Count(&orders).Error)
	assert.Zero(t, orders)

	assert.Equal(t, 10, variantStock(t, db, plenty.ID))
	assert.Equal(t, 1, variantStock(t, db, scarce.ID))

	var remaining int64
	require.NoError(t, db.Model(&cart.CartItem{}).Where("cart_id = ?", c.ID).Count(&remaining).Error)
	assert.Equal(t, int64(2), remaining)
}

func TestCreateOrderUnavailableVariant(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testConfig())

	variant := seedVariant(t, db, "OFF-1", "10.00", 10)
	require.NoError(t, db.Model(&product.ProductVariant{}).Where("id = ?", variant.ID).
		Update("available_for_sale", false).Error)
	c := seedCart(t, db, map[uint]int{variant.ID: 1})

	_, err := svc.CreateOrderFromCart(&CreateOrderRequest{CartID: c.ID, Email: "buyer@example.com", ShippingAddress: "1 Test Lane"})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestOrderItemsSnapshotCatalogState(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testConfig())

	variant := seedVariant(t, db, "SNAP-1", "30.00", 10)
	c := seedCart(t, db, map[uint]int{variant.ID: 1})

	o, err := svc.CreateOrderFromCart(&CreateOrderRequest{CartID: c.ID, Email: "buyer@example.com", ShippingAddress: "1 Test Lane"})
	require.NoError(t, err)

	// Later catalog edits must not rewrite order history
	require.NoError(t, db.Model(&product.Product{}).Where("id = ?", variant.ProductID).
		Update("title", "Renamed Product").Error)
	require.NoError(t, db.Model(&product.ProductVariant{}).Where("id = ?", variant.ID).
		Update("price", decimal.RequireFromString("99.99")).Error)

	reloaded, err := svc.GetOrder(o.ID)
	require.NoError(t, err)

	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, "Product SNAP-1", reloaded.Items[0].ProductTitle)
	assert.True(t, reloaded.Items[0].Price.Equal(decimal.RequireFromString("30.00")))
	assert.True(t, reloaded.Subtotal.Equal(decimal.RequireFromString("30.00")))
}

func TestGetUserOrders(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testConfig())

	userID := "11111111-1111-1111-1111-111111111111"
	variant := seedVariant(t, db, "USR-1", "10.00", 100)

	for i := 0; i < 3; i++ {
		c := seedCart(t, db, nil)
		item := cart.CartItem{CartID: c.ID, VariantID: variant.ID, Quantity: 1}
		require.NoError(t, db.Create(&item).Error)

		_, err := svc.CreateOrderFromCart(&CreateOrderRequest{
			CartID:          c.ID,
			Email:           "buyer@example.com",
			UserID:          &userID,
			ShippingAddress: "1 Test Lane",
		})
		require.NoError(t, err)
	}

	resp, err := svc.GetUserOrders(userID, 1, 2)
	require.NoError(t, err)

	assert.Equal(t, int64(3), resp.Total)
	assert.Len(t, resp.Orders, 2)
	assert.Equal(t, 2, resp.Pages)

	// Orders for someone else stay invisible
	resp, err = svc.GetUserOrders("22222222-2222-2222-2222-222222222222", 1, 20)
	require.NoError(t, err)
	assert.Zero(t, resp.Total)
}

func TestUpdateOrderStatusStampsTimestamps(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testConfig())

	variant := seedVariant(t, db, "SHIP-1", "10.00", 10)
	c := seedCart(t, db, map[uint]int{variant.ID: 1})

	o, err := svc.CreateOrderFromCart(&CreateOrderRequest{CartID: c.ID, Email: "buyer@example.com", ShippingAddress: "1 Test Lane"})
	require.NoError(t, err)
	assert.Nil(t, o.ShippedAt)

	shipped, err := svc.UpdateOrderStatus(o.ID, &UpdateStatusRequest{Status: StatusShipped})
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, shipped.Status)
	require.NotNil(t, shipped.ShippedAt)

	delivered, err := svc.UpdateOrderStatus(o.ID, &UpdateStatusRequest{Status: StatusDelivered})
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredAt)
	assert.Equal(t, shipped.ShippedAt.Unix(), delivered.ShippedAt.Unix())

	_, err = svc.UpdateOrderStatus(o.ID, &UpdateStatusRequest{Status: "bogus"})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestUpdatePaymentStatusConfirmsPendingOrder(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testConfig())

	variant := seedVariant(t, db, "PAY-1", "10.00", 10)
	c := seedCart(t, db, map[uint]int{variant.ID: 1})

	o, err := svc.CreateOrderFromCart(&CreateOrderRequest{CartID: c.ID, Email: "buyer@example.com", ShippingAddress: "1 Test Lane"})
	require.NoError(t, err)

	paid, err := svc.UpdatePaymentStatus(o.ID, &UpdatePaymentStatusRequest{
		PaymentStatus: PaymentPaid,
		PaymentID:     "pay_123",
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	assert.Equal(t, PaymentPaid, paid.PaymentStatus)
	assert.Equal(t, "pay_123", paid.PaymentID)
	assert.Equal(t, "card", paid.PaymentMethod)
	// Paid while pending auto-confirms
	assert.Equal(t, StatusConfirmed, paid.Status)

	_, err = svc.UpdatePaymentStatus(o.ID, &UpdatePaymentStatusRequest{PaymentStatus: "bogus"})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestUpdatePaymentStatusDoesNotTouchShippedOrder(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testConfig())

	variant := seedVariant(t, db, "PAY-2", "10.00", 10)
	c := seedCart(t, db, map[uint]int{variant.ID: 1})

	o, err := svc.CreateOrderFromCart(&CreateOrderRequest{CartID: c.ID, Email: "buyer@example.com", ShippingAddress: "1 Test Lane"})
	require.NoError(t, err)

	_, err = svc.UpdateOrderStatus(o.ID, &UpdateStatusRequest{Status: StatusShipped})
	require.NoError(t, err)

	paid, err := svc.UpdatePaymentStatus(o.ID, &UpdatePaymentStatusRequest{PaymentStatus: PaymentPaid})
	require.NoError(t, err)

	assert.Equal(t, StatusShipped, paid.Status)
	assert.Equal(t, PaymentPaid, paid.PaymentStatus)
}

func TestCancelOrderRestoresInventory(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testConfig())

	variant := seedVariant(t, db, "CXL-1", "10.00", 10)
	c := seedCart(t, db, map[uint]int{variant.ID: 3})

	o, err := svc.CreateOrderFromCart(&CreateOrderRequest{CartID: c.ID, Email: "buyer@example.com", ShippingAddress: "1 Test Lane"})
	require.NoError(t, err)
	assert.Equal(t, 7, variantStock(t, db, variant.ID))

	cancelled, err := svc.CancelOrder(o.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, 10, variantStock(t, db, variant.ID))

	// Cancelling twice is rejected, stock only restored once
	_, err = svc.CancelOrder(o.ID)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, 10, variantStock(t, db, variant.ID))
}

func TestCancelOrderRejectedAfterShipment(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testConfig())

	variant := seedVariant(t, db, "CXL-2", "10.00", 10)
	c := seedCart(t, db, map[uint]int{variant.ID: 1})

	o, err := svc.CreateOrderFromCart(&CreateOrderRequest{CartID: c.ID, Email: "buyer@example.com", ShippingAddress: "1 Test Lane"})
	require.NoError(t, err)

	_, err = svc.UpdateOrderStatus(o.ID, &UpdateStatusRequest{Status: StatusShipped})
	require.NoError(t, err)

	_, err = svc.CancelOrder(o.ID)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, 9, variantStock(t, db, variant.ID))
}

func TestCanCancel(t *testing.T) {
	assert.True(t, (&Order{Status: StatusPending}).CanCancel())
	assert.True(t, (&Order{Status: StatusConfirmed}).CanCancel())
	assert.True(t, (&Order{Status: StatusProcessing}).CanCancel())
	assert.False(t, (&Order{Status: StatusShipped}).CanCancel())
	assert.False(t, (&Order{Status: StatusDelivered}).CanCancel())
	assert.False(t, (&Order{Status: StatusCancelled}).CanCancel())
}
