// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// Models returns all models in dependency order
func Models() []interface{} {
	return []interface{}{
		// Catalog - base tables
		&product.Product{},
		&product.ProductVariant{},
		&product.ProductImage{},
		&product.Collection{},

		// Cart domain
		&cart.Cart{},
		&cart.CartItem{},

		// Order domain - dependent tables
		&order.Order{},
		&order.OrderItem{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	for _, model := range Models() {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_available ON products(available_for_sale)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_vendor ON products(vendor)",

		// Variant indexes
		"CREATE INDEX IF NOT EXISTS idx_product_variants_product_available ON product_variants(product_id, available_for_sale)",
		"CREATE INDEX IF NOT EXISTS idx_product_variants_price ON product_variants(price)",

		// Cart indexes
		"CREATE INDEX IF NOT EXISTS idx_cart_items_cart_variant ON cart_items(cart_id, variant_id)",
		"CREATE INDEX IF NOT EXISTS idx_carts_updated_at ON carts(updated_at)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_email ON orders(email)",
	}

	for _, index := range indexes {
		if err := m.db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	log.Println("✅ Database indexes created successfully")
	return nil
}

// SeedInitialData seeds the database with a small catalog for development
func (m *Migration) SeedInitialData() error {
	log.Println("🔄 Seeding initial data...")

	var count int64
	if err := m.db.Model(&product.Product{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check existing products: %w", err)
	}
	if count > 0 {
		log.Println("Products already exist, skipping seed")
		return nil
	}

	apparel := product.Collection{
		Handle:      "apparel",
		Title:       "Apparel",
		Description: "Shirts, hoodies and more",
		Published:   true,
	}
	if err := m.db.Create(&apparel).Error; err != nil {
		return fmt.Errorf("failed to seed collection: %w", err)
	}

	products := []product.Product{
		{
			Handle:           "acme-t-shirt",
			Title:            "Acme T-Shirt",
			Description:      "Classic cotton tee",
			Vendor:           "Acme",
			ProductType:      "shirt",
			AvailableForSale: true,
			Variants: []product.ProductVariant{
				{Title: "S", Price: decimal.RequireFromString("20.00"), SKU: "ACME-TS-S", InventoryQuantity: 50, AvailableForSale: true},
				{Title: "M", Price: decimal.RequireFromString("20.00"), SKU: "ACME-TS-M", InventoryQuantity: 50, AvailableForSale: true},
				{Title: "L", Price: decimal.RequireFromString("22.00"), SKU: "ACME-TS-L", InventoryQuantity: 30, AvailableForSale: true},
			},
			Images: []product.ProductImage{
				{URL: "https://cdn.example.com/acme-t-shirt.png", AltText: "Acme T-Shirt", Position: 1},
			},
			Collections: []product.Collection{apparel},
		},
		{
			Handle:           "acme-hoodie",
			Title:            "Acme Hoodie",
			Description:      "Heavyweight fleece hoodie",
			Vendor:           "Acme",
			ProductType:      "hoodie",
			AvailableForSale: true,
			Variants: []product.ProductVariant{
				{Title: "M", Price: decimal.RequireFromString("55.00"), SKU: "ACME-HD-M", InventoryQuantity: 25, AvailableForSale: true},
				{Title: "L", Price: decimal.RequireFromString("55.00"), SKU: "ACME-HD-L", InventoryQuantity: 25, AvailableForSale: true},
			},
			Collections: []product.Collection{apparel},
		},
	}

	for i := range products {
		if err := m.db.Create(&products[i]).Error; err != nil {
			return fmt.Errorf("failed to seed product %s: %w", products[i].Handle, err)
		}
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}

// GetTableInfo logs row counts for the main tables
func (m *Migration) GetTableInfo() {
	tables := []string{"products", "product_variants", "collections", "carts", "cart_items", "orders", "order_items"}
	for _, table := range tables {
		var count int64
		if err := m.db.Table(table).Count(&count).Error; err != nil {
			log.Printf("Table %s: error counting rows: %v", table, err)
			continue
		}
		log.Printf("Table %s: %d rows", table, count)
	}
}
