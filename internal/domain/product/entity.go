// internal/domain/product/entity.go
package product

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents the product entity
type Product struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Handle           string         `gorm:"uniqueIndex;not null;size:255" json:"handle"`
	Title            string         `gorm:"not null;size:500" json:"title"`
	Description      string         `gorm:"type:text" json:"description"`
	DescriptionHTML  string         `gorm:"type:text" json:"description_html"`
	Vendor           string         `gorm:"size:255" json:"vendor"`
	ProductType      string         `gorm:"size:255" json:"product_type"`
	AvailableForSale bool           `gorm:"default:true" json:"available_for_sale"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Variants    []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"variants,omitempty"`
	Images      []ProductImage   `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"images,omitempty"`
	Collections []Collection     `gorm:"many2many:product_collections;" json:"collections,omitempty"`
}

// ProductVariant represents a sellable unit of a product (size, color, etc.)
type ProductVariant struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	ProductID         uint            `gorm:"not null;index" json:"product_id"`
	Title             string          `gorm:"not null;size:255" json:"title"`
	Price             decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	CompareAtPrice    decimal.Decimal `gorm:"type:decimal(10,2)" json:"compare_at_price"`
	SKU               string          `gorm:"uniqueIndex;size:255" json:"sku"`
	Barcode           string          `gorm:"size:255" json:"barcode"`
	InventoryQuantity int             `gorm:"default:0" json:"inventory_quantity"`
	Weight            decimal.Decimal `gorm:"type:decimal(8,2)" json:"weight"`
	WeightUnit        string          `gorm:"size:10;default:'kg'" json:"weight_unit"`
	AvailableForSale  bool            `gorm:"default:true" json:"available_for_sale"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relationships
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// ProductImage represents product images
type ProductImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	URL       string    `gorm:"not null;size:1000" json:"url"`
	AltText   string    `gorm:"size:500" json:"alt_text"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Position  int       `gorm:"default:0" json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// Collection represents a curated group of products
type Collection struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Handle      string         `gorm:"uniqueIndex;not null;size:255" json:"handle"`
	Title       string         `gorm:"not null;size:500" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	SortOrder   string         `gorm:"size:50;default:'manual'" json:"sort_order"`
	Published   bool           `gorm:"default:true" json:"published"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Products []Product `gorm:"many2many:product_collections;" json:"products,omitempty"`
}

// PriceRange represents the min/max variant price of a product
type PriceRange struct {
	MinPrice decimal.Decimal `json:"min_price"`
	MaxPrice decimal.Decimal `json:"max_price"`
}

// TableName overrides
func (Product) TableName() string        { return "products" }
func (ProductVariant) TableName() string { return "product_variants" }
func (ProductImage) TableName() string   { return "product_images" }
func (Collection) TableName() string     { return "collections" }

// Business methods for Product

// GetPriceRange returns the lowest and highest variant price
func (p *Product) GetPriceRange() PriceRange {
	if len(p.Variants) == 0 {
		return PriceRange{MinPrice: decimal.Zero, MaxPrice: decimal.Zero}
	}

	min := p.Variants[0].Price
	max := p.Variants[0].Price
	for _, v := range p.Variants[1:] {
		if v.Price.LessThan(min) {
			min = v.Price
		}
		if v.Price.GreaterThan(max) {
			max = v.Price
		}
	}

	return PriceRange{MinPrice: min, MaxPrice: max}
}

// FeaturedImage returns the lowest-position image, or nil if the product has none
func (p *Product) FeaturedImage() *ProductImage {
	if len(p.Images) == 0 {
		return nil
	}

	featured := &p.Images[0]
	for i := range p.Images[1:] {
		if p.Images[i+1].Position < featured.Position {
			featured = &p.Images[i+1]
		}
	}
	return featured
}

// Business methods for ProductVariant

// IsInStock checks if the variant has inventory available
func (v *ProductVariant) IsInStock() bool {
	return v.InventoryQuantity > 0
}

// CanFulfill checks if the variant can cover the requested quantity
func (v *ProductVariant) CanFulfill(quantity int) bool {
	return v.AvailableForSale && v.InventoryQuantity >= quantity
}

// Business methods for Collection

// Path returns the storefront path for the collection
func (c *Collection) Path() string {
	return "/search/" + c.Handle
}

// ProductCount returns the number of loaded products
func (c *Collection) ProductCount() int {
	return len(c.Products)
}
