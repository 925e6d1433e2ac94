// internal/domain/product/service.go
package product

import (
	stderrors "errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/errors"
	"gorm.io/gorm"
)

// Service handles catalog business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new catalog service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Page       int    `form:"page,default=1"`
	PerPage    int    `form:"per_page,default=20"`
	Query      string `form:"q"`
	Collection string `form:"collection"`
	SortBy     string `form:"sort_by,default=created_at"`
	SortOrder  string `form:"sort_order,default=desc"`
}

// ProductListResponse represents a paged product listing
type ProductListResponse struct {
	Products []Product `json:"products"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PerPage  int       `json:"per_page"`
	Pages    int       `json:"pages"`
}

// CreateVariantRequest represents a variant in a product create request
type CreateVariantRequest struct {
	Title             string `json:"title" binding:"required"`
	Price             string `json:"price" binding:"required"`
	CompareAtPrice    string `json:"compare_at_price"`
	SKU               string `json:"sku"`
	Barcode           string `json:"barcode"`
	InventoryQuantity int    `json:"inventory_quantity" binding:"min=0"`
	AvailableForSale  *bool  `json:"available_for_sale"`
}

// CreateProductRequest represents product creation data
type CreateProductRequest struct {
	Handle           string                 `json:"handle" binding:"required"`
	Title            string                 `json:"title" binding:"required"`
	Description      string                 `json:"description"`
	DescriptionHTML  string                 `json:"description_html"`
	Vendor           string                 `json:"vendor"`
	ProductType      string                 `json:"product_type"`
	AvailableForSale *bool                  `json:"available_for_sale"`
	Variants         []CreateVariantRequest `json:"variants"`
	Images           []ProductImage         `json:"images"`
	CollectionIDs    []uint                 `json:"collection_ids"`
}

// UpdateProductRequest represents a partial product update; only present
// fields are applied.
type UpdateProductRequest struct {
	Title            *string `json:"title"`
	Description      *string `json:"description"`
	DescriptionHTML  *string `json:"description_html"`
	Vendor           *string `json:"vendor"`
	ProductType      *string `json:"product_type"`
	AvailableForSale *bool   `json:"available_for_sale"`
}

// GetProducts retrieves products with filtering and pagination
func (s *Service) GetProducts(req *ProductListRequest) (*ProductListResponse, error) {
	var products []Product
	var total int64

	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 100 {
		req.PerPage = 20
	}

	query := s.db.Model(&Product{}).
		Preload("Variants").
		Preload("Images").
		Preload("Collections")

	if req.Query != "" {
		like := "%" + req.Query + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", like, like)
	}

	if req.Collection != "" {
		query = query.
			Joins("JOIN product_collections pc ON pc.product_id = products.id").
			Joins("JOIN collections c ON c.id = pc.collection_id").
			Where("c.handle = ?", req.Collection)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, errors.Internal(err, "failed to count products")
	}

	orderClause := buildOrderClause(req.SortBy, req.SortOrder)
	offset := (req.Page - 1) * req.PerPage
	if err := query.Order(orderClause).Offset(offset).Limit(req.PerPage).Find(&products).Error; err != nil {
		return nil, errors.Internal(err, "failed to retrieve products")
	}

	pages := int((total + int64(req.PerPage) - 1) / int64(req.PerPage))

	return &ProductListResponse{
		Products: products,
		Total:    total,
		Page:     req.Page,
		PerPage:  req.PerPage,
		Pages:    pages,
	}, nil
}

// GetProduct retrieves a single product by ID
func (s *Service) GetProduct(id uint) (*Product, error) {
	var prod Product
	result := s.db.
		Preload("Variants").
		Preload("Images").
		Preload("Collections").
		Where("id = ?", id).
		First(&prod)

	if result.Error != nil {
		if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("product %d not found", id)
		}
		return nil, errors.Internal(result.Error, "failed to retrieve product")
	}

	return &prod, nil
}

// GetProductByHandle retrieves a single product by its handle
func (s *Service) GetProductByHandle(handle string) (*Product, error) {
	var prod Product
	result := s.db.
		Preload("Variants").
		Preload("Images").
		Preload("Collections").
		Where("handle = ?", handle).
		First(&prod)

	if result.Error != nil {
		if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("product '%s' not found", handle)
		}
		return nil, errors.Internal(result.Error, "failed to retrieve product")
	}

	return &prod, nil
}

// GetVariant retrieves a single product variant by ID
func (s *Service) GetVariant(id uint) (*ProductVariant, error) {
	var variant ProductVariant
	result := s.db.Where("id = ?", id).First(&variant)
	if result.Error != nil {
		if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("product variant %d not found", id)
		}
		return nil, errors.Internal(result.Error, "failed to retrieve product variant")
	}

	return &variant, nil
}

// CreateProduct creates a product with its variants and images
func (s *Service) CreateProduct(req *CreateProductRequest) (*Product, error) {
	var existing Product
	if err := s.db.Where("handle = ?", req.Handle).First(&existing).Error; err == nil {
		return nil, errors.Conflict("product with handle '%s' already exists", req.Handle)
	}

	prod := Product{
		Handle:           req.Handle,
		Title:            req.Title,
		Description:      req.Description,
		DescriptionHTML:  req.DescriptionHTML,
		Vendor:           req.Vendor,
		ProductType:      req.ProductType,
		AvailableForSale: true,
	}
	if req.AvailableForSale != nil {
		prod.AvailableForSale = *req.AvailableForSale
	}

	variants, err := buildVariants(req.Variants)
	if err != nil {
		return nil, err
	}
	prod.Variants = variants
	prod.Images = req.Images

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&prod).Error; err != nil {
			if stderrors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.Conflict("product with handle '%s' already exists", req.Handle)
			}
			return errors.Internal(err, "failed to create product")
		}

		if len(req.CollectionIDs) > 0 {
			var collections []Collection
			if err := tx.Where("id IN ?", req.CollectionIDs).Find(&collections).Error; err != nil {
				return errors.Internal(err, "failed to load collections")
			}
			if len(collections) != len(req.CollectionIDs) {
				return errors.NotFound("one or more collections not found")
			}
			if err := tx.Model(&prod).Association("Collections").Append(&collections); err != nil {
				return errors.Internal(err, "failed to link collections")
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetProduct(prod.ID)
}

// UpdateProduct applies a partial update to a product
func (s *Service) UpdateProduct(id uint, req *UpdateProductRequest) (*Product, error) {
	if _, err := s.GetProduct(id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.DescriptionHTML != nil {
		updates["description_html"] = *req.DescriptionHTML
	}
	if req.Vendor != nil {
		updates["vendor"] = *req.Vendor
	}
	if req.ProductType != nil {
		updates["product_type"] = *req.ProductType
	}
	if req.AvailableForSale != nil {
		updates["available_for_sale"] = *req.AvailableForSale
	}

	if len(updates) > 0 {
		if err := s.db.Model(&Product{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, errors.Internal(err, "failed to update product")
		}
	}

	return s.GetProduct(id)
}

// DeleteProduct removes a product and its variants and images
func (s *Service) DeleteProduct(id uint) error {
	prod, err := s.GetProduct(id)
	if err != nil {
		return err
	}

	if err := s.db.Select("Variants", "Images").Delete(prod).Error; err != nil {
		return errors.Internal(err, "failed to delete product")
	}

	return nil
}

// GetCollections retrieves all published collections
func (s *Service) GetCollections() ([]Collection, error) {
	var collections []Collection
	if err := s.db.Where("published = ?", true).Order("sort_order, title").Find(&collections).Error; err != nil {
		return nil, errors.Internal(err, "failed to retrieve collections")
	}

	return collections, nil
}

// GetCollectionByHandle retrieves a collection and its products
func (s *Service) GetCollectionByHandle(handle string) (*Collection, error) {
	var collection Collection
	result := s.db.
		Preload("Products.Variants").
		Preload("Products.Images").
		Where("handle = ?", handle).
		First(&collection)

	if result.Error != nil {
		if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("collection '%s' not found", handle)
		}
		return nil, errors.Internal(result.Error, "failed to retrieve collection")
	}

	return &collection, nil
}

// CreateCollection creates a new collection
func (s *Service) CreateCollection(collection *Collection) (*Collection, error) {
	var existing Collection
	if err := s.db.Where("handle = ?", collection.Handle).First(&existing).Error; err == nil {
		return nil, errors.Conflict("collection with handle '%s' already exists", collection.Handle)
	}

	if err := s.db.Create(collection).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.Conflict("collection with handle '%s' already exists", collection.Handle)
		}
		return nil, errors.Internal(err, "failed to create collection")
	}

	return collection, nil
}

// SetVariantInventory sets a variant's absolute stock level (admin/seed helper)
func (s *Service) SetVariantInventory(variantID uint, quantity int) (*ProductVariant, error) {
	if quantity < 0 {
		return nil, errors.Validation("inventory quantity cannot be negative")
	}

	variant, err := s.GetVariant(variantID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(variant).UpdateColumn("inventory_quantity", quantity).Error; err != nil {
		return nil, errors.Internal(err, "failed to update inventory")
	}
	variant.InventoryQuantity = quantity

	return variant, nil
}

// Private helper methods

func buildVariants(reqs []CreateVariantRequest) ([]ProductVariant, error) {
	variants := make([]ProductVariant, 0, len(reqs))
	for _, vr := range reqs {
		price, err := parsePrice(vr.Price)
		if err != nil {
			return nil, errors.Validation("invalid price '%s' for variant '%s'", vr.Price, vr.Title)
		}

		variant := ProductVariant{
			Title:             vr.Title,
			Price:             price,
			SKU:               vr.SKU,
			Barcode:           vr.Barcode,
			InventoryQuantity: vr.InventoryQuantity,
			AvailableForSale:  true,
		}
		if vr.CompareAtPrice != "" {
			compareAt, err := parsePrice(vr.CompareAtPrice)
			if err != nil {
				return nil, errors.Validation("invalid compare_at_price '%s' for variant '%s'", vr.CompareAtPrice, vr.Title)
			}
			variant.CompareAtPrice = compareAt
		}
		if vr.AvailableForSale != nil {
			variant.AvailableForSale = *vr.AvailableForSale
		}

		variants = append(variants, variant)
	}
	return variants, nil
}

func parsePrice(value string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("price cannot be negative")
	}
	return price.Round(2), nil
}

func buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"title":      true,
		"handle":     true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return sortBy + " " + sortOrder
}
