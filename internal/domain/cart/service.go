// internal/domain/cart/service.go
package cart

import (
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/pkg/errors"
	"gorm.io/gorm"
)

// Service handles cart business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new cart service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateCartRequest represents cart creation data
type CreateCartRequest struct {
	UserID       *string `json:"user_id,omitempty"`
	CurrencyCode string  `json:"currency_code,omitempty"`
}

// AddCartItemRequest represents one line in an add-items request
type AddCartItemRequest struct {
	VariantID uint `json:"variant_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest represents a partial update to a cart line.
// Only present fields are applied; quantity zero or below removes the line.
type UpdateCartItemRequest struct {
	ID        uint  `json:"id" binding:"required"`
	Quantity  *int  `json:"quantity"`
	VariantID *uint `json:"variant_id"`
}

// CreateCart creates an empty cart with a fresh session id
func (s *Service) CreateCart(req *CreateCartRequest) (*Cart, error) {
	currency := req.CurrencyCode
	if currency == "" {
		currency = s.config.Checkout.DefaultCurrency
	}

	newCart := Cart{
		UserID:       req.UserID,
		SessionID:    uuid.NewString(),
		CurrencyCode: currency,
		Items:        []CartItem{},
	}

	if err := s.db.Create(&newCart).Error; err != nil {
		return nil, errors.Internal(err, "failed to create cart")
	}

	return &newCart, nil
}

// GetCart retrieves a cart with its items and their variants
func (s *Service) GetCart(cartID string) (*Cart, error) {
	return s.loadCart(s.db, cartID)
}

// GetCartBySession retrieves a cart by its session id
func (s *Service) GetCartBySession(sessionID string) (*Cart, error) {
	var c Cart
	result := s.db.
		Preload("Items.Variant.Product").
		Where("session_id = ?", sessionID).
		First(&c)

	if result.Error != nil {
		if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("cart for session '%s' not found", sessionID)
		}
		return nil, errors.Internal(result.Error, "failed to retrieve cart")
	}

	return &c, nil
}

// AddItems adds items to the cart, merging with existing lines for the
// same variant. Stock is validated against the merged quantity.
func (s *Service) AddItems(cartID string, items []AddCartItemRequest) (*Cart, error) {
	if len(items) == 0 {
		return nil, errors.Validation("no items to add")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.cartExists(tx, cartID); err != nil {
			return err
		}

		for _, item := range items {
			if item.Quantity < 1 {
				return errors.Validation("quantity must be at least 1 for variant %d", item.VariantID)
			}

			variant, err := s.loadVariant(tx, item.VariantID)
			if err != nil {
				return err
			}

			var existing CartItem
			result := tx.Where("cart_id = ? AND variant_id = ?", cartID, item.VariantID).First(&existing)
			if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
				if err := s.validateStock(variant, item.Quantity); err != nil {
					return err
				}
				newItem := CartItem{
					CartID:    cartID,
					VariantID: item.VariantID,
					Quantity:  item.Quantity,
				}
				if err := tx.Create(&newItem).Error; err != nil {
					return errors.Internal(err, "failed to add cart item")
				}
				continue
			}
			if result.Error != nil {
				return errors.Internal(result.Error, "failed to look up cart item")
			}

			// Existing line: validate against the merged quantity
			newQuantity := existing.Quantity + item.Quantity
			if err := s.validateStock(variant, newQuantity); err != nil {
				return err
			}
			if err := tx.Model(&existing).Update("quantity", newQuantity).Error; err != nil {
				return errors.Internal(err, "failed to update cart item")
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetCart(cartID)
}

// UpdateItems applies partial updates to cart lines
func (s *Service) UpdateItems(cartID string, items []UpdateCartItemRequest) (*Cart, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.cartExists(tx, cartID); err != nil {
			return err
		}

		for _, patch := range items {
			var item CartItem
			result := tx.Where("id = ? AND cart_id = ?", patch.ID, cartID).First(&item)
			if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
				return errors.NotFound("cart item %d not found", patch.ID)
			}
			if result.Error != nil {
				return errors.Internal(result.Error, "failed to look up cart item")
			}

			quantity := item.Quantity
			if patch.Quantity != nil {
				quantity = *patch.Quantity
			}

			if quantity <= 0 {
				if err := tx.Delete(&item).Error; err != nil {
					return errors.Internal(err, "failed to remove cart item")
				}
				continue
			}

			variantID := item.VariantID
			if patch.VariantID != nil {
				variantID = *patch.VariantID
			}

			variant, err := s.loadVariant(tx, variantID)
			if err != nil {
				return err
			}
			if err := s.validateStock(variant, quantity); err != nil {
				return err
			}

			updates := map[string]interface{}{
				"quantity":   quantity,
				"variant_id": variantID,
			}
			if err := tx.Model(&item).Updates(updates).Error; err != nil {
				return errors.Internal(err, "failed to update cart item")
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetCart(cartID)
}

// RemoveItems deletes the listed cart lines. Returns false when none of
// the ids belonged to the cart.
func (s *Service) RemoveItems(cartID string, itemIDs []uint) (bool, error) {
	if err := s.cartExists(s.db, cartID); err != nil {
		return false, err
	}

	result := s.db.Where("cart_id = ? AND id IN ?", cartID, itemIDs).Delete(&CartItem{})
	if result.Error != nil {
		return false, errors.Internal(result.Error, "failed to remove cart items")
	}

	return result.RowsAffected > 0, nil
}

// ClearCart removes all items from the cart. Clearing an already empty
// cart succeeds.
func (s *Service) ClearCart(cartID string) error {
	if err := s.cartExists(s.db, cartID); err != nil {
		return err
	}

	if err := s.db.Where("cart_id = ?", cartID).Delete(&CartItem{}).Error; err != nil {
		return errors.Internal(err, "failed to clear cart")
	}

	return nil
}

// DeleteCart removes the cart and all its items
func (s *Service) DeleteCart(cartID string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.cartExists(tx, cartID); err != nil {
			return err
		}

		if err := tx.Where("cart_id = ?", cartID).Delete(&CartItem{}).Error; err != nil {
			return errors.Internal(err, "failed to delete cart items")
		}
		if err := tx.Where("id = ?", cartID).Delete(&Cart{}).Error; err != nil {
			return errors.Internal(err, "failed to delete cart")
		}

		return nil
	})

	return err
}

// Private helper methods

func (s *Service) loadCart(tx *gorm.DB, cartID string) (*Cart, error) {
	var c Cart
	result := tx.
		Preload("Items.Variant.Product").
		Where("id = ?", cartID).
		First(&c)

	if result.Error != nil {
		if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("cart '%s' not found", cartID)
		}
		return nil, errors.Internal(result.Error, "failed to retrieve cart")
	}

	return &c, nil
}

func (s *Service) cartExists(tx *gorm.DB, cartID string) error {
	var count int64
	if err := tx.Model(&Cart{}).Where("id = ?", cartID).Count(&count).Error; err != nil {
		return errors.Internal(err, "failed to look up cart")
	}
	if count == 0 {
		return errors.NotFound("cart '%s' not found", cartID)
	}
	return nil
}

func (s *Service) loadVariant(tx *gorm.DB, variantID uint) (*product.ProductVariant, error) {
	var variant product.ProductVariant
	result := tx.Where("id = ?", variantID).First(&variant)
	if result.Error != nil {
		if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("product variant %d not found", variantID)
		}
		return nil, errors.Internal(result.Error, "failed to retrieve product variant")
	}

	return &variant, nil
}

func (s *Service) validateStock(variant *product.ProductVariant, quantity int) error {
	if !variant.AvailableForSale {
		return errors.Validation("product variant %d is not available for sale", variant.ID)
	}
	if variant.InventoryQuantity < quantity {
		return errors.Validation("insufficient inventory for variant %d. Available: %d, Requested: %d",
			variant.ID, variant.InventoryQuantity, quantity)
	}
	return nil
}
