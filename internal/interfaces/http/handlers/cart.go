// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	cartService *cart.Service
	config      *config.Config
}

// NewCartHandler creates a new cart handler
func NewCartHandler(db *gorm.DB, cfg *config.Config) *CartHandler {
	return &CartHandler{
		cartService: cart.NewService(db, cfg),
		config:      cfg,
	}
}

// CreateCart handles POST /carts
func (h *CartHandler) CreateCart(c *gin.Context) {
	var req cart.CreateCartRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	// Attach the caller's identity when authenticated
	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		req.UserID = &userID
	}

	newCart, err := h.cartService.CreateCart(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Cart created successfully",
		"data":    newCart,
	})
}

// GetCart handles GET /carts/:id
func (h *CartHandler) GetCart(c *gin.Context) {
	foundCart, err := h.cartService.GetCart(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    foundCart,
	})
}

// GetCartBySession handles GET /carts/session/:session_id
func (h *CartHandler) GetCartBySession(c *gin.Context) {
	foundCart, err := h.cartService.GetCartBySession(c.Param("session_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    foundCart,
	})
}

// AddItems handles POST /carts/:id/items
func (h *CartHandler) AddItems(c *gin.Context) {
	var req struct {
		Items []cart.AddCartItemRequest `json:"items" binding:"required,min=1,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	updatedCart, err := h.cartService.AddItems(c.Param("id"), req.Items)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Items added successfully",
		"data":    updatedCart,
	})
}

// UpdateItems handles PUT /carts/:id/items
func (h *CartHandler) UpdateItems(c *gin.Context) {
	var req struct {
		Items []cart.UpdateCartItemRequest `json:"items" binding:"required,min=1,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	updatedCart, err := h.cartService.UpdateItems(c.Param("id"), req.Items)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Items updated successfully",
		"data":    updatedCart,
	})
}

// RemoveItems handles DELETE /carts/:id/items
func (h *CartHandler) RemoveItems(c *gin.Context) {
	var req struct {
		ItemIDs []uint `json:"item_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	removed, err := h.cartService.RemoveItems(c.Param("id"), req.ItemIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "No matching cart items found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Items removed successfully",
	})
}

// ClearCart handles DELETE /carts/:id/items/all
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.cartService.ClearCart(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
	})
}

// DeleteCart handles DELETE /carts/:id
func (h *CartHandler) DeleteCart(c *gin.Context) {
	if err := h.cartService.DeleteCart(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart deleted successfully",
	})
}
